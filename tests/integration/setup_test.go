// Package integration runs the services and rbac packages against a real
// PostgreSQL started with testcontainers. Run with -short to skip.
package integration

import (
	"testing"

	"github.com/dimitrije/dashboard-api/tests/testutil"
)

// setupTest returns the shared database with every table emptied.
func setupTest(t *testing.T) *testutil.TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	return testutil.SetupTestDB(t)
}
