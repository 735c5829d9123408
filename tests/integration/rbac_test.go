package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/dimitrije/dashboard-api/internal/models"
	"github.com/dimitrije/dashboard-api/internal/rbac"
	"github.com/dimitrije/dashboard-api/internal/services"
	"github.com/dimitrije/dashboard-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRBAC_Integration_ConcurrentProvisioningCreatesOneMemberProfile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	provisioner := rbac.NewProvisioner(services.NewProfileService(tdb.DB))
	ctx := context.Background()

	user := fixtures.CreateUser(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- provisioner.EnsureProfile(ctx, user)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fixtures.CountProfiles(t, user.ID))

	role, err := services.NewProfileService(tdb.DB).GetRole(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, role)
}

func TestRBAC_Integration_ProvisioningKeepsExistingRole(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	profiles := services.NewProfileService(tdb.DB)
	provisioner := rbac.NewProvisioner(profiles)
	ctx := context.Background()

	admin := fixtures.CreateUser(t)
	fixtures.CreateProfile(t, admin, models.RoleAdmin)

	require.NoError(t, provisioner.EnsureProfile(ctx, admin))

	role, err := profiles.GetRole(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)
}

func TestRBAC_Integration_RoleRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	profiles := services.NewProfileService(tdb.DB)
	guard := rbac.NewGuard(rbac.NewResolver(profiles, zap.NewNop().Sugar()))
	mutator := rbac.NewMutator(guard, profiles)
	ctx := context.Background()

	admin := fixtures.CreateUser(t)
	fixtures.CreateProfile(t, admin, models.RoleAdmin)
	target := fixtures.CreateUser(t)
	fixtures.CreateProfile(t, target, models.RoleMember)

	assert.False(t, guard.IsAdmin(ctx, target))

	_, err := mutator.SetRole(ctx, admin, target.ID.String(), "admin")
	require.NoError(t, err)
	assert.True(t, guard.IsAdmin(ctx, target))
	assert.Equal(t, 1, fixtures.CountProfiles(t, target.ID))

	// The promoted admin can demote the one who promoted them; the next
	// check sees it.
	_, err = mutator.SetRole(ctx, target, admin.ID.String(), "member")
	require.NoError(t, err)
	assert.False(t, guard.IsAdmin(ctx, admin))

	_, err = mutator.SetRole(ctx, admin, target.ID.String(), "member")
	assert.ErrorIs(t, err, rbac.ErrNotAuthorized)
}

func TestRBAC_Integration_SetRoleCreatesMissingProfile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	profiles := services.NewProfileService(tdb.DB)
	mutator := rbac.NewMutator(rbac.NewGuard(rbac.NewResolver(profiles, zap.NewNop().Sugar())), profiles)
	ctx := context.Background()

	admin := fixtures.CreateUser(t)
	fixtures.CreateProfile(t, admin, models.RoleAdmin)
	stranger := fixtures.CreateUser(t)
	require.Equal(t, 0, fixtures.CountProfiles(t, stranger.ID))

	profile, err := mutator.SetRole(ctx, admin, stranger.ID.String(), "admin")
	require.NoError(t, err)
	assert.Equal(t, stranger.ID, profile.UserID)
	assert.Equal(t, models.RoleAdmin, profile.Role)

	list, err := profiles.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
