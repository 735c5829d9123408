package middleware

import (
	"net/http"

	"github.com/dimitrije/dashboard-api/internal/rbac"
	"github.com/m1z23r/drift/pkg/drift"
)

// AdminPage guards admin-only pages. Run it after LoadIdentity. Anonymous
// callers are sent to signInPath and signed-in non-admins to fallbackPath.
// The role is re-resolved on every request.
func AdminPage(guard *rbac.Guard, signInPath, fallbackPath string) drift.HandlerFunc {
	return func(c *drift.Context) {
		identity := GetIdentity(c)
		if identity == nil {
			http.Redirect(c.Response, c.Request, signInPath, http.StatusSeeOther)
			c.Abort()
			return
		}

		if err := guard.RequireAdmin(c.Request.Context(), identity); err != nil {
			http.Redirect(c.Response, c.Request, fallbackPath, http.StatusSeeOther)
			c.Abort()
			return
		}

		c.Set(AdminKey, true)
		c.Next()
	}
}

const AdminKey = "is_admin"

// IsAdmin reports whether AdminPage admitted the request.
func IsAdmin(c *drift.Context) bool {
	v, ok := c.Get(AdminKey)
	admin, _ := v.(bool)
	return ok && admin
}
