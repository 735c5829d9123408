package handlers

import (
	"fmt"
	"html"
	"strings"

	"github.com/dimitrije/dashboard-api/internal/middleware"
	"github.com/dimitrije/dashboard-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type AdminHandler struct {
	admin AdminServiceInterface
	log   *zap.SugaredLogger
}

func NewAdminHandler(admin AdminServiceInterface, log *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{admin: admin, log: log}
}

// ListUsers returns [] for callers who are not admins.
func (h *AdminHandler) ListUsers(c *drift.Context) {
	users, err := h.admin.GetAllUsers(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		h.log.Errorw("user listing failed", "error", err)
		c.InternalServerError("failed to list users")
		return
	}

	_ = c.JSON(200, users)
}

func (h *AdminHandler) UpdateRole(c *drift.Context) {
	var req dto.UpdateRoleRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	res := h.admin.UpdateUserRole(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"), req.Role)
	_ = c.JSON(200, res)
}

// Page renders the admin view. Routes mount it behind middleware.AdminPage.
func (h *AdminHandler) Page(c *drift.Context) {
	identity := middleware.GetIdentity(c)

	users, err := h.admin.GetAllUsers(c.Request.Context(), identity)
	if err != nil {
		h.log.Errorw("admin page listing failed", "error", err)
		c.InternalServerError("failed to list users")
		return
	}

	var rows strings.Builder
	for _, u := range users {
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			html.EscapeString(u.Name), html.EscapeString(u.Email),
			html.EscapeString(u.Role), u.CreatedAt.Format("2006-01-02"))
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Admin</title>
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; background: #f9fafb; color: #374151; margin: 0; padding: 40px 20px; }
        table { border-collapse: collapse; background: #fff; width: 100%%; }
        th, td { border: 1px solid #e5e7eb; padding: 8px 12px; text-align: left; font-size: 14px; }
    </style>
</head>
<body>
    <h1>Users</h1>
    <p>Signed in as %s</p>
    <table>
        <tr><th>Name</th><th>Email</th><th>Role</th><th>Joined</th></tr>
%s    </table>
</body>
</html>`, html.EscapeString(identity.Email), rows.String())

	_ = c.HTML(200, page)
}
