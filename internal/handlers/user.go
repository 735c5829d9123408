package handlers

import (
	"github.com/dimitrije/dashboard-api/internal/middleware"
	"github.com/dimitrije/dashboard-api/internal/services"
	"github.com/dimitrije/dashboard-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

// avatarField is the multipart form field carrying the image.
const avatarField = "avatar"

type UserHandler struct {
	accounts AccountServiceInterface
}

func NewUserHandler(accounts AccountServiceInterface) *UserHandler {
	return &UserHandler{accounts: accounts}
}

func (h *UserHandler) GetMe(c *drift.Context) {
	user := h.accounts.GetUser(c.Request.Context(), middleware.GetIdentity(c))
	if user == nil {
		c.Unauthorized("not authenticated")
		return
	}

	_ = c.JSON(200, user)
}

// GetRole answers {"role": null} for anonymous callers instead of 401.
func (h *UserHandler) GetRole(c *drift.Context) {
	_ = c.JSON(200, h.accounts.GetUserRole(c.Request.Context(), middleware.GetIdentity(c)))
}

func (h *UserHandler) UpdateProfile(c *drift.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	_ = c.JSON(200, h.accounts.UpdateProfile(c.Request.Context(), identity, req.DisplayName))
}

func (h *UserHandler) UpdatePassword(c *drift.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.UpdatePasswordRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	_ = c.JSON(200, h.accounts.UpdatePassword(c.Request.Context(), identity, req.Password, req.ConfirmPassword))
}

func (h *UserHandler) UploadAvatar(c *drift.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := c.Request.ParseMultipartForm(services.MaxAvatarSize + 1<<20); err != nil {
		c.BadRequest("invalid multipart body")
		return
	}
	defer func() { _ = c.Request.MultipartForm.RemoveAll() }()

	file, header, err := c.Request.FormFile(avatarField)
	if err != nil {
		c.BadRequest("avatar file is required")
		return
	}
	defer file.Close()

	res := h.accounts.UploadAvatar(c.Request.Context(), identity,
		header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	_ = c.JSON(200, res)
}
