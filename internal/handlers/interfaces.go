package handlers

import (
	"context"
	"io"
	"time"

	"github.com/dimitrije/dashboard-api/internal/models"
	"github.com/dimitrije/dashboard-api/internal/oauth"
	"github.com/dimitrije/dashboard-api/internal/services"
	"github.com/dimitrije/dashboard-api/internal/sse"
	"github.com/dimitrije/dashboard-api/pkg/dto"
	"github.com/google/uuid"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email string) (*services.TokenPair, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// ProvisionerInterface is rbac.Provisioner
type ProvisionerInterface interface {
	EnsureProfile(ctx context.Context, identity *models.User) error
}

// AccountServiceInterface defines the self-service actions of AccountService
type AccountServiceInterface interface {
	SignIn(ctx context.Context, email, password string) dto.AuthResult
	SignUp(ctx context.Context, email, password, displayName string) dto.AuthResult
	SignOut(ctx context.Context, refreshToken string) dto.ActionResult
	RequestPasswordReset(ctx context.Context, email string) dto.ActionResult
	ConfirmPasswordReset(ctx context.Context, token, password, confirm string) dto.ActionResult
	UpdatePassword(ctx context.Context, caller *models.User, password, confirm string) dto.ActionResult
	UpdateProfile(ctx context.Context, caller *models.User, displayName string) dto.ActionResult
	UploadAvatar(ctx context.Context, caller *models.User, filename, contentType string, r io.Reader, size int64) dto.AvatarResult
	GetUser(ctx context.Context, caller *models.User) *dto.UserResponse
	GetUserRole(ctx context.Context, caller *models.User) dto.RoleResponse
}

// AdminServiceInterface defines the methods used by handlers from AdminService
type AdminServiceInterface interface {
	GetAllUsers(ctx context.Context, caller *models.User) ([]dto.UserSummary, error)
	UpdateUserRole(ctx context.Context, caller *models.User, targetUserID, newRole string) dto.ActionResult
}

// AdminCheckerInterface is rbac.Guard
type AdminCheckerInterface interface {
	IsAdmin(ctx context.Context, identity *models.User) bool
}

// SSEHubInterface defines the methods used by handlers from the SSE hub
type SSEHubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
}
