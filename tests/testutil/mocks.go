package testutil

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
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockTokenService mocks the TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockTokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockJWTService mocks the JWTService
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) GenerateTokenPair(userID uuid.UUID, email string) (*services.TokenPair, error) {
	args := m.Called(userID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenPair), args.Error(1)
}

func (m *MockJWTService) ValidateRefreshToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockJWTService) RefreshExpiry() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

// MockProvisioner mocks rbac.Provisioner
type MockProvisioner struct {
	mock.Mock
}

func (m *MockProvisioner) EnsureProfile(ctx context.Context, identity *models.User) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

// MockAccountService mocks the AccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) SignIn(ctx context.Context, email, password string) dto.AuthResult {
	args := m.Called(ctx, email, password)
	return args.Get(0).(dto.AuthResult)
}

func (m *MockAccountService) SignUp(ctx context.Context, email, password, displayName string) dto.AuthResult {
	args := m.Called(ctx, email, password, displayName)
	return args.Get(0).(dto.AuthResult)
}

func (m *MockAccountService) SignOut(ctx context.Context, refreshToken string) dto.ActionResult {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(dto.ActionResult)
}

func (m *MockAccountService) RequestPasswordReset(ctx context.Context, email string) dto.ActionResult {
	args := m.Called(ctx, email)
	return args.Get(0).(dto.ActionResult)
}

func (m *MockAccountService) ConfirmPasswordReset(ctx context.Context, token, password, confirm string) dto.ActionResult {
	args := m.Called(ctx, token, password, confirm)
	return args.Get(0).(dto.ActionResult)
}

func (m *MockAccountService) UpdatePassword(ctx context.Context, caller *models.User, password, confirm string) dto.ActionResult {
	args := m.Called(ctx, caller, password, confirm)
	return args.Get(0).(dto.ActionResult)
}

func (m *MockAccountService) UpdateProfile(ctx context.Context, caller *models.User, displayName string) dto.ActionResult {
	args := m.Called(ctx, caller, displayName)
	return args.Get(0).(dto.ActionResult)
}

func (m *MockAccountService) UploadAvatar(ctx context.Context, caller *models.User, filename, contentType string, r io.Reader, size int64) dto.AvatarResult {
	args := m.Called(ctx, caller, filename, contentType, r, size)
	return args.Get(0).(dto.AvatarResult)
}

func (m *MockAccountService) GetUser(ctx context.Context, caller *models.User) *dto.UserResponse {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*dto.UserResponse)
}

func (m *MockAccountService) GetUserRole(ctx context.Context, caller *models.User) dto.RoleResponse {
	args := m.Called(ctx, caller)
	return args.Get(0).(dto.RoleResponse)
}

// CurrentIdentity lets the mock stand in for middleware.IdentityLoader.
func (m *MockAccountService) CurrentIdentity(ctx context.Context, userID uuid.UUID) *models.User {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.User)
}

// MockAdminService mocks the AdminService
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) GetAllUsers(ctx context.Context, caller *models.User) ([]dto.UserSummary, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.UserSummary), args.Error(1)
}

func (m *MockAdminService) UpdateUserRole(ctx context.Context, caller *models.User, targetUserID, newRole string) dto.ActionResult {
	args := m.Called(ctx, caller, targetUserID, newRole)
	return args.Get(0).(dto.ActionResult)
}

// MockAdminChecker mocks rbac.Guard
type MockAdminChecker struct {
	mock.Mock
}

func (m *MockAdminChecker) IsAdmin(ctx context.Context, identity *models.User) bool {
	args := m.Called(ctx, identity)
	return args.Bool(0)
}

// MockSSEHub mocks the SSE hub
type MockSSEHub struct {
	mock.Mock
}

func (m *MockSSEHub) Register(client *sse.Client) {
	m.Called(client)
}

func (m *MockSSEHub) Unregister(client *sse.Client) {
	m.Called(client)
}

// MockOAuthProvider mocks an OAuth provider
type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) GetConsentURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*oauth.UserInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.UserInfo), args.Error(1)
}

func (m *MockOAuthProvider) Name() string {
	args := m.Called()
	return args.String(0)
}
