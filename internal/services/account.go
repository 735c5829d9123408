package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dimitrije/dashboard-api/internal/models"
	"github.com/dimitrije/dashboard-api/internal/oauth"
	"github.com/dimitrije/dashboard-api/internal/rbac"
	"github.com/dimitrije/dashboard-api/internal/storage"
	"github.com/dimitrije/dashboard-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	MsgInvalidCredentials = "Invalid login credentials"
	MsgSignedIn           = "Signed in."
	MsgUserExists         = "User already exists. Please sign in instead."
	MsgAccountCreated     = "Account created."
	MsgSignedOut          = "Signed out."
	MsgEmailRequired      = "Email is required"
	MsgResetSent          = "Check your email for the reset link."
	MsgResetInvalid       = "Reset link is invalid or has expired."
	MsgPasswordRequired   = "Password is required"
	MsgPasswordTooShort   = "Password must be at least 8 characters."
	MsgPasswordMismatch   = "Passwords do not match."
	MsgPasswordUpdated    = "Password updated. You can close this tab or continue."
	MsgDisplayNameMissing = "Display name is required."
	MsgProfileUpdated     = "Profile updated."
	MsgAvatarUploaded     = "Avatar uploaded."
	MsgAvatarNoURL        = "Unable to get a public URL for the avatar."
	MsgAvatarNotImage     = "Avatar must be an image."
	MsgAvatarTooLarge     = "Avatar must be 5 MB or smaller."
)

// MaxAvatarSize bounds avatar uploads.
const MaxAvatarSize = 5 << 20

// IdentityProvider is the user directory.
type IdentityProvider interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	AuthenticateWithPassword(ctx context.Context, email, password string) (*models.User, error)
	CreateWithPassword(ctx context.Context, email, passwordHash string, displayName *string) (*models.User, error)
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	UpdateAttributes(ctx context.Context, id uuid.UUID, patch models.MetadataPatch) (*models.User, error)
	SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	List(ctx context.Context, limit int) ([]models.User, error)
}

type TokenStore interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
	CreatePasswordReset(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error)
	ConsumePasswordReset(ctx context.Context, token string) (uuid.UUID, error)
}

// RefreshTokenStore is the part of TokenStore IssueTokens needs.
type RefreshTokenStore interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
}

type TokenIssuer interface {
	GenerateTokenPair(userID uuid.UUID, email string) (*TokenPair, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

type Mailer interface {
	SendPasswordReset(to, resetURL string) error
}

// EventPublisher pushes live refresh hints to connected dashboards.
type EventPublisher interface {
	PublishRoleChange(userID uuid.UUID, role string)
	PublishUsersChanged()
	PublishProfileChange(userID uuid.UUID)
}

type AccountConfig struct {
	PasswordResetURL    string
	PasswordResetExpiry time.Duration
}

// AccountService implements the self-service account actions. Every action
// returns a dto.ActionResult instead of an error so the message can be shown
// inline.
type AccountService struct {
	cfg         AccountConfig
	users       IdentityProvider
	tokens      TokenStore
	issuer      TokenIssuer
	mailer      Mailer
	files       storage.Storage
	events      EventPublisher
	provisioner *rbac.Provisioner
	resolver    *rbac.Resolver
	log         *zap.SugaredLogger
}

type AccountDeps struct {
	Users       IdentityProvider
	Tokens      TokenStore
	Issuer      TokenIssuer
	Mailer      Mailer
	Files       storage.Storage
	Events      EventPublisher
	Provisioner *rbac.Provisioner
	Resolver    *rbac.Resolver
	Log         *zap.SugaredLogger
}

func NewAccountService(cfg AccountConfig, deps AccountDeps) *AccountService {
	log := deps.Log
	if log == nil {
		log = zap.S()
	}
	return &AccountService{
		cfg:         cfg,
		users:       deps.Users,
		tokens:      deps.Tokens,
		issuer:      deps.Issuer,
		mailer:      deps.Mailer,
		files:       deps.Files,
		events:      deps.Events,
		provisioner: deps.Provisioner,
		resolver:    deps.Resolver,
		log:         log,
	}
}

// IssueTokens signs a token pair and stores the refresh token hash.
func IssueTokens(ctx context.Context, issuer TokenIssuer, tokens RefreshTokenStore, user *models.User) (*dto.TokenResponse, error) {
	pair, err := issuer.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	expiresAt := time.Now().Add(issuer.RefreshExpiry())
	if err := tokens.StoreRefreshToken(ctx, user.ID, HashToken(pair.RefreshToken), expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// CurrentIdentity loads the caller's identity. It returns nil for "no
// session", including ids that no longer exist.
func (s *AccountService) CurrentIdentity(ctx context.Context, userID uuid.UUID) *models.User {
	if userID == uuid.Nil {
		return nil
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.log.Warnw("identity lookup failed", "user_id", userID, "error", err)
		}
		return nil
	}
	return user
}

func (s *AccountService) SignIn(ctx context.Context, email, password string) dto.AuthResult {
	user, err := s.users.AuthenticateWithPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return dto.AuthResult{ActionResult: dto.Failure(MsgInvalidCredentials)}
		}
		s.log.Errorw("password sign-in failed", "error", err)
		return dto.AuthResult{ActionResult: dto.Failure(err.Error())}
	}

	return s.startSession(ctx, user, MsgSignedIn)
}

func (s *AccountService) SignUp(ctx context.Context, email, password, displayName string) dto.AuthResult {
	email = strings.TrimSpace(email)
	if email == "" {
		return dto.AuthResult{ActionResult: dto.Failure(MsgEmailRequired)}
	}
	if password == "" {
		return dto.AuthResult{ActionResult: dto.Failure(MsgPasswordRequired)}
	}

	hash, err := HashPassword(password)
	if errors.Is(err, ErrPasswordTooShort) {
		return dto.AuthResult{ActionResult: dto.Failure(MsgPasswordTooShort)}
	}
	if err != nil {
		return dto.AuthResult{ActionResult: dto.Failure(err.Error())}
	}

	var name *string
	if displayName = strings.TrimSpace(displayName); displayName != "" {
		name = &displayName
	}

	user, err := s.users.CreateWithPassword(ctx, email, hash, name)
	if errors.Is(err, ErrEmailTaken) {
		return dto.AuthResult{ActionResult: dto.Failure(MsgUserExists)}
	}
	if err != nil {
		s.log.Errorw("sign-up failed", "error", err)
		return dto.AuthResult{ActionResult: dto.Failure(err.Error())}
	}

	if s.events != nil {
		s.events.PublishUsersChanged()
	}
	return s.startSession(ctx, user, MsgAccountCreated)
}

// startSession provisions the profile and issues tokens. A provisioning
// failure is reported but the identity stays.
func (s *AccountService) startSession(ctx context.Context, user *models.User, msg string) dto.AuthResult {
	if err := s.provisioner.EnsureProfile(ctx, user); err != nil {
		s.log.Errorw("profile provisioning failed", "user_id", user.ID, "error", err)
		return dto.AuthResult{ActionResult: dto.Failure(err.Error())}
	}

	tokens, err := IssueTokens(ctx, s.issuer, s.tokens, user)
	if err != nil {
		s.log.Errorw("token issue failed", "user_id", user.ID, "error", err)
		return dto.AuthResult{ActionResult: dto.Failure(err.Error())}
	}

	return dto.AuthResult{ActionResult: dto.Success(msg), Tokens: tokens}
}

func (s *AccountService) SignOut(ctx context.Context, refreshToken string) dto.ActionResult {
	if refreshToken != "" {
		if err := s.tokens.RevokeRefreshToken(ctx, HashToken(refreshToken)); err != nil {
			s.log.Warnw("refresh token revocation failed", "error", err)
		}
	}
	return dto.Success(MsgSignedOut)
}

// RequestPasswordReset answers the same way whether or not the email is
// registered.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) dto.ActionResult {
	email = strings.TrimSpace(email)
	if email == "" {
		return dto.Failure(MsgEmailRequired)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return dto.Success(MsgResetSent)
	}
	if err != nil {
		s.log.Errorw("reset lookup failed", "error", err)
		return dto.Failure(err.Error())
	}

	token, err := s.tokens.CreatePasswordReset(ctx, user.ID, s.cfg.PasswordResetExpiry)
	if err != nil {
		s.log.Errorw("reset token creation failed", "user_id", user.ID, "error", err)
		return dto.Failure(err.Error())
	}

	link := s.cfg.PasswordResetURL + "?token=" + url.QueryEscape(token)
	if err := s.mailer.SendPasswordReset(user.Email, link); err != nil {
		s.log.Errorw("reset email failed", "user_id", user.ID, "error", err)
		return dto.Failure(err.Error())
	}

	return dto.Success(MsgResetSent)
}

func validateNewPassword(password, confirm string) (string, bool) {
	password = strings.TrimSpace(password)
	confirm = strings.TrimSpace(confirm)

	switch {
	case password == "":
		return MsgPasswordRequired, false
	case len(password) < MinPasswordLength:
		return MsgPasswordTooShort, false
	case password != confirm:
		return MsgPasswordMismatch, false
	}
	return password, true
}

func (s *AccountService) ConfirmPasswordReset(ctx context.Context, token, password, confirm string) dto.ActionResult {
	password, ok := validateNewPassword(password, confirm)
	if !ok {
		return dto.Failure(password)
	}
	if token == "" {
		return dto.Failure(MsgResetInvalid)
	}

	userID, err := s.tokens.ConsumePasswordReset(ctx, token)
	if errors.Is(err, ErrResetTokenInvalid) {
		return dto.Failure(MsgResetInvalid)
	}
	if err != nil {
		s.log.Errorw("reset token lookup failed", "error", err)
		return dto.Failure(err.Error())
	}

	if res := s.setPassword(ctx, userID, password); !res.OK() {
		return res
	}

	// a reset ends every other session
	if err := s.tokens.RevokeAllUserTokens(ctx, userID); err != nil {
		s.log.Warnw("revoking sessions after reset failed", "user_id", userID, "error", err)
	}
	return dto.Success(MsgPasswordUpdated)
}

func (s *AccountService) UpdatePassword(ctx context.Context, caller *models.User, password, confirm string) dto.ActionResult {
	if caller == nil {
		return dto.Failure(rbac.ErrInvalidIdentity.Error())
	}
	password, ok := validateNewPassword(password, confirm)
	if !ok {
		return dto.Failure(password)
	}
	return s.setPassword(ctx, caller.ID, password)
}

func (s *AccountService) setPassword(ctx context.Context, userID uuid.UUID, password string) dto.ActionResult {
	hash, err := HashPassword(password)
	if err != nil {
		return dto.Failure(err.Error())
	}
	if err := s.users.SetPassword(ctx, userID, hash); err != nil {
		s.log.Errorw("password update failed", "user_id", userID, "error", err)
		return dto.Failure(err.Error())
	}
	return dto.Success(MsgPasswordUpdated)
}

func (s *AccountService) UpdateProfile(ctx context.Context, caller *models.User, displayName string) dto.ActionResult {
	if caller == nil {
		return dto.Failure(rbac.ErrInvalidIdentity.Error())
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return dto.Failure(MsgDisplayNameMissing)
	}

	if _, err := s.users.UpdateAttributes(ctx, caller.ID, models.MetadataPatch{DisplayName: &displayName}); err != nil {
		s.log.Errorw("profile update failed", "user_id", caller.ID, "error", err)
		return dto.Failure(err.Error())
	}

	s.publishProfileChange(caller.ID)
	return dto.Success(MsgProfileUpdated)
}

// avatarTypes maps the sniffed content types accepted as avatars to the
// extension of the stored object.
const avatarPrefix = "avatars/"

var avatarTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// AvatarKey is the object key of a new avatar:
// avatars/<user-key>-<unix-ms>.<ext>.
func AvatarKey(user *models.User, ext string, now time.Time) string {
	return fmt.Sprintf(avatarPrefix+"%s-%d.%s", avatarUserKey(user), now.UnixMilli(), ext)
}

func avatarUserKey(user *models.User) string {
	if user.ID != uuid.Nil {
		return user.ID.String()
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(user.Email) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
		} else if !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}

func (s *AccountService) UploadAvatar(ctx context.Context, caller *models.User, filename, contentType string, r io.Reader, size int64) dto.AvatarResult {
	fail := func(msg string) dto.AvatarResult {
		return dto.AvatarResult{ActionResult: dto.Failure(msg)}
	}

	if caller == nil {
		return fail(rbac.ErrInvalidIdentity.Error())
	}
	if size > MaxAvatarSize {
		return fail(MsgAvatarTooLarge)
	}
	// The declared type and filename are client input; only the content
	// decides what is stored and how it is served.
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return fail(MsgAvatarNotImage)
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fail(err.Error())
	}
	head = head[:n]
	detected := http.DetectContentType(head)
	ext, ok := avatarTypes[detected]
	if !ok {
		s.log.Infow("avatar rejected", "user_id", caller.ID, "filename", filename, "detected", detected)
		return fail(MsgAvatarNotImage)
	}

	key := AvatarKey(caller, ext, time.Now())
	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), r), MaxAvatarSize)
	if err := s.files.Upload(ctx, key, body, size, detected); err != nil {
		s.log.Errorw("avatar upload failed", "user_id", caller.ID, "key", key, "error", err)
		return fail(err.Error())
	}

	publicURL, err := s.files.PublicURL(key)
	if err != nil || publicURL == "" {
		return fail(MsgAvatarNoURL)
	}

	previous := caller.Metadata.AvatarURL
	if _, err := s.users.UpdateAttributes(ctx, caller.ID, models.MetadataPatch{AvatarURL: &publicURL}); err != nil {
		s.log.Errorw("avatar url update failed", "user_id", caller.ID, "error", err)
		return fail(err.Error())
	}

	s.removeAvatar(ctx, previous, key)
	s.publishProfileChange(caller.ID)
	return dto.AvatarResult{ActionResult: dto.Success(MsgAvatarUploaded), AvatarURL: publicURL}
}

// removeAvatar deletes the object behind a replaced avatar URL. URLs that do
// not point into this storage's avatars/ prefix, such as provider pictures,
// are left alone.
func (s *AccountService) removeAvatar(ctx context.Context, oldURL *string, newKey string) {
	if oldURL == nil || *oldURL == "" {
		return
	}
	prefix, err := s.files.PublicURL(avatarPrefix)
	if err != nil || !strings.HasPrefix(*oldURL, prefix) {
		return
	}
	oldKey := avatarPrefix + strings.TrimPrefix(*oldURL, prefix)
	if oldKey == newKey {
		return
	}
	if err := s.files.Delete(ctx, oldKey); err != nil {
		s.log.Warnw("failed to delete replaced avatar", "key", oldKey, "error", err)
	}
}

func (s *AccountService) publishProfileChange(userID uuid.UUID) {
	if s.events == nil {
		return
	}
	s.events.PublishProfileChange(userID)
	s.events.PublishUsersChanged()
}

// GetUserRole returns a null role when there is no session or no profile.
func (s *AccountService) GetUserRole(ctx context.Context, caller *models.User) dto.RoleResponse {
	role, ok := s.resolver.Resolve(ctx, caller)
	if !ok {
		return dto.RoleResponse{}
	}
	r := role.String()
	return dto.RoleResponse{Role: &r}
}

func (s *AccountService) GetUser(ctx context.Context, caller *models.User) *dto.UserResponse {
	if caller == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        caller.ID,
		Email:     caller.Email,
		Name:      caller.DisplayName(),
		AvatarURL: caller.Avatar(),
		Provider:  caller.Provider,
		Role:      s.GetUserRole(ctx, caller).Role,
		CreatedAt: caller.CreatedAt,
	}
}
