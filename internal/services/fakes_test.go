package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dimitrije/dashboard-api/internal/models"
	"github.com/dimitrije/dashboard-api/internal/oauth"
	"github.com/dimitrije/dashboard-api/internal/rbac"
	"github.com/dimitrije/dashboard-api/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type fakeUsers struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*models.User
	listErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUsers) add(email, password string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{ID: uuid.New(), Email: email, Provider: ProviderEmail, ProviderID: email, CreatedAt: time.Now()}
	if password != "" {
		hash, _ := HashPassword(password)
		u.PasswordHash = &hash
	}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == normalizeEmail(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) AuthenticateWithPassword(ctx context.Context, email, password string) (*models.User, error) {
	u, err := f.GetByEmail(ctx, email)
	if err != nil || !u.HasPassword() || VerifyPassword(*u.PasswordHash, password) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (f *fakeUsers) CreateWithPassword(ctx context.Context, email, passwordHash string, displayName *string) (*models.User, error) {
	if _, err := f.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	email = normalizeEmail(email)
	u := &models.User{ID: uuid.New(), Email: email, Provider: ProviderEmail, ProviderID: email,
		PasswordHash: &passwordHash, CreatedAt: time.Now()}
	u.Metadata.DisplayName = displayName
	f.byID[u.ID] = u
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindOrCreateFromOAuth(_ context.Context, info *oauth.UserInfo) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Provider == info.Provider && u.ProviderID == info.ID {
			cp := *u
			return &cp, nil
		}
	}
	u := &models.User{ID: uuid.New(), Email: info.Email, Provider: info.Provider, ProviderID: info.ID, CreatedAt: time.Now()}
	f.byID[u.ID] = u
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UpdateAttributes(_ context.Context, id uuid.UUID, patch models.MetadataPatch) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if patch.DisplayName != nil {
		u.Metadata.DisplayName = patch.DisplayName
	}
	if patch.AvatarURL != nil {
		u.Metadata.AvatarURL = patch.AvatarURL
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) SetPassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = &passwordHash
	return nil
}

func (f *fakeUsers) List(_ context.Context, limit int) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.User, 0, len(f.byID))
	for _, u := range f.byID {
		if len(out) == limit {
			break
		}
		out = append(out, *u)
	}
	return out, nil
}

type fakeProfiles struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]models.Role
	writes  int
	failAll error
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{rows: make(map[uuid.UUID]models.Role)}
}

func (s *fakeProfiles) GetRole(_ context.Context, userID uuid.UUID) (models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return "", s.failAll
	}
	role, ok := s.rows[userID]
	if !ok {
		return "", rbac.ErrProfileNotFound
	}
	return role, nil
}

func (s *fakeProfiles) EnsureProfile(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return s.failAll
	}
	if _, ok := s.rows[userID]; !ok {
		s.rows[userID] = models.DefaultRole
	}
	return nil
}

func (s *fakeProfiles) UpsertRole(_ context.Context, userID uuid.UUID, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return s.failAll
	}
	s.rows[userID] = role
	s.writes++
	return nil
}

func (s *fakeProfiles) ListAll(_ context.Context) ([]models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	out := make([]models.Profile, 0, len(s.rows))
	for id, role := range s.rows {
		out = append(out, models.Profile{UserID: id, Role: role})
	}
	return out, nil
}

type fakeTokens struct {
	mu       sync.Mutex
	refresh  map[string]uuid.UUID
	resets   map[string]uuid.UUID
	revoked  []uuid.UUID
	storeErr error
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{refresh: make(map[string]uuid.UUID), resets: make(map[string]uuid.UUID)}
}

func (f *fakeTokens) StoreRefreshToken(_ context.Context, userID uuid.UUID, tokenHash string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.storeErr != nil {
		return f.storeErr
	}
	f.refresh[tokenHash] = userID
	return nil
}

func (f *fakeTokens) ValidateRefreshToken(_ context.Context, tokenHash string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.refresh[tokenHash]
	if !ok {
		return uuid.Nil, pgx.ErrNoRows
	}
	return id, nil
}

func (f *fakeTokens) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.refresh, tokenHash)
	return nil
}

func (f *fakeTokens) RevokeAllUserTokens(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, id := range f.refresh {
		if id == userID {
			delete(f.refresh, h)
		}
	}
	f.revoked = append(f.revoked, userID)
	return nil
}

func (f *fakeTokens) CreatePasswordReset(_ context.Context, userID uuid.UUID, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := "reset-" + uuid.NewString()
	f.resets[token] = userID
	return token, nil
}

func (f *fakeTokens) ConsumePasswordReset(_ context.Context, token string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.resets[token]
	if !ok {
		return uuid.Nil, ErrResetTokenInvalid
	}
	delete(f.resets, token)
	return id, nil
}

type sentMail struct {
	to, link string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendPasswordReset(to, resetURL string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, link: resetURL})
	return nil
}

type fakeStorage struct {
	objects map[string]string
	types   map[string]string
	noURL   bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string]string), types: make(map[string]string)}
}

func (s *fakeStorage) Upload(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = string(data)
	s.types[key] = contentType
	return nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *fakeStorage) PublicURL(key string) (string, error) {
	if s.noURL {
		return "", storage.ErrNoPublicURL
	}
	return "https://cdn.example.com/" + key, nil
}

func (s *fakeStorage) keys() []string {
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	return out
}

type fakeEvents struct {
	mu           sync.Mutex
	roles        map[uuid.UUID]string
	usersChanged int
	profiles     []uuid.UUID
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{roles: make(map[uuid.UUID]string)}
}

func (e *fakeEvents) PublishRoleChange(userID uuid.UUID, role string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.roles[userID] = role
}

func (e *fakeEvents) PublishUsersChanged() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.usersChanged++
}

func (e *fakeEvents) PublishProfileChange(userID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profiles = append(e.profiles, userID)
}

var errStoreDown = errors.New("connection refused")

func nopLog() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func hasPrefix(keys []string, prefix string) bool {
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}
