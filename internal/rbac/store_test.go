package rbac

import (
	"context"
	"sync"
	"testing"

	"github.com/dimitrije/dashboard-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// memStore is an in-memory profile table with upsert-on-conflict semantics.
type memStore struct {
	mu     sync.Mutex
	rows   map[uuid.UUID]models.Role
	writes int
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[uuid.UUID]models.Role)}
}

func (s *memStore) GetRole(_ context.Context, userID uuid.UUID) (models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.rows[userID]
	if !ok {
		return "", ErrProfileNotFound
	}
	return role, nil
}

func (s *memStore) EnsureProfile(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[userID]; !ok {
		s.rows[userID] = models.DefaultRole
	}
	return nil
}

func (s *memStore) UpsertRole(_ context.Context, userID uuid.UUID, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[userID] = role
	s.writes++
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type mockProfileStore struct {
	mock.Mock
}

func (m *mockProfileStore) GetRole(ctx context.Context, userID uuid.UUID) (models.Role, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.Role), args.Error(1)
}

func (m *mockProfileStore) EnsureProfile(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockProfileStore) UpsertRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func newIdentity() *models.User {
	id := uuid.New()
	return &models.User{ID: id, Email: id.String() + "@example.com"}
}

func newAdmin(t *testing.T, store *memStore) *models.User {
	t.Helper()
	admin := newIdentity()
	_ = store.UpsertRole(context.Background(), admin.ID, models.RoleAdmin)
	return admin
}

func nopLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
