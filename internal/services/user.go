package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dimitrije/dashboard-api/internal/database"
	"github.com/dimitrije/dashboard-api/internal/models"
	"github.com/dimitrije/dashboard-api/internal/oauth"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ProviderEmail marks identities that sign in with email and password.
const ProviderEmail = "email"

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

const userColumns = `id, email, password_hash, display_name, full_name, name, avatar_url, picture,
	provider, provider_id, created_at, updated_at`

// UserService is the identity directory.
type UserService struct {
	db  *database.DB
	log *zap.SugaredLogger
}

// NewUserService logs through zap.S() when log is nil.
func NewUserService(db *database.DB, log *zap.SugaredLogger) *UserService {
	if log == nil {
		log = zap.S()
	}
	return &UserService{db: db, log: log}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash,
		&user.Metadata.DisplayName, &user.Metadata.FullName, &user.Metadata.Name,
		&user.Metadata.AvatarURL, &user.Metadata.Picture,
		&user.Provider, &user.ProviderID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindOrCreateFromOAuth stores the provider's email lowercased, like
// password accounts, so both resolve to the same mailbox.
func (s *UserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	email := normalizeEmail(info.Email)
	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE provider = $1 AND provider_id = $2
	`, info.Provider, info.ID))

	if err == nil {
		if user.Email != email || !sameString(user.Metadata.FullName, info.FullName) ||
			!sameString(user.Metadata.Name, info.Name) || !sameString(user.Metadata.Picture, info.AvatarURL) {
			_, err := s.db.Pool.Exec(ctx, `
				UPDATE users SET email = $1, full_name = $2, name = $3, picture = $4, updated_at = NOW()
				WHERE id = $5
			`, email, nullableString(info.FullName), nullableString(info.Name), nullableString(info.AvatarURL), user.ID)
			if err != nil {
				// Sign-in proceeds with the stored attributes.
				s.log.Warnw("failed to refresh provider attributes", "user_id", user.ID, "provider", info.Provider, "error", err)
				return user, nil
			}
			user.Email = email
			user.Metadata.FullName = nullableString(info.FullName)
			user.Metadata.Name = nullableString(info.Name)
			user.Metadata.Picture = nullableString(info.AvatarURL)
		}
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user, err = scanUser(s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, full_name, name, picture, provider, provider_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		email, nullableString(info.FullName), nullableString(info.Name), nullableString(info.AvatarURL),
		info.Provider, info.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// CreateWithPassword registers an email/password identity.
func (s *UserService) CreateWithPassword(ctx context.Context, email, passwordHash string, displayName *string) (*models.User, error) {
	email = normalizeEmail(email)
	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, display_name, provider, provider_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		email, passwordHash, displayName, ProviderEmail, email))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// AuthenticateWithPassword returns ErrInvalidCredentials for unknown emails,
// identities without a password, and wrong passwords alike.
func (s *UserService) AuthenticateWithPassword(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}
	if err := VerifyPassword(*user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE id = $1
	`, id))
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE email = $1
	`, normalizeEmail(email)))
}

// UpdateAttributes applies the non-nil fields of patch.
func (s *UserService) UpdateAttributes(ctx context.Context, id uuid.UUID, patch models.MetadataPatch) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `
		UPDATE users SET
			display_name = COALESCE($1, display_name),
			avatar_url = COALESCE($2, avatar_url),
			updated_at = NOW()
		WHERE id = $3
		RETURNING `+userColumns,
		patch.DisplayName, patch.AvatarURL, id))
}

func (s *UserService) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := s.db.Pool.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = NOW()
		WHERE id = $2
	`, passwordHash, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// List returns up to limit identities, oldest first. The limit is clamped to
// models.DirectoryPageSize.
func (s *UserService) List(ctx context.Context, limit int) ([]models.User, error) {
	if limit <= 0 || limit > models.DirectoryPageSize {
		limit = models.DirectoryPageSize
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func sameString(p *string, s string) bool {
	if p == nil {
		return s == ""
	}
	return *p == s
}
