package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/dashboard-api/internal/database"
	"github.com/dimitrije/dashboard-api/internal/models"
	"github.com/dimitrije/dashboard-api/internal/rbac"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProfileService is the PostgreSQL profile store.
type ProfileService struct {
	db *database.DB
}

func NewProfileService(db *database.DB) *ProfileService {
	return &ProfileService{db: db}
}

func (s *ProfileService) GetRole(ctx context.Context, userID uuid.UUID) (models.Role, error) {
	var role string
	err := s.db.Pool.QueryRow(ctx, `
		SELECT role FROM profiles WHERE user_id = $1
	`, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", rbac.ErrProfileNotFound
	}
	if err != nil {
		return "", err
	}
	return models.Role(role), nil
}

func (s *ProfileService) EnsureProfile(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO profiles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, models.DefaultRole.String())
	return err
}

func (s *ProfileService) UpsertRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO profiles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = NOW()
	`, userID, role.String())
	return err
}

func (s *ProfileService) ListAll(ctx context.Context) ([]models.Profile, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT user_id, role, created_at, updated_at
		FROM profiles
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var p models.Profile
		var role string
		if err := rows.Scan(&p.UserID, &role, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Role = models.Role(role)
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
