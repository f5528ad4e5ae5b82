package repository

import (
	"context"
	"errors"
	"fmt"

	"party-radar-backend/internal/common"
	"party-radar-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository handles database operations for profiles
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Upsert inserts a profile if it does not exist yet. An existing row is left
// untouched, so a bootstrap upsert never overwrites a custom avatar_url.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (id, username, avatar_url, reputation, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		profile.ID, profile.Username, profile.AvatarURL, profile.Reputation, profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `
		SELECT id, username, avatar_url, reputation, push_token, created_at
		FROM profiles
		WHERE id = $1
	`
	var profile models.Profile
	err := r.db.QueryRow(ctx, query, id).Scan(
		&profile.ID, &profile.Username, &profile.AvatarURL,
		&profile.Reputation, &profile.PushToken, &profile.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// UpdateUsername updates the display name of an existing profile
func (r *ProfileRepository) UpdateUsername(ctx context.Context, id, username string) error {
	query := `UPDATE profiles SET username = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, username, id)
	if err != nil {
		return fmt.Errorf("failed to update username: %w", err)
	}
	if result.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// UpdateAvatar updates the avatar URL of an existing profile
func (r *ProfileRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	query := `UPDATE profiles SET avatar_url = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, avatarURL, id)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	if result.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// UpdatePushToken updates the push token for a profile
func (r *ProfileRepository) UpdatePushToken(ctx context.Context, id string, pushToken *string) error {
	query := `UPDATE profiles SET push_token = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, pushToken, id)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
