package repository

import (
	"context"
	"errors"
	"fmt"

	"party-radar-backend/internal/common"
	"party-radar-backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PartyRepository handles database operations for party memberships
type PartyRepository struct {
	db *pgxpool.Pool
}

// NewPartyRepository creates a new party repository
func NewPartyRepository(db *pgxpool.Pool) *PartyRepository {
	return &PartyRepository{db: db}
}

// Create inserts a membership row. A unique-constraint violation on
// (beacon_id, user_id) is reported as common.ErrDuplicate so callers can
// treat the retry case distinctly.
func (r *PartyRepository) Create(ctx context.Context, member *models.PartyMember) error {
	query := `
		INSERT INTO party_members (id, beacon_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, member.ID, member.BeaconID, member.UserID, member.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return common.ErrDuplicate
		}
		return fmt.Errorf("failed to create party membership: %w", err)
	}
	return nil
}

// ListMemberProfiles returns the profiles of everyone in a beacon's party
func (r *PartyRepository) ListMemberProfiles(ctx context.Context, beaconID string) ([]*models.Profile, error) {
	query := `
		SELECT p.id, p.username, p.avatar_url, p.reputation, p.push_token, p.created_at
		FROM party_members m
		JOIN profiles p ON p.id = m.user_id
		WHERE m.beacon_id = $1
		ORDER BY m.created_at
	`
	rows, err := r.db.Query(ctx, query, beaconID)
	if err != nil {
		return nil, fmt.Errorf("failed to list party members: %w", err)
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		var p models.Profile
		err := rows.Scan(&p.ID, &p.Username, &p.AvatarURL, &p.Reputation, &p.PushToken, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan party member: %w", err)
		}
		profiles = append(profiles, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating party members: %w", err)
	}

	return profiles, nil
}

// ListUserBeacons returns the beacons whose party the user belongs to,
// newest membership first. Expired conversations remain listed.
func (r *PartyRepository) ListUserBeacons(ctx context.Context, userID string) ([]*models.Beacon, error) {
	query := `
		SELECT b.id, b.user_id, ST_Y(b.location::geometry), ST_X(b.location::geometry),
		       b.mood, b.assets, b.expires_at, b.location_name, b.is_active, b.created_at
		FROM party_members m
		JOIN beacons b ON b.id = m.beacon_id
		WHERE m.user_id = $1
		ORDER BY m.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user beacons: %w", err)
	}
	defer rows.Close()

	var beacons []*models.Beacon
	for rows.Next() {
		var b models.Beacon
		err := rows.Scan(
			&b.ID, &b.UserID, &b.Lat, &b.Lng,
			&b.Mood, &b.Assets, &b.ExpiresAt, &b.LocationName,
			&b.IsActive, &b.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan beacon: %w", err)
		}
		beacons = append(beacons, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user beacons: %w", err)
	}

	return beacons, nil
}
