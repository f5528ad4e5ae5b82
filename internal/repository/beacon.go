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

// BeaconRepository handles database operations for beacons
type BeaconRepository struct {
	db *pgxpool.Pool
}

// NewBeaconRepository creates a new beacon repository
func NewBeaconRepository(db *pgxpool.Pool) *BeaconRepository {
	return &BeaconRepository{db: db}
}

// Create creates a new beacon. Location is stored as a PostGIS geography
// point, longitude first.
func (r *BeaconRepository) Create(ctx context.Context, beacon *models.Beacon) error {
	query := `
		INSERT INTO beacons (id, user_id, location, mood, assets, expires_at, location_name, is_active, created_at)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		beacon.ID, beacon.UserID, beacon.Lng, beacon.Lat,
		beacon.Mood, beacon.Assets, beacon.ExpiresAt, beacon.LocationName,
		beacon.IsActive, beacon.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create beacon: %w", err)
	}
	return nil
}

// GetByID retrieves a beacon by ID
func (r *BeaconRepository) GetByID(ctx context.Context, id string) (*models.Beacon, error) {
	query := `
		SELECT id, user_id, ST_Y(location::geometry), ST_X(location::geometry),
		       mood, assets, expires_at, location_name, is_active, created_at
		FROM beacons
		WHERE id = $1
	`
	var beacon models.Beacon
	err := r.db.QueryRow(ctx, query, id).Scan(
		&beacon.ID, &beacon.UserID, &beacon.Lat, &beacon.Lng,
		&beacon.Mood, &beacon.Assets, &beacon.ExpiresAt, &beacon.LocationName,
		&beacon.IsActive, &beacon.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get beacon: %w", err)
	}
	return &beacon, nil
}

// FindWithinRadius returns active, unexpired beacons within radiusMeters of
// the observer, joined with the owner's public profile fields.
func (r *BeaconRepository) FindWithinRadius(ctx context.Context, lat, lng, radiusMeters float64) ([]*models.NearbyBeacon, error) {
	query := `
		SELECT b.id, b.user_id, ST_Y(b.location::geometry), ST_X(b.location::geometry),
		       b.mood, b.assets, b.expires_at, b.location_name, b.is_active, b.created_at,
		       p.username, p.avatar_url, p.reputation,
		       ST_Distance(b.location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography)
		FROM beacons b
		JOIN profiles p ON p.id = b.user_id
		WHERE b.is_active
		  AND b.expires_at > now()
		  AND ST_DWithin(b.location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY b.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, lng, lat, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby beacons: %w", err)
	}
	defer rows.Close()

	var beacons []*models.NearbyBeacon
	for rows.Next() {
		var b models.NearbyBeacon
		err := rows.Scan(
			&b.ID, &b.UserID, &b.Lat, &b.Lng,
			&b.Mood, &b.Assets, &b.ExpiresAt, &b.LocationName,
			&b.IsActive, &b.CreatedAt,
			&b.Username, &b.AvatarURL, &b.Reputation,
			&b.DistanceM,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nearby beacon: %w", err)
		}
		beacons = append(beacons, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nearby beacons: %w", err)
	}

	return beacons, nil
}

// Deactivate marks a beacon inactive. Only the owner's row matches.
func (r *BeaconRepository) Deactivate(ctx context.Context, id, userID string) error {
	query := `UPDATE beacons SET is_active = FALSE WHERE id = $1 AND user_id = $2`
	result, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate beacon: %w", err)
	}
	if result.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
