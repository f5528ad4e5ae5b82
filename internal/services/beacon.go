package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"party-radar-backend/internal/common"
	"party-radar-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// worldRadiusMeters is the unbounded fallback scope used when a bounded
// proximity query comes back empty. One retry only, never a loop.
const worldRadiusMeters = 50_000_000

// BeaconStore is the beacon persistence boundary
type BeaconStore interface {
	Create(ctx context.Context, beacon *models.Beacon) error
	GetByID(ctx context.Context, id string) (*models.Beacon, error)
	FindWithinRadius(ctx context.Context, lat, lng, radiusMeters float64) ([]*models.NearbyBeacon, error)
	Deactivate(ctx context.Context, id, userID string) error
}

// allowedAssetTypes is the closed set of offerings a beacon may advertise.
// An unknown or missing type is rejected rather than passed through untyped.
var allowedAssetTypes = map[string]struct{}{
	"beer":     {},
	"wine":     {},
	"cocktail": {},
	"coffee":   {},
	"tea":      {},
	"food":     {},
	"snacks":   {},
	"music":    {},
	"other":    {},
}

// BeaconService handles beacon creation and proximity discovery
type BeaconService struct {
	beaconRepo BeaconStore
	profiles   *ProfileService
	hub        *WSHub
}

// NewBeaconService creates a new beacon service
func NewBeaconService(beaconRepo BeaconStore, profiles *ProfileService, hub *WSHub) *BeaconService {
	return &BeaconService{
		beaconRepo: beaconRepo,
		profiles:   profiles,
		hub:        hub,
	}
}

// CreateBeaconParams describes a new beacon
type CreateBeaconParams struct {
	Lat          float64             `json:"lat"`
	Lng          float64             `json:"lng"`
	Mood         string              `json:"mood"`
	Assets       models.BeaconAssets `json:"assets"`
	ExpiresAt    time.Time           `json:"expires_at"`
	LocationName *string             `json:"location_name,omitempty"`
}

// FindNearby returns active, unexpired beacons within radiusMeters of the
// observer. An empty bounded result triggers exactly one retry at world
// scope so a cold region never looks silently empty.
func (s *BeaconService) FindNearby(ctx context.Context, lat, lng, radiusMeters float64) ([]*models.NearbyBeacon, error) {
	if err := validateCoordinates(lat, lng); err != nil {
		return nil, err
	}
	if radiusMeters <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive, got %g", common.ErrInvalidArgument, radiusMeters)
	}

	beacons, err := s.beaconRepo.FindWithinRadius(ctx, lat, lng, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("beacon resolver unavailable: %w", err)
	}

	if len(beacons) == 0 {
		log.Debug().
			Float64("lat", lat).
			Float64("lng", lng).
			Float64("radius_m", radiusMeters).
			Msg("No nearby beacons, widening to world radius")

		beacons, err = s.beaconRepo.FindWithinRadius(ctx, lat, lng, worldRadiusMeters)
		if err != nil {
			return nil, fmt.Errorf("beacon resolver unavailable: %w", err)
		}
	}

	return beacons, nil
}

// Create stores a new beacon for the caller and broadcasts the insert event
// to every beacon-feed subscriber.
func (s *BeaconService) Create(ctx context.Context, user *models.AuthUser, params CreateBeaconParams) (*models.Beacon, error) {
	if user == nil {
		return nil, common.ErrUnauthenticated
	}
	if err := validateCoordinates(params.Lat, params.Lng); err != nil {
		return nil, err
	}
	if _, ok := allowedAssetTypes[params.Assets.Type]; !ok {
		return nil, fmt.Errorf("%w: unknown asset type %q", common.ErrInvalidArgument, params.Assets.Type)
	}
	if !params.ExpiresAt.After(time.Now()) {
		return nil, fmt.Errorf("%w: expires_at must be in the future", common.ErrInvalidArgument)
	}

	if err := s.profiles.EnsureProfile(ctx, user); err != nil {
		return nil, err
	}

	beacon := &models.Beacon{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		Lat:          params.Lat,
		Lng:          params.Lng,
		Mood:         params.Mood,
		Assets:       params.Assets,
		ExpiresAt:    params.ExpiresAt,
		LocationName: params.LocationName,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	if err := s.beaconRepo.Create(ctx, beacon); err != nil {
		return nil, fmt.Errorf("failed to create beacon: %w", err)
	}

	s.broadcastCreated(ctx, beacon)

	return beacon, nil
}

// Deactivate turns off the caller's beacon, hiding it from discovery
func (s *BeaconService) Deactivate(ctx context.Context, user *models.AuthUser, beaconID string) error {
	if user == nil {
		return common.ErrUnauthenticated
	}
	if beaconID == "" {
		return fmt.Errorf("%w: beacon_id is required", common.ErrInvalidArgument)
	}
	if err := s.beaconRepo.Deactivate(ctx, beaconID, user.ID); err != nil {
		return fmt.Errorf("failed to deactivate beacon: %w", err)
	}
	return nil
}

// broadcastCreated joins the committed beacon with its owner's profile and
// fans the insert event out through the hub. Best effort: the snapshot path
// heals subscribers that miss it.
func (s *BeaconService) broadcastCreated(ctx context.Context, beacon *models.Beacon) {
	if s.hub == nil {
		return
	}

	nearby := &models.NearbyBeacon{Beacon: *beacon}
	profile, err := s.profiles.GetByID(ctx, beacon.UserID)
	if err != nil {
		log.Warn().Err(err).Str("beacon_id", beacon.ID).Msg("Broadcasting beacon without owner profile")
	} else {
		nearby.Username = profile.Username
		nearby.AvatarURL = profile.AvatarURL
		nearby.Reputation = profile.Reputation
	}

	s.hub.BroadcastBeacon(nearby)
}

func validateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %g out of range [-90, 90]", common.ErrInvalidArgument, lat)
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude %g out of range [-180, 180]", common.ErrInvalidArgument, lng)
	}
	return nil
}
