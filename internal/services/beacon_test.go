package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"party-radar-backend/internal/common"
	"party-radar-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBeaconStore struct {
	queries []float64 // radius of each FindWithinRadius call
	results map[float64][]*models.NearbyBeacon
	findErr error

	created   []*models.Beacon
	createErr error
}

func (f *fakeBeaconStore) Create(ctx context.Context, beacon *models.Beacon) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, beacon)
	return nil
}

func (f *fakeBeaconStore) GetByID(ctx context.Context, id string) (*models.Beacon, error) {
	return nil, common.ErrNotFound
}

func (f *fakeBeaconStore) FindWithinRadius(ctx context.Context, lat, lng, radiusMeters float64) ([]*models.NearbyBeacon, error) {
	f.queries = append(f.queries, radiusMeters)
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.results[radiusMeters], nil
}

func (f *fakeBeaconStore) Deactivate(ctx context.Context, id, userID string) error {
	return nil
}

func newBeaconService(store *fakeBeaconStore) *BeaconService {
	profiles := NewProfileService(newFakeProfileStore())
	return NewBeaconService(store, profiles, NewWSHub())
}

func TestFindNearbyInvalidCoordinatesNoStoreCall(t *testing.T) {
	store := &fakeBeaconStore{}
	svc := newBeaconService(store)

	cases := []struct {
		name     string
		lat, lng float64
		radius   float64
	}{
		{"lat too large", 200, 37.59, 5000},
		{"lat too small", -91, 37.59, 5000},
		{"lng too large", 55.76, 181, 5000},
		{"lng too small", 55.76, -200, 5000},
		{"zero radius", 55.76, 37.59, 0},
		{"negative radius", 55.76, 37.59, -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.FindNearby(context.Background(), tc.lat, tc.lng, tc.radius)
			require.ErrorIs(t, err, common.ErrInvalidArgument)
			assert.Empty(t, store.queries, "validation must reject before any store call")
		})
	}
}

func TestFindNearbyReturnsBoundedResult(t *testing.T) {
	store := &fakeBeaconStore{
		results: map[float64][]*models.NearbyBeacon{
			5000: {nearbyBeacon("a")},
		},
	}
	svc := newBeaconService(store)

	beacons, err := svc.FindNearby(context.Background(), 55.76, 37.59, 5000)
	require.NoError(t, err)
	require.Len(t, beacons, 1)
	assert.Equal(t, []float64{5000}, store.queries, "no fallback when the bounded query has rows")
}

func TestFindNearbyWidensExactlyOnce(t *testing.T) {
	store := &fakeBeaconStore{
		results: map[float64][]*models.NearbyBeacon{
			worldRadiusMeters: {nearbyBeacon("far")},
		},
	}
	svc := newBeaconService(store)

	beacons, err := svc.FindNearby(context.Background(), 55.76, 37.59, 5000)
	require.NoError(t, err)
	require.Len(t, beacons, 1)
	assert.Equal(t, "far", beacons[0].ID)
	assert.Equal(t, []float64{5000, worldRadiusMeters}, store.queries)
}

func TestFindNearbyEmptyWorldIsEmptyNotLooping(t *testing.T) {
	store := &fakeBeaconStore{results: map[float64][]*models.NearbyBeacon{}}
	svc := newBeaconService(store)

	beacons, err := svc.FindNearby(context.Background(), 55.76, 37.59, 5000)
	require.NoError(t, err)
	assert.Empty(t, beacons)
	assert.Len(t, store.queries, 2, "exactly one widening retry, never a loop")
}

func TestFindNearbyStoreFailureSurfaces(t *testing.T) {
	store := &fakeBeaconStore{findErr: errors.New("connection refused")}
	svc := newBeaconService(store)

	_, err := svc.FindNearby(context.Background(), 55.76, 37.59, 5000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "beacon resolver unavailable")
	assert.Len(t, store.queries, 1, "store failure is not retried")
}

func TestCreateBeaconRejectsUnknownAssetType(t *testing.T) {
	store := &fakeBeaconStore{}
	svc := newBeaconService(store)
	user := &models.AuthUser{ID: "user-1"}

	_, err := svc.Create(context.Background(), user, CreateBeaconParams{
		Lat: 55.76, Lng: 37.59,
		Assets:    models.BeaconAssets{Type: "spaceship"},
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = svc.Create(context.Background(), user, CreateBeaconParams{
		Lat: 55.76, Lng: 37.59,
		Assets:    models.BeaconAssets{},
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.ErrorIs(t, err, common.ErrInvalidArgument)
	assert.Empty(t, store.created)
}

func TestCreateBeaconRejectsPastExpiry(t *testing.T) {
	store := &fakeBeaconStore{}
	svc := newBeaconService(store)

	_, err := svc.Create(context.Background(), &models.AuthUser{ID: "user-1"}, CreateBeaconParams{
		Lat: 55.76, Lng: 37.59,
		Assets:    models.BeaconAssets{Type: "beer"},
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestCreateBeaconUnauthenticated(t *testing.T) {
	svc := newBeaconService(&fakeBeaconStore{})

	_, err := svc.Create(context.Background(), nil, CreateBeaconParams{
		Lat: 55.76, Lng: 37.59,
		Assets:    models.BeaconAssets{Type: "beer"},
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestCreateBeaconStoresActiveBeacon(t *testing.T) {
	store := &fakeBeaconStore{}
	svc := newBeaconService(store)
	expires := time.Now().Add(2 * time.Hour)

	beacon, err := svc.Create(context.Background(), &models.AuthUser{ID: "user-1"}, CreateBeaconParams{
		Lat: 55.76, Lng: 37.59,
		Mood:      "looking for company",
		Assets:    models.BeaconAssets{Type: "beer", Brand: "zhiguli"},
		ExpiresAt: expires,
	})
	require.NoError(t, err)
	require.Len(t, store.created, 1)

	assert.NotEmpty(t, beacon.ID)
	assert.Equal(t, "user-1", beacon.UserID)
	assert.True(t, beacon.IsActive)
	assert.Equal(t, "beer", beacon.Assets.Type)
	assert.Equal(t, expires, beacon.ExpiresAt)
}

func nearbyBeacon(id string) *models.NearbyBeacon {
	return &models.NearbyBeacon{
		Beacon: models.Beacon{
			ID:        id,
			Lat:       55.76,
			Lng:       37.59,
			IsActive:  true,
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
}
