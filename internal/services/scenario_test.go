package services

import (
	"context"
	"math"
	"testing"
	"time"

	"party-radar-backend/internal/common"
	"party-radar-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryBeaconStore does real radius filtering so the whole discover → join →
// chat flow can run against in-memory state.
type memoryBeaconStore struct {
	beacons  []*models.Beacon
	profiles *fakeProfileStore
}

func (s *memoryBeaconStore) Create(ctx context.Context, beacon *models.Beacon) error {
	copied := *beacon
	s.beacons = append(s.beacons, &copied)
	return nil
}

func (s *memoryBeaconStore) GetByID(ctx context.Context, id string) (*models.Beacon, error) {
	for _, b := range s.beacons {
		if b.ID == id {
			copied := *b
			return &copied, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *memoryBeaconStore) FindWithinRadius(ctx context.Context, lat, lng, radiusMeters float64) ([]*models.NearbyBeacon, error) {
	var out []*models.NearbyBeacon
	for _, b := range s.beacons {
		if !b.IsActive || !b.ExpiresAt.After(time.Now()) {
			continue
		}
		dist := haversineMeters(lat, lng, b.Lat, b.Lng)
		if dist > radiusMeters {
			continue
		}
		nb := &models.NearbyBeacon{Beacon: *b, DistanceM: dist}
		if p, err := s.profiles.GetByID(ctx, b.UserID); err == nil {
			nb.Username = p.Username
			nb.AvatarURL = p.AvatarURL
			nb.Reputation = p.Reputation
		}
		out = append(out, nb)
	}
	return out, nil
}

func (s *memoryBeaconStore) Deactivate(ctx context.Context, id, userID string) error {
	for _, b := range s.beacons {
		if b.ID == id && b.UserID == userID {
			b.IsActive = false
			return nil
		}
	}
	return common.ErrNotFound
}

func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadius = 6371000.0
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadius * math.Asin(math.Sqrt(a))
}

func TestDiscoverJoinChatScenario(t *testing.T) {
	ctx := context.Background()
	profileStore := newFakeProfileStore()
	profiles := NewProfileService(profileStore)
	beaconStore := &memoryBeaconStore{profiles: profileStore}
	hub := NewWSHub()

	beacons := NewBeaconService(beaconStore, profiles, hub)
	parties := NewPartyService(newFakePartyStore(), profiles)
	chat := NewChatService(&fakeMessageStore{}, newFakePartyStore(), profiles, hub, &PushService{})

	userA := &models.AuthUser{ID: "user-a", DisplayNameHint: "Anna"}
	userB := &models.AuthUser{ID: "user-b", DisplayNameHint: "Boris"}

	// A broadcasts a beacon at Patriarch Ponds, expiring in two hours
	beacon, err := beacons.Create(ctx, userA, CreateBeaconParams{
		Lat: 55.76, Lng: 37.59,
		Mood:      "cold beer, warm company",
		Assets:    models.BeaconAssets{Type: "beer"},
		ExpiresAt: time.Now().Add(2 * time.Hour),
	})
	require.NoError(t, err)

	// B, a street away, discovers exactly that beacon
	found, err := beacons.FindNearby(ctx, 55.761, 37.591, 5000)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, beacon.ID, found[0].ID)
	assert.Equal(t, "beer", found[0].Assets.Type)
	assert.Equal(t, "Anna", found[0].Username)

	// B joins and gets the beacon id back as the conversation id
	conversationID, err := parties.Join(ctx, userB, beacon.ID)
	require.NoError(t, err)
	assert.Equal(t, beacon.ID, conversationID)

	// B says hi; A reads it back from the authoritative history
	_, err = chat.Send(ctx, userB, conversationID, "hi")
	require.NoError(t, err)

	history, err := chat.History(ctx, userA, conversationID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hi", history[0].Content)
	assert.Equal(t, "user-b", history[0].UserID)
}

func TestDeactivatedBeaconInvisibleToDiscovery(t *testing.T) {
	ctx := context.Background()
	profileStore := newFakeProfileStore()
	profiles := NewProfileService(profileStore)
	beaconStore := &memoryBeaconStore{profiles: profileStore}
	beacons := NewBeaconService(beaconStore, profiles, NewWSHub())

	owner := &models.AuthUser{ID: "user-a"}
	beacon, err := beacons.Create(ctx, owner, CreateBeaconParams{
		Lat: 55.76, Lng: 37.59,
		Assets:    models.BeaconAssets{Type: "coffee"},
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, beacons.Deactivate(ctx, owner, beacon.ID))

	found, err := beacons.FindNearby(ctx, 55.76, 37.59, 5000)
	require.NoError(t, err)
	assert.Empty(t, found)
}
