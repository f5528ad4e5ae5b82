package services

import (
	"context"
	"sync"
	"testing"

	"party-radar-backend/internal/common"
	"party-radar-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProfileStore mimics the store's conflict policy: Upsert is create-only
// and never touches an existing row.
type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
	upserts  int
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]*models.Profile)}
}

func (f *fakeProfileStore) Upsert(ctx context.Context, profile *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if _, ok := f.profiles[profile.ID]; ok {
		return nil // ON CONFLICT DO NOTHING
	}
	copied := *profile
	f.profiles[profile.ID] = &copied
	return nil
}

func (f *fakeProfileStore) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProfileStore) UpdateUsername(ctx context.Context, id, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return common.ErrNotFound
	}
	p.Username = username
	return nil
}

func (f *fakeProfileStore) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return common.ErrNotFound
	}
	p.AvatarURL = &avatarURL
	return nil
}

func (f *fakeProfileStore) UpdatePushToken(ctx context.Context, id string, pushToken *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return common.ErrNotFound
	}
	p.PushToken = pushToken
	return nil
}

func TestEnsureProfilePreservesExistingAvatar(t *testing.T) {
	store := newFakeProfileStore()
	svc := NewProfileService(store)
	ctx := context.Background()
	user := &models.AuthUser{ID: "user-1", Email: "alice@example.com"}

	require.NoError(t, svc.EnsureProfile(ctx, user))
	require.NoError(t, svc.UpdateAvatar(ctx, user, "https://cdn.example.com/custom.jpg"))

	// Later bootstrap carries a stale hint; the custom avatar must survive
	user.AvatarHint = "https://idp.example.com/default.png"
	require.NoError(t, svc.EnsureProfile(ctx, user))

	profile, err := svc.GetByID(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, profile.AvatarURL)
	assert.Equal(t, "https://cdn.example.com/custom.jpg", *profile.AvatarURL)
}

func TestEnsureProfileUsernameDefaults(t *testing.T) {
	cases := []struct {
		name string
		user *models.AuthUser
		want string
	}{
		{"display name hint wins", &models.AuthUser{ID: "u1", Email: "a@b.c", DisplayNameHint: "Alice"}, "Alice"},
		{"email local part", &models.AuthUser{ID: "u2", Email: "bob@example.com"}, "bob"},
		{"generic fallback", &models.AuthUser{ID: "u3"}, "User"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeProfileStore()
			svc := NewProfileService(store)
			require.NoError(t, svc.EnsureProfile(context.Background(), tc.user))

			profile, err := svc.GetByID(context.Background(), tc.user.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, profile.Username)
			assert.Equal(t, defaultReputation, profile.Reputation)
		})
	}
}

func TestEnsureProfileUnauthenticated(t *testing.T) {
	svc := NewProfileService(newFakeProfileStore())
	err := svc.EnsureProfile(context.Background(), nil)
	require.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestUpdateUsernameCreatesMissingProfile(t *testing.T) {
	store := newFakeProfileStore()
	svc := NewProfileService(store)
	user := &models.AuthUser{ID: "user-1", Email: "alice@example.com"}

	require.NoError(t, svc.UpdateUsername(context.Background(), user, "  Alice in Moscow  "))

	profile, err := svc.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice in Moscow", profile.Username)
}

func TestUpdateUsernameRejectsEmpty(t *testing.T) {
	svc := NewProfileService(newFakeProfileStore())
	user := &models.AuthUser{ID: "user-1"}

	err := svc.UpdateUsername(context.Background(), user, "   ")
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}
