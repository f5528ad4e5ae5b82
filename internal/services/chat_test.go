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

type fakeMessageStore struct {
	messages  []*models.Message
	createErr error
	clock     time.Time
}

func (f *fakeMessageStore) Create(ctx context.Context, message *models.Message) error {
	if f.createErr != nil {
		return f.createErr
	}
	// Monotonic commit timestamps, like the store's now()
	f.clock = f.clock.Add(time.Millisecond)
	message.CreatedAt = f.clock
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeMessageStore) ListByBeacon(ctx context.Context, beaconID string) ([]*models.Message, error) {
	var out []*models.Message
	for _, m := range f.messages {
		if m.BeaconID == beaconID {
			out = append(out, m)
		}
	}
	return out, nil
}

func newChatService(store *fakeMessageStore) *ChatService {
	profiles := NewProfileService(newFakeProfileStore())
	return NewChatService(store, newFakePartyStore(), profiles, NewWSHub(), &PushService{})
}

func TestSendEmptyContentRejectedBeforeWrite(t *testing.T) {
	store := &fakeMessageStore{}
	svc := newChatService(store)
	user := &models.AuthUser{ID: "user-b"}

	for _, content := range []string{"", "   ", "\n\t "} {
		_, err := svc.Send(context.Background(), user, "beacon-1", content)
		require.ErrorIs(t, err, common.ErrEmptyContent)
	}
	assert.Empty(t, store.messages, "nothing may be written for empty content")
}

func TestSendTrimsContent(t *testing.T) {
	store := &fakeMessageStore{}
	svc := newChatService(store)

	message, err := svc.Send(context.Background(), &models.AuthUser{ID: "user-b"}, "beacon-1", "  hi  ")
	require.NoError(t, err)
	assert.Equal(t, "hi", message.Content)
	assert.Equal(t, "beacon-1", message.BeaconID)
	assert.Equal(t, "user-b", message.UserID)
	assert.NotEmpty(t, message.ID)
	assert.False(t, message.CreatedAt.IsZero(), "committed timestamp is read back")
}

func TestSendUnauthenticated(t *testing.T) {
	svc := newChatService(&fakeMessageStore{})

	_, err := svc.Send(context.Background(), nil, "beacon-1", "hi")
	require.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestSendStoreFailureSurfaces(t *testing.T) {
	store := &fakeMessageStore{createErr: errors.New("disk full")}
	svc := newChatService(store)

	_, err := svc.Send(context.Background(), &models.AuthUser{ID: "user-b"}, "beacon-1", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send message")
}

func TestHistoryPreservesSendOrder(t *testing.T) {
	store := &fakeMessageStore{}
	svc := newChatService(store)
	ctx := context.Background()
	alice := &models.AuthUser{ID: "alice"}
	bob := &models.AuthUser{ID: "bob"}

	// Alternating senders, sequential sends
	_, err := svc.Send(ctx, alice, "beacon-1", "m1")
	require.NoError(t, err)
	_, err = svc.Send(ctx, bob, "beacon-1", "m2")
	require.NoError(t, err)
	_, err = svc.Send(ctx, alice, "beacon-1", "m3")
	require.NoError(t, err)

	history, err := svc.History(ctx, bob, "beacon-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "m1", history[0].Content)
	assert.Equal(t, "m2", history[1].Content)
	assert.Equal(t, "m3", history[2].Content)
}

func TestHistoryScopedToConversation(t *testing.T) {
	store := &fakeMessageStore{}
	svc := newChatService(store)
	ctx := context.Background()
	user := &models.AuthUser{ID: "alice"}

	_, err := svc.Send(ctx, user, "beacon-1", "here")
	require.NoError(t, err)
	_, err = svc.Send(ctx, user, "beacon-2", "elsewhere")
	require.NoError(t, err)

	history, err := svc.History(ctx, user, "beacon-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "here", history[0].Content)
}
