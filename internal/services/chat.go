package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"party-radar-backend/internal/common"
	"party-radar-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MessageStore is the message persistence boundary
type MessageStore interface {
	Create(ctx context.Context, message *models.Message) error
	ListByBeacon(ctx context.Context, beaconID string) ([]*models.Message, error)
}

// ChatService is the append-only ordered message log per conversation. The
// websocket stream is a latency optimization; History is the authoritative
// read path.
type ChatService struct {
	messageRepo MessageStore
	partyRepo   PartyStore
	profiles    *ProfileService
	hub         *WSHub
	push        *PushService
}

// NewChatService creates a new chat service
func NewChatService(
	messageRepo MessageStore,
	partyRepo PartyStore,
	profiles *ProfileService,
	hub *WSHub,
	push *PushService,
) *ChatService {
	return &ChatService{
		messageRepo: messageRepo,
		partyRepo:   partyRepo,
		profiles:    profiles,
		hub:         hub,
		push:        push,
	}
}

// Send appends a message to a conversation. Content is trimmed and rejected
// as empty before any write. The committed row is broadcast to stream
// subscribers and, best effort, pushed to offline participants.
func (s *ChatService) Send(ctx context.Context, user *models.AuthUser, beaconID, content string) (*models.Message, error) {
	if user == nil {
		return nil, common.ErrUnauthenticated
	}
	if beaconID == "" {
		return nil, fmt.Errorf("%w: beacon_id is required", common.ErrInvalidArgument)
	}

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, common.ErrEmptyContent
	}

	if err := s.profiles.EnsureProfile(ctx, user); err != nil {
		return nil, err
	}

	message := &models.Message{
		ID:       uuid.New().String(),
		BeaconID: beaconID,
		UserID:   user.ID,
		Content:  trimmed,
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	if s.hub != nil {
		s.hub.BroadcastMessage(message)
	}
	go s.notifyOfflineMembers(message)

	return message, nil
}

// History returns the conversation ordered ascending by creation time. This
// is the source of truth the stream reconciles against.
func (s *ChatService) History(ctx context.Context, user *models.AuthUser, beaconID string) ([]*models.Message, error) {
	if user == nil {
		return nil, common.ErrUnauthenticated
	}
	if beaconID == "" {
		return nil, fmt.Errorf("%w: beacon_id is required", common.ErrInvalidArgument)
	}
	messages, err := s.messageRepo.ListByBeacon(ctx, beaconID)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return messages, nil
}

// notifyOfflineMembers delivers an APNs alert to participants who are not
// connected. Failures are logged, never surfaced to the sender.
func (s *ChatService) notifyOfflineMembers(message *models.Message) {
	if s.push == nil || !s.push.Enabled() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	members, err := s.partyRepo.ListMemberProfiles(ctx, message.BeaconID)
	if err != nil {
		log.Error().Err(err).Str("beacon_id", message.BeaconID).Msg("Failed to load members for push")
		return
	}

	for _, member := range members {
		if member.ID == message.UserID || member.PushToken == nil {
			continue
		}
		if s.hub != nil && s.hub.IsOnline(member.ID) {
			continue
		}
		if err := s.push.Notify(*member.PushToken, "New message", message.Content); err != nil {
			log.Error().
				Err(err).
				Str("user_id", member.ID).
				Str("beacon_id", message.BeaconID).
				Msg("Failed to push message notification")
		}
	}
}
