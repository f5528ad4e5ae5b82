package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"party-radar-backend/internal/common"
	"party-radar-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PartyStore is the party-membership persistence boundary
type PartyStore interface {
	Create(ctx context.Context, member *models.PartyMember) error
	ListMemberProfiles(ctx context.Context, beaconID string) ([]*models.Profile, error)
	ListUserBeacons(ctx context.Context, userID string) ([]*models.Beacon, error)
}

// PartyService converts a beacon-join intent into a durable membership and a
// stable conversation identifier.
type PartyService struct {
	partyRepo PartyStore
	profiles  *ProfileService
}

// NewPartyService creates a new party service
func NewPartyService(partyRepo PartyStore, profiles *ProfileService) *PartyService {
	return &PartyService{
		partyRepo: partyRepo,
		profiles:  profiles,
	}
}

// Join adds the caller to a beacon's party and returns the conversation id,
// which is the beacon id. Idempotent: a duplicate membership insert is
// success, so retries and concurrent calls all converge on the same id with
// exactly one stored row.
func (s *PartyService) Join(ctx context.Context, user *models.AuthUser, beaconID string) (string, error) {
	if user == nil {
		return "", common.ErrUnauthenticated
	}
	if beaconID == "" {
		return "", fmt.Errorf("%w: beacon_id is required", common.ErrInvalidArgument)
	}

	// Membership and chat assume a resolvable profile for every participant
	if err := s.profiles.EnsureProfile(ctx, user); err != nil {
		return "", err
	}

	member := &models.PartyMember{
		ID:        uuid.New().String(),
		BeaconID:  beaconID,
		UserID:    user.ID,
		CreatedAt: time.Now(),
	}

	err := s.partyRepo.Create(ctx, member)
	if errors.Is(err, common.ErrDuplicate) {
		log.Debug().
			Str("beacon_id", beaconID).
			Str("user_id", user.ID).
			Msg("User already in party")
		return beaconID, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to join party: %w", err)
	}

	log.Info().
		Str("beacon_id", beaconID).
		Str("user_id", user.ID).
		Msg("User joined party")

	return beaconID, nil
}

// Members returns the profiles of a party's participants
func (s *PartyService) Members(ctx context.Context, beaconID string) ([]*models.Profile, error) {
	if beaconID == "" {
		return nil, fmt.Errorf("%w: beacon_id is required", common.ErrInvalidArgument)
	}
	return s.partyRepo.ListMemberProfiles(ctx, beaconID)
}

// Conversations lists the chats the caller participates in
func (s *PartyService) Conversations(ctx context.Context, user *models.AuthUser) ([]*models.Conversation, error) {
	if user == nil {
		return nil, common.ErrUnauthenticated
	}

	beacons, err := s.partyRepo.ListUserBeacons(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	conversations := make([]*models.Conversation, 0, len(beacons))
	for _, b := range beacons {
		participants, err := s.partyRepo.ListMemberProfiles(ctx, b.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list conversation participants: %w", err)
		}
		conversations = append(conversations, &models.Conversation{
			BeaconID:     b.ID,
			Mood:         b.Mood,
			ExpiresAt:    b.ExpiresAt,
			Participants: participants,
		})
	}

	return conversations, nil
}
