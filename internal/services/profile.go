package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"party-radar-backend/internal/common"
	"party-radar-backend/internal/models"
)

const defaultReputation = 100

// ProfileStore is the profile persistence boundary
type ProfileStore interface {
	Upsert(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	UpdateUsername(ctx context.Context, id, username string) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
	UpdatePushToken(ctx context.Context, id string, pushToken *string) error
}

// ProfileService handles profile business logic, including the lazy identity
// bootstrap every write path depends on.
type ProfileService struct {
	profileRepo ProfileStore
}

// NewProfileService creates a new profile service
func NewProfileService(profileRepo ProfileStore) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

// EnsureProfile lazily creates the caller's profile on first write-producing
// action. The underlying upsert is create-only: it never overwrites fields of
// an existing row, in particular a custom avatar_url.
func (s *ProfileService) EnsureProfile(ctx context.Context, user *models.AuthUser) error {
	if user == nil {
		return common.ErrUnauthenticated
	}

	profile := &models.Profile{
		ID:         user.ID,
		Username:   defaultUsername(user),
		Reputation: defaultReputation,
		CreatedAt:  time.Now(),
	}
	if user.AvatarHint != "" {
		avatar := user.AvatarHint
		profile.AvatarURL = &avatar
	}

	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return fmt.Errorf("failed to ensure profile: %w", err)
	}
	return nil
}

// Get returns the caller's profile, bootstrapping it if missing
func (s *ProfileService) Get(ctx context.Context, user *models.AuthUser) (*models.Profile, error) {
	if user == nil {
		return nil, common.ErrUnauthenticated
	}
	if err := s.EnsureProfile(ctx, user); err != nil {
		return nil, err
	}
	return s.profileRepo.GetByID(ctx, user.ID)
}

// GetByID returns any user's public profile
func (s *ProfileService) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	return s.profileRepo.GetByID(ctx, id)
}

// UpdateUsername changes the caller's display name, creating the profile
// first if it does not exist yet.
func (s *ProfileService) UpdateUsername(ctx context.Context, user *models.AuthUser, username string) error {
	if user == nil {
		return common.ErrUnauthenticated
	}

	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return fmt.Errorf("%w: username must not be empty", common.ErrInvalidArgument)
	}

	err := s.profileRepo.UpdateUsername(ctx, user.ID, trimmed)
	if errors.Is(err, common.ErrNotFound) {
		if err := s.EnsureProfile(ctx, user); err != nil {
			return err
		}
		err = s.profileRepo.UpdateUsername(ctx, user.ID, trimmed)
	}
	if err != nil {
		return fmt.Errorf("failed to update username: %w", err)
	}
	return nil
}

// UpdateAvatar commits a new avatar URL. Unlike the bootstrap upsert this is
// an explicit overwrite.
func (s *ProfileService) UpdateAvatar(ctx context.Context, user *models.AuthUser, avatarURL string) error {
	if user == nil {
		return common.ErrUnauthenticated
	}

	trimmed := strings.TrimSpace(avatarURL)
	if trimmed == "" {
		return fmt.Errorf("%w: avatar_url must not be empty", common.ErrInvalidArgument)
	}

	err := s.profileRepo.UpdateAvatar(ctx, user.ID, trimmed)
	if errors.Is(err, common.ErrNotFound) {
		if err := s.EnsureProfile(ctx, user); err != nil {
			return err
		}
		err = s.profileRepo.UpdateAvatar(ctx, user.ID, trimmed)
	}
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return nil
}

// SetPushToken stores the caller's device push token
func (s *ProfileService) SetPushToken(ctx context.Context, user *models.AuthUser, pushToken *string) error {
	if user == nil {
		return common.ErrUnauthenticated
	}
	if err := s.EnsureProfile(ctx, user); err != nil {
		return err
	}
	if err := s.profileRepo.UpdatePushToken(ctx, user.ID, pushToken); err != nil {
		return fmt.Errorf("failed to set push token: %w", err)
	}
	return nil
}

// defaultUsername derives a display name from identity metadata, falling back
// to the email local-part and then to a generic label.
func defaultUsername(user *models.AuthUser) string {
	if user.DisplayNameHint != "" {
		return user.DisplayNameHint
	}
	if user.Email != "" {
		if at := strings.Index(user.Email, "@"); at > 0 {
			return user.Email[:at]
		}
	}
	return "User"
}
