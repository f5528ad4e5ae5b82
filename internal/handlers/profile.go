package handlers

import (
	"encoding/json"
	"net/http"

	"party-radar-backend/internal/middleware"
	"party-radar-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ProfileHandler handles profile HTTP requests
type ProfileHandler struct {
	profileService *services.ProfileService
	avatarService  *services.AvatarService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *services.ProfileService, avatarService *services.AvatarService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		avatarService:  avatarService,
	}
}

// UpdateProfileRequest is the request body for profile updates
type UpdateProfileRequest struct {
	Username  *string `json:"username,omitempty"`
	PushToken *string `json:"push_token,omitempty"`
}

// AvatarUploadRequest asks for a pre-signed avatar upload URL
type AvatarUploadRequest struct {
	ContentType string `json:"content_type"`
}

// CommitAvatarRequest commits an uploaded avatar URL to the profile
type CommitAvatarRequest struct {
	AvatarURL string `json:"avatar_url"`
}

// GetProfile handles GET /api/v1/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.CurrentUser(ctx)

	profile, err := h.profileService.Get(ctx, user)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get profile")
		respondError(w, err.Error(), statusFor(err))
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PATCH /api/v1/profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.CurrentUser(ctx)

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username != nil {
		if err := h.profileService.UpdateUsername(ctx, user, *req.Username); err != nil {
			log.Error().Err(err).Msg("Failed to update username")
			respondError(w, err.Error(), statusFor(err))
			return
		}
	}
	if req.PushToken != nil {
		if err := h.profileService.SetPushToken(ctx, user, req.PushToken); err != nil {
			log.Error().Err(err).Msg("Failed to set push token")
			respondError(w, err.Error(), statusFor(err))
			return
		}
	}

	profile, err := h.profileService.Get(ctx, user)
	if err != nil {
		respondError(w, err.Error(), statusFor(err))
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// AvatarUploadURL handles POST /api/v1/profile/avatar-upload
func (h *ProfileHandler) AvatarUploadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.CurrentUser(ctx)
	if user == nil {
		respondError(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req AvatarUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ContentType == "" {
		req.ContentType = "image/jpeg"
	}

	response, err := h.avatarService.GetUploadURL(ctx, user.ID, req.ContentType)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create avatar upload URL")
		respondError(w, "Failed to create upload URL", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// CommitAvatar handles POST /api/v1/profile/avatar
func (h *ProfileHandler) CommitAvatar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.CurrentUser(ctx)

	var req CommitAvatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.profileService.UpdateAvatar(ctx, user, req.AvatarURL); err != nil {
		log.Error().Err(err).Msg("Failed to commit avatar")
		respondError(w, err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
