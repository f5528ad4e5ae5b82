package handlers

import (
	"encoding/json"
	"net/http"

	"party-radar-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AuthHandler issues identity tokens
type AuthHandler struct {
	identity *services.IdentityService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(identity *services.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

// AnonymousRequest carries optional profile hints for a fresh identity
type AnonymousRequest struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// AnonymousResponse returns the new identity and its bearer token
type AnonymousResponse struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

// CreateAnonymous handles POST /api/v1/auth/anonymous
func (h *AuthHandler) CreateAnonymous(w http.ResponseWriter, r *http.Request) {
	var req AnonymousRequest
	if r.Body != nil {
		// Body is optional; hints default to empty
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	user := h.identity.NewAnonymousUser(req.Email, req.DisplayName, req.AvatarURL)
	token, err := h.identity.IssueToken(user)
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue token")
		respondError(w, "Failed to create identity", http.StatusInternalServerError)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("Identity issued")

	respondJSON(w, http.StatusOK, AnonymousResponse{UserID: user.ID, Token: token})
}
