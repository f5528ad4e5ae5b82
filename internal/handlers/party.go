package handlers

import (
	"net/http"

	"party-radar-backend/internal/middleware"
	"party-radar-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PartyHandler handles matchmaking HTTP requests
type PartyHandler struct {
	partyService *services.PartyService
}

// NewPartyHandler creates a new party handler
func NewPartyHandler(partyService *services.PartyService) *PartyHandler {
	return &PartyHandler{partyService: partyService}
}

// JoinResponse carries the conversation id for a joined party
type JoinResponse struct {
	ConversationID string `json:"conversation_id"`
}

// Join handles POST /api/v1/parties/{beacon_id}/join
func (h *PartyHandler) Join(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.CurrentUser(ctx)
	beaconID := chi.URLParam(r, "beacon_id")

	conversationID, err := h.partyService.Join(ctx, user, beaconID)
	if err != nil {
		log.Error().Err(err).Str("beacon_id", beaconID).Msg("Failed to join party")
		respondError(w, err.Error(), statusFor(err))
		return
	}

	respondJSON(w, http.StatusOK, JoinResponse{ConversationID: conversationID})
}

// Members handles GET /api/v1/parties/{beacon_id}/members
func (h *PartyHandler) Members(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	beaconID := chi.URLParam(r, "beacon_id")

	members, err := h.partyService.Members(ctx, beaconID)
	if err != nil {
		log.Error().Err(err).Str("beacon_id", beaconID).Msg("Failed to list party members")
		respondError(w, err.Error(), statusFor(err))
		return
	}

	respondJSON(w, http.StatusOK, members)
}
