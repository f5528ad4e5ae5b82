package handlers

import (
	"encoding/json"
	"net/http"

	"party-radar-backend/internal/middleware"
	"party-radar-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ChatHandler handles conversation HTTP requests
type ChatHandler struct {
	chatService  *services.ChatService
	partyService *services.PartyService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *services.ChatService, partyService *services.PartyService) *ChatHandler {
	return &ChatHandler{
		chatService:  chatService,
		partyService: partyService,
	}
}

// SendMessageRequest is the request body for sending a message
type SendMessageRequest struct {
	Content string `json:"content"`
}

// History handles GET /api/v1/chats/{beacon_id}/messages.
// This is the authoritative read path clients reconcile the stream against.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.CurrentUser(ctx)
	beaconID := chi.URLParam(r, "beacon_id")

	messages, err := h.chatService.History(ctx, user, beaconID)
	if err != nil {
		log.Error().Err(err).Str("beacon_id", beaconID).Msg("Failed to read chat history")
		respondError(w, err.Error(), statusFor(err))
		return
	}

	respondJSON(w, http.StatusOK, messages)
}

// SendMessage handles POST /api/v1/chats/{beacon_id}/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.CurrentUser(ctx)
	beaconID := chi.URLParam(r, "beacon_id")

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	message, err := h.chatService.Send(ctx, user, beaconID, req.Content)
	if err != nil {
		log.Error().Err(err).Str("beacon_id", beaconID).Msg("Failed to send message")
		respondError(w, err.Error(), statusFor(err))
		return
	}

	respondJSON(w, http.StatusOK, message)
}

// ListConversations handles GET /api/v1/chats
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.CurrentUser(ctx)

	conversations, err := h.partyService.Conversations(ctx, user)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list conversations")
		respondError(w, err.Error(), statusFor(err))
		return
	}

	respondJSON(w, http.StatusOK, conversations)
}
