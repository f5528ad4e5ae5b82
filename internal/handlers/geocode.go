package handlers

import (
	"net/http"

	"party-radar-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// GeocodeHandler proxies place search and autocomplete
type GeocodeHandler struct {
	geocoder *services.GeocoderService
}

// NewGeocodeHandler creates a new geocode handler
func NewGeocodeHandler(geocoder *services.GeocoderService) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder}
}

// Search handles GET /api/v1/geo/search?q=
func (h *GeocodeHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query().Get("q")

	places, err := h.geocoder.Search(ctx, query)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Geocoder search failed")
		respondError(w, err.Error(), statusFor(err))
		return
	}

	respondJSON(w, http.StatusOK, places)
}

// Suggest handles GET /api/v1/geo/suggest?q=
func (h *GeocodeHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	prefix := r.URL.Query().Get("q")

	suggestions, err := h.geocoder.Suggest(ctx, prefix)
	if err != nil {
		log.Error().Err(err).Str("query", prefix).Msg("Geocoder suggest failed")
		respondError(w, err.Error(), statusFor(err))
		return
	}

	respondJSON(w, http.StatusOK, suggestions)
}
