package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"party-radar-backend/internal/middleware"
	"party-radar-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const defaultRadiusMeters = 5000

// BeaconHandler handles beacon-related HTTP requests
type BeaconHandler struct {
	beaconService *services.BeaconService
}

// NewBeaconHandler creates a new beacon handler
func NewBeaconHandler(beaconService *services.BeaconService) *BeaconHandler {
	return &BeaconHandler{beaconService: beaconService}
}

// FindNearby handles GET /api/v1/beacons/nearby?lat=&lng=&radius=
func (h *BeaconHandler) FindNearby(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		respondError(w, "lat must be a number", http.StatusBadRequest)
		return
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		respondError(w, "lng must be a number", http.StatusBadRequest)
		return
	}
	radius := float64(defaultRadiusMeters)
	if raw := r.URL.Query().Get("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, "radius must be a number", http.StatusBadRequest)
			return
		}
	}

	beacons, err := h.beaconService.FindNearby(ctx, lat, lng, radius)
	if err != nil {
		log.Error().Err(err).Float64("lat", lat).Float64("lng", lng).Msg("Failed to find nearby beacons")
		respondError(w, err.Error(), statusFor(err))
		return
	}

	respondJSON(w, http.StatusOK, beacons)
}

// CreateBeacon handles POST /api/v1/beacons
func (h *BeaconHandler) CreateBeacon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.CurrentUser(ctx)

	var params services.CreateBeaconParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	beacon, err := h.beaconService.Create(ctx, user, params)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create beacon")
		respondError(w, err.Error(), statusFor(err))
		return
	}

	log.Info().
		Str("beacon_id", beacon.ID).
		Str("user_id", beacon.UserID).
		Str("asset_type", beacon.Assets.Type).
		Msg("Beacon created")

	respondJSON(w, http.StatusOK, beacon)
}

// DeactivateBeacon handles DELETE /api/v1/beacons/{beacon_id}
func (h *BeaconHandler) DeactivateBeacon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.CurrentUser(ctx)
	beaconID := chi.URLParam(r, "beacon_id")

	if err := h.beaconService.Deactivate(ctx, user, beaconID); err != nil {
		log.Error().Err(err).Str("beacon_id", beaconID).Msg("Failed to deactivate beacon")
		respondError(w, err.Error(), statusFor(err))
		return
	}

	log.Info().Str("beacon_id", beaconID).Msg("Beacon deactivated")

	w.WriteHeader(http.StatusNoContent)
}
