package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"party-radar-backend/internal/common"
	"party-radar-backend/internal/config"
	"party-radar-backend/internal/models"
)

const (
	defaultGeocoderBaseURL = "https://photon.komoot.io"
	geocoderResultLimit    = 5
)

// GeocoderService resolves free-text place searches into coordinates and
// serves autocomplete suggestions. It fronts the Photon API; results only
// populate location_name and the create-beacon location picker.
type GeocoderService struct {
	baseURL    string
	httpClient *http.Client
}

// NewGeocoderService creates a new geocoder service
func NewGeocoderService(cfg config.GeocoderConfig) *GeocoderService {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeocoderBaseURL
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &GeocoderService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Search resolves a free-text query into named coordinates
func (s *GeocoderService) Search(ctx context.Context, query string) ([]*models.Place, error) {
	features, err := s.lookup(ctx, query)
	if err != nil {
		return nil, err
	}

	places := make([]*models.Place, 0, len(features))
	for _, f := range features {
		if len(f.Geometry.Coordinates) < 2 {
			continue
		}
		places = append(places, &models.Place{
			Name: f.displayName(),
			Lng:  f.Geometry.Coordinates[0],
			Lat:  f.Geometry.Coordinates[1],
		})
	}
	return places, nil
}

// Suggest returns autocomplete entries for a prefix
func (s *GeocoderService) Suggest(ctx context.Context, prefix string) ([]*models.Suggestion, error) {
	features, err := s.lookup(ctx, prefix)
	if err != nil {
		return nil, err
	}

	suggestions := make([]*models.Suggestion, 0, len(features))
	for _, f := range features {
		suggestions = append(suggestions, &models.Suggestion{
			Name:  f.displayName(),
			Query: f.Properties.Name,
		})
	}
	return suggestions, nil
}

type photonFeature struct {
	Geometry struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties struct {
		Name    string `json:"name"`
		City    string `json:"city"`
		Country string `json:"country"`
	} `json:"properties"`
}

func (f *photonFeature) displayName() string {
	parts := make([]string, 0, 3)
	if f.Properties.Name != "" {
		parts = append(parts, f.Properties.Name)
	}
	if f.Properties.City != "" && f.Properties.City != f.Properties.Name {
		parts = append(parts, f.Properties.City)
	}
	if f.Properties.Country != "" {
		parts = append(parts, f.Properties.Country)
	}
	return strings.Join(parts, ", ")
}

func (s *GeocoderService) lookup(ctx context.Context, query string) ([]photonFeature, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: query must not be empty", common.ErrInvalidArgument)
	}

	endpoint := fmt.Sprintf("%s/api?q=%s&limit=%d",
		s.baseURL, url.QueryEscape(trimmed), geocoderResultLimit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocoder request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var body struct {
		Features []photonFeature `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}

	return body.Features, nil
}
