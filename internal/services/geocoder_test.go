package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"party-radar-backend/internal/common"
	"party-radar-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const photonFixture = `{
	"features": [
		{
			"geometry": {"coordinates": [37.6175, 55.7520]},
			"properties": {"name": "Red Square", "city": "Moscow", "country": "Russia"}
		},
		{
			"geometry": {"coordinates": [37.59]},
			"properties": {"name": "Broken Row"}
		},
		{
			"geometry": {"coordinates": [2.3522, 48.8566]},
			"properties": {"name": "Paris", "city": "Paris", "country": "France"}
		}
	]
}`

func newTestGeocoder(t *testing.T, handler http.HandlerFunc) *GeocoderService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGeocoderService(config.GeocoderConfig{BaseURL: server.URL, TimeoutSeconds: 2})
}

func TestGeocoderSearch(t *testing.T) {
	var gotQuery string
	svc := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(photonFixture))
	})

	places, err := svc.Search(context.Background(), "  red square ")
	require.NoError(t, err)

	assert.Equal(t, "red square", gotQuery, "query is trimmed before the upstream call")
	require.Len(t, places, 2, "feature without full coordinates is skipped")
	assert.Equal(t, "Red Square, Moscow, Russia", places[0].Name)
	assert.InDelta(t, 55.7520, places[0].Lat, 1e-9)
	assert.InDelta(t, 37.6175, places[0].Lng, 1e-9)
}

func TestGeocoderSuggest(t *testing.T) {
	svc := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(photonFixture))
	})

	suggestions, err := svc.Suggest(context.Background(), "par")
	require.NoError(t, err)
	require.Len(t, suggestions, 3)
	// city equal to the name is not repeated in the display label
	assert.Equal(t, "Paris, France", suggestions[2].Name)
	assert.Equal(t, "Paris", suggestions[2].Query)
}

func TestGeocoderEmptyQuery(t *testing.T) {
	svc := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream must not be called for an empty query")
	})

	_, err := svc.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestGeocoderUpstreamError(t *testing.T) {
	svc := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := svc.Search(context.Background(), "anywhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geocoder returned status 502")
}
