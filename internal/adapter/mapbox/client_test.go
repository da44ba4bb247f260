package mapbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-hotspots/internal/observability"
)

const testToken = "test-token"

func testClient(baseURL string) *Client {
	c := NewClient(testToken, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	c.baseURL = baseURL
	return c
}

func serveJSON(t *testing.T, check func(r *http.Request), body placesResponse) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestForwardGeocode(t *testing.T) {
	srv := serveJSON(t, func(r *http.Request) {
		assert.Equal(t, "/Chennai, Tamil Nadu.json", r.URL.Path)
		assert.Equal(t, testToken, r.URL.Query().Get("access_token"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
	}, placesResponse{Features: []place{{
		Center:    []float64{80.2785, 13.0878},
		PlaceName: "Chennai, Tamil Nadu, India",
		Text:      "Chennai",
		Relevance: 0.97,
	}}})

	result, err := testClient(srv.URL).ForwardGeocode(context.Background(), "Chennai", "Tamil Nadu")
	require.NoError(t, err)
	assert.InDelta(t, 13.0878, result.Lat, 1e-9)
	assert.InDelta(t, 80.2785, result.Lon, 1e-9)
	assert.Equal(t, "Chennai, Tamil Nadu, India", result.FormattedAddress)
	assert.Equal(t, "Chennai", result.PlaceName)
	assert.InDelta(t, 0.97, result.Confidence, 1e-9)
}

func TestForwardGeocode_NoRegion(t *testing.T) {
	srv := serveJSON(t, func(r *http.Request) {
		assert.Equal(t, "/Puri.json", r.URL.Path)
	}, placesResponse{})

	result, err := testClient(srv.URL).ForwardGeocode(context.Background(), "Puri", "")
	require.NoError(t, err)
	assert.Empty(t, result.FormattedAddress)
}

func TestReverseGeocode_LonLatOrder(t *testing.T) {
	srv := serveJSON(t, func(r *http.Request) {
		assert.Equal(t, "/88.363900,22.572600.json", r.URL.Path)
	}, placesResponse{Features: []place{{
		Center:    []float64{88.3639, 22.5726},
		PlaceName: "Kolkata, West Bengal, India",
		Text:      "Kolkata",
	}}})

	result, err := testClient(srv.URL).ReverseGeocode(context.Background(), 22.5726, 88.3639)
	require.NoError(t, err)
	assert.Equal(t, "Kolkata", result.PlaceName)
}

func TestGeocode_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ForwardGeocode(context.Background(), "Chennai", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestGeocode_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).ReverseGeocode(context.Background(), 1, 2)
	assert.Error(t, err)
}

func TestGeocode_ContextCanceled(t *testing.T) {
	srv := serveJSON(t, nil, placesResponse{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).ForwardGeocode(ctx, "Chennai", "")
	assert.Error(t, err)
}
