package geocode

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gauthierbraillon/geofeed/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jaipurResponse = `{
	"type": "FeatureCollection",
	"features": [
		{"id": "place.1", "type": "Feature", "place_type": ["place"], "text": "Jaipur", "place_name": "Jaipur, Rajasthan, India", "center": [75.7873, 26.9124]},
		{"id": "region.2", "type": "Feature", "place_type": ["region"], "text": "Rajasthan", "place_name": "Rajasthan, India", "center": [74.2, 27.0]}
	]
}`

func TestAC301_Reverse_RequestsLngLatPath(t *testing.T) {
	var gotPath, gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("access_token")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, jaipurResponse)
	}))
	defer server.Close()

	client := NewClient("pk.test", WithBaseURL(server.URL))
	features, err := client.Reverse(context.Background(), Coordinates{Lat: 26.9124, Lng: 75.7873})

	require.NoError(t, err)
	assert.Equal(t, "/geocoding/v5/mapbox.places/75.7873,26.9124.json", gotPath)
	assert.Equal(t, "pk.test", gotToken)
	require.Len(t, features, 2)
	assert.Equal(t, "Jaipur, Rajasthan, India", features[0].PlaceName)

	at, ok := features[0].Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 26.9124, at.Lat, 1e-9)
}

func TestAC302_Reverse_NonSuccessStatusIsNoResult(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusUnprocessableEntity, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		client := NewClient("pk.test", WithBaseURL(server.URL))
		features, err := client.Reverse(context.Background(), Coordinates{Lat: 1, Lng: 2})

		assert.NoError(t, err, "status %d should not be an error", status)
		assert.NotNil(t, features)
		assert.Empty(t, features)
		server.Close()
	}
}

func TestAC302_Reverse_MissingFeaturesIsNoResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"type": "FeatureCollection"}`)
	}))
	defer server.Close()

	features, err := NewClient("pk.test", WithBaseURL(server.URL)).Reverse(context.Background(), Coordinates{})

	require.NoError(t, err)
	assert.Empty(t, features)
}

func TestAC303_Reverse_MalformedBodyIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"features": [`)
	}))
	defer server.Close()

	_, err := NewClient("pk.test", WithBaseURL(server.URL)).Reverse(context.Background(), Coordinates{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "geocode: parse response")
}

type failingHTTPClient struct{}

func (failingHTTPClient) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestAC304_Resolve_NeverReturnsAnError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	resolver := NewResolver(NewClient("pk.test", WithHTTPClient(failingHTTPClient{})), WithMetrics(m))

	features := resolver.Resolve(context.Background(), "26.9124, 75.7873")

	assert.NotNil(t, features, "user should see an empty list, not a failure")
	assert.Empty(t, features)
}

func TestAC304_Resolve_SkipsNetworkForPlainText(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, jaipurResponse)
	}))
	defer server.Close()

	resolver := NewResolver(NewClient("pk.test", WithBaseURL(server.URL)))

	assert.Empty(t, resolver.Resolve(context.Background(), "hello world"))
	assert.Equal(t, int32(0), calls.Load(), "plain text should not reach the geocoder")

	assert.Len(t, resolver.Resolve(context.Background(), "Lat: 26.9124 Lng: 75.7873"), 2)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAC305_ResolveAsync_DeliversAfterDone(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = io.WriteString(w, jaipurResponse)
	}))
	defer server.Close()

	resolver := NewResolver(NewClient("pk.test", WithBaseURL(server.URL)))
	pending := resolver.ResolveAsync(context.Background(), "26.9124, 75.7873")

	require.True(t, pending.Matched())
	select {
	case <-pending.Done():
		t.Fatal("lookup should still be in flight")
	default:
	}

	close(release)
	select {
	case <-pending.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("lookup should finish once the geocoder answers")
	}
	assert.Len(t, pending.Features(), 2)
	assert.InDelta(t, 75.7873, pending.Coordinates().Lng, 1e-9)
}

func TestAC305_ResolveAsync_PlainTextCompletesImmediately(t *testing.T) {
	resolver := NewResolver(NewClient("pk.test", WithHTTPClient(failingHTTPClient{})))

	pending := resolver.ResolveAsync(context.Background(), "hello world")

	select {
	case <-pending.Done():
	default:
		t.Fatal("a non-coordinate query should complete synchronously")
	}
	assert.False(t, pending.Matched())
	assert.Empty(t, pending.Features())
}

func TestPending_WaitHonoursContext(t *testing.T) {
	p := &Pending{done: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Wait(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
