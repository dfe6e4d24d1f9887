// Package contracts integration tests verify that actual clients
// correctly parse API responses matching the defined contracts.
package contracts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gauthierbraillon/geofeed/internal/geocode"
	"github.com/gauthierbraillon/geofeed/internal/platform"
	"github.com/gauthierbraillon/geofeed/internal/session"
	"github.com/gauthierbraillon/geofeed/internal/stream"
)

// TestPlatformParsers_ParseContracts verifies every recorded platform
// payload normalizes into posts.
func TestPlatformParsers_ParseContracts(t *testing.T) {
	cases := []struct {
		platform platform.Platform
		contract string
		subType  string
		count    int
	}{
		{platform.StreetView, StreetViewContract, "", 2},
		{platform.GoogleNews, GoogleNewsContract, "", 1},
		{platform.Twitter, TwitterContract, platform.SubTypeLatest, 1},
		{platform.Facebook, FacebookEventsContract, platform.SubTypeEvents, 1},
	}

	for _, tc := range cases {
		batch := platform.Normalize([]byte(tc.contract), tc.platform)
		if batch.Count != tc.count {
			t.Errorf("%s: expected %d posts, got %d", tc.platform, tc.count, batch.Count)
		}
		if batch.SubType != tc.subType {
			t.Errorf("%s: expected sub-type %q, got %q", tc.platform, tc.subType, batch.SubType)
		}
	}
}

// TestTwitterContract_MapsTweetFields verifies the tweet fields users see.
func TestTwitterContract_MapsTweetFields(t *testing.T) {
	batch := platform.Normalize([]byte(TwitterContract), platform.Twitter)
	if len(batch.Posts) != 1 {
		t.Fatalf("expected 1 tweet, got %d", len(batch.Posts))
	}

	post := batch.Posts[0]
	if post.Content != "Sunset over Nahargarh" {
		t.Errorf("expected tweet text, got %q", post.Content)
	}
	if post.Author.ScreenName != "jaipurdiaries" || !post.Author.Verified {
		t.Errorf("expected verified author jaipurdiaries, got %+v", post.Author)
	}
	if post.Engagement.Replies != 3 {
		t.Errorf("numeric strings should count, got %d replies", post.Engagement.Replies)
	}
	if !post.Historical {
		t.Error("historical flag should be carried onto the post")
	}
	if !post.HasLocation() || *post.Lng != 75.7 || *post.Lat != 26.8 {
		t.Errorf("tweet should be placed at the first bounding box corner, got %v,%v", post.Lng, post.Lat)
	}
}

// TestGeocodeClient_ParsesContract verifies the reverse geocoding client
// correctly parses responses matching the contract.
func TestGeocodeClient_ParsesContract(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(ReverseGeocodeContract))
	}))
	defer server.Close()

	client := geocode.NewClient("pk.test", geocode.WithBaseURL(server.URL), geocode.WithRateLimit(0))
	features, err := client.Reverse(context.Background(), geocode.Coordinates{Lat: 26.9239, Lng: 75.8267})
	if err != nil {
		t.Fatalf("client should parse contract response: %v", err)
	}

	if gotPath != "/geocoding/v5/mapbox.places/75.8267,26.9239.json" {
		t.Errorf("lookup should be keyed lng,lat, got path %q", gotPath)
	}
	if len(features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(features))
	}
	if features[0].PlaceName != "Hawa Mahal, Jaipur, Rajasthan 302002, India" {
		t.Errorf("unexpected place name %q", features[0].PlaceName)
	}

	c, ok := features[0].Coordinates()
	if !ok || c.Lat != 26.923936 || c.Lng != 75.826685 {
		t.Errorf("center should decode as lng,lat, got %+v", c)
	}
	if _, err := features[1].Point(); err == nil {
		t.Error("feature without geometry should not decode a point")
	}
}

// TestStreamIngestor_ParsesContract verifies a recorded search stream is
// folded into session state.
func TestStreamIngestor_ParsesContract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(SearchStreamContract))
	}))
	defer server.Close()

	sess := session.New("contract")
	client := stream.NewClient(server.URL, stream.WithToken("test-token"))
	ingestor := stream.NewIngestor(client, "contract", sess)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ingestor.Run(ctx); err != nil {
		t.Fatalf("stream should complete cleanly: %v", err)
	}

	if sess.Status() != session.StatusDone {
		t.Errorf("session should be done, got %q", sess.Status())
	}

	snap := sess.Snapshot()
	if n := len(snap.Bucket(platform.StreetView, "")); n != 1 {
		t.Errorf("expected 1 panorama, got %d", n)
	}
	news := snap.Bucket(platform.GoogleNews, "")
	if len(news) != 1 || news[0].Title != "Jaipur lights up for Diwali" {
		t.Errorf("multi-line data should be joined into one payload, got %+v", news)
	}
	if _, failed := sess.PlatformErrors()[platform.Twitter]; !failed {
		t.Error("x-twitter error should be recorded without ending the stream")
	}
}
