package display

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gauthierbraillon/geofeed/internal/aggregator"
	"github.com/gauthierbraillon/geofeed/internal/geocode"
	"github.com/gauthierbraillon/geofeed/internal/platform"
)

func ptr(v float64) *float64 { return &v }

func TestAC800_Terminal_ShowsPostTitleAndPlatform(t *testing.T) {
	post := platform.Post{
		ID:       "1790",
		Platform: platform.Twitter,
		SubType:  platform.SubTypeTop,
		Content:  "Sunset over   the\nHawa Mahal",
		URL:      "https://x.com/user/status/1790",
	}

	output := NewTerminalFormatter().FormatPost(post)

	if !strings.Contains(output, "[X-TWITTER/top]") {
		t.Error("user should see platform and tab of the post")
	}
	if !strings.Contains(output, "Sunset over the Hawa Mahal") {
		t.Error("user should see post text on one line")
	}
	if !strings.Contains(output, "https://x.com/user/status/1790") {
		t.Error("user should see the post link")
	}
}

func TestAC800_Terminal_HidesPlaceholderLink(t *testing.T) {
	post := platform.Post{ID: "p1", Platform: platform.StreetView, URL: platform.DefaultURL}

	output := NewTerminalFormatter().FormatPost(post)

	if strings.Contains(output, "  #") {
		t.Error("user should not see the placeholder link")
	}
	if !strings.Contains(output, "untitled p1") {
		t.Error("user should see the id of an untitled post")
	}
}

func TestAC801_Terminal_ShowsLocationOrItsAbsence(t *testing.T) {
	located := platform.Post{ID: "a", Platform: platform.Instagram, Lat: ptr(26.9124), Lng: ptr(75.7873)}
	unlocated := platform.Post{ID: "b", Platform: platform.Instagram}
	f := NewTerminalFormatter()

	if out := f.FormatPost(located); !strings.Contains(out, "26.91240, 75.78730") {
		t.Errorf("user should see lat, lng of a located post, got:\n%s", out)
	}
	if out := f.FormatPost(unlocated); !strings.Contains(out, "no location") {
		t.Errorf("user should be told a post cannot be mapped, got:\n%s", out)
	}
}

func TestAC802_Terminal_ShowsAuthorPriceAndEngagement(t *testing.T) {
	post := platform.Post{
		ID:         "m1",
		Platform:   platform.Marketplace,
		Title:      "Road bike",
		Price:      "1,500",
		Currency:   "USD",
		Author:     platform.Author{ScreenName: "seller"},
		Engagement: platform.Engagement{Likes: 12, Shares: 1},
	}

	output := NewTerminalFormatter().FormatPost(post)

	for _, want := range []string{"by @seller", "USD 1,500", "12 likes", "1 shares"} {
		if !strings.Contains(output, want) {
			t.Errorf("user should see %q, got:\n%s", want, output)
		}
	}
}

func TestAC803_Terminal_ShowsRelativeTimestamps(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	formatter := NewTerminalFormatter()
	formatter.now = func() time.Time { return now }

	testCases := []struct {
		name      string
		timestamp time.Time
		want      string
	}{
		{"seconds", now.Add(-10 * time.Second), "just now"},
		{"one minute", now.Add(-time.Minute), "1 minute ago"},
		{"minutes", now.Add(-30 * time.Minute), "30 minutes ago"},
		{"hours", now.Add(-3 * time.Hour), "3 hours ago"},
		{"days", now.Add(-48 * time.Hour), "2 days ago"},
		{"old", time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), "Jan 5, 2023"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatter.FormatTimestamp(tc.timestamp); got != tc.want {
				t.Errorf("user should see %q for %s old content, got %q", tc.want, tc.name, got)
			}
		})
	}
}

func TestAC803_Terminal_ParsesPlatformTimestamps(t *testing.T) {
	want := time.Date(2024, 5, 29, 16, 26, 40, 0, time.UTC)

	for _, raw := range []string{
		"1717000000",
		"1717000000000",
		"2024-05-29T16:26:40Z",
		"Wed May 29 16:26:40 +0000 2024",
	} {
		got, ok := ParseTimestamp(raw)
		if !ok {
			t.Errorf("timestamp %q should parse", raw)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("timestamp %q parsed as %v, want %v", raw, got, want)
		}
	}

	if _, ok := ParseTimestamp("yesterday"); ok {
		t.Error("free text should not parse as a timestamp")
	}
}

func TestAC804_Terminal_TruncatesLongText(t *testing.T) {
	formatter := NewTerminalFormatter()
	longText := "This is a very long text that should be truncated because it exceeds the maximum length"

	truncated := formatter.TruncateText(longText, 20)

	if len([]rune(truncated)) > 20 {
		t.Errorf("user should see truncated text (max 20 chars), got %d chars", len([]rune(truncated)))
	}
	if !strings.HasSuffix(truncated, "...") {
		t.Error("user should see ellipsis indicating text was truncated")
	}
	if got := formatter.TruncateText("Jaipur café crawl", 10); got != "Jaipur ..." {
		t.Errorf("truncation should not split characters, got %q", got)
	}
	if got := formatter.TruncateText("Short", 20); got != "Short" {
		t.Errorf("user should see full text when under limit, got: %s", got)
	}
}

func TestAC805_Terminal_ShowsFeedOrEmptyMessage(t *testing.T) {
	f := NewTerminalFormatter()
	posts := []platform.Post{
		{ID: "1", Platform: platform.GoogleNews, Title: "First headline"},
		{ID: "2", Platform: platform.GoogleNews, Title: "Second headline"},
	}

	output := f.FormatFeed(posts)

	if !strings.Contains(output, "First headline") || !strings.Contains(output, "Second headline") {
		t.Error("user should see every post in the feed")
	}
	if !strings.Contains(strings.ToLower(f.FormatFeed(nil)), "no results") {
		t.Error("user should see message indicating no results")
	}
}

func TestAC806_Terminal_SummarisesCountsPerPlatform(t *testing.T) {
	agg := aggregator.New()
	agg.Ingest(platform.Batch{Platform: platform.Twitter, SubType: platform.SubTypeTop, Posts: []platform.Post{{ID: "t1"}, {ID: "t2"}}})
	agg.Ingest(platform.Batch{Platform: platform.Twitter, SubType: platform.SubTypeLatest, Posts: []platform.Post{{ID: "t3"}}})
	agg.Ingest(platform.Batch{Platform: platform.StreetView, Posts: []platform.Post{{ID: "p1"}}})

	output := NewTerminalFormatter().FormatSummary(agg.Snapshot())

	if !strings.Contains(output, "top 2, latest 1") {
		t.Errorf("user should see counts per tab, got:\n%s", output)
	}
	if !strings.Contains(output, "Panoids") {
		t.Errorf("user should see platform display names, got:\n%s", output)
	}
	if !strings.Contains(output, "Total") || !strings.Contains(output, "4") {
		t.Errorf("user should see the total, got:\n%s", output)
	}
	if strings.Contains(output, "Facebook") {
		t.Error("platforms without results should be omitted")
	}

	if got := NewTerminalFormatter().FormatSummary(aggregator.State{}); !strings.Contains(got, "No results yet") {
		t.Errorf("empty state should say so, got %q", got)
	}
}

func TestAC807_Terminal_ShowsPlatformErrors(t *testing.T) {
	errs := map[platform.Platform]json.RawMessage{
		platform.Twitter:  json.RawMessage(`{"message":"rate limited"}`),
		platform.LinkedIn: json.RawMessage(`"timeout"`),
		platform.Facebook: json.RawMessage(`{}`),
	}

	output := NewTerminalFormatter().FormatPlatformErrors(errs)

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 3 {
		t.Fatalf("user should see one line per failed platform, got:\n%s", output)
	}
	if lines[0] != "facebook: no results for this platform" {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(output, "linkedin: no results for this platform (timeout)") {
		t.Errorf("user should see the platform reason, got:\n%s", output)
	}
	if !strings.Contains(output, "(rate limited)") {
		t.Errorf("user should see the platform message, got:\n%s", output)
	}
	if NewTerminalFormatter().FormatPlatformErrors(nil) != "" {
		t.Error("no errors should print nothing")
	}
}

func TestAC808_Terminal_ShowsGeocodedPlaces(t *testing.T) {
	features := []geocode.Feature{
		{PlaceType: []string{"poi"}, PlaceName: "Hawa Mahal, Jaipur, India", Center: []float64{75.8267, 26.9239}},
		{PlaceType: []string{"place"}, Text: "Jaipur"},
	}

	output := NewTerminalFormatter().FormatFeatures(features)

	if !strings.Contains(output, "Hawa Mahal, Jaipur, India • 26.92390, 75.82670") {
		t.Errorf("user should see place name and position, got:\n%s", output)
	}
	if !strings.Contains(output, "Jaipur") {
		t.Error("user should see the short name when no full name is given")
	}
	if !strings.Contains(NewTerminalFormatter().FormatFeatures(nil), "No places found") {
		t.Error("user should be told when nothing was found")
	}
}
