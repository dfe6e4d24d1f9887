// Package display provides terminal output formatting for geofeed.
package display

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gauthierbraillon/geofeed/internal/aggregator"
	"github.com/gauthierbraillon/geofeed/internal/geocode"
	"github.com/gauthierbraillon/geofeed/internal/platform"
)

const separator = " • "

// TerminalFormatter formats search results for terminal display.
type TerminalFormatter struct {
	now func() time.Time
}

// NewTerminalFormatter creates a new terminal formatter.
func NewTerminalFormatter() *TerminalFormatter {
	return &TerminalFormatter{now: time.Now}
}

// FormatPost formats a single post for display.
func (f *TerminalFormatter) FormatPost(post platform.Post) string {
	var lines []string

	// Header: [PLATFORM/subtype] Title
	tag := strings.ToUpper(string(post.Platform))
	if post.SubType != "" {
		tag += "/" + post.SubType
	}
	lines = append(lines, fmt.Sprintf("[%s] %s", tag, f.TruncateText(headline(post), 100)))

	if meta := f.formatMeta(post); meta != "" {
		lines = append(lines, "  "+meta)
	}

	if post.HasLocation() {
		lines = append(lines, "  at "+latLng(*post.Lat, *post.Lng))
	} else {
		lines = append(lines, "  no location")
	}

	if engagement := f.formatEngagement(post); engagement != "" {
		lines = append(lines, "  "+engagement)
	}

	if post.URL != "" && post.URL != platform.DefaultURL {
		lines = append(lines, "  "+post.URL)
	}

	return strings.Join(lines, "\n") + "\n"
}

func headline(post platform.Post) string {
	for _, s := range []string{post.Title, post.Content, post.Description} {
		if s = strings.Join(strings.Fields(s), " "); s != "" {
			return s
		}
	}
	return "(untitled " + post.ID + ")"
}

// formatMeta joins author, timestamp and price into a single line.
func (f *TerminalFormatter) formatMeta(post platform.Post) string {
	var parts []string

	switch {
	case post.Author.Name != "":
		parts = append(parts, "by "+post.Author.Name)
	case post.Author.ScreenName != "":
		parts = append(parts, "by @"+post.Author.ScreenName)
	}
	if post.PostedAt != "" {
		if t, ok := ParseTimestamp(post.PostedAt); ok {
			parts = append(parts, f.FormatTimestamp(t))
		} else {
			parts = append(parts, post.PostedAt)
		}
	}
	if post.Price != "" {
		parts = append(parts, strings.TrimSpace(post.Currency+" "+post.Price))
	}
	if post.Historical {
		parts = append(parts, "historical")
	}

	return strings.Join(parts, separator)
}

// formatEngagement formats engagement stats into a single line.
func (f *TerminalFormatter) formatEngagement(post platform.Post) string {
	var parts []string
	e := post.Engagement

	if e.Likes > 0 {
		parts = append(parts, fmt.Sprintf("%d likes", e.Likes))
	}
	if e.Reactions > 0 {
		parts = append(parts, fmt.Sprintf("%d reactions", e.Reactions))
	}
	if e.Replies > 0 {
		parts = append(parts, fmt.Sprintf("%d replies", e.Replies))
	}
	if e.Shares > 0 {
		parts = append(parts, fmt.Sprintf("%d shares", e.Shares))
	}
	if post.Entity != nil {
		if post.Entity.Followers != "" {
			parts = append(parts, post.Entity.Followers+" followers")
		}
		if post.Entity.Members != "" {
			parts = append(parts, post.Entity.Members+" members")
		}
	}

	return strings.Join(parts, separator)
}

// FormatFeed formats multiple posts for display.
func (f *TerminalFormatter) FormatFeed(posts []platform.Post) string {
	if len(posts) == 0 {
		return "No results to display.\n"
	}

	var formatted []string
	for _, post := range posts {
		formatted = append(formatted, f.FormatPost(post))
	}

	return strings.Join(formatted, "\n---\n\n")
}

// FormatSummary lists how many posts each platform and tab holds.
func (f *TerminalFormatter) FormatSummary(state aggregator.State) string {
	var b strings.Builder
	total := 0

	for _, p := range platform.All() {
		name := p.String()
		if meta, ok := p.Meta(); ok {
			name = meta.Name
		}

		if tabs := aggregator.SubTypes(p); len(tabs) > 1 {
			var parts []string
			count := 0
			for _, sub := range tabs {
				n := len(state.Bucket(p, sub))
				count += n
				if n > 0 {
					parts = append(parts, fmt.Sprintf("%s %d", sub, n))
				}
			}
			total += count
			if count > 0 {
				fmt.Fprintf(&b, "%-14s %4d  (%s)\n", name, count, strings.Join(parts, ", "))
			}
			continue
		}

		n := len(state.Bucket(p, ""))
		total += n
		if n > 0 {
			fmt.Fprintf(&b, "%-14s %4d\n", name, n)
		}
	}

	if total == 0 {
		return "No results yet.\n"
	}
	fmt.Fprintf(&b, "%-14s %4d\n", "Total", total)
	return b.String()
}

// FormatPlatformErrors lists platforms that reported an error during the
// search. Other platforms keep their results.
func (f *TerminalFormatter) FormatPlatformErrors(errs map[platform.Platform]json.RawMessage) string {
	if len(errs) == 0 {
		return ""
	}

	keys := make([]string, 0, len(errs))
	for p := range errs {
		keys = append(keys, string(p))
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		reason := errorMessage(errs[platform.Platform(k)])
		if reason == "" {
			fmt.Fprintf(&b, "%s: no results for this platform\n", k)
			continue
		}
		fmt.Fprintf(&b, "%s: no results for this platform (%s)\n", k, reason)
	}
	return b.String()
}

func errorMessage(payload json.RawMessage) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		return body.Error
	}
	var s string
	if err := json.Unmarshal(payload, &s); err == nil {
		return s
	}
	return ""
}

// FormatFeatures formats reverse-geocoded places, most relevant first as
// returned by the geocoder.
func (f *TerminalFormatter) FormatFeatures(features []geocode.Feature) string {
	if len(features) == 0 {
		return "No places found.\n"
	}

	var b strings.Builder
	for _, feat := range features {
		kind := strings.Join(feat.PlaceType, ",")
		name := feat.PlaceName
		if name == "" {
			name = feat.Text
		}
		if c, ok := feat.Coordinates(); ok {
			fmt.Fprintf(&b, "%-12s %s%s%s\n", kind, name, separator, latLng(c.Lat, c.Lng))
			continue
		}
		fmt.Fprintf(&b, "%-12s %s\n", kind, name)
	}
	return b.String()
}

// latLng renders a position the way users type it into the search box.
func latLng(lat, lng float64) string {
	return fmt.Sprintf("%.5f, %.5f", lat, lng)
}

// ParseTimestamp reads the timestamp shapes platforms send: unix seconds
// or milliseconds, RFC 3339, and the Twitter created_at layout.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n), true
		}
		return time.Unix(n, 0), true
	}
	for _, layout := range []string{time.RFC3339, time.RubyDate, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp formats a timestamp as relative time.
func (f *TerminalFormatter) FormatTimestamp(t time.Time) string {
	diff := f.now().Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return pluralize(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return pluralize(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return pluralize(int(diff.Hours()/24), "day")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// pluralize returns "N unit ago" or "N units ago" based on count.
func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// TruncateText truncates text to maxLen runes, adding "..." if truncated.
func (f *TerminalFormatter) TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}
