// Package platform turns raw, platform-native search payloads into the
// uniform Post model used by the rest of geofeed.
//
// This package enables geofeed to:
// - Identify the supported platforms as a closed set
// - Decode each platform's nested JSON shape defensively
// - Normalize one raw delivery into a Batch tagged with platform metadata
package platform

// Platform identifies a search source.
type Platform string

const (
	Twitter     Platform = "x-twitter"
	Facebook    Platform = "facebook"
	Marketplace Platform = "facebook-marketplace"
	LinkedIn    Platform = "linkedin"
	Instagram   Platform = "instagram"
	GoogleNews  Platform = "google-news"
	StreetView  Platform = "streetview"
)

// Twitter sub-types.
const (
	SubTypeTop    = "top"
	SubTypeLatest = "latest"
)

// Facebook sub-types.
const (
	SubTypePosts  = "posts"
	SubTypeUsers  = "users"
	SubTypePages  = "pages"
	SubTypeGroups = "groups"
	SubTypeEvents = "events"
	SubTypeVideos = "videos"
)

// DefaultURL is used when a platform does not provide a link.
const DefaultURL = "#"

var all = []Platform{Twitter, Facebook, Marketplace, LinkedIn, Instagram, GoogleNews, StreetView}

// All returns the supported platforms in display order.
func All() []Platform {
	out := make([]Platform, len(all))
	copy(out, all)
	return out
}

// Parse resolves a platform tag. Unknown tags report false.
func Parse(tag string) (Platform, bool) {
	for _, p := range all {
		if string(p) == tag {
			return p, true
		}
	}
	return "", false
}

func (p Platform) String() string {
	return string(p)
}

// Post is the platform-agnostic search result.
type Post struct {
	ID            string   `json:"id"`
	Platform      Platform `json:"platform_type"`
	SubType       string   `json:"sub_type,omitempty"`
	Kind          string   `json:"kind,omitempty"`
	Title         string   `json:"title,omitempty"`
	Content       string   `json:"content,omitempty"`
	Description   string   `json:"description,omitempty"`
	Image         string   `json:"image,omitempty"`
	FallbackImage string   `json:"fallback_image,omitempty"`
	URL           string   `json:"url"`
	Lat           *float64 `json:"lat"`
	Lng           *float64 `json:"lng"`
	Historical    bool     `json:"historical"`
	PostedAt      string   `json:"posted_at,omitempty"`

	Author     Author     `json:"author"`
	Engagement Engagement `json:"engagement"`

	// Marketplace listings only.
	Price    string `json:"price,omitempty"`
	Currency string `json:"currency,omitempty"`

	// Facebook users, pages, groups and events.
	Entity *Entity `json:"entity,omitempty"`
}

// HasLocation reports whether the post can be placed on the map.
func (p Post) HasLocation() bool {
	return p.Lat != nil && p.Lng != nil
}

// Author holds who published a post.
type Author struct {
	Name         string `json:"name,omitempty"`
	ScreenName   string `json:"screen_name,omitempty"`
	ProfilePhoto string `json:"profile_photo,omitempty"`
	Verified     bool   `json:"verified,omitempty"`
}

// Engagement holds engagement counts for a post.
type Engagement struct {
	Likes     int64 `json:"likes,omitempty"`
	Replies   int64 `json:"replies,omitempty"`
	Shares    int64 `json:"shares,omitempty"`
	Reactions int64 `json:"reactions,omitempty"`
}

// Entity carries the attributes of Facebook users, pages, groups and events.
type Entity struct {
	Info           string `json:"info,omitempty"`
	Followers      string `json:"followers,omitempty"`
	Members        string `json:"members,omitempty"`
	PostsFrequency string `json:"posts_frequency,omitempty"`

	Attendings     string `json:"attendings,omitempty"`
	StartTimestamp string `json:"start_timestamp,omitempty"`
	EndTimestamp   string `json:"end_timestamp,omitempty"`
	StartText      string `json:"start_text,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
	IsAllDay       bool   `json:"is_all_day,omitempty"`
	Location       string `json:"location,omitempty"`
	PastEvent      bool   `json:"past_event,omitempty"`
}

// Batch is the normalized form of one raw delivery.
type Batch struct {
	Platform    Platform `json:"type"`
	SubType     string   `json:"sub_type,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	Count       int      `json:"count"`
	Posts       []Post   `json:"posts"`
	Unsupported bool     `json:"unsupported,omitempty"`
}
