package platform

// Marker and fallback icon assets, relative to the front-end asset root.
const (
	iconTwitter               = "svg/marker/x-pin-red-dot.svg"
	iconTwitterHistorical     = "svg/marker/x-pin.svg"
	iconFacebook              = "svg/marker/facebook-pin-red-dot.svg"
	iconFacebookHistorical    = "svg/marker/facebook-pin.svg"
	iconMarketplace           = "svg/marker/facebook-marketplace-pin-red-dot.svg"
	iconMarketplaceHistorical = "svg/marker/facebook-marketplace-pin.svg"
	iconLinkedIn              = "svg/marker/linkedin-pin.svg"
	iconInstagram             = "svg/marker/insta-pin.svg"
	iconGoogleNews            = "svg/marker/google-news-pin.svg"
	iconStreetView            = "svg/marker/panoids-pin.svg"

	fallbackFacebook    = "svg/marker/facebook-pin.svg"
	fallbackMarketplace = "svg/marker/facebook-marketplace-pin.svg"
	fallbackGoogleNews  = "svg/marker/google-news.svg"
)

// Metadata describes how a platform is presented.
type Metadata struct {
	Name              string
	Slug              Platform
	TabIcon           string
	MapIcon           string
	MapIconHistorical string
	Visible           bool
	Tabs              []string
}

var metadata = map[Platform]Metadata{
	Twitter: {
		Name:              "X (Twitter)",
		Slug:              Twitter,
		TabIcon:           "ri:twitter-x-fill",
		MapIcon:           iconTwitter,
		MapIconHistorical: iconTwitterHistorical,
		Visible:           true,
		Tabs:              []string{"Top", "Latest"},
	},
	Facebook: {
		Name:              "Facebook",
		Slug:              Facebook,
		TabIcon:           "lucide:facebook",
		MapIcon:           iconFacebook,
		MapIconHistorical: iconFacebookHistorical,
		Visible:           true,
		Tabs:              []string{"Posts", "Users", "Groups", "Videos", "Pages", "Events"},
	},
	Marketplace: {
		Name:              "Marketplace",
		Slug:              Marketplace,
		TabIcon:           "lucide:facebook",
		MapIcon:           iconMarketplace,
		MapIconHistorical: iconMarketplaceHistorical,
		Visible:           true,
	},
	LinkedIn: {
		Name:              "LinkedIn",
		Slug:              LinkedIn,
		TabIcon:           "mdi:linkedin",
		MapIcon:           iconLinkedIn,
		MapIconHistorical: iconLinkedIn,
		Visible:           true,
	},
	Instagram: {
		Name:              "Instagram",
		Slug:              Instagram,
		TabIcon:           "lucide:instagram",
		MapIcon:           iconInstagram,
		MapIconHistorical: iconInstagram,
		Visible:           true,
	},
	GoogleNews: {
		Name:              "Google News",
		Slug:              GoogleNews,
		TabIcon:           "simple-icons:googlenews",
		MapIcon:           iconGoogleNews,
		MapIconHistorical: iconGoogleNews,
		Visible:           true,
	},
	StreetView: {
		Name:              "Panoids",
		Slug:              StreetView,
		TabIcon:           "lucide:map-pinned",
		MapIcon:           iconStreetView,
		MapIconHistorical: iconStreetView,
		Visible:           true,
	},
}

// Meta returns the static metadata of p.
func (p Platform) Meta() (Metadata, bool) {
	m, ok := metadata[p]
	return m, ok
}

// Icon returns the map icon of p, or "" when p is unknown.
func (p Platform) Icon() string {
	return metadata[p].MapIcon
}

// Tabs returns the sub-type tabs shown for p.
func (p Platform) Tabs() []string {
	return metadata[p].Tabs
}
