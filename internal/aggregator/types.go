// Package aggregator merges normalized platform batches into one
// accumulated view of a search session.
//
// This package enables geofeed to:
// - Group Twitter results by entry type and Facebook results by result type
// - Drop re-delivered posts, keeping the first copy seen
// - Provide a flattened, filterable feed for display
package aggregator

import "github.com/gauthierbraillon/geofeed/internal/platform"

// TwitterBuckets holds tweets grouped by entry type.
type TwitterBuckets struct {
	Top    []platform.Post `json:"top"`
	Latest []platform.Post `json:"latest"`
}

// FacebookBuckets holds Facebook results grouped by result type.
type FacebookBuckets struct {
	Groups []platform.Post `json:"groups"`
	Pages  []platform.Post `json:"pages"`
	Users  []platform.Post `json:"users"`
	Events []platform.Post `json:"events"`
	Posts  []platform.Post `json:"posts"`
}

// State is the accumulated result set. Post IDs are unique per bucket.
type State struct {
	Twitter  TwitterBuckets                        `json:"x-twitter"`
	Facebook FacebookBuckets                       `json:"facebook"`
	Flat     map[platform.Platform][]platform.Post `json:"platforms"`
}

// IngestResult reports what a single batch contributed.
type IngestResult struct {
	Added      int
	Duplicates int
	// Skipped is set when the batch had no bucket to land in, e.g. an
	// unsupported Facebook result type.
	Skipped bool
}

// FeedOptions configures feed retrieval.
type FeedOptions struct {
	Limit     int
	Platforms []platform.Platform
	SubTypes  []string
	// Visible hides whole platforms when it returns false.
	Visible     func(platform.Platform) bool
	LocatedOnly bool
}

// slot returns a pointer to the Twitter or Facebook bucket for subType, or
// nil when p has no such bucket.
func (s *State) slot(p platform.Platform, subType string) *[]platform.Post {
	switch p {
	case platform.Twitter:
		switch subType {
		case platform.SubTypeTop:
			return &s.Twitter.Top
		case platform.SubTypeLatest:
			return &s.Twitter.Latest
		}
	case platform.Facebook:
		switch subType {
		case platform.SubTypeGroups:
			return &s.Facebook.Groups
		case platform.SubTypePages:
			return &s.Facebook.Pages
		case platform.SubTypeUsers:
			return &s.Facebook.Users
		case platform.SubTypeEvents:
			return &s.Facebook.Events
		case platform.SubTypePosts:
			return &s.Facebook.Posts
		}
	}
	return nil
}

// hasSubTypes reports whether p groups its posts by sub-type.
func hasSubTypes(p platform.Platform) bool {
	return p == platform.Twitter || p == platform.Facebook
}

// get returns the bucket for p/subType and whether such a bucket exists.
func (s *State) get(p platform.Platform, subType string) ([]platform.Post, bool) {
	if hasSubTypes(p) {
		b := s.slot(p, subType)
		if b == nil {
			return nil, false
		}
		return *b, true
	}
	if _, ok := platform.Parse(string(p)); !ok {
		return nil, false
	}
	return s.Flat[p], true
}

// set replaces the bucket for p/subType. It must only be called after get
// reported the bucket exists.
func (s *State) set(p platform.Platform, subType string, posts []platform.Post) {
	if hasSubTypes(p) {
		*s.slot(p, subType) = posts
		return
	}
	if s.Flat == nil {
		s.Flat = make(map[platform.Platform][]platform.Post)
	}
	s.Flat[p] = posts
}

// Bucket returns the posts stored for p and subType. subType is ignored for
// platforms without sub-types.
func (s State) Bucket(p platform.Platform, subType string) []platform.Post {
	posts, _ := s.get(p, subType)
	return posts
}

// Len returns the number of posts across all buckets.
func (s State) Len() int {
	n := len(s.Twitter.Top) + len(s.Twitter.Latest) +
		len(s.Facebook.Groups) + len(s.Facebook.Pages) + len(s.Facebook.Users) +
		len(s.Facebook.Events) + len(s.Facebook.Posts)
	for _, posts := range s.Flat {
		n += len(posts)
	}
	return n
}

// Clone returns a copy whose slices do not alias s. Posts are copied by value.
func (s State) Clone() State {
	out := State{
		Twitter: TwitterBuckets{
			Top:    clonePosts(s.Twitter.Top),
			Latest: clonePosts(s.Twitter.Latest),
		},
		Facebook: FacebookBuckets{
			Groups: clonePosts(s.Facebook.Groups),
			Pages:  clonePosts(s.Facebook.Pages),
			Users:  clonePosts(s.Facebook.Users),
			Events: clonePosts(s.Facebook.Events),
			Posts:  clonePosts(s.Facebook.Posts),
		},
		Flat: make(map[platform.Platform][]platform.Post, len(s.Flat)),
	}
	for p, posts := range s.Flat {
		out.Flat[p] = clonePosts(posts)
	}
	return out
}

func clonePosts(posts []platform.Post) []platform.Post {
	if posts == nil {
		return nil
	}
	out := make([]platform.Post, len(posts))
	copy(out, posts)
	return out
}
