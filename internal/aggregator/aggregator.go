package aggregator

import (
	"slices"
	"sync"

	"github.com/gauthierbraillon/geofeed/internal/platform"
	"go.uber.org/zap"
)

// Aggregator accumulates batches for one search session. It is safe for
// concurrent use; every Ingest completes under the lock.
type Aggregator struct {
	mu    sync.RWMutex
	state State
	seen  map[bucketKey]map[string]struct{}
}

type bucketKey struct {
	platform platform.Platform
	subType  string
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{
		state: State{Flat: make(map[platform.Platform][]platform.Post)},
		seen:  make(map[bucketKey]map[string]struct{}),
	}
}

// Ingest appends the posts of b to their bucket, dropping any post whose ID
// is already present. The first copy of a post wins.
func (a *Aggregator) Ingest(b platform.Batch) IngestResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	res, ok := merge(&a.state, b, a.seenFor(b))
	if !ok {
		zap.L().Debug("aggregator: batch skipped",
			zap.String("platform", b.Platform.String()),
			zap.String("sub_type", b.SubType),
			zap.Bool("unsupported", b.Unsupported),
		)
	}
	return res
}

func (a *Aggregator) seenFor(b platform.Batch) map[string]struct{} {
	key := bucketKey{platform: b.Platform, subType: subTypeKey(b.Platform, b.SubType)}
	ids, ok := a.seen[key]
	if !ok {
		ids = make(map[string]struct{})
		a.seen[key] = ids
	}
	return ids
}

// Reset discards all accumulated posts.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state = State{Flat: make(map[platform.Platform][]platform.Post)}
	a.seen = make(map[bucketKey]map[string]struct{})
}

// Snapshot returns a copy of the accumulated state.
func (a *Aggregator) Snapshot() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.Clone()
}

// Posts returns a copy of one bucket.
func (a *Aggregator) Posts(p platform.Platform, subType string) []platform.Post {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return clonePosts(a.state.Bucket(p, subType))
}

// Count returns the number of accumulated posts.
func (a *Aggregator) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.Len()
}

// Feed returns accumulated posts flattened in platform display order, then
// tab order, then arrival order.
func (a *Aggregator) Feed(opts FeedOptions) []platform.Post {
	a.mu.RLock()
	defer a.mu.RUnlock()

	feed := make([]platform.Post, 0)
	for _, p := range platform.All() {
		if len(opts.Platforms) > 0 && !slices.Contains(opts.Platforms, p) {
			continue
		}
		if opts.Visible != nil && !opts.Visible(p) {
			continue
		}
		for _, subType := range SubTypes(p) {
			if len(opts.SubTypes) > 0 && subType != "" && !slices.Contains(opts.SubTypes, subType) {
				continue
			}
			for _, post := range a.state.Bucket(p, subType) {
				if opts.LocatedOnly && !post.HasLocation() {
					continue
				}
				feed = append(feed, post)
				if opts.Limit > 0 && len(feed) >= opts.Limit {
					return feed
				}
			}
		}
	}
	return feed
}

// Merge returns state with b merged in, leaving state untouched.
func Merge(state State, b platform.Batch) State {
	out := state.Clone()
	existing, _ := out.get(b.Platform, b.SubType)
	seen := make(map[string]struct{}, len(existing))
	for _, post := range existing {
		seen[post.ID] = struct{}{}
	}
	merge(&out, b, seen)
	return out
}

// merge appends b into s. seen holds the IDs already in the target bucket
// and is updated in place.
func merge(s *State, b platform.Batch, seen map[string]struct{}) (IngestResult, bool) {
	if b.Unsupported {
		return IngestResult{Skipped: true}, false
	}
	bucket, ok := s.get(b.Platform, b.SubType)
	if !ok {
		return IngestResult{Skipped: true}, false
	}

	var res IngestResult
	for _, post := range b.Posts {
		if _, dup := seen[post.ID]; dup {
			res.Duplicates++
			continue
		}
		seen[post.ID] = struct{}{}
		bucket = append(bucket, post)
		res.Added++
	}
	s.set(b.Platform, b.SubType, bucket)
	return res, true
}

// SubTypes lists the buckets of p in tab order. Platforms without
// sub-types have a single unnamed bucket.
func SubTypes(p platform.Platform) []string {
	switch p {
	case platform.Twitter:
		return []string{platform.SubTypeTop, platform.SubTypeLatest}
	case platform.Facebook:
		return []string{
			platform.SubTypePosts,
			platform.SubTypeUsers,
			platform.SubTypeGroups,
			platform.SubTypePages,
			platform.SubTypeEvents,
		}
	}
	return []string{""}
}

func subTypeKey(p platform.Platform, subType string) string {
	if hasSubTypes(p) {
		return subType
	}
	return ""
}
