package geocode

import (
	"context"

	"github.com/gauthierbraillon/geofeed/internal/metrics"
	"go.uber.org/zap"
)

// Reverser looks up the places at a coordinate pair.
type Reverser interface {
	Reverse(ctx context.Context, at Coordinates) ([]Feature, error)
}

// ResolverOption configures the Resolver.
type ResolverOption func(*Resolver)

// WithMetrics records lookup outcomes on m.
func WithMetrics(m *metrics.Collector) ResolverOption {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// Resolver turns free-text coordinate queries into places. It never
// returns an error: every failure degrades to no features.
type Resolver struct {
	reverser Reverser
	metrics  *metrics.Collector
}

// NewResolver creates a Resolver backed by reverser.
func NewResolver(reverser Reverser, opts ...ResolverOption) *Resolver {
	r := &Resolver{reverser: reverser}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks up text synchronously. Text that is not a coordinate pair
// returns an empty slice without a network call.
func (r *Resolver) Resolve(ctx context.Context, text string) []Feature {
	at, ok := MatchCoordinates(text)
	if !ok {
		r.metrics.GeocodeLookup(metrics.GeocodeNoMatch)
		return []Feature{}
	}
	return r.lookup(ctx, at)
}

func (r *Resolver) lookup(ctx context.Context, at Coordinates) []Feature {
	features, err := r.reverser.Reverse(ctx, at)
	if err != nil {
		zap.L().Error("geocode: reverse geocoding failed",
			zap.Float64("lat", at.Lat),
			zap.Float64("lng", at.Lng),
			zap.Error(err),
		)
		r.metrics.GeocodeLookup(metrics.GeocodeFailed)
		return []Feature{}
	}
	if len(features) == 0 {
		r.metrics.GeocodeLookup(metrics.GeocodeEmpty)
		return []Feature{}
	}
	r.metrics.GeocodeLookup(metrics.GeocodeMatched)
	return features
}

// ResolveAsync starts a lookup and returns immediately. The returned
// Pending is already complete when text is not a coordinate pair.
func (r *Resolver) ResolveAsync(ctx context.Context, text string) *Pending {
	p := &Pending{done: make(chan struct{})}

	at, ok := MatchCoordinates(text)
	if !ok {
		r.metrics.GeocodeLookup(metrics.GeocodeNoMatch)
		p.complete([]Feature{})
		return p
	}
	p.at, p.matched = at, true

	go func() {
		p.complete(r.lookup(ctx, at))
	}()
	return p
}

// Pending is the result of an asynchronous lookup. Features may only be
// read once Done is closed.
type Pending struct {
	done     chan struct{}
	features []Feature
	at       Coordinates
	matched  bool
}

func (p *Pending) complete(features []Feature) {
	p.features = features
	close(p.done)
}

// Done is closed when the lookup has finished.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Matched reports whether the query was a coordinate pair.
func (p *Pending) Matched() bool {
	return p.matched
}

// Coordinates returns the parsed query position.
func (p *Pending) Coordinates() Coordinates {
	return p.at
}

// Features blocks until the lookup finishes and returns its places.
func (p *Pending) Features() []Feature {
	<-p.done
	return p.features
}

// Wait is Features bounded by ctx.
func (p *Pending) Wait(ctx context.Context) ([]Feature, error) {
	select {
	case <-p.done:
		return p.features, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
