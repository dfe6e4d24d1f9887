// Package session holds the state of one search: its lifecycle, the
// aggregated results and the signals the map reads.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gauthierbraillon/geofeed/internal/aggregator"
	"github.com/gauthierbraillon/geofeed/internal/metrics"
	"github.com/gauthierbraillon/geofeed/internal/platform"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status is the lifecycle position of a search.
type Status string

const (
	StatusPending   Status = "pending"
	StatusStreaming Status = "streaming"
	StatusDone      Status = "done"
	StatusErrored   Status = "errored"
)

// Terminal reports whether the search has finished.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusErrored
}

// Option configures a State.
type Option func(*State)

// WithMetrics counts merged posts on m.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *State) {
		s.metrics = m
	}
}

// State is the shared state of one search session. It implements
// stream.Sink. All methods are safe for concurrent use.
type State struct {
	id      string
	agg     *aggregator.Aggregator
	metrics *metrics.Collector
	done    chan struct{}

	// applyMu serialises Apply against Close and ClearResults so a late
	// result never lands after the session ended or was reset.
	applyMu sync.Mutex

	mu             sync.RWMutex
	status         Status
	err            error
	token          string
	closed         bool
	platformErrors map[platform.Platform]json.RawMessage
	visibility     map[platform.Platform]bool
	activePlatform platform.Platform
	dataLoaded     bool
	refresh        bool
}

// New creates a pending session.
func New(id string, opts ...Option) *State {
	s := &State{
		id:             id,
		agg:            aggregator.New(),
		done:           make(chan struct{}),
		status:         StatusPending,
		token:          uuid.NewString(),
		platformErrors: make(map[platform.Platform]json.RawMessage),
		visibility:     defaultVisibility(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultVisibility() map[platform.Platform]bool {
	v := make(map[platform.Platform]bool, len(platform.All()))
	for _, p := range platform.All() {
		meta, _ := p.Meta()
		v[p] = meta.Visible
	}
	return v
}

// ID returns the search session id.
func (s *State) ID() string { return s.id }

// Status returns the lifecycle position.
func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Err returns the failure that ended the session, if any.
func (s *State) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Done is closed once the session reaches done or errored, or is closed.
func (s *State) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session finishes or ctx ends.
func (s *State) Wait(ctx context.Context) (Status, error) {
	select {
	case <-s.done:
		return s.Status(), s.Err()
	case <-ctx.Done():
		return s.Status(), ctx.Err()
	}
}

// Aggregator returns the accumulated results.
func (s *State) Aggregator() *aggregator.Aggregator { return s.agg }

// Snapshot returns a copy of the accumulated results.
func (s *State) Snapshot() aggregator.State { return s.agg.Snapshot() }

// Streaming implements stream.Sink.
func (s *State) Streaming() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusPending {
		s.status = StatusStreaming
	}
}

// HandleBatch implements stream.Sink.
func (s *State) HandleBatch(b platform.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.status.Terminal() {
		return
	}
	if s.status == StatusPending {
		s.status = StatusStreaming
	}

	res := s.agg.Ingest(b)
	s.metrics.Ingested(b.Platform.String(), res.Added, res.Duplicates)
	if res.Added > 0 {
		s.dataLoaded = true
		s.refresh = true
	}
}

// HandlePlatformError implements stream.Sink.
func (s *State) HandlePlatformError(p platform.Platform, payload json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.platformErrors[p] = append(json.RawMessage(nil), payload...)
}

// Complete implements stream.Sink.
func (s *State) Complete(json.RawMessage) {
	s.finish(StatusDone, nil)
}

// Fail implements stream.Sink.
func (s *State) Fail(err error) {
	s.finish(StatusErrored, err)
}

func (s *State) finish(status Status, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.status.Terminal() {
		return
	}
	s.status = status
	s.err = err
	s.refresh = true
	close(s.done)

	zap.L().Info("session: search finished",
		zap.String("session_id", s.id),
		zap.String("status", string(status)),
		zap.Int("posts", s.agg.Count()),
		zap.Int("platform_errors", len(s.platformErrors)),
	)
}

// PlatformErrors returns the platforms that reported an error, with their
// payloads.
func (s *State) PlatformErrors() map[platform.Platform]json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[platform.Platform]json.RawMessage, len(s.platformErrors))
	for p, payload := range s.platformErrors {
		out[p] = payload
	}
	return out
}

// Visibility reports whether markers of p are shown.
func (s *State) Visibility(p platform.Platform) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visibility[p]
}

// SetVisibility shows or hides the markers of p.
func (s *State) SetVisibility(p platform.Platform, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visibility[p] == visible {
		return
	}
	s.visibility[p] = visible
	s.refresh = true
}

// ActivePlatform returns the platform whose tab is selected.
func (s *State) ActivePlatform() platform.Platform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activePlatform
}

// SetActivePlatform selects the tab of p.
func (s *State) SetActivePlatform(p platform.Platform) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activePlatform = p
}

// DataLoaded reports whether any post has been merged.
func (s *State) DataLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataLoaded
}

// TriggerRefresh asks the map to redraw.
func (s *State) TriggerRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = true
}

// ConsumeRefresh reports and clears a pending redraw request.
func (s *State) ConsumeRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.refresh
	s.refresh = false
	return r
}

// ClearResults empties the accumulated results and restores default
// visibility. It starts a new generation: results captured under an
// earlier token are discarded.
func (s *State) ClearResults() {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = uuid.NewString()
	s.agg.Reset()
	s.visibility = defaultVisibility()
	s.dataLoaded = false
	s.refresh = true
}

// Token returns the current generation token. Async work captures it
// before starting and hands it back to Apply.
func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Alive reports whether token belongs to the current, open generation.
func (s *State) Alive(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed && token == s.token
}

// Apply runs fn only if token is still alive, and reports whether it ran.
// fn may call any State method except Apply, ClearResults and Close.
func (s *State) Apply(token string, fn func()) bool {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	if !s.Alive(token) {
		zap.L().Debug("session: discarding stale result", zap.String("session_id", s.id))
		return false
	}
	fn()
	return true
}

// Close ends the session. Results captured under an earlier token are
// discarded from now on. Closing twice is a no-op.
func (s *State) Close() {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.token = uuid.NewString()
	if !s.status.Terminal() {
		close(s.done)
	}
}
