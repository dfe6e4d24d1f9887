package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/gauthierbraillon/geofeed/internal/metrics"
	"github.com/gauthierbraillon/geofeed/internal/platform"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var (
	// ErrAlreadyStarted is returned when Run is called a second time.
	ErrAlreadyStarted = eris.New("stream: ingestor already started")
	// ErrServer is wrapped by the error reported for a terminal "error" event.
	ErrServer = eris.New("stream: search failed on the server")
	// ErrUnexpectedEOF is reported when the server ends the stream without
	// sending "done" or "error".
	ErrUnexpectedEOF = eris.New("stream: connection ended before the search completed")
)

// State is the lifecycle position of an Ingestor.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateErrored
}

// Sink receives the outcome of every event of one session.
type Sink interface {
	// Streaming is called once the connection is open.
	Streaming()
	HandleBatch(b platform.Batch)
	// HandlePlatformError records a failure scoped to one platform; the
	// stream continues.
	HandlePlatformError(p platform.Platform, payload json.RawMessage)
	Complete(payload json.RawMessage)
	Fail(err error)
}

// IngestorOption configures the Ingestor.
type IngestorOption func(*Ingestor)

// WithMetrics counts received events on m.
func WithMetrics(m *metrics.Collector) IngestorOption {
	return func(i *Ingestor) {
		i.metrics = m
	}
}

// Ingestor owns the stream of one search session and feeds a Sink from a
// single loop. An Ingestor runs once; a new session needs a new Ingestor.
type Ingestor struct {
	client    *Client
	sessionID string
	sink      Sink
	metrics   *metrics.Collector

	mu      sync.Mutex
	state   State
	started bool
	conn    *Conn
	cancel  context.CancelFunc
}

// NewIngestor creates an idle Ingestor for sessionID.
func NewIngestor(client *Client, sessionID string, sink Sink, opts ...IngestorOption) *Ingestor {
	i := &Ingestor{
		client:    client,
		sessionID: sessionID,
		sink:      sink,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// State returns the current lifecycle position.
func (i *Ingestor) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Run connects and consumes events until a terminator arrives, the
// connection fails, Close is called or ctx is cancelled. It returns nil
// after "done" or a local Close, and ctx.Err() after cancellation.
func (i *Ingestor) Run(ctx context.Context) error {
	i.mu.Lock()
	switch {
	case i.started:
		i.mu.Unlock()
		return ErrAlreadyStarted
	case i.state.Terminal():
		i.mu.Unlock()
		return ErrClosed
	}
	i.started = true
	i.state = StateConnecting
	connectCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	i.cancel = cancel
	i.mu.Unlock()

	log := zap.L().With(zap.String("session_id", i.sessionID))

	conn, err := i.client.Connect(connectCtx, i.sessionID)
	if err != nil {
		if i.State() == StateClosed && ctx.Err() == nil {
			// Closed while connecting.
			return nil
		}
		if i.finish(StateErrored) {
			i.sink.Fail(err)
		}
		return err
	}

	i.mu.Lock()
	if i.state.Terminal() {
		i.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	i.conn = conn
	i.state = StateStreaming
	i.mu.Unlock()

	log.Info("stream: connected")
	i.sink.Streaming()

	for {
		ev, err := conn.Next()
		if err != nil {
			return i.handleReadError(ctx, err)
		}
		i.metrics.StreamEvent(ev.Kind.String(), ev.Platform.String())

		switch ev.Kind {
		case KindData:
			batch := platform.Normalize(ev.Data, ev.Platform)
			log.Debug("stream: batch received",
				zap.String("platform", ev.Platform.String()),
				zap.String("sub_type", batch.SubType),
				zap.Int("count", batch.Count),
			)
			i.sink.HandleBatch(batch)

		case KindPlatformError:
			log.Warn("stream: platform reported an error",
				zap.String("platform", ev.Platform.String()),
				zap.ByteString("payload", ev.Data),
			)
			i.sink.HandlePlatformError(ev.Platform, ev.Data)

		case KindDone:
			if i.finish(StateClosed) {
				log.Info("stream: search completed")
				i.sink.Complete(ev.Data)
			}
			return nil

		case KindError:
			err := eris.Wrapf(ErrServer, "payload %s", string(ev.Data))
			if i.finish(StateErrored) {
				log.Error("stream: search failed", zap.Error(err))
				i.sink.Fail(err)
			}
			return err
		}
	}
}

func (i *Ingestor) handleReadError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		i.finish(StateClosed)
		return ctxErr
	}
	if errors.Is(err, ErrClosed) || i.State() == StateClosed {
		i.finish(StateClosed)
		return nil
	}
	if errors.Is(err, io.EOF) {
		err = ErrUnexpectedEOF
	}
	if i.finish(StateErrored) {
		i.sink.Fail(err)
	}
	return err
}

// finish moves to a terminal state and closes the connection exactly once.
// It reports false when the Ingestor was already terminal.
func (i *Ingestor) finish(to State) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state.Terminal() {
		return false
	}
	i.state = to
	if i.conn != nil {
		_ = i.conn.Close()
	}
	if i.cancel != nil {
		i.cancel()
	}
	return true
}

// Close ends the stream from the caller's side. It is safe to call at any
// time and more than once.
func (i *Ingestor) Close() error {
	i.finish(StateClosed)
	return nil
}
