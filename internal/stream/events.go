// Package stream consumes the server-sent event feed of a search session.
//
// This package enables geofeed to:
// - Open the push connection for a search session id
// - Turn named events into typed platform data, platform errors and terminators
// - Drive a single ingest loop that forwards normalized batches to a sink
package stream

import (
	"encoding/json"
	"strings"

	"github.com/gauthierbraillon/geofeed/internal/platform"
)

// Kind classifies a received event.
type Kind int

const (
	// KindUnknown events carry a name no platform is registered for.
	KindUnknown Kind = iota
	KindData
	KindPlatformError
	KindError
	KindDone
)

const platformErrorSuffix = "_error"

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindPlatformError:
		return "platform_error"
	case KindError:
		return "error"
	case KindDone:
		return "done"
	}
	return "unknown"
}

// Event is one decoded server-sent event.
type Event struct {
	Kind     Kind
	Name     string
	ID       string
	Platform platform.Platform
	Data     json.RawMessage
}

// classify maps an event name to its kind and, for platform events, the
// platform it belongs to.
func classify(name string) (Kind, platform.Platform) {
	switch name {
	case "error":
		return KindError, ""
	case "done":
		return KindDone, ""
	}
	if tag, ok := strings.CutSuffix(name, platformErrorSuffix); ok {
		if p, ok := platform.Parse(tag); ok {
			return KindPlatformError, p
		}
		return KindUnknown, ""
	}
	if p, ok := platform.Parse(name); ok {
		return KindData, p
	}
	return KindUnknown, ""
}

// Names lists every event name a search stream may emit.
func Names() []string {
	names := make([]string, 0, 2*len(platform.All())+2)
	for _, p := range platform.All() {
		names = append(names, p.String(), p.String()+platformErrorSuffix)
	}
	return append(names, "error", "done")
}
