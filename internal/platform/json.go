package platform

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// looseString accepts JSON strings, numbers and booleans. Objects and arrays
// are kept as compact JSON text.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*s = looseString(buf.String())
	default:
		*s = looseString(data)
	}
	return nil
}

// looseInt accepts numbers and numeric strings; anything else decodes to 0.
type looseInt int64

func (n *looseInt) UnmarshalJSON(data []byte) error {
	var raw looseString
	if err := raw.UnmarshalJSON(data); err != nil {
		return nil
	}
	if v, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
		*n = looseInt(v)
		return nil
	}
	if f, err := strconv.ParseFloat(string(raw), 64); err == nil {
		*n = looseInt(f)
		return nil
	}
	*n = 0
	return nil
}

// looseBool accepts booleans and the strings "true"/"false"/"1"/"0".
type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	var raw looseString
	if err := raw.UnmarshalJSON(data); err != nil {
		return nil
	}
	v, err := strconv.ParseBool(string(raw))
	*b = looseBool(err == nil && v)
	return nil
}

// looseFloat accepts numbers and numeric strings. Null and anything else
// leave it unset, which callers read as "no value".
type looseFloat struct {
	value float64
	set   bool
}

func (f *looseFloat) UnmarshalJSON(data []byte) error {
	var raw looseString
	if err := raw.UnmarshalJSON(data); err != nil || raw == "" {
		*f = looseFloat{}
		return nil
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*f = looseFloat{}
		return nil
	}
	*f = looseFloat{value: v, set: true}
	return nil
}

// ptr returns the value, or nil when it was absent or not a number.
func (f looseFloat) ptr() *float64 {
	if !f.set {
		return nil
	}
	return floatPtr(f.value)
}

// decodeEach decodes every element of items on its own. An element that
// does not fit T is logged and skipped; its siblings are kept.
func decodeEach[T any](items []json.RawMessage, what string) []T {
	out := make([]T, 0, len(items))
	for i, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			zap.L().Warn("platform: skipping malformed item",
				zap.String("item", what),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		out = append(out, v)
	}
	return out
}

// firstEntry returns the first key of a JSON object, in document order,
// skipping the "historical" flag which is reported separately.
func firstEntry(raw json.RawMessage) (key string, value json.RawMessage, historical bool, err error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return "", nil, false, eris.Wrap(err, "platform: read payload")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return "", nil, false, eris.New("platform: payload is not an object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return "", nil, false, eris.Wrap(err, "platform: read key")
		}
		name, _ := tok.(string)

		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return "", nil, false, eris.Wrapf(err, "platform: read value of %q", name)
		}

		if name == "historical" {
			var h looseBool
			_ = h.UnmarshalJSON(v)
			historical = bool(h)
			continue
		}
		if key == "" {
			key, value = name, v
		}
	}

	if key == "" {
		return "", nil, historical, eris.New("platform: payload has no entries")
	}
	return key, value, historical, nil
}

func floatPtr(v float64) *float64 {
	return &v
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
