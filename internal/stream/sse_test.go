package stream

import (
	"io"
	"strings"
	"testing"

	"github.com/gauthierbraillon/geofeed/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoder_JoinsMultiLineData(t *testing.T) {
	d := newDecoder(strings.NewReader("event: x-twitter\ndata: {\"top\":\ndata: {}}\n\n"))

	f, err := d.next()

	require.NoError(t, err)
	assert.Equal(t, "x-twitter", f.name)
	assert.Equal(t, "{\"top\":\n{}}", f.data)

	_, err = d.next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecoder_SkipsCommentsAndKeepsLastID(t *testing.T) {
	input := ": keep-alive\r\n" +
		"id: 7\r\n" +
		"event: streetview\r\n" +
		"data: {}\r\n" +
		"\r\n" +
		"event: done\r\n" +
		"data:\r\n" +
		"\r\n"
	d := newDecoder(strings.NewReader(input))

	first, err := d.next()
	require.NoError(t, err)
	assert.Equal(t, "streetview", first.name)
	assert.Equal(t, "7", first.id)

	second, err := d.next()
	require.NoError(t, err)
	assert.Equal(t, "done", second.name)
	assert.Equal(t, "7", second.id, "id should persist until replaced")
	assert.Equal(t, "", second.data)
}

func TestDecoder_DefaultsEventNameAndIgnoresEmptyBlocks(t *testing.T) {
	d := newDecoder(strings.NewReader("event: ignored\n\n\ndata: hello\n\n"))

	f, err := d.next()

	require.NoError(t, err)
	assert.Equal(t, defaultEventName, f.name, "a block without data should not leak its name")
	assert.Equal(t, "hello", f.data)
}

func TestDecoder_DispatchesFinalEventWithoutTrailingBlankLine(t *testing.T) {
	d := newDecoder(strings.NewReader("event: done\ndata: {}"))

	f, err := d.next()

	require.NoError(t, err)
	assert.Equal(t, "done", f.name)
	_, err = d.next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestClassify_MapsEventNames(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		platform platform.Platform
	}{
		{"x-twitter", KindData, platform.Twitter},
		{"facebook-marketplace", KindData, platform.Marketplace},
		{"streetview_error", KindPlatformError, platform.StreetView},
		{"error", KindError, ""},
		{"done", KindDone, ""},
		{"message", KindUnknown, ""},
		{"tiktok_error", KindUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, p := classify(tt.name)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.platform, p)
		})
	}
}

func TestNames_CoversEveryPlatform(t *testing.T) {
	names := Names()

	assert.Len(t, names, 2*len(platform.All())+2)
	assert.Contains(t, names, "google-news_error")
	assert.Contains(t, names, "done")
}
