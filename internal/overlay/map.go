// Package overlay drives the map surface: marker highlighting, camera
// flights, the pulsing search-location dot and the search radius circle.
//
// The rendering library is reached only through the Map, Marker and Icon
// interfaces, so any vector map binding can host the overlay.
package overlay

import "encoding/json"

// Resource ids shared with the map style.
const (
	PulsingImageID  = "pulsing-dot"
	PulsingSourceID = "dot-point"
	PulsingLayerID  = "layer-with-pulsing-dot"
	CircleSourceID  = "circle"
	PostsSourceID   = "posts"
)

// LngLat is a map position.
type LngLat struct {
	Lng float64
	Lat float64
}

// StyleImage is an image the map can draw, optionally animated.
type StyleImage interface {
	Width() int
	Height() int
	// Data returns the current frame as non-premultiplied RGBA bytes.
	Data() []byte
	// Render updates Data for the next frame and reports whether it
	// changed.
	Render() bool
}

// ImageOptions configures AddImage.
type ImageOptions struct {
	PixelRatio float64
}

// Source is a GeoJSON data source.
type Source struct {
	Type string
	Data json.RawMessage
}

// Layer is a style layer drawn from a source.
type Layer struct {
	ID     string
	Type   string
	Source string
	Layout map[string]any
}

// FlyToOptions describes a camera animation.
type FlyToOptions struct {
	Center    LngLat
	Zoom      float64
	Speed     float64
	Curve     float64
	Essential bool
}

// Map is the subset of a vector map the overlay uses.
type Map interface {
	AddImage(id string, img StyleImage, opts ImageOptions) error
	HasImage(id string) bool
	RemoveImage(id string)

	AddSource(id string, src Source) error
	HasSource(id string) bool
	RemoveSource(id string)
	SetSourceData(id string, data json.RawMessage) error

	AddLayer(layer Layer) error
	HasLayer(id string) bool
	RemoveLayer(id string)

	FlyTo(opts FlyToOptions)
	TriggerRepaint()
}

// Marker is a placed map marker.
type Marker interface {
	// Icon returns the vector icon of the marker, or nil when it has none.
	Icon() Icon
	LngLat() LngLat
	Remove()
}

// Icon is the styleable vector graphic inside a marker.
type Icon interface {
	SetScale(scale float64)
	SetFill(color string)
	SetShadow(filter string)
	SetTransition(transition string)
}

// ResultsClearer empties the search results shown on the map.
type ResultsClearer interface {
	ClearResults()
}
