package overlay

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/gauthierbraillon/geofeed/internal/platform"
)

// Marker styling.
const (
	HighlightColor = "#448ee4"
	DefaultColor   = "black"

	highlightScale      = 1.5
	highlightTransition = "transform 0.5s ease-out"

	pointScale       = 1.2
	pointTransition  = "transform 0.3s ease-out"
	pointShadowOn    = "drop-shadow(0 4px 8px rgba(0, 0, 0, 0.5))"
	pointShadowOff   = "drop-shadow(0 2px 4px rgba(0, 0, 0, 0.3))"
	pulsingPixelRate = 2
)

// Camera flight to a selected marker.
const (
	FlyToZoom  = 18.5
	FlyToSpeed = 1.2
	FlyToCurve = 1.5
)

// ErrPulsingLayerExists is returned when a pulsing layer is added twice
// without a Reset in between.
var ErrPulsingLayerExists = eris.New("overlay: pulsing layer already present")

// State is the overlay state. Only the Controller mutates it.
type State struct {
	HoveredID           string
	ActiveMarker        Marker
	CircleRadius        float64
	PulsingLayerPresent bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithResultsClearer sets what Reset empties besides the map resources.
func WithResultsClearer(rc ResultsClearer) Option {
	return func(c *Controller) {
		c.clearer = rc
	}
}

// WithClock sets the clock driving the pulsing animation.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// Controller owns the overlay resources of one map.
type Controller struct {
	m       Map
	clearer ResultsClearer
	clock   func() time.Time

	mu      sync.Mutex
	state   State
	markers map[string]Marker
}

// NewController creates a Controller drawing on m.
func NewController(m Map, opts ...Option) *Controller {
	c := &Controller{
		m:       m,
		clock:   time.Now,
		markers: make(map[string]Marker),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the overlay state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Highlight enlarges and recolours the icon of marker, or restores it.
func (c *Controller) Highlight(marker Marker, on bool) {
	icon := iconOf(marker)
	if icon == nil {
		return
	}
	if on {
		icon.SetTransition(highlightTransition)
		icon.SetScale(highlightScale)
		icon.SetFill(HighlightColor)
		return
	}
	icon.SetScale(1)
	icon.SetFill(DefaultColor)
}

// HighlightPoint lifts a point marker with a stronger shadow, or restores it.
func (c *Controller) HighlightPoint(marker Marker, on bool) {
	icon := iconOf(marker)
	if icon == nil {
		return
	}
	if on {
		icon.SetTransition(pointTransition)
		icon.SetScale(pointScale)
		icon.SetShadow(pointShadowOn)
		return
	}
	icon.SetScale(1)
	icon.SetShadow(pointShadowOff)
}

// FlyTo moves the camera onto marker.
func (c *Controller) FlyTo(marker Marker) {
	if marker == nil {
		return
	}
	c.m.FlyTo(FlyToOptions{
		Center:    marker.LngLat(),
		Zoom:      FlyToZoom,
		Speed:     FlyToSpeed,
		Curve:     FlyToCurve,
		Essential: true,
	})
}

// HighlightID highlights the registered marker of a post. Unknown ids are
// ignored.
func (c *Controller) HighlightID(id string, on bool) {
	c.Highlight(c.marker(id), on)
}

// FlyToID flies to the registered marker of a post.
func (c *Controller) FlyToID(id string) {
	c.FlyTo(c.marker(id))
}

func (c *Controller) marker(id string) Marker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.markers[id]
}

func iconOf(marker Marker) Icon {
	if marker == nil {
		return nil
	}
	return marker.Icon()
}

// SetActiveMarker records the marker Reset removes by default.
func (c *Controller) SetActiveMarker(marker Marker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ActiveMarker = marker
}

// AddPulsingLayer shows the animated dot at at. Only one may exist; Reset
// removes it.
func (c *Controller) AddPulsingLayer(at LngLat) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.PulsingLayerPresent || c.m.HasLayer(PulsingLayerID) {
		return ErrPulsingLayerExists
	}

	data, err := featureCollection(geom.NewPointFlat(geom.XY, []float64{at.Lng, at.Lat}))
	if err != nil {
		return err
	}

	dot := NewPulsingDot(c.m.TriggerRepaint, c.clock)
	if err := c.m.AddImage(PulsingImageID, dot, ImageOptions{PixelRatio: pulsingPixelRate}); err != nil {
		return eris.Wrap(err, "overlay: add pulsing image")
	}
	if err := c.m.AddSource(PulsingSourceID, Source{Type: "geojson", Data: data}); err != nil {
		c.removePulsing()
		return eris.Wrap(err, "overlay: add pulsing source")
	}
	err = c.m.AddLayer(Layer{
		ID:     PulsingLayerID,
		Type:   "symbol",
		Source: PulsingSourceID,
		Layout: map[string]any{"icon-image": PulsingImageID},
	})
	if err != nil {
		c.removePulsing()
		return eris.Wrap(err, "overlay: add pulsing layer")
	}

	c.state.PulsingLayerPresent = true
	return nil
}

// removePulsing drops whichever of the layer, source and image exist.
func (c *Controller) removePulsing() {
	if c.m.HasLayer(PulsingLayerID) {
		c.m.RemoveLayer(PulsingLayerID)
	}
	if c.m.HasSource(PulsingSourceID) {
		c.m.RemoveSource(PulsingSourceID)
	}
	if c.m.HasImage(PulsingImageID) {
		c.m.RemoveImage(PulsingImageID)
	}
	c.state.PulsingLayerPresent = false
}

// SetCircleRadius draws the search radius around center.
func (c *Controller) SetCircleRadius(center LngLat, meters float64) error {
	poly, err := CirclePolygon(center, meters)
	if err != nil {
		return err
	}
	data, err := featureCollection(poly)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.m.HasSource(CircleSourceID) {
		if err := c.m.AddSource(CircleSourceID, Source{Type: "geojson", Data: data}); err != nil {
			return eris.Wrap(err, "overlay: add circle source")
		}
	} else if err := c.m.SetSourceData(CircleSourceID, data); err != nil {
		return eris.Wrap(err, "overlay: update circle source")
	}

	c.state.CircleRadius = meters
	return nil
}

// Reset removes activeMarker (or the recorded active marker when nil), the
// pulsing dot, the radius circle and the post points, then clears the search results. It is
// safe to call when none of them exist.
func (c *Controller) Reset(activeMarker Marker) {
	c.mu.Lock()

	if activeMarker == nil {
		activeMarker = c.state.ActiveMarker
	}
	if activeMarker != nil {
		activeMarker.Remove()
	}
	c.state.ActiveMarker = nil

	c.removePulsing()

	for _, id := range []string{CircleSourceID, PostsSourceID} {
		if !c.m.HasSource(id) {
			continue
		}
		if empty, err := featureCollection(); err == nil {
			if err := c.m.SetSourceData(id, empty); err != nil {
				zap.L().Warn("overlay: clear source", zap.String("source", id), zap.Error(err))
			}
		}
	}
	c.state.CircleRadius = 0

	clearer := c.clearer
	c.mu.Unlock()

	if clearer != nil {
		clearer.ClearResults()
	}
}

// ShowPosts replaces the point source of post markers. Posts without a
// location are left off the map.
func (c *Controller) ShowPosts(posts []platform.Post) error {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(posts))}
	for _, p := range posts {
		if !p.HasLocation() {
			continue
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       p.ID,
			Geometry: geom.NewPointFlat(geom.XY, []float64{*p.Lng, *p.Lat}),
			Properties: map[string]any{
				"platform":   p.Platform.String(),
				"sub_type":   p.SubType,
				"title":      p.Title,
				"url":        p.URL,
				"historical": p.Historical,
				"icon":       p.Platform.Icon(),
			},
		})
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return eris.Wrap(err, "overlay: encode posts")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.m.HasSource(PostsSourceID) {
		if err := c.m.AddSource(PostsSourceID, Source{Type: "geojson", Data: data}); err != nil {
			return eris.Wrap(err, "overlay: add posts source")
		}
		return nil
	}
	if err := c.m.SetSourceData(PostsSourceID, data); err != nil {
		return eris.Wrap(err, "overlay: update posts source")
	}
	return nil
}

// Register associates marker with a post id so hover changes restyle it.
func (c *Controller) Register(id string, marker Marker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markers[id] = marker
}

// Unregister forgets the marker of id.
func (c *Controller) Unregister(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.markers, id)
}

// SetHovered makes id the hovered post. Every other marker is implicitly
// not hovered; registered markers are restyled to match.
func (c *Controller) SetHovered(id string) {
	c.mu.Lock()
	prev := c.state.HoveredID
	c.state.HoveredID = id
	before, after := c.markers[prev], c.markers[id]
	c.mu.Unlock()

	if prev == id {
		return
	}
	if prev != "" {
		c.Highlight(before, false)
	}
	if id != "" {
		c.Highlight(after, true)
	}
}

// Hovered returns the hovered post id, or "" when none is.
func (c *Controller) Hovered() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.HoveredID
}

// IsHovered reports whether id is the hovered post.
func (c *Controller) IsHovered(id string) bool {
	return id != "" && c.Hovered() == id
}
