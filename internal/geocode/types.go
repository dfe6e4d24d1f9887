// Package geocode resolves coordinate strings to places using a Mapbox-style
// reverse geocoding API.
//
// This package enables geofeed to:
// - Recognise "lat, lng" and "Lat: x Lng: y" queries
// - Look up the places around a coordinate pair
// - Deliver lookups asynchronously without racing the caller
package geocode

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point returns c as a geometry in lng/lat order.
func (c Coordinates) Point() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{c.Lng, c.Lat})
}

// Feature is one place returned by the reverse geocoder.
type Feature struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	PlaceType  []string        `json:"place_type"`
	Relevance  float64         `json:"relevance"`
	Text       string          `json:"text"`
	PlaceName  string          `json:"place_name"`
	Center     []float64       `json:"center"`
	Properties map[string]any  `json:"properties,omitempty"`
	Geometry   json.RawMessage `json:"geometry,omitempty"`
}

// Coordinates returns the feature center, falling back to its point
// geometry.
func (f Feature) Coordinates() (Coordinates, bool) {
	if len(f.Center) >= 2 {
		return Coordinates{Lng: f.Center[0], Lat: f.Center[1]}, true
	}
	p, err := f.Point()
	if err != nil {
		return Coordinates{}, false
	}
	return Coordinates{Lng: p.X(), Lat: p.Y()}, true
}

// Point decodes the feature geometry, which must be a GeoJSON point.
func (f Feature) Point() (*geom.Point, error) {
	if len(f.Geometry) == 0 {
		return nil, eris.New("geocode: feature has no geometry")
	}
	var g geom.T
	if err := geojson.Unmarshal(f.Geometry, &g); err != nil {
		return nil, eris.Wrap(err, "geocode: decode feature geometry")
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return nil, eris.Errorf("geocode: feature geometry is %T, not a point", g)
	}
	return p, nil
}

// API response types (private - implementation detail)

type reverseResponse struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
