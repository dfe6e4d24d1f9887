package overlay

import (
	"encoding/json"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

const (
	earthRadiusMeters = 6371008.8
	circleSteps       = 64
)

// CirclePolygon returns a closed ring of circleSteps points at meters from
// center, measured along great circles.
func CirclePolygon(center LngLat, meters float64) (*geom.Polygon, error) {
	if meters <= 0 {
		return nil, eris.Errorf("overlay: circle radius must be positive, got %g", meters)
	}

	ring := make([]geom.Coord, 0, circleSteps+1)
	for i := 0; i < circleSteps; i++ {
		bearing := -360 * float64(i) / circleSteps
		p := destination(center, meters, bearing)
		ring = append(ring, geom.Coord{p.Lng, p.Lat})
	}
	ring = append(ring, ring[0])

	poly, err := geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{ring})
	if err != nil {
		return nil, eris.Wrap(err, "overlay: build circle polygon")
	}
	return poly, nil
}

// destination returns the point reached from origin after meters along
// bearing degrees.
func destination(origin LngLat, meters, bearing float64) LngLat {
	lat1 := origin.Lat * math.Pi / 180
	lng1 := origin.Lng * math.Pi / 180
	brng := bearing * math.Pi / 180
	delta := meters / earthRadiusMeters

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(brng))
	lng2 := lng1 + math.Atan2(
		math.Sin(brng)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)

	return LngLat{Lng: lng2 * 180 / math.Pi, Lat: lat2 * 180 / math.Pi}
}

// featureCollection encodes geometries as a GeoJSON FeatureCollection.
func featureCollection(geometries ...geom.T) (json.RawMessage, error) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(geometries))}
	for _, g := range geometries {
		fc.Features = append(fc.Features, &geojson.Feature{Geometry: g})
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "overlay: encode geojson")
	}
	return data, nil
}
