package geocode

import (
	"regexp"
	"strconv"
	"strings"
)

// coordinatesPattern accepts "26.9124, 75.7873" and "Lat: 26.9124 Lng: 75.7873".
var coordinatesPattern = regexp.MustCompile(`(?i)^\s*(?:Lat: )?(-?\d+(\.\d+)?)[,\s]+(?:Lng: )?(-?\d+(\.\d+)?)\s*$`)

// MatchCoordinates parses text as a coordinate pair. The first number is
// the latitude.
func MatchCoordinates(text string) (Coordinates, bool) {
	m := coordinatesPattern.FindStringSubmatch(text)
	if m == nil {
		return Coordinates{}, false
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Coordinates{}, false
	}
	lng, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return Coordinates{}, false
	}
	return Coordinates{Lat: lat, Lng: lng}, true
}

// FormatCoordinates renders "lng,lat" with at most six decimals and no
// trailing zeros.
func FormatCoordinates(lng, lat float64) string {
	return formatDegrees(lng) + "," + formatDegrees(lat)
}

func formatDegrees(v float64) string {
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
