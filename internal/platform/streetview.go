package platform

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// PanoramaBaseURL opens a Street View panorama by id.
const PanoramaBaseURL = "https://www.google.com/maps/@?api=1&map_action=pano&pano="

func parseStreetView(raw json.RawMessage) (parseResult, error) {
	var payload streetviewPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return parseResult{}, eris.Wrap(err, "platform: decode panoids")
	}

	panoramas := decodeEach[streetviewPanorama](payload.Panoids, "panorama")
	posts := make([]Post, 0, len(panoramas))
	for _, pano := range panoramas {
		id := string(pano.Panoid)
		post := Post{
			ID:          id,
			Platform:    StreetView,
			Title:       "panoid - " + id,
			Description: "description - " + id,
			Image:       iconStreetView,
			URL:         PanoramaBaseURL + id,
			Historical:  bool(payload.Historical),
		}
		if pano.Lat.set && pano.Lon.set {
			post.Lat = pano.Lat.ptr()
			post.Lng = pano.Lon.ptr()
		}
		posts = append(posts, post)
	}

	return parseResult{posts: posts}, nil
}

// Street View payload types (private - implementation detail)

type streetviewPayload struct {
	Historical looseBool         `json:"historical"`
	Panoids    []json.RawMessage `json:"panoids"`
}

type streetviewPanorama struct {
	Panoid looseString `json:"panoid"`
	Lat    looseFloat  `json:"lat"`
	Lon    looseFloat  `json:"lon"`
}
