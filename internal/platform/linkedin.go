package platform

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

func parseLinkedIn(raw json.RawMessage) (parseResult, error) {
	var payload linkedinPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return parseResult{}, eris.Wrap(err, "platform: decode linkedin posts")
	}

	items := decodeEach[linkedinPost](payload.Posts, "linkedin post")
	posts := make([]Post, 0, len(items))
	for _, p := range items {
		image := p.PostImage
		if image == "" && p.Author != nil {
			image = p.Author.ImageURL
		}

		posts = append(posts, Post{
			ID:          string(p.URN),
			Platform:    LinkedIn,
			Title:       p.Text,
			Description: p.Text,
			Image:       orDefault(image, iconLinkedIn),
			URL:         orDefault(p.URL, DefaultURL),
			Historical:  bool(payload.Historical),
		})
	}

	return parseResult{posts: posts}, nil
}

// LinkedIn payload types (private - implementation detail)

type linkedinPayload struct {
	Historical looseBool         `json:"historical"`
	Posts      []json.RawMessage `json:"posts"`
}

type linkedinPost struct {
	URN       looseString `json:"urn"`
	Text      string      `json:"text"`
	URL       string      `json:"url"`
	PostImage string      `json:"post_image"`
	Author    *struct {
		ImageURL string `json:"image_url"`
	} `json:"author"`
}
