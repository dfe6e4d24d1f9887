package platform

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

func parseGoogleNews(raw json.RawMessage) (parseResult, error) {
	var payload newsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return parseResult{}, eris.Wrap(err, "platform: decode news articles")
	}

	articles := decodeEach[newsArticle](payload.News, "news article")
	posts := make([]Post, 0, len(articles))
	for _, article := range articles {
		posts = append(posts, Post{
			ID:            string(article.Position),
			Platform:      GoogleNews,
			Title:         article.Title,
			Image:         orDefault(article.ImageURL, fallbackGoogleNews),
			FallbackImage: fallbackGoogleNews,
			URL:           orDefault(article.Link, DefaultURL),
			Historical:    bool(payload.Historical),
		})
	}

	return parseResult{posts: posts}, nil
}

// News payload types (private - implementation detail)

type newsPayload struct {
	Historical looseBool         `json:"historical"`
	News       []json.RawMessage `json:"news"`
}

type newsArticle struct {
	Position looseString `json:"position"`
	Title    string      `json:"title"`
	ImageURL string      `json:"imageUrl"`
	Link     string      `json:"link"`
}
