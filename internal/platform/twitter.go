package platform

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

func parseTwitter(raw json.RawMessage) (parseResult, error) {
	entryType, value, historical, err := firstEntry(raw)
	if err != nil {
		return parseResult{}, err
	}

	var entries twitterEntries
	if err := json.Unmarshal(value, &entries); err != nil {
		return parseResult{subType: entryType}, eris.Wrapf(err, "platform: decode %s tweets", entryType)
	}

	tweets := decodeEach[twitterEntry](entries.Tweets, "tweet")
	posts := make([]Post, 0, len(tweets))
	for _, entry := range tweets {
		tweet := entry.Tweet
		if tweet == nil {
			tweet = &twitterTweet{}
		}

		post := Post{
			ID:            string(entry.EntryID),
			Platform:      Twitter,
			SubType:       entryType,
			Kind:          "text",
			Content:       tweet.FullText,
			URL:           orDefault(tweet.URL, DefaultURL),
			FallbackImage: iconTwitter,
			Historical:    historical,
			PostedAt:      string(tweet.CreatedAt),
			Engagement: Engagement{
				Likes:   int64(tweet.FavoriteCount),
				Replies: int64(tweet.ReplyCount),
				Shares:  int64(tweet.RetweetCount),
			},
		}

		if user := tweet.User; user != nil {
			post.Author = Author{
				Name:         user.Name,
				ScreenName:   user.ScreenName,
				ProfilePhoto: user.ProfileImageURL,
				Verified:     bool(user.Verified),
			}
		}

		if media := tweet.firstMedia(); media != nil {
			post.Kind = orDefault(media.Type, post.Kind)
			post.Image = media.MediaURL
		}

		if lng, lat, ok := tweet.corner(); ok {
			post.Lat = lat.ptr()
			post.Lng = lng.ptr()
		}

		posts = append(posts, post)
	}

	return parseResult{subType: entryType, posts: posts}, nil
}

// Twitter payload types (private - implementation detail)

type twitterEntries struct {
	Tweets []json.RawMessage `json:"tweets"`
}

type twitterEntry struct {
	EntryID looseString   `json:"entryId"`
	Tweet   *twitterTweet `json:"tweet"`
}

type twitterTweet struct {
	FullText      string       `json:"full_text"`
	URL           string       `json:"url"`
	CreatedAt     looseString  `json:"created_at"`
	FavoriteCount looseInt     `json:"favorite_count"`
	ReplyCount    looseInt     `json:"reply_count"`
	RetweetCount  looseInt     `json:"retweet_count"`
	User          *twitterUser `json:"user_details"`
	Place         *struct {
		BoundingBox *struct {
			Coordinates [][][]looseFloat `json:"coordinates"`
		} `json:"bounding_box"`
	} `json:"place"`
	ExtendedEntities *struct {
		Media []twitterMedia `json:"media"`
	} `json:"extended_entities"`
}

type twitterUser struct {
	Name            string    `json:"name"`
	ScreenName      string    `json:"screen_name"`
	ProfileImageURL string    `json:"profile_image_url_https"`
	Verified        looseBool `json:"verified"`
}

type twitterMedia struct {
	Type     string `json:"type"`
	MediaURL string `json:"media_url_https"`
}

func (t *twitterTweet) firstMedia() *twitterMedia {
	if t.ExtendedEntities == nil || len(t.ExtendedEntities.Media) == 0 {
		return nil
	}
	return &t.ExtendedEntities.Media[0]
}

// corner returns the first corner of the place bounding box as [lng, lat].
// A corner with a missing or null component is no location.
func (t *twitterTweet) corner() (lng, lat looseFloat, ok bool) {
	if t.Place == nil || t.Place.BoundingBox == nil {
		return looseFloat{}, looseFloat{}, false
	}
	coords := t.Place.BoundingBox.Coordinates
	if len(coords) == 0 || len(coords[0]) == 0 || len(coords[0][0]) < 2 {
		return looseFloat{}, looseFloat{}, false
	}
	lng, lat = coords[0][0][0], coords[0][0][1]
	return lng, lat, lng.set && lat.set
}
