package platform

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

const instagramPostURL = "https://www.instagram.com/p/"

func parseInstagram(raw json.RawMessage) (parseResult, error) {
	var payload instagramPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return parseResult{}, eris.Wrap(err, "platform: decode instagram media grid")
	}
	if payload.MediaGrid == nil {
		return parseResult{posts: []Post{}}, nil
	}

	sections := decodeEach[instagramSection](payload.MediaGrid.Sections, "instagram section")
	posts := make([]Post, 0, len(sections))
	for _, section := range sections {
		media := section.media()
		if media == nil {
			continue
		}

		var caption string
		if media.Caption != nil {
			caption = media.Caption.Text
		}
		var user instagramUser
		if media.User != nil {
			user = *media.User
		}

		title := caption
		if title == "" && user.Username != "" {
			title = "@" + user.Username
		}

		post := Post{
			ID:            string(media.PK),
			Platform:      Instagram,
			Title:         orDefault(title, "Unknown"),
			Description:   orDefault(caption, "No description available"),
			Image:         iconInstagram,
			FallbackImage: iconInstagram,
			URL:           DefaultURL,
			Historical:    bool(payload.Historical),
			Author: Author{
				Name:         orDefault(user.FullName, "Unknown"),
				ScreenName:   orDefault(user.Username, "Unknown"),
				ProfilePhoto: user.ProfilePicURL,
			},
		}
		if media.Code != "" {
			post.URL = instagramPostURL + media.Code + "/"
		}
		if media.Images != nil && len(media.Images.Candidates) > 0 && media.Images.Candidates[0].URL != "" {
			post.Image = media.Images.Candidates[0].URL
		}

		posts = append(posts, post)
	}

	return parseResult{posts: posts}, nil
}

// Instagram payload types (private - implementation detail)

type instagramPayload struct {
	Historical looseBool `json:"historical"`
	MediaGrid  *struct {
		Sections []json.RawMessage `json:"sections"`
	} `json:"media_grid"`
}

type instagramSection struct {
	LayoutContent *struct {
		OneByTwoItem *struct {
			Clips *struct {
				Items []struct {
					Media *instagramMedia `json:"media"`
				} `json:"items"`
			} `json:"clips"`
		} `json:"one_by_two_item"`
	} `json:"layout_content"`
}

type instagramMedia struct {
	PK      looseString `json:"pk"`
	Code    string      `json:"code"`
	Caption *struct {
		Text string `json:"text"`
	} `json:"caption"`
	User   *instagramUser `json:"user"`
	Images *struct {
		Candidates []struct {
			URL string `json:"url"`
		} `json:"candidates"`
	} `json:"image_versions2"`
}

type instagramUser struct {
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	ProfilePicURL string `json:"profile_pic_url"`
}

func (s instagramSection) media() *instagramMedia {
	lc := s.LayoutContent
	if lc == nil || lc.OneByTwoItem == nil || lc.OneByTwoItem.Clips == nil {
		return nil
	}
	items := lc.OneByTwoItem.Clips.Items
	if len(items) == 0 {
		return nil
	}
	return items[0].Media
}
