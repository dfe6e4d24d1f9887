package platform

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

func parseFacebook(raw json.RawMessage) (parseResult, error) {
	resultType, value, historical, err := firstEntry(raw)
	if err != nil {
		return parseResult{}, err
	}

	// Video results are not rendered.
	if resultType == SubTypeVideos {
		return parseResult{subType: resultType, unsupported: true}, nil
	}

	var envelope facebookEnvelope
	if err := json.Unmarshal(value, &envelope); err != nil {
		return parseResult{subType: resultType}, eris.Wrapf(err, "platform: decode facebook %s", resultType)
	}

	// data wins whenever it is present, even when empty.
	items := envelope.Data
	if items == nil {
		items = envelope.Results
	}

	objects := decodeEach[facebookObject](items, "facebook "+resultType)
	posts := make([]Post, 0, len(objects))
	for _, item := range objects {
		posts = append(posts, item.toPost(resultType, historical))
	}

	return parseResult{subType: resultType, posts: posts}, nil
}

func (o facebookObject) toPost(resultType string, historical bool) Post {
	post := Post{
		ID:         string(o.ID),
		Platform:   Facebook,
		SubType:    resultType,
		Kind:       resultType,
		URL:        orDefault(o.URL, DefaultURL),
		Historical: historical,
	}

	switch resultType {
	case SubTypePosts:
		post.Content = o.Message
		post.Image = fallbackFacebook
		post.PostedAt = string(o.CreationTime)
		if len(o.Attachments) > 0 {
			post.Image = orDefault(o.Attachments[0].PreviewImage, fallbackFacebook)
			post.Kind = orDefault(o.Attachments[0].AttachmentType, post.Kind)
		}
		if len(o.Actors) > 0 {
			post.Author = Author{
				Name:         o.Actors[0].Name,
				ProfilePhoto: o.Actors[0].ProfilePicture,
			}
		}
		if o.Feedback != nil {
			post.Engagement = Engagement{
				Likes:     int64(o.Feedback.LikeCount),
				Replies:   int64(o.Feedback.CommentCount),
				Shares:    int64(o.Feedback.ShareCount),
				Reactions: int64(o.Feedback.ReactionCount),
			}
		}
	case SubTypeUsers:
		post.Title = o.Name
		post.Image = string(o.PhotoURL)
		post.Entity = &Entity{Info: string(o.Info)}
	case SubTypePages:
		post.Title = o.Name
		post.Image = string(o.PhotoURL)
		post.Entity = &Entity{
			Info:           string(o.Info),
			PostsFrequency: string(o.PostsFrequency),
			Followers:      string(o.Followers),
		}
	case SubTypeGroups:
		post.Title = o.Name
		post.Image = string(o.PhotoURL)
		post.Entity = &Entity{
			Info:           string(o.Info),
			PostsFrequency: string(o.PostsFrequency),
			Members:        string(o.Members),
		}
	case SubTypeEvents:
		post.Title = o.Name
		post.Image = string(o.Picture)
		post.Entity = &Entity{
			Attendings:     string(o.Attendings),
			StartTimestamp: string(o.StartTimestamp),
			EndTimestamp:   string(o.EndTimestamp),
			StartText:      string(o.StartText),
			Timezone:       string(o.Timezone),
			IsAllDay:       bool(o.IsAllDay),
			Location:       string(o.Location),
			PastEvent:      bool(o.PastEvent),
		}
	}

	if post.Image == "" {
		post.FallbackImage = fallbackFacebook
	}
	return post
}

// Facebook payload types (private - implementation detail)

type facebookEnvelope struct {
	Data    []json.RawMessage `json:"data"`
	Results []json.RawMessage `json:"results"`
}

type facebookObject struct {
	ID  looseString `json:"id"`
	URL string      `json:"url"`

	// posts
	Message      string      `json:"message"`
	CreationTime looseString `json:"creation_time"`
	Attachments  []struct {
		PreviewImage   string `json:"preview_image"`
		AttachmentType string `json:"attachment_type"`
	} `json:"attachments"`
	Actors []struct {
		Name           string `json:"name"`
		ProfilePicture string `json:"profile_picture"`
	} `json:"actors"`
	Feedback *struct {
		ReactionCount looseInt `json:"reaction_count"`
		CommentCount  looseInt `json:"comment_count"`
		ShareCount    looseInt `json:"share_count"`
		LikeCount     looseInt `json:"like_count"`
	} `json:"feedback"`

	// users, pages, groups
	Name           string      `json:"name"`
	PhotoURL       looseString `json:"photoUrl"`
	Info           looseString `json:"info"`
	PostsFrequency looseString `json:"postsFrequency"`
	Followers      looseString `json:"followers"`
	Members        looseString `json:"members"`

	// events
	Picture        looseString `json:"picture"`
	Attendings     looseString `json:"attendings"`
	StartTimestamp looseString `json:"startTimeStamp"`
	EndTimestamp   looseString `json:"endTimeStamp"`
	StartText      looseString `json:"startText"`
	Timezone       looseString `json:"timezone"`
	IsAllDay       looseBool   `json:"isAllDay"`
	Location       looseString `json:"location"`
	PastEvent      looseBool   `json:"pastEvent"`
}
