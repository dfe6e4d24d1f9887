package platform

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrUnknownPlatform is returned when no parser exists for a tag.
var ErrUnknownPlatform = eris.New("platform: unknown platform")

type parseResult struct {
	subType     string
	posts       []Post
	unsupported bool
}

// parse dispatches raw to the parser of p.
func (p Platform) parse(raw json.RawMessage) (parseResult, error) {
	switch p {
	case Twitter:
		return parseTwitter(raw)
	case Facebook:
		return parseFacebook(raw)
	case Marketplace:
		return parseMarketplace(raw)
	case LinkedIn:
		return parseLinkedIn(raw)
	case Instagram:
		return parseInstagram(raw)
	case GoogleNews:
		return parseGoogleNews(raw)
	case StreetView:
		return parseStreetView(raw)
	}
	return parseResult{}, eris.Wrapf(ErrUnknownPlatform, "platform %q", string(p))
}

// Normalize converts one raw delivery of p into a Batch. A payload that
// cannot be traversed yields an empty batch; it never fails.
func Normalize(raw json.RawMessage, p Platform) Batch {
	res, err := p.parse(raw)
	if err != nil {
		zap.L().Warn("platform: malformed payload",
			zap.String("platform", p.String()),
			zap.String("sub_type", res.subType),
			zap.Error(err),
		)
	}

	posts := res.posts
	if posts == nil || err != nil {
		posts = []Post{}
	}

	return Batch{
		Platform:    p,
		SubType:     res.subType,
		Icon:        p.Icon(),
		Count:       len(posts),
		Posts:       posts,
		Unsupported: res.unsupported,
	}
}

// NormalizeTag is Normalize for a platform tag received on the wire.
// Unknown tags produce a zero-count batch.
func NormalizeTag(raw json.RawMessage, tag string) Batch {
	p, ok := Parse(tag)
	if !ok {
		zap.L().Warn("platform: no parser registered", zap.String("platform", tag))
		return Batch{Platform: Platform(tag), Posts: []Post{}}
	}
	return Normalize(raw, p)
}
