package platform

import (
	"encoding/json"
	"strconv"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const marketplaceItemURL = "https://www.facebook.com/marketplace/item/"

func parseMarketplace(raw json.RawMessage) (parseResult, error) {
	var payload marketplacePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return parseResult{}, eris.Wrap(err, "platform: decode marketplace feed")
	}
	historical := bool(payload.Historical)

	var edges []marketplaceEdge
	if payload.Data != nil && payload.Data.Search != nil && payload.Data.Search.FeedUnits != nil {
		edges = decodeEach[marketplaceEdge](payload.Data.Search.FeedUnits.Edges, "marketplace listing")
	}

	posts := make([]Post, 0, len(edges))
	for _, edge := range edges {
		node := edge.Node
		// Listings without a title are filtered out.
		if node == nil || node.Data == nil || node.Data.Title == "" {
			continue
		}

		id := string(node.EntityID)
		post := Post{
			ID:          id,
			Platform:    Marketplace,
			Title:       node.Data.Title,
			Description: node.Data.Description,
			Image:       fallbackMarketplace,
			URL:         marketplaceItemURL + id,
			Historical:  historical,
		}
		if node.Photo != nil && node.Photo.Image != nil && node.Photo.Image.URI != "" {
			post.Image = node.Photo.Image.URI
		}
		if price := node.Data.Price; price != nil {
			post.Price = formatPrice(string(price.AmountWithOffset))
			post.Currency = price.Currency
		}

		posts = append(posts, post)
	}

	return parseResult{posts: posts}, nil
}

var pricePrinter = message.NewPrinter(language.English)

// formatPrice converts an amount in minor units to a grouped display string.
func formatPrice(amountWithOffset string) string {
	amount, err := strconv.ParseFloat(amountWithOffset, 64)
	if err != nil {
		return ""
	}
	return pricePrinter.Sprint(number.Decimal(amount/100, number.MaxFractionDigits(3)))
}

// Marketplace payload types (private - implementation detail)

type marketplacePayload struct {
	Historical looseBool `json:"historical"`
	Data       *struct {
		Search *struct {
			FeedUnits *struct {
				Edges []json.RawMessage `json:"edges"`
			} `json:"feed_units"`
		} `json:"marketplace_search"`
	} `json:"data"`
}

type marketplaceEdge struct {
	Node *struct {
		EntityID looseString `json:"entity_id"`
		Data     *struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Price       *struct {
				AmountWithOffset looseString `json:"amount_with_offset"`
				Currency         string      `json:"currency"`
			} `json:"price"`
		} `json:"data"`
		Photo *struct {
			Image *struct {
				URI string `json:"uri"`
			} `json:"image"`
		} `json:"photo"`
	} `json:"node"`
}
