// Package contracts records the wire formats geofeed depends on.
//
// Each contract is a trimmed copy of a real response from the search
// backend or the reverse geocoding API. Tests in this package feed them to
// the actual clients, so a parser change that breaks a recorded format
// fails here first.
package contracts

// StreetViewContract is a streetview event payload.
const StreetViewContract = `{
	"historical": false,
	"panoids": [
		{"panoid": "CAoSLEFGMVFpcE1", "lat": 26.9239, "lon": 75.8267},
		{"panoid": 4455, "lat": 26.9241, "lon": 75.827}
	]
}`

// GoogleNewsContract is a google-news event payload. Positions arrive as
// numbers.
const GoogleNewsContract = `{
	"news": [
		{
			"position": 1,
			"title": "Jaipur lights up for Diwali",
			"imageUrl": "https://news.example.com/1.jpg",
			"link": "https://news.example.com/1"
		}
	]
}`

// TwitterContract is an x-twitter event payload. The first key names the
// result tab.
const TwitterContract = `{
	"latest": {
		"tweets": [
			{
				"entryId": "tweet-1790000000000000000",
				"tweet": {
					"full_text": "Sunset over Nahargarh",
					"url": "https://x.com/jaipurdiaries/status/1790000000000000000",
					"created_at": "Wed May 15 13:37:00 +0000 2024",
					"favorite_count": 42,
					"reply_count": "3",
					"retweet_count": 7,
					"user_details": {
						"name": "Jaipur Diaries",
						"screen_name": "jaipurdiaries",
						"profile_image_url_https": "https://pbs.example.com/p.jpg",
						"verified": "true"
					},
					"place": {
						"bounding_box": {
							"coordinates": [[[75.7, 26.8], [75.9, 26.8], [75.9, 27.0], [75.7, 27.0]]]
						}
					},
					"extended_entities": {
						"media": [{"type": "photo", "media_url_https": "https://pbs.example.com/m.jpg"}]
					}
				}
			}
		]
	},
	"historical": true
}`

// FacebookEventsContract is a facebook event payload for the events tab.
const FacebookEventsContract = `{
	"events": {
		"data": [
			{
				"id": 987654321,
				"url": "https://www.facebook.com/events/987654321",
				"name": "Jaipur Literature Festival",
				"picture": "https://scontent.example.com/e.jpg",
				"attendings": "1.2K",
				"startTimeStamp": 1737590400,
				"startText": "Thu, Jan 23",
				"timezone": "Asia/Kolkata",
				"isAllDay": false,
				"location": "Hotel Clarks Amer",
				"pastEvent": false
			}
		]
	}
}`

// ErrorFrameContract is the payload of a platform error event.
const ErrorFrameContract = `{"message": "rate limited", "status": 429}`

// SearchStreamContract is a recorded search session stream.
const SearchStreamContract = "retry: 3000\n" +
	": keep-alive\n\n" +
	"event: streetview\n" +
	"data: {\"panoids\":[{\"panoid\":\"CAoSLEFGMVFpcE1\",\"lat\":26.9239,\"lon\":75.8267}]}\n\n" +
	"event: x-twitter_error\n" +
	"data: {\"message\":\"rate limited\",\"status\":429}\n\n" +
	"event: google-news\n" +
	"data: {\"news\":[{\"position\":1,\n" +
	"data: \"title\":\"Jaipur lights up for Diwali\"}]}\n\n" +
	"event: done\n" +
	"data: {\"status\":\"complete\"}\n\n"

// ReverseGeocodeContract is a reverse geocoding response for
// 75.8267,26.9239.
const ReverseGeocodeContract = `{
	"type": "FeatureCollection",
	"query": [75.8267, 26.9239],
	"features": [
		{
			"id": "poi.446676665542",
			"type": "Feature",
			"place_type": ["poi"],
			"relevance": 1,
			"properties": {"category": "landmark", "landmark": true},
			"text": "Hawa Mahal",
			"place_name": "Hawa Mahal, Jaipur, Rajasthan 302002, India",
			"center": [75.826685, 26.923936],
			"geometry": {"type": "Point", "coordinates": [75.826685, 26.923936]}
		},
		{
			"id": "place.2893",
			"type": "Feature",
			"place_type": ["place"],
			"relevance": 1,
			"text": "Jaipur",
			"place_name": "Jaipur, Rajasthan, India",
			"center": [75.8189, 26.9155]
		}
	],
	"attribution": "NOTICE: test data"
}`
