// Package graph recovers profile records from the host service's JSON
// responses. Each response shape is handled by a pure function from raw
// bytes to identity.ProfileInput values; fields are decoded lazily so a
// malformed or missing branch drops only that branch.
package graph

import (
	"strings"

	"github.com/hazyhaar/fedimark/identity"
)

// Shape identifies one family of response payloads.
type Shape string

const (
	ShapeLegacyUsers     Shape = "legacy_users"     // globalObjects.users keyed by id
	ShapeRecommendations Shape = "recommendations"  // [{user: {...}}]
	ShapeHomeTimeline    Shape = "home_timeline"    // data.home.home_timeline_urt
	ShapeCommunity       Shape = "community"        // data.viewer.communities_timeline.timeline
	ShapeUserTimeline    Shape = "user_timeline"    // data.user.result.timeline_v2.timeline
	ShapeTweetDetail     Shape = "tweet_detail"     // data.threaded_conversation_with_injections_v2
	ShapeFollowList      Shape = "follow_list"      // data.user.result.timeline.timeline
	ShapeConnectTab      Shape = "connect_tab"      // data.connect_tab_timeline.timeline
)

// route maps a substring of the response URL to a shape. Order matters only
// for the order in which shapes are tried.
type route struct {
	match string
	shape Shape
}

var routes = []route{
	{"all.json", ShapeLegacyUsers},
	{"home.json", ShapeLegacyUsers},
	{"adaptive.json", ShapeLegacyUsers},
	{"guide.json", ShapeLegacyUsers},
	{"recommendations.json", ShapeRecommendations},
	{"HomeLatestTimeline", ShapeHomeTimeline},
	{"HomeTimeline", ShapeHomeTimeline},
	{"CommunitiesMainPageTimeline", ShapeCommunity},
	{"UserTweets", ShapeUserTimeline},
	{"UserTweetsAndReplies", ShapeUserTimeline},
	{"UserMedia", ShapeUserTimeline},
	{"Likes", ShapeUserTimeline},
	{"TweetDetail", ShapeTweetDetail},
	{"Followers", ShapeFollowList},
	{"Following", ShapeFollowList},
	{"ConnectTabTimeline", ShapeConnectTab},
}

// Route returns the shapes that apply to a response URL, without duplicates.
// Unknown URLs yield nil.
func Route(url string) []Shape {
	var shapes []Shape
	seen := make(map[Shape]bool)
	for _, r := range routes {
		if !strings.Contains(url, r.match) || seen[r.shape] {
			continue
		}
		seen[r.shape] = true
		shapes = append(shapes, r.shape)
	}
	return shapes
}

// Result is the outcome of matching one payload against one shape.
// Recognized is false when the payload is not JSON or its root path for the
// shape is absent; Profiles may be empty even when Recognized is true.
type Result struct {
	Shape      Shape
	Recognized bool
	Profiles   []identity.ProfileInput
}

// Extract matches payload against a single shape.
func Extract(payload []byte, shape Shape) Result {
	res := Result{Shape: shape}
	w := &walker{}

	switch shape {
	case ShapeLegacyUsers:
		res.Recognized = w.legacyUsers(payload)
	case ShapeRecommendations:
		res.Recognized = w.recommendations(payload)
	default:
		path, ok := instructionPaths[shape]
		if !ok {
			return res
		}
		res.Recognized = w.timeline(payload, path)
	}

	res.Profiles = w.profiles
	return res
}

// ExtractAll routes a response and concatenates the profiles of every
// matching shape.
func ExtractAll(url string, payload []byte) []identity.ProfileInput {
	var out []identity.ProfileInput
	for _, shape := range Route(url) {
		out = append(out, Extract(payload, shape).Profiles...)
	}
	return out
}
