package graph

import (
	"encoding/json"
	"fmt"
	"testing"
)

type obj = map[string]any

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func legacy(handle, name, bio string, urls ...string) obj {
	links := make([]any, 0, len(urls))
	for _, u := range urls {
		links = append(links, obj{"expanded_url": u})
	}
	return obj{
		"screen_name": handle,
		"id_str":      "id-" + handle,
		"name":        name,
		"description": bio,
		"entities": obj{
			"url":         obj{"urls": links},
			"description": obj{"urls": []any{}},
		},
	}
}

func tweetBy(handle string) obj {
	return obj{"core": obj{"user_results": obj{"result": obj{"legacy": legacy(handle, handle, "")}}}}
}

func TestRoute(t *testing.T) {
	tests := []struct {
		url  string
		want []Shape
	}{
		{"https://twitter.com/i/api/2/notifications/all.json?x=1", []Shape{ShapeLegacyUsers}},
		{"https://twitter.com/i/api/1.1/users/recommendations.json", []Shape{ShapeRecommendations}},
		{"https://twitter.com/i/api/graphql/q/HomeLatestTimeline", []Shape{ShapeHomeTimeline}},
		{"https://twitter.com/i/api/graphql/q/UserTweetsAndReplies?v=1", []Shape{ShapeUserTimeline}},
		{"https://twitter.com/i/api/graphql/q/TweetDetail", []Shape{ShapeTweetDetail}},
		{"https://twitter.com/i/api/graphql/q/Following", []Shape{ShapeFollowList}},
		{"https://twitter.com/i/api/graphql/q/ConnectTabTimeline", []Shape{ShapeConnectTab}},
		{"https://twitter.com/i/api/graphql/q/CommunitiesMainPageTimeline", []Shape{ShapeCommunity}},
		{"https://twitter.com/i/api/graphql/q/Viewer", nil},
	}
	for _, tt := range tests {
		got := Route(tt.url)
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("Route(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestExtract_LegacyUsers(t *testing.T) {
	payload := mustJSON(t, obj{"globalObjects": obj{"users": obj{
		"2": legacy("bob", "Bob", "bio", "https://mastodon.social/@bob"),
		"1": legacy("alice", "Alice", ""),
		"3": obj{"screen_name": "broken", "name": 42},
		"4": obj{"name": "no handle"},
	}}})

	res := Extract(payload, ShapeLegacyUsers)
	if !res.Recognized {
		t.Fatal("not recognized")
	}
	if len(res.Profiles) != 2 {
		t.Fatalf("profiles: got %d, want 2", len(res.Profiles))
	}
	if res.Profiles[0].NativeHandle != "alice" || res.Profiles[1].NativeHandle != "bob" {
		t.Errorf("order: got %q, %q", res.Profiles[0].NativeHandle, res.Profiles[1].NativeHandle)
	}
	bob := res.Profiles[1]
	if bob.NativeID != "id-bob" || bob.DisplayName != "Bob" || bob.Bio != "bio" {
		t.Errorf("bob fields: %+v", bob)
	}
	if len(bob.URLs) != 1 || bob.URLs[0] != "https://mastodon.social/@bob" {
		t.Errorf("bob urls: %v", bob.URLs)
	}
}

func TestExtract_URLOrder(t *testing.T) {
	u := obj{
		"screen_name": "carol",
		"entities": obj{
			"location":    obj{"urls": []any{obj{"expanded_url": "https://c.example/loc"}}},
			"description": obj{"urls": []any{obj{"expanded_url": "https://c.example/bio"}, obj{"url": "t.co/x"}}},
			"url":         obj{"urls": []any{obj{"expanded_url": "https://c.example/profile"}}},
		},
	}
	res := Extract(mustJSON(t, []any{obj{"user": u}}), ShapeRecommendations)
	if len(res.Profiles) != 1 {
		t.Fatalf("profiles: got %d", len(res.Profiles))
	}
	want := []string{"https://c.example/profile", "https://c.example/bio", "https://c.example/loc"}
	if fmt.Sprint(res.Profiles[0].URLs) != fmt.Sprint(want) {
		t.Errorf("urls: got %v, want %v", res.Profiles[0].URLs, want)
	}
}

func TestExtract_Recommendations(t *testing.T) {
	payload := mustJSON(t, []any{
		obj{"user": legacy("dave", "Dave", "")},
		obj{"token": "abc"},
		5,
		nil,
	})
	res := Extract(payload, ShapeRecommendations)
	if !res.Recognized || len(res.Profiles) != 1 || res.Profiles[0].NativeHandle != "dave" {
		t.Errorf("got %+v", res)
	}
}

func TestExtract_Timeline(t *testing.T) {
	retweet := tweetBy("reposter")
	retweet["legacy"] = obj{"retweeted_status_result": obj{"result": tweetBy("original")}}

	quote := tweetBy("quoter")
	quote["quoted_status_result"] = obj{"result": tweetBy("quoted")}

	hidden := obj{"__typename": "TweetWithVisibilityResults", "tweet": tweetBy("limited")}

	payload := mustJSON(t, obj{"data": obj{"home": obj{"home_timeline_urt": obj{"instructions": []any{
		obj{"type": "TimelineClearCache"},
		obj{"entries": []any{
			obj{"content": obj{"itemContent": obj{"tweet_results": obj{"result": retweet}}}},
			obj{"content": obj{"itemContent": obj{"tweet_results": obj{"result": quote}}}},
			obj{"content": obj{"itemContent": obj{"tweet_results": obj{"result": hidden}}}},
			obj{"content": obj{"items": []any{
				obj{"item": obj{"itemContent": obj{"user_results": obj{"result": obj{"legacy": legacy("suggested", "S", "")}}}}},
				obj{"item": obj{}},
			}}},
			obj{"entryId": "cursor-bottom"},
			obj{"content": nil},
		}},
	}}}}})

	res := Extract(payload, ShapeHomeTimeline)
	if !res.Recognized {
		t.Fatal("not recognized")
	}
	var got []string
	for _, p := range res.Profiles {
		got = append(got, p.NativeHandle)
	}
	want := []string{"reposter", "original", "quoter", "quoted", "limited", "suggested"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("handles: got %v, want %v", got, want)
	}
}

func TestExtract_NestingBounded(t *testing.T) {
	// Build a quote chain 10 levels deep.
	var tw obj
	for i := 9; i >= 0; i-- {
		next := tweetBy(fmt.Sprintf("u%d", i))
		if tw != nil {
			next["quoted_status_result"] = obj{"result": tw}
		}
		tw = next
	}
	payload := mustJSON(t, obj{"data": obj{"threaded_conversation_with_injections_v2": obj{"instructions": []any{
		obj{"entries": []any{obj{"content": obj{"itemContent": obj{"tweet_results": obj{"result": tw}}}}}},
	}}}})

	res := Extract(payload, ShapeTweetDetail)
	if len(res.Profiles) != MaxNestingDepth+1 {
		t.Fatalf("profiles: got %d, want %d", len(res.Profiles), MaxNestingDepth+1)
	}
	if last := res.Profiles[len(res.Profiles)-1].NativeHandle; last != fmt.Sprintf("u%d", MaxNestingDepth) {
		t.Errorf("deepest extracted: got %q", last)
	}
}

func TestExtract_Unrecognized(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		shape   Shape
	}{
		{"not json", "<html>", ShapeLegacyUsers},
		{"missing root", `{"globalObjects":{}}`, ShapeLegacyUsers},
		{"null root", `{"data":{"home":null}}`, ShapeHomeTimeline},
		{"object instead of array", `{"user":{}}`, ShapeRecommendations},
		{"instructions not array", `{"data":{"connect_tab_timeline":{"timeline":{"instructions":{}}}}}`, ShapeConnectTab},
		{"unknown shape", `{}`, Shape("nope")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Extract([]byte(tt.payload), tt.shape)
			if res.Recognized || len(res.Profiles) != 0 {
				t.Errorf("got %+v", res)
			}
		})
	}
}

func TestExtractAll_FollowList(t *testing.T) {
	payload := mustJSON(t, obj{"data": obj{"user": obj{"result": obj{"timeline": obj{"timeline": obj{"instructions": []any{
		obj{"entries": []any{
			obj{"content": obj{"itemContent": obj{"user_results": obj{"result": obj{"legacy": legacy("erin", "Erin", "@erin@mas.to")}}}}},
		}},
	}}}}}}})

	got := ExtractAll("https://twitter.com/i/api/graphql/q/Followers?variables=", payload)
	if len(got) != 1 || got[0].NativeHandle != "erin" || got[0].Bio != "@erin@mas.to" {
		t.Errorf("got %+v", got)
	}

	if got := ExtractAll("https://twitter.com/i/api/graphql/q/Viewer", payload); got != nil {
		t.Errorf("unrouted url: got %+v", got)
	}
}
