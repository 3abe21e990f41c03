// CLAUDE:SUMMARY Lazy JSON walkers for legacy user maps, recommendation arrays, and GraphQL timeline instructions with bounded quote/repost recursion.
package graph

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/hazyhaar/fedimark/identity"
)

// MaxNestingDepth bounds recursion into reposted and quoted tweets. The
// top-level tweet is depth 0; authors down to this depth are extracted and
// anything deeper is ignored.
const MaxNestingDepth = 4

// instructionPaths locates the timeline instructions array per shape.
var instructionPaths = map[Shape][]string{
	ShapeHomeTimeline: {"data", "home", "home_timeline_urt", "instructions"},
	ShapeCommunity:    {"data", "viewer", "communities_timeline", "timeline", "instructions"},
	ShapeUserTimeline: {"data", "user", "result", "timeline_v2", "timeline", "instructions"},
	ShapeTweetDetail:  {"data", "threaded_conversation_with_injections_v2", "instructions"},
	ShapeFollowList:   {"data", "user", "result", "timeline", "timeline", "instructions"},
	ShapeConnectTab:   {"data", "connect_tab_timeline", "timeline", "instructions"},
}

// legacyUser is the subset of the host service's user object we read.
type legacyUser struct {
	ScreenName  string          `json:"screen_name"`
	IDStr       string          `json:"id_str"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Entities    json.RawMessage `json:"entities"`
}

// walker accumulates profiles in discovery order.
type walker struct {
	profiles []identity.ProfileInput
}

func (w *walker) legacyUsers(payload []byte) bool {
	raw, ok := dig(payload, "globalObjects", "users")
	if !ok {
		return false
	}
	var users map[string]json.RawMessage
	if err := json.Unmarshal(raw, &users); err != nil {
		return false
	}

	keys := make([]string, 0, len(users))
	for k := range users {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.user(users[k])
	}
	return true
}

func (w *walker) recommendations(payload []byte) bool {
	items, ok := array(payload)
	if !ok {
		return false
	}
	for _, it := range items {
		if u, ok := dig(it, "user"); ok {
			w.user(u)
		}
	}
	return true
}

func (w *walker) timeline(payload []byte, path []string) bool {
	raw, ok := dig(payload, path...)
	if !ok {
		return false
	}
	instructions, ok := array(raw)
	if !ok {
		return false
	}

	for _, instr := range instructions {
		entries, _ := digArray(instr, "entries")
		for _, entry := range entries {
			content, ok := dig(entry, "content")
			if !ok {
				continue
			}
			if ic, ok := dig(content, "itemContent"); ok {
				w.itemContent(ic)
			}
			items, _ := digArray(content, "items")
			for _, it := range items {
				if ic, ok := dig(it, "item", "itemContent"); ok {
					w.itemContent(ic)
				}
			}
		}
	}
	return true
}

func (w *walker) itemContent(ic json.RawMessage) {
	if tr, ok := dig(ic, "tweet_results", "result"); ok {
		w.tweet(tr, 0)
	}
	if u, ok := dig(ic, "user_results", "result", "legacy"); ok {
		w.user(u)
	}
}

// tweet extracts the author of a tweet result, then descends into the
// reposted and quoted tweets until MaxNestingDepth.
func (w *walker) tweet(raw json.RawMessage, depth int) {
	// Visibility wrappers nest the real tweet under "tweet".
	if _, ok := dig(raw, "core"); !ok {
		if inner, ok := dig(raw, "tweet"); ok {
			raw = inner
		}
	}

	if u, ok := dig(raw, "core", "user_results", "result", "legacy"); ok {
		w.user(u)
	}

	if depth >= MaxNestingDepth {
		return
	}
	if rt, ok := dig(raw, "legacy", "retweeted_status_result", "result"); ok {
		w.tweet(rt, depth+1)
	}
	if qt, ok := dig(raw, "quoted_status_result", "result"); ok {
		w.tweet(qt, depth+1)
	}
}

func (w *walker) user(raw json.RawMessage) {
	var u legacyUser
	if err := json.Unmarshal(raw, &u); err != nil || u.ScreenName == "" {
		return
	}

	p := identity.ProfileInput{
		NativeHandle: u.ScreenName,
		NativeID:     u.IDStr,
		DisplayName:  u.Name,
		Bio:          u.Description,
	}
	for _, field := range []string{"url", "description", "location"} {
		urls, _ := digArray(u.Entities, field, "urls")
		for _, ue := range urls {
			var link struct {
				ExpandedURL string `json:"expanded_url"`
			}
			if err := json.Unmarshal(ue, &link); err != nil || link.ExpandedURL == "" {
				continue
			}
			p.URLs = append(p.URLs, link.ExpandedURL)
		}
	}
	w.profiles = append(w.profiles, p)
}

// dig follows object keys from raw. It fails on non-objects, missing keys
// and explicit nulls.
func dig(raw json.RawMessage, path ...string) (json.RawMessage, bool) {
	if len(raw) == 0 || isNull(raw) {
		return nil, false
	}
	cur := raw
	for _, key := range path {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(cur, &obj); err != nil {
			return nil, false
		}
		next, ok := obj[key]
		if !ok || isNull(next) {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func digArray(raw json.RawMessage, path ...string) ([]json.RawMessage, bool) {
	v, ok := dig(raw, path...)
	if !ok {
		return nil, false
	}
	return array(v)
}

func array(raw json.RawMessage) ([]json.RawMessage, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
