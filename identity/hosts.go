// CLAUDE:SUMMARY Classifies candidate host strings as plausible fediverse instance hosts (forbidden set, allow-list, keyword heuristics).
package identity

import "strings"

// forbiddenHosts are well-known non-federated domains. They are rejected
// before any heuristic runs, in both strictness modes.
var forbiddenHosts = toSet(
	"tiktok.com", "youtube.com", "medium.com", "skeb.jp", "pronouns.page",
	"foundation.app", "gamejolt.com", "traewelling.de", "observablehq.com",
	"gmail.com", "hotmail.com", "manylink.co", "withkoji.com", "twitter.com",
	"nomadlist.com", "figma.com", "peakd.com", "jabber.ccc.de", "yahoo.com",
	"aol.com", "vice.com", "wsj.com", "theguardian.com", "cbsnews.com",
	"cnn.com", "welt.de", "nytimes.com", "gmx.de", "web.de", "posteo.de",
	"arcor.de", "bell.net",
)

// knownHosts are instances accepted in strict mode without a keyword hit.
var knownHosts = toSet(
	"mas.to", "wandering.shop", "peoplemaking.games", "todon.eu", "tilde.zone",
	"libretooth.gr", "metalhead.club", "lor.sh", "mathstodon.xyz",
	"fosstodon.org", "masto.ai", "ravenation.club", "qoto.org",
	"primarycare.app", "socel.net", "ioc.exchange", "hachyderm.io",
	"universeodon.com", "pettingzoo.co", "masto.nu", "infosec.exchange",
)

// hostKeywords are substrings that suggest an instance host.
var hostKeywords = []string{"social", "masto", "mastodon", "space", "fedi", "toot", "mstdn"}

// federationKeywords mark free text or links that talk about the fediverse.
var federationKeywords = []string{"mastodon", "toot", "tröt", "fedi", "🦣"}

// IsPlausibleInstanceHost reports whether host could be a fediverse instance.
// Forbidden hosts always lose. With strict=false any other host passes;
// with strict=true the host must be on the allow-list or contain a
// heuristic keyword.
func IsPlausibleInstanceHost(host string, strict bool) bool {
	h := strings.ToLower(host)
	if forbiddenHosts[h] {
		return false
	}
	if !strict {
		return true
	}
	if knownHosts[h] {
		return true
	}
	for _, kw := range hostKeywords {
		if strings.Contains(h, kw) {
			return true
		}
	}
	return false
}

// MentionsFederation reports whether any of the given strings contains a
// federation keyword, case-insensitively.
func MentionsFederation(texts ...string) bool {
	for _, s := range texts {
		if s == "" {
			continue
		}
		lower := strings.ToLower(s)
		for _, kw := range federationKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

func toSet(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
