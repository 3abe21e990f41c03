// CLAUDE:SUMMARY Finds @name@host handles in free text (strict token pattern, then loose URL pattern) and in URL lists (path pattern).
package identity

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

var (
	// strictPattern matches foo@bar.tld with an optional marker in front:
	// "@", the elephant glyph or "Mastodon:". Group 1 is the marker, group 2
	// the bare handle.
	strictPattern = regexp.MustCompile(`(?i)(@|🐘|Mastodon:?)?\s*?([\w\-.]+@[\w\-.]+\.[\w\-.]+)`)

	// loosePattern matches instance profile links written in text:
	// [scheme]host.tld/@name or host.tld/web/@name. Group 3 is the host,
	// group 5 the name.
	loosePattern = regexp.MustCompile(`(?i)\b((http://|https://)?([\w\-.]+\.[\w\-.]+)/(web/)?@([\w\-.]+))/?\b`)

	// urlPathPattern matches the path of an instance profile URL. Group 2
	// is the name.
	urlPathPattern = regexp.MustCompile(`(?i)^/(@|web/@?)([\w\-.]+)(/.*|[.:,;!?()\[\]{}].*)?$`)

	namePattern = regexp.MustCompile(`^[\w\-.]+$`)
)

// Extractor finds handles. The zero value logs to slog.Default().
type Extractor struct {
	Logger *slog.Logger
}

var defaultExtractor Extractor

// FindHandle looks for a handle in free text using the default extractor.
func FindHandle(text string) (string, bool) {
	return defaultExtractor.FindHandle(text)
}

// FindHandleInURLs looks for a handle in a list of URLs using the default
// extractor.
func FindHandleInURLs(urls []string) (string, bool) {
	return defaultExtractor.FindHandleInURLs(urls)
}

func (e Extractor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// FindHandle returns the first plausible handle in text, normalised as
// @name@host.
//
// Only the first strict match is considered. A marker in front of it
// ("@", "🐘", "Mastodon:") relaxes host validation to the forbidden-host
// check. The loose link pattern is tried only when the strict pattern has
// no match at all, and is always validated strictly.
func (e Extractor) FindHandle(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	if m := strictPattern.FindStringSubmatch(text); m != nil {
		strict := m[1] == ""
		handle := "@" + strings.TrimSpace(m[2])
		if ValidateHandle(handle, strict) {
			return handle, true
		}
		return "", false
	}

	if m := loosePattern.FindStringSubmatch(text); m != nil {
		host := strings.TrimSpace(m[3])
		name := strings.TrimSpace(m[5])
		handle := "@" + name + "@" + host
		if ValidateHandle(handle, true) {
			return handle, true
		}
	}
	return "", false
}

// FindHandleInURLs returns the handle of the first URL, in input order,
// whose path looks like an instance profile and whose host passes strict
// validation. The host is lowercased and a default port dropped; URLs on any
// other port are skipped. URLs that cannot be parsed are logged and skipped.
func (e Extractor) FindHandleInURLs(urls []string) (string, bool) {
	for _, raw := range urls {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			e.logger().Warn("identity: skipping malformed url", "url", raw, "error", err)
			continue
		}
		if u.Scheme == "" || u.Host == "" {
			e.logger().Warn("identity: skipping url without scheme or host", "url", raw)
			continue
		}

		m := urlPathPattern.FindStringSubmatch(u.EscapedPath())
		if m == nil || m[2] == "" {
			continue
		}

		host, ok := instanceHost(u)
		if !ok {
			continue
		}
		handle := "@" + m[2] + "@" + host
		if ValidateHandle(handle, true) {
			return handle, true
		}
	}
	return "", false
}

// instanceHost returns the lowercased host of u without its default port.
// A non-default port cannot be expressed in a @name@host handle.
func instanceHost(u *url.URL) (string, bool) {
	switch port := u.Port(); {
	case port == "":
	case port == "443" && u.Scheme == "https", port == "80" && u.Scheme == "http":
	default:
		return "", false
	}
	return strings.ToLower(u.Hostname()), true
}

// ValidateHandle checks a @name@host string: exactly three @-separated
// segments with an empty first one, a valid name, and a host accepted by
// IsPlausibleInstanceHost at the given strictness.
func ValidateHandle(handle string, strict bool) bool {
	parts := strings.Split(handle, "@")
	if len(parts) != 3 || parts[0] != "" {
		return false
	}
	name, host := parts[1], parts[2]
	if !IsValidName(name) || host == "" {
		return false
	}
	return IsPlausibleInstanceHost(host, strict)
}

// IsValidName reports whether name is non-empty and made only of word
// characters, hyphens and dots.
func IsValidName(name string) bool {
	return namePattern.MatchString(name)
}

// SplitHandle returns the name and host of a @name@host handle.
func SplitHandle(handle string) (name, host string, ok bool) {
	parts := strings.Split(handle, "@")
	if len(parts) != 3 || parts[0] != "" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// HandleURL derives the instance profile URL https://host/@name.
func HandleURL(handle string) (string, bool) {
	name, host, ok := SplitHandle(handle)
	if !ok {
		return "", false
	}
	return "https://" + host + "/@" + name, true
}
