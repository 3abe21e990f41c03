package augment

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/fedimark/identity"
)

// Document markers.
const (
	MarkerAttr     = "data-fedimark-augmented"
	IconClass      = "fedimark-icon"
	SeparatorClass = "fedimark-separator"
)

// Glyph marks upgraded profile handles.
const Glyph = "🦣"

const iconPath = "M20.94,14C20.66,15.41 18.5,16.96 15.97,17.26C14.66,17.41 13.37,17.56 12,17.5C9.75,17.39 8,16.96 8,16.96V17.58C8.32,19.8 10.22,19.93 12.03,20C13.85,20.05 15.47,19.54 15.47,19.54L15.55,21.19C15.55,21.19 14.27,21.87 12,22C10.75,22.07 9.19,21.97 7.38,21.5C3.46,20.45 2.78,16.26 2.68,12L2.67,8.57C2.67,4.23 5.5,2.96 5.5,2.96C6.95,2.3 9.41,2 11.97,2H12.03C14.59,2 17.05,2.3 18.5,2.96C18.5,2.96 21.33,4.23 21.33,8.57C21.33,8.57 21.37,11.78 20.94,14M18,8.91C18,7.83 17.7,7 17.15,6.35C16.59,5.72 15.85,5.39 14.92,5.39C13.86,5.39 13.05,5.8 12.5,6.62L12,7.5L11.5,6.62C10.94,5.8 10.14,5.39 9.07,5.39C8.15,5.39 7.41,5.72 6.84,6.35C6.29,7 6,7.83 6,8.91V14.17H8.1V9.06C8.1,8 8.55,7.44 9.46,7.44C10.46,7.44 10.96,8.09 10.96,9.37V12.16H13.03V9.37C13.03,8.09 13.53,7.44 14.54,7.44C15.44,7.44 15.89,8 15.89,9.06V14.17H18V8.91Z"

const separatorStyle = "color: rgb(113, 118, 123); padding: 0 4px; font-size: 15px; line-height: 20px; font-family: 'TwitterChirp', sans-serif"

// nativeProfileURL is the fallback link target for profiles that only
// mention the federation.
func nativeProfileURL(handle string) string {
	return "https://twitter.com/" + handle
}

// indicator builds the link for rec, or nil when rec warrants none.
func indicator(rec identity.Record) *html.Node {
	var attrs []html.Attribute
	switch {
	case rec.Resolved():
		attrs = []html.Attribute{
			{Key: "href", Val: rec.FederatedURL},
			{Key: "target", Val: "_blank"},
			{Key: "title", Val: rec.FederatedHandle},
		}
	case rec.MentionsFederation:
		attrs = []html.Attribute{{Key: "href", Val: nativeProfileURL(rec.NativeHandle)}}
	default:
		return nil
	}
	attrs = append(attrs, html.Attribute{Key: "class", Val: IconClass})

	a := &html.Node{Type: html.ElementNode, Data: "a", DataAtom: atom.A, Attr: attrs}
	a.AppendChild(icon())
	return a
}

// icon is the Mastodon logo (materialdesignicons "mastodon").
func icon() *html.Node {
	svg := &html.Node{
		Type:      html.ElementNode,
		Data:      "svg",
		DataAtom:  atom.Svg,
		Namespace: "svg",
		Attr: []html.Attribute{
			{Key: "xmlns", Val: "http://www.w3.org/2000/svg"},
			{Key: "width", Val: "24"},
			{Key: "height", Val: "24"},
			{Key: "viewBox", Val: "0 0 24 24"},
			{Key: "aria-hidden", Val: "true"},
		},
	}
	svg.AppendChild(&html.Node{
		Type:      html.ElementNode,
		Data:      "path",
		Namespace: "svg",
		Attr: []html.Attribute{
			{Key: "fill", Val: "currentColor"},
			{Key: "d", Val: iconPath},
		},
	})
	return svg
}

func separator() *html.Node {
	div := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "aria-hidden", Val: "true"},
			{Key: "class", Val: SeparatorClass},
			{Key: "style", Val: separatorStyle},
		},
	}
	span := &html.Node{Type: html.ElementNode, Data: "span", DataAtom: atom.Span}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: "·"})
	div.AppendChild(span)
	return div
}

// render serialises nodes; attribute values and text are escaped.
func render(nodes ...*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		// Render only fails on writer errors; strings.Builder has none.
		_ = html.Render(&b, n)
	}
	return b.String()
}

// upgradedText is the replacement text for a bare profile handle.
func upgradedText(rec identity.Record) string {
	return "@" + rec.NativeHandle + " · " + Glyph + " " + rec.FederatedHandle
}
