package content

import (
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var allowedTags = []string{
	"a", "u", "b", "i", "s", "mark", "blockquote", "hr", "pre", "code",
	"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "img",
	"table", "thead", "tbody", "tfoot", "tr", "td", "th", "caption",
	"p", "span", "div", "br", "sub", "sup", "strong", "em", "small",
	"audio", "source", "font", "figure", "figcaption", "section",
}

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(allowedTags...)
	p.AllowAttrs(
		"alt", "style", "class", "colspan", "rowspan", "dir", "width", "height",
		"controls", "preload", "type", "color", "size", "target", "rel",
	).Globally()
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("src").OnElements("img", "audio", "source")

	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowURLSchemeWithCustomPolicy("data", inlineMedia)
	return p
}

// inlineMedia admits data URIs for images and audio only.
func inlineMedia(u *url.URL) bool {
	mediaType := strings.ToLower(u.Opaque)
	return strings.HasPrefix(mediaType, "image/") || strings.HasPrefix(mediaType, "audio/")
}

// Sanitize strips everything outside the allow-list. Event handler and
// data-* attributes never pass.
func Sanitize(html string) string {
	if html == "" {
		return ""
	}
	return policy.Sanitize(html)
}
