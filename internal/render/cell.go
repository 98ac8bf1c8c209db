package render

import (
	"html/template"
	"net/url"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/microcosm-cc/bluemonday"

	"github.com/jsamuelsen/jokeboard/internal/domain"
)

// DateLayout is the display format for date columns.
const DateLayout = "Jan 2, 2006"

// urlPolicy admits the link and image markup built for URL cells. Links to
// other hosts open in a new tab without a referrer.
var urlPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowURLSchemes("http", "https")
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(false)
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowAttrs("width", "height").Matching(bluemonday.Integer).OnElements("img")
	p.RequireNoReferrerOnFullyQualifiedLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	return p
}()

// Cell renders one column of a joke as HTML.
func Cell(col Column, joke *domain.Joke) template.HTML {
	v := Field(joke, col.Key)
	if v.IsEmpty() {
		return ""
	}

	switch col.Kind {
	case KindDate:
		return escape(FormatDate(v.String()))

	case KindLink:
		href, ok := safeURL(v.Text)
		if !ok {
			return escape(v.Text)
		}
		return sanitizeURLCell(`<a href="` + template.HTMLEscapeString(href) + `">` +
			template.HTMLEscapeString(v.Text) + `</a>`)

	case KindImage:
		src, ok := safeURL(v.Text)
		if !ok {
			return ""
		}
		return sanitizeURLCell(`<img src="` + template.HTMLEscapeString(src) +
			`" alt="` + template.HTMLEscapeString(col.Label) + `" width="32" height="32">`)

	case KindTags:
		tags := v.List
		if tags == nil {
			tags = []string{v.Text}
		}

		var b strings.Builder
		for _, tag := range tags {
			b.WriteString(`<span class="badge">`)
			b.WriteString(template.HTMLEscapeString(tag))
			b.WriteString(`</span>`)
		}
		return template.HTML(b.String()) //nolint:gosec // every part is escaped above

	default:
		return escape(v.String())
	}
}

// TextCell renders one column of a joke as plain text. Links and images
// show their URL; tags are comma separated.
func TextCell(col Column, joke *domain.Joke) string {
	v := Field(joke, col.Key)

	if col.Kind == KindDate && !v.IsEmpty() {
		return FormatDate(v.String())
	}

	return v.String()
}

// FormatDate formats a timestamp as DateLayout, or returns it unchanged
// when it cannot be parsed.
func FormatDate(raw string) string {
	t, err := dateparse.ParseAny(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}

	return t.Format(DateLayout)
}

func sanitizeURLCell(fragment string) template.HTML {
	return template.HTML(urlPolicy.Sanitize(fragment)) //nolint:gosec // sanitized by urlPolicy
}

func escape(s string) template.HTML {
	return template.HTML(template.HTMLEscapeString(s)) //nolint:gosec // escaped
}

// safeURL accepts absolute http(s) URLs only.
func safeURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}

	return u.String(), true
}
