// Package render converts markdown into HTML safe to serve. Rendering
// happens at write time, inside the before-save path, so the stored
// html column is always derived from the stored markdown and never
// edited directly.
package render

import (
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

// Renderer turns raw markdown into sanitized HTML. The comment flag
// selects the policy: comment HTML comes from strangers and is
// stripped down to basic formatting, post bodies belong to the author
// and keep their markup.
type Renderer interface {
	Render(markdown string, comment bool) string
}

// Markdown is the blackfriday-backed Renderer.
type Markdown struct {
	postPolicy    *bluemonday.Policy
	commentPolicy *bluemonday.Policy
}

// NewMarkdown builds a renderer with the default policies.
func NewMarkdown() *Markdown {
	postPolicy := bluemonday.UGCPolicy()
	postPolicy.AllowAttrs("class").OnElements("code", "pre")

	commentPolicy := bluemonday.NewPolicy()
	commentPolicy.AllowElements("p", "br", "em", "strong", "code", "pre", "blockquote", "ul", "ol", "li")
	commentPolicy.AllowStandardURLs()
	commentPolicy.AllowAttrs("href").OnElements("a")
	commentPolicy.RequireNoFollowOnLinks(true)

	return &Markdown{
		postPolicy:    postPolicy,
		commentPolicy: commentPolicy,
	}
}

func (m *Markdown) Render(markdown string, comment bool) string {
	html := blackfriday.Run([]byte(markdown))
	if comment {
		return string(m.commentPolicy.SanitizeBytes(html))
	}
	return string(m.postPolicy.SanitizeBytes(html))
}
