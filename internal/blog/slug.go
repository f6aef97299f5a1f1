// Package blog is cow-blog's domain layer: the named queries, slug
// derivation, tag association management, count maintenance and
// identity checks the HTTP handlers and the CLI call into.
package blog

import (
	"regexp"
	"strings"
)

// DefaultSlugPattern is the character class a slug keeps; everything
// else collapses into hyphens.
const DefaultSlugPattern = `[a-z0-9]`

// Slugger derives URL-safe identifiers from human-readable titles.
type Slugger struct {
	keep *regexp.Regexp
}

// NewSlugger compiles the keep-class pattern. The pattern is matched
// against lowercased single characters.
func NewSlugger(pattern string) (*Slugger, error) {
	keep, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Slugger{keep: keep}, nil
}

// Slug lowercases the title, replaces every disallowed character with
// a hyphen, collapses hyphen runs and trims the ends. The result is a
// fixed point: Slug(Slug(t)) == Slug(t). Uniqueness is not guaranteed
// here; creation paths rely on the database's unique slug index.
func (s *Slugger) Slug(title string) string {
	lowered := strings.ToLower(title)

	var b strings.Builder
	b.Grow(len(lowered))
	lastHyphen := false
	for _, r := range lowered {
		if s.keep.MatchString(string(r)) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	return strings.Trim(b.String(), "-")
}

var defaultSlugger = mustSlugger(DefaultSlugPattern)

func mustSlugger(pattern string) *Slugger {
	s, err := NewSlugger(pattern)
	if err != nil {
		panic(err)
	}
	return s
}

// Slug derives a slug with the default pattern.
func Slug(title string) string {
	return defaultSlugger.Slug(title)
}
