// Package slug derives URL-safe identifiers from file names and titles.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxLength bounds generated slugs unless the caller overrides it.
const DefaultMaxLength = 100

// Make returns Generate(text, DefaultMaxLength).
func Make(text string) string {
	return Generate(text, DefaultMaxLength)
}

// Generate produces a URL-safe slug from arbitrary text.
//
// The transform is total and deterministic: lowercase, domain replacements
// for "#" and "++" (so tag names like "c#" and "c++" survive), NFKD
// normalization followed by a non-ASCII strip, replacement of anything
// outside [a-z0-9 _-] with "-", truncation to maxLength, and collapsing of
// whitespace and dash runs. Empty input yields an empty string.
func Generate(text string, maxLength int) string {
	if text == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	s := strings.ToLower(text)
	s = strings.ReplaceAll(s, "#", "sharp")
	s = strings.ReplaceAll(s, "++", "pp")
	s = stripNonASCII(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	s = b.String()

	if len(s) > maxLength {
		s = s[:maxLength]
	}
	s = strings.TrimSpace(s)

	s = collapseRuns(s, func(r rune) bool { return r == ' ' || r == '\t' }, '-')
	s = collapseRuns(s, func(r rune) bool { return r == '-' }, '-')
	s = strings.Trim(s, "-")

	return s
}

// stripNonASCII decomposes the input (NFKD) so accented letters contribute
// their ASCII base, then drops every remaining non-ASCII code point.
func stripNonASCII(s string) string {
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue // combining marks left over from decomposition
		}
		if r > unicode.MaxASCII {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// collapseRuns replaces every run of characters matching pred with a single
// replacement character.
func collapseRuns(s string, pred func(rune) bool, repl rune) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if pred(r) {
			if !inRun {
				b.WriteRune(repl)
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(r)
	}
	return b.String()
}
