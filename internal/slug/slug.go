// Package slug normalizes term slugs and slug paths.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Matches any character that may not appear in a slug segment.
	nonSlugChars = regexp.MustCompile(`[^a-z0-9_]+`)
	// Matches multiple hyphens.
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Make converts a string to a URL-safe slug segment.
// "Czech Republic" -> "czech-republic".
// "Praha 1/Staré Město" -> "praha-1-stare-mesto".
func Make(s string) string {
	// Decompose accented characters so the base letter survives.
	s = norm.NFKD.String(s)

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Path normalizes a slash separated slug path.
// Each segment is passed through Make and empty segments are dropped,
// so "/Europe//CZ/" becomes "europe/cz".
func Path(p string) string {
	segments := strings.Split(p, "/")
	out := segments[:0]
	for _, s := range segments {
		if s = Make(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "/")
}

// Valid reports whether s is already a normalized slug path.
func Valid(s string) bool {
	return s != "" && Path(s) == s
}
