package prefer

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseHeader parses a Prefer header (RFC 7240) such as
//
//	return=representation; include="url self"; exclude=dsc; levels=2
//
// Only the include, exclude and levels parameters are interpreted; other
// preferences are ignored. Several Prefer values may be joined with commas.
func ParseHeader(values ...string) (Representation, error) {
	var rep Representation
	for _, header := range values {
		for _, pref := range splitOutsideQuotes(header, ',') {
			for _, param := range splitOutsideQuotes(pref, ';') {
				key, value, _ := strings.Cut(param, "=")
				key = strings.ToLower(strings.TrimSpace(key))
				value = strings.Trim(strings.TrimSpace(value), `"`)

				if err := rep.apply(key, value); err != nil {
					return Representation{}, err
				}
			}
		}
	}
	return rep, nil
}

// ParseQuery reads include, exclude and levels from URL query parameters.
func ParseQuery(q url.Values) (Representation, error) {
	var rep Representation
	for _, key := range []string{"include", "exclude", "levels"} {
		for _, value := range q[key] {
			if err := rep.apply(key, value); err != nil {
				return Representation{}, err
			}
		}
	}
	return rep, nil
}

// ParseRequest combines the Prefer header with query parameters.
// Query parameters take precedence over the header.
func ParseRequest(headers []string, q url.Values) (Representation, error) {
	fromHeader, err := ParseHeader(headers...)
	if err != nil {
		return Representation{}, err
	}
	fromQuery, err := ParseQuery(q)
	if err != nil {
		return Representation{}, err
	}
	return fromQuery.Merge(fromHeader), nil
}

func (r *Representation) apply(key, value string) error {
	switch key {
	case "include":
		flags, err := ParseFlags(value)
		if err != nil {
			return err
		}
		r.Include |= flags
		r.Exclude &^= flags
	case "exclude":
		flags, err := ParseFlags(value)
		if err != nil {
			return err
		}
		r.Exclude |= flags
		r.Include &^= flags
	case "levels":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("levels must be a non-negative integer, got %q", value)
		}
		r.Options.Levels = &n
	}
	return nil
}

// splitOutsideQuotes splits s on sep, ignoring separators inside double quotes.
func splitOutsideQuotes(s string, sep rune) []string {
	var parts []string
	inQuotes := false
	start := 0
	for i, c := range s {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == sep && !inQuotes:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}
