// Package prefer models the client representation preferences for taxonomy responses.
//
// A Representation is a pair of flag sets (include, exclude) plus options. Clients send
// it through the Prefer header or query parameters; taxonomies and the server supply
// defaults. Merging always keeps what the caller stated explicitly.
package prefer

import (
	"fmt"
	"strings"
)

// Flags is a bit set of representation flags.
type Flags uint16

// Representation flags. The wire names are listed in flagNames.
const (
	IncludeURL Flags = 1 << iota
	IncludeDescendantsURL
	IncludeDescendantsCount
	IncludeDescendants
	IncludeID
	IncludeSelf
	IncludeLevel
	IncludeStatus
	IncludeDeleted
	IncludeData
	IncludeSlug
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{IncludeURL, "url"},
	{IncludeDescendantsURL, "drl"},
	{IncludeDescendantsCount, "dcn"},
	{IncludeDescendants, "dsc"},
	{IncludeID, "id"},
	{IncludeSelf, "self"},
	{IncludeLevel, "lvl"},
	{IncludeStatus, "sta"},
	{IncludeDeleted, "del"},
	{IncludeData, "data"},
	{IncludeSlug, "slug"},
}

// Has reports whether every flag in f is set.
func (s Flags) Has(f Flags) bool {
	return f != 0 && s&f == f
}

// Names returns the wire names of the set flags in declaration order.
func (s Flags) Names() []string {
	names := make([]string, 0, len(flagNames))
	for _, fn := range flagNames {
		if s&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	return names
}

// String joins the flag names with spaces, the Prefer header list format.
func (s Flags) String() string {
	return strings.Join(s.Names(), " ")
}

// MarshalText implements encoding.TextMarshaler.
func (s Flags) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Flags) UnmarshalText(text []byte) error {
	parsed, err := ParseFlags(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseFlags parses a list of flag names separated by spaces or commas.
// Unknown names are an error.
func ParseFlags(list string) (Flags, error) {
	var s Flags
	for _, name := range strings.FieldsFunc(list, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	}) {
		f, ok := lookupFlag(strings.ToLower(name))
		if !ok {
			return 0, fmt.Errorf("unknown representation flag %q", name)
		}
		s |= f
	}
	return s, nil
}

func lookupFlag(name string) (Flags, bool) {
	for _, fn := range flagNames {
		if fn.name == name {
			return fn.flag, true
		}
	}
	return 0, false
}

// Options holds valued preferences.
type Options struct {
	// Levels bounds how deep descendants are returned. Nil means unbounded.
	Levels *int `json:"levels,omitempty"`
}

// Representation is a set of requested and suppressed flags with options.
type Representation struct {
	Include Flags   `json:"include"`
	Exclude Flags   `json:"exclude"`
	Options Options `json:"options"`
}

// Contains reports whether f is included and not excluded.
func (r Representation) Contains(f Flags) bool {
	return r.Include.Has(f) && !r.Exclude.Has(f)
}

// Merge fills in everything r leaves unstated from defaults.
// A flag r includes or excludes is never changed by defaults, and a set option wins.
// Merge is associative and merging the result with the same defaults again is a no-op.
func (r Representation) Merge(defaults Representation) Representation {
	explicit := r.Include | r.Exclude
	merged := Representation{
		Include: r.Include | (defaults.Include &^ explicit),
		Exclude: r.Exclude | (defaults.Exclude &^ explicit),
		Options: r.Options,
	}
	if merged.Options.Levels == nil && defaults.Options.Levels != nil {
		levels := *defaults.Options.Levels
		merged.Options.Levels = &levels
	}
	return merged
}

// With returns a copy of r with f explicitly included.
func (r Representation) With(f Flags) Representation {
	r.Include |= f
	r.Exclude &^= f
	return r
}

// Without returns a copy of r with f explicitly excluded.
func (r Representation) Without(f Flags) Representation {
	r.Exclude |= f
	r.Include &^= f
	return r
}

// Levels returns a pointer to n, for building Options literals.
func Levels(n int) *int {
	return &n
}
