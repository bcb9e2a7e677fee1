// Package taxonomy shapes term queries from client preferences and renders
// terms as JSON records: descendant trees and flattened ancestor chains.
package taxonomy

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is one rendered term. Keys keep insertion order when serialized.
type Record = orderedmap.OrderedMap[string, any]

func newRecord() *Record {
	return orderedmap.New[string, any]()
}

// LinkBuilder synthesizes term URLs from the configured server host and path prefix.
type LinkBuilder struct {
	Host   string // Server name, e.g. "taxonomies.example.org"
	Prefix string // Path prefix ending in "/", prepended to slugs
}

// Self returns the canonical URL of the term at slug.
func (b LinkBuilder) Self(slug string) string {
	return "https://" + b.Host + b.Prefix + slug
}

// Tree returns the URL that lists the term at slug with its descendants.
func (b LinkBuilder) Tree(slug string) string {
	return b.Self(slug) + "?include=dsc"
}

// ForTaxonomy returns a builder whose prefix addresses terms of the taxonomy code.
func (b LinkBuilder) ForTaxonomy(code string) LinkBuilder {
	return LinkBuilder{Host: b.Host, Prefix: b.Prefix + code + "/terms/"}
}
