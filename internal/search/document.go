// Package search provides full-text search over taxonomy terms using Bleve.
// It backs the free-text filter of term queries: a query string is resolved to
// the IDs of matching terms, scoped to one taxonomy.
package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/listenupapp/taxonomy-server/internal/domain"
)

// TermDocument is the indexed form of a taxonomy term.
type TermDocument struct {
	ID       string `json:"id"`
	Taxonomy string `json:"taxonomy"` // Taxonomy code, keyword
	Slug     string `json:"slug"`     // Full slug path, keyword
	Local    string `json:"local"`    // Last slug segment, searchable
	Text     string `json:"text"`     // Every string value of the extra data
	Level    int    `json:"level"`
}

// NewTermDocument builds the index document for a term.
func NewTermDocument(t *domain.Term) *TermDocument {
	return &TermDocument{
		ID:       t.ID,
		Taxonomy: t.TaxonomyCode,
		Slug:     t.Slug,
		Local:    strings.ReplaceAll(t.LocalSlug(), "-", " "),
		Text:     strings.Join(extraDataText(t.ExtraData), " "),
		Level:    t.Level,
	}
}

// ToMap converts the document to a map with lowercase field names matching the mapping.
func (d *TermDocument) ToMap() map[string]any {
	return map[string]any{
		"id":       d.ID,
		"taxonomy": d.Taxonomy,
		"slug":     d.Slug,
		"local":    d.Local,
		"text":     d.Text,
		"level":    d.Level,
	}
}

// extraDataText collects string values from extra data, descending into nested
// objects and arrays. Multilingual values such as {"title": {"en": "..", "cs": ".."}}
// contribute every language.
func extraDataText(data *domain.ExtraData) []string {
	if data == nil {
		return nil
	}
	var out []string
	for pair := data.Oldest(); pair != nil; pair = pair.Next() {
		out = appendText(out, pair.Value)
	}
	return out
}

func appendText(out []string, v any) []string {
	switch v := v.(type) {
	case string:
		if v != "" {
			out = append(out, v)
		}
	case []any:
		for _, item := range v {
			out = appendText(out, item)
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = appendText(out, v[k])
		}
	case *domain.ExtraData:
		out = append(out, extraDataText(v)...)
	case nil, bool:
	default:
		out = append(out, fmt.Sprint(v))
	}
	return out
}
