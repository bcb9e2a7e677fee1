package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchTermIDs returns the IDs of terms in the taxonomy code that match text,
// best match first. At most limit IDs are returned.
func (s *TermIndex) SearchTermIDs(ctx context.Context, code, text string, limit int) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildTermQuery(code, text), limit, 0, false)
	req.SortBy([]string{"-_score", "slug"})

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// buildTermQuery matches text against extra data and the local slug, restricted to one taxonomy.
func buildTermQuery(code, text string) query.Query {
	textMatch := bleve.NewMatchQuery(text)
	textMatch.SetField("text")
	textMatch.SetBoost(2.0)

	localMatch := bleve.NewMatchQuery(text)
	localMatch.SetField("local")

	textQueries := []query.Query{textMatch, localMatch}

	// Prefix query for autocomplete (minimum 2 chars, single word)
	if len(text) >= 2 && !strings.ContainsAny(text, " \t") {
		prefix := bleve.NewPrefixQuery(strings.ToLower(text))
		prefix.SetField("text")
		prefix.SetBoost(0.5)
		textQueries = append(textQueries, prefix)
	}

	scope := bleve.NewTermQuery(code)
	scope.SetField("taxonomy")

	return bleve.NewConjunctionQuery(scope, bleve.NewDisjunctionQuery(textQueries...))
}
