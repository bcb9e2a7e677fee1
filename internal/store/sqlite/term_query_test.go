package sqlite

import (
	"context"
	"reflect"
	"testing"

	"github.com/listenupapp/taxonomy-server/internal/domain"
	"github.com/listenupapp/taxonomy-server/internal/store"
)

// fakeSearcher returns fixed IDs per taxonomy code.
type fakeSearcher struct {
	hits map[string][]string
}

func (f fakeSearcher) SearchTermIDs(_ context.Context, code, _ string, _ int) ([]string, error) {
	return f.hits[code], nil
}

// seedTree builds:
//
//	europe
//	europe/cz            busy 2
//	europe/cz/prague     busy 1
//	europe/cz/brno       deleted
//	europe/sk
//	asia
func seedTree(t *testing.T, s *Store) map[string]*domain.Term {
	t.Helper()
	ctx := context.Background()
	tax := seedTaxonomy(t, s, "countries")

	terms := map[string]*domain.Term{}
	for _, slug := range []string{"europe", "europe/cz", "europe/cz/prague", "europe/cz/brno", "europe/sk", "asia"} {
		terms[slug] = seedTerm(t, s, tax, slug)
	}
	if err := s.SetTermBusyCount(ctx, "countries", "europe/cz", 2); err != nil {
		t.Fatalf("busy: %v", err)
	}
	if err := s.SetTermBusyCount(ctx, "countries", "europe/cz/prague", 1); err != nil {
		t.Fatalf("busy: %v", err)
	}
	if _, err := s.MarkTermDeleted(ctx, "countries", "europe/cz/brno"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	return terms
}

func runQuery(t *testing.T, s *Store, q store.TermQuery, offset, limit int) ([]*domain.Term, int) {
	t.Helper()
	terms, total, err := s.ExecuteTermQuery(context.Background(), q, offset, limit)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	return terms, total
}

func TestExecuteTermQuery_DescendantsOrSelf(t *testing.T) {
	s := newTestStore(t)
	seedTree(t, s)

	europe := store.TermIdentification{TaxonomyCode: "countries", Slug: "europe"}

	tests := []struct {
		name     string
		levels   *int
		status   store.StatusCondition
		skipSelf bool
		want     []string
	}{
		{"alive subtree", nil, store.AliveOnly(), false, []string{"europe", "europe/cz", "europe/cz/prague", "europe/sk"}},
		{"all statuses", nil, store.AnyStatus(), false, []string{"europe", "europe/cz", "europe/cz/brno", "europe/cz/prague", "europe/sk"}},
		{"one level", intPtr(1), store.AliveOnly(), false, []string{"europe", "europe/cz", "europe/sk"}},
		{"zero levels is self", intPtr(0), store.AliveOnly(), false, []string{"europe"}},
		{"descendants only", nil, store.AliveOnly(), true, []string{"europe/cz", "europe/cz/prague", "europe/sk"}},
		{"one level of descendants", intPtr(1), store.AliveOnly(), true, []string{"europe/cz", "europe/sk"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := store.DescendantsOrSelf(europe, tt.levels, tt.status, false, false)
			q.ExcludeSelf = tt.skipSelf
			terms, total := runQuery(t, s, q, 0, 0)
			if got := slugsOf(terms); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if total != len(tt.want) {
				t.Errorf("total: got %d, want %d", total, len(tt.want))
			}
		})
	}
}

func TestExecuteTermQuery_ExcludeSelfPaging(t *testing.T) {
	s := newTestStore(t)
	seedTree(t, s)

	q := store.DescendantsOrSelf(store.TermIdentification{TaxonomyCode: "countries", Slug: "europe"},
		nil, store.AliveOnly(), false, false)
	q.ExcludeSelf = true

	terms, total := runQuery(t, s, q, 0, 2)
	if total != 3 {
		t.Errorf("total: got %d, want 3", total)
	}
	if got := slugsOf(terms); !reflect.DeepEqual(got, []string{"europe/cz", "europe/cz/prague"}) {
		t.Errorf("first page: got %v", got)
	}

	terms, _ = runQuery(t, s, q, 2, 2)
	if got := slugsOf(terms); !reflect.DeepEqual(got, []string{"europe/sk"}) {
		t.Errorf("second page: got %v", got)
	}

	self := store.FilterTerm(store.TermIdentification{TaxonomyCode: "countries", Slug: "europe"},
		store.AliveOnly(), false, false)
	self.ExcludeSelf = true
	if terms, total := runQuery(t, s, self, 0, 0); len(terms) != 0 || total != 0 {
		t.Errorf("self query without self: got %d terms, total %d", len(terms), total)
	}
}

func TestExecuteTermQuery_WholeTaxonomy(t *testing.T) {
	s := newTestStore(t)
	seedTree(t, s)

	whole := store.TermIdentification{TaxonomyCode: "countries"}

	terms, _ := runQuery(t, s, store.DescendantsOrSelf(whole, intPtr(1), store.AliveOnly(), false, false), 0, 0)
	if got := slugsOf(terms); !reflect.DeepEqual(got, []string{"asia", "europe"}) {
		t.Errorf("roots only: got %v", got)
	}

	terms, _ = runQuery(t, s, store.FilterTerm(whole, store.AliveOnly(), false, false), 0, 0)
	if got := slugsOf(terms); !reflect.DeepEqual(got, []string{"asia", "europe"}) {
		t.Errorf("self mode without slug: got %v", got)
	}
}

func TestExecuteTermQuery_FilterTermStatus(t *testing.T) {
	s := newTestStore(t)
	seedTree(t, s)

	brno := store.TermIdentification{TaxonomyCode: "countries", Slug: "europe/cz/brno"}

	terms, total := runQuery(t, s, store.FilterTerm(brno, store.AliveOnly(), false, false), 0, 0)
	if len(terms) != 0 || total != 0 {
		t.Errorf("deleted term must be hidden, got %v", slugsOf(terms))
	}

	terms, _ = runQuery(t, s, store.FilterTerm(brno, store.AnyStatus(), false, false), 0, 0)
	if len(terms) != 1 || terms[0].Status != domain.TermDeleted {
		t.Errorf("deleted term must be admitted, got %v", slugsOf(terms))
	}
}

func TestExecuteTermQuery_Aggregates(t *testing.T) {
	s := newTestStore(t)
	seedTree(t, s)

	cz := store.TermIdentification{TaxonomyCode: "countries", Slug: "europe/cz"}

	terms, _ := runQuery(t, s, store.FilterTerm(cz, store.AliveOnly(), true, true), 0, 0)
	if len(terms) != 1 {
		t.Fatalf("expected one term, got %v", slugsOf(terms))
	}
	got := terms[0]
	if got.DescendantsCount == nil || *got.DescendantsCount != 1 {
		t.Errorf("descendants count (alive only): got %v", got.DescendantsCount)
	}
	if got.DescendantsBusyCount == nil || *got.DescendantsBusyCount != 3 {
		t.Errorf("busy count: got %v", got.DescendantsBusyCount)
	}

	terms, _ = runQuery(t, s, store.FilterTerm(cz, store.AnyStatus(), true, false), 0, 0)
	if *terms[0].DescendantsCount != 2 {
		t.Errorf("descendants count (all): got %d", *terms[0].DescendantsCount)
	}
	if terms[0].DescendantsBusyCount != nil {
		t.Errorf("busy count must not be computed")
	}
}

func TestExecuteTermQuery_Pagination(t *testing.T) {
	s := newTestStore(t)
	seedTree(t, s)

	whole := store.TermIdentification{TaxonomyCode: "countries"}
	q := store.DescendantsOrSelf(whole, nil, store.AliveOnly(), false, false)

	terms, total := runQuery(t, s, q, 2, 2)
	if total != 5 {
		t.Errorf("total: got %d, want 5", total)
	}
	if got := slugsOf(terms); !reflect.DeepEqual(got, []string{"europe/cz", "europe/cz/prague"}) {
		t.Errorf("page: got %v", got)
	}
}

func TestExecuteTermQuery_Text(t *testing.T) {
	s := newTestStore(t)
	terms := seedTree(t, s)

	s.SetTermSearcher(fakeSearcher{hits: map[string][]string{
		"countries": {terms["europe/cz/prague"].ID, terms["asia"].ID},
	}})

	whole := store.TermIdentification{TaxonomyCode: "countries", Slug: "europe"}
	q := store.ApplyTermQuery(store.DescendantsOrSelf(whole, nil, store.AliveOnly(), false, false), "prague", "countries")

	got, total := runQuery(t, s, q, 0, 0)
	if total != 1 || len(got) != 1 || got[0].Slug != "europe/cz/prague" {
		t.Errorf("text filter: got %v", slugsOf(got))
	}

	q = store.ApplyTermQuery(q, "nothing", "other")
	got, total = runQuery(t, s, q, 0, 0)
	if total != 0 || len(got) != 0 {
		t.Errorf("no hits must give no rows, got %v", slugsOf(got))
	}
}

func TestExecuteTermQuery_UnknownTermWithLevels(t *testing.T) {
	s := newTestStore(t)
	seedTree(t, s)

	missing := store.TermIdentification{TaxonomyCode: "countries", Slug: "africa"}
	terms, total := runQuery(t, s, store.DescendantsOrSelf(missing, intPtr(2), store.AliveOnly(), false, false), 0, 0)
	if len(terms) != 0 || total != 0 {
		t.Errorf("expected empty result, got %v", slugsOf(terms))
	}
}

func intPtr(n int) *int { return &n }
