package store

import (
	"context"

	"github.com/listenupapp/taxonomy-server/internal/domain"
)

// TermIdentification names a term by taxonomy code and slug path.
// An empty Slug addresses the taxonomy itself, the virtual parent of all roots.
type TermIdentification struct {
	TaxonomyCode string
	Slug         string
}

// StatusCondition restricts which term statuses a query admits.
// A nil Statuses slice admits every status.
type StatusCondition struct {
	Statuses []domain.TermStatus
}

// AliveOnly admits only alive terms.
func AliveOnly() StatusCondition {
	return StatusCondition{Statuses: []domain.TermStatus{domain.TermAlive}}
}

// AnyStatus admits every term.
func AnyStatus() StatusCondition {
	return StatusCondition{}
}

// AdmitsAll reports whether the condition filters nothing.
func (c StatusCondition) AdmitsAll() bool {
	return c.Statuses == nil
}

// Admits reports whether a term with status s passes the condition.
func (c StatusCondition) Admits(s domain.TermStatus) bool {
	if c.AdmitsAll() {
		return true
	}
	for _, st := range c.Statuses {
		if st == s {
			return true
		}
	}
	return false
}

// QueryMode selects which terms around the identified one a query returns.
type QueryMode int

// Query modes.
const (
	// ModeSelf returns only the identified term, or the roots when no slug is given.
	ModeSelf QueryMode = iota
	// ModeDescendantsOrSelf returns the identified term and its subtree.
	ModeDescendantsOrSelf
)

// TermQuery is a declarative term query. Builders return values, nothing runs
// until a TermExecutor receives it.
type TermQuery struct {
	Term   TermIdentification
	Mode   QueryMode
	Status StatusCondition

	// Levels bounds the subtree depth below the identified term. Nil is unbounded.
	Levels *int

	// ExcludeSelf leaves the identified term out of the result, keeping only
	// its descendants. It has no effect without a slug.
	ExcludeSelf bool

	WithDescendantsCount bool
	WithBusyCount        bool

	// Text is a free-text filter, resolved against the search index of TextScope.
	Text      string
	TextScope string
}

// HasText reports whether a free-text filter is set.
func (q TermQuery) HasText() bool {
	return q.Text != ""
}

// DescendantsOrSelf builds a query for a term and its descendants, at most levels deep.
func DescendantsOrSelf(term TermIdentification, levels *int, status StatusCondition, wantDescendantsCount, wantBusyCount bool) TermQuery {
	q := TermQuery{
		Term:                 term,
		Mode:                 ModeDescendantsOrSelf,
		Status:               status,
		WithDescendantsCount: wantDescendantsCount,
		WithBusyCount:        wantBusyCount,
	}
	if levels != nil {
		l := *levels
		q.Levels = &l
	}
	return q
}

// FilterTerm builds a query for a single term.
func FilterTerm(term TermIdentification, status StatusCondition, wantDescendantsCount, wantBusyCount bool) TermQuery {
	return TermQuery{
		Term:                 term,
		Mode:                 ModeSelf,
		Status:               status,
		WithDescendantsCount: wantDescendantsCount,
		WithBusyCount:        wantBusyCount,
	}
}

// ApplyTermQuery layers a free-text filter scoped to the taxonomy code on top of q.
func ApplyTermQuery(q TermQuery, text, code string) TermQuery {
	q.Text = text
	q.TextScope = code
	return q
}

// TermExecutor runs term queries.
type TermExecutor interface {
	ExecuteTermQuery(ctx context.Context, q TermQuery, offset, limit int) ([]*domain.Term, int, error)
}

// TermSearcher resolves free-text filters to term IDs.
type TermSearcher interface {
	SearchTermIDs(ctx context.Context, code, query string, limit int) ([]string, error)
}
