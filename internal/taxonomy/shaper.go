package taxonomy

import (
	"context"
	"errors"

	"github.com/listenupapp/taxonomy-server/internal/auth"
	"github.com/listenupapp/taxonomy-server/internal/domain"
	domainerrors "github.com/listenupapp/taxonomy-server/internal/errors"
	"github.com/listenupapp/taxonomy-server/internal/prefer"
	"github.com/listenupapp/taxonomy-server/internal/store"
)

// TaxonomyResolver looks taxonomies up by code.
type TaxonomyResolver interface {
	GetTaxonomy(ctx context.Context, code string) (*domain.Taxonomy, error)
}

// Authorizer decides whether a caller may read part of a taxonomy.
type Authorizer interface {
	EnforceReadPermission(ctx context.Context, caller *auth.Caller, taxonomy *domain.Taxonomy, slug string) error
}

// RenderFunc turns executed rows into response records.
type RenderFunc func(rows []*domain.Term) []*Record

// QueryDescriptor is everything needed to execute and render one term request.
// It is built per request by Shaper.Shape and consumed by Paginator.Execute.
type QueryDescriptor struct {
	Taxonomy       *domain.Taxonomy
	Slug           string
	Representation prefer.Representation

	// Query carries the status condition, descendant mode, depth bound,
	// aggregate switches and the free-text filter.
	Query store.TermQuery

	// Page and Size are nil unless descendants were requested.
	Page *int
	Size *int

	Render RenderFunc

	AllowEmpty   bool // An empty result is not an error
	SingleResult bool // Respond with the first record instead of a list
	HasQuery     bool // A free-text query was supplied, possibly empty
}

// ShapeRequest holds the inputs of one term request.
type ShapeRequest struct {
	Code   string
	Slug   string
	Prefer prefer.Representation
	Page   *int
	Size   *int
	Query  *string
	// Caller is nil for trusted internal use, which skips the read check.
	Caller *auth.Caller
}

// Shaper builds query descriptors from client preferences.
type Shaper struct {
	taxonomies TaxonomyResolver
	authz      Authorizer
	defaults   prefer.Representation
	links      LinkBuilder
}

// NewShaper creates a Shaper. defaults is the server-wide representation applied
// after the caller's and the taxonomy's own preferences.
func NewShaper(taxonomies TaxonomyResolver, authz Authorizer, defaults prefer.Representation, links LinkBuilder) *Shaper {
	return &Shaper{
		taxonomies: taxonomies,
		authz:      authz,
		defaults:   defaults,
		links:      links,
	}
}

// Shape resolves the taxonomy, merges preferences, checks read permission and
// describes the query to run. It never executes the query.
func (s *Shaper) Shape(ctx context.Context, req ShapeRequest) (*QueryDescriptor, error) {
	taxonomy, err := s.taxonomies.GetTaxonomy(ctx, req.Code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("taxonomy %q not found", req.Code)
	}
	if err != nil {
		return nil, err
	}

	rep := taxonomy.MergeSelect(req.Prefer).Merge(s.defaults)

	if req.Caller != nil {
		if err := s.authz.EnforceReadPermission(ctx, req.Caller, taxonomy, req.Slug); err != nil {
			return nil, err
		}
	}

	status := store.AliveOnly()
	if rep.Contains(prefer.IncludeDeleted) {
		status = store.AnyStatus()
	}

	term := store.TermIdentification{TaxonomyCode: taxonomy.Code, Slug: req.Slug}
	wantCount := rep.Contains(prefer.IncludeDescendantsCount)
	wantBusy := rep.Contains(prefer.IncludeStatus)
	descendants := rep.Contains(prefer.IncludeDescendants)

	var q store.TermQuery
	if descendants {
		q = store.DescendantsOrSelf(term, rep.Options.Levels, status, wantCount, wantBusy)
	} else {
		q = store.FilterTerm(term, status, wantCount, wantBusy)
	}
	// Leaving the addressed term out of the query keeps totals and paging
	// offsets in line with the records actually returned.
	q.ExcludeSelf = req.Slug != "" && !rep.Contains(prefer.IncludeSelf)
	if req.Query != nil && *req.Query != "" {
		q = store.ApplyTermQuery(q, *req.Query, taxonomy.Code)
	}

	// Without a slug the self query lists every root.
	single := rep.Contains(prefer.IncludeSelf) && !descendants && req.Slug != ""

	d := &QueryDescriptor{
		Taxonomy:       taxonomy,
		Slug:           req.Slug,
		Representation: rep,
		Query:          q,
		Render:         renderer(rep, s.links.ForTaxonomy(taxonomy.Code)),
		AllowEmpty:     !rep.Contains(prefer.IncludeSelf),
		SingleResult:   single,
		HasQuery:       req.Query != nil,
	}
	if descendants {
		d.Page, d.Size = req.Page, req.Size
	}
	return d, nil
}

// renderer renders rows as a tree without re-rooting. Children of an
// addressed term left out of the query surface at the top level.
func renderer(rep prefer.Representation, links LinkBuilder) RenderFunc {
	return func(rows []*domain.Term) []*Record {
		return RenderTree(rows, rep, links)
	}
}
