package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/listenupapp/taxonomy-server/internal/auth"
	"github.com/listenupapp/taxonomy-server/internal/domain"
	domainerrors "github.com/listenupapp/taxonomy-server/internal/errors"
	"github.com/listenupapp/taxonomy-server/internal/id"
	"github.com/listenupapp/taxonomy-server/internal/logger"
	"github.com/listenupapp/taxonomy-server/internal/prefer"
	"github.com/listenupapp/taxonomy-server/internal/slug"
	"github.com/listenupapp/taxonomy-server/internal/store"
	"github.com/listenupapp/taxonomy-server/internal/taxonomy"
	"github.com/listenupapp/taxonomy-server/internal/validation"
)

// TaxonomyStore is the persistence the taxonomy service needs.
type TaxonomyStore interface {
	store.TermExecutor
	CreateTaxonomy(ctx context.Context, t *domain.Taxonomy) error
	GetTaxonomy(ctx context.Context, code string) (*domain.Taxonomy, error)
	GetTaxonomyCheckpoint(ctx context.Context, code string) (time.Time, error)
	ListTaxonomies(ctx context.Context) ([]*domain.Taxonomy, error)
	DeleteTaxonomy(ctx context.Context, code string) error
	CreateTerm(ctx context.Context, t *domain.Term) error
	GetTermWithAncestors(ctx context.Context, code, slug string) (*domain.Term, error)
	ListTerms(ctx context.Context, code string) ([]*domain.Term, error)
	MarkTermDeleted(ctx context.Context, code, slug string) (domain.TermStatus, error)
	SetTermObsoletedBy(ctx context.Context, code, slug, replacementSlug string) error
	SetTermBusyCount(ctx context.Context, code, slug string, busyCount int) error
}

// TermIndexer keeps the free-text index in step with the store.
type TermIndexer interface {
	IndexTerm(t *domain.Term) error
	IndexTerms(terms []*domain.Term) error
	DeleteTerms(ids []string) error
	Rebuild() error
}

// TaxonomyService orchestrates taxonomy and term operations.
//
// Methods taking a caller check permissions against it. A nil caller is trusted
// internal use (CLI, seeding) and skips the checks.
type TaxonomyService struct {
	store     TaxonomyStore
	index     TermIndexer // nil disables indexing
	policy    *auth.Policy
	shaper    *taxonomy.Shaper
	paginator *taxonomy.Paginator
	links     taxonomy.LinkBuilder
	logger    *slog.Logger
	validator *validation.Validator
}

// NewTaxonomyService creates a new taxonomy service.
// defaults is the server-wide representation; links builds term URLs.
func NewTaxonomyService(st TaxonomyStore, index TermIndexer, policy *auth.Policy, defaults prefer.Representation, links taxonomy.LinkBuilder, logger *slog.Logger) *TaxonomyService {
	return &TaxonomyService{
		store:     st,
		index:     index,
		policy:    policy,
		shaper:    taxonomy.NewShaper(st, policy, defaults, links),
		paginator: taxonomy.NewPaginator(st),
		links:     links,
		logger:    logger,
		validator: validation.New(),
	}
}

func (s *TaxonomyService) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.logger)
}

func (s *TaxonomyService) requireAdmin(caller *auth.Caller) error {
	if caller == nil {
		return nil
	}
	return s.policy.RequireAdmin(caller)
}

// ListTaxonomies returns the taxonomies the caller may see, ordered by code.
func (s *TaxonomyService) ListTaxonomies(ctx context.Context, caller *auth.Caller) ([]*domain.Taxonomy, error) {
	all, err := s.store.ListTaxonomies(ctx)
	if err != nil {
		return nil, err
	}
	if caller == nil {
		return all, nil
	}

	visible := make([]*domain.Taxonomy, 0, len(all))
	for _, t := range all {
		if s.policy.CanList(caller, t) {
			visible = append(visible, t)
		}
	}
	return visible, nil
}

// GetTaxonomy returns a taxonomy the caller may read.
func (s *TaxonomyService) GetTaxonomy(ctx context.Context, caller *auth.Caller, code string) (*domain.Taxonomy, error) {
	t, err := s.store.GetTaxonomy(ctx, code)
	if err != nil {
		return nil, err
	}
	if caller != nil {
		if err := s.policy.EnforceReadPermission(ctx, caller, t, ""); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// TaxonomyCheckpoint returns when the taxonomy or any of its terms last changed.
// Clients compare it with their last sync to decide whether to refetch the tree.
func (s *TaxonomyService) TaxonomyCheckpoint(ctx context.Context, caller *auth.Caller, code string) (time.Time, error) {
	if _, err := s.GetTaxonomy(ctx, caller, code); err != nil {
		return time.Time{}, err
	}
	return s.store.GetTaxonomyCheckpoint(ctx, code)
}

// CreateTaxonomyRequest contains fields for creating a taxonomy.
type CreateTaxonomyRequest struct {
	Code      string          `json:"code" validate:"required,max=64,taxcode"`
	URL       string          `json:"url" validate:"omitempty,url"`
	Public    bool            `json:"public"`
	ExtraData json.RawMessage `json:"extra_data"`
	// Default representation of the taxonomy, as Prefer flag lists.
	Include string `json:"include"`
	Exclude string `json:"exclude"`
	Levels  *int   `json:"levels" validate:"omitempty,gte=0"`
}

// CreateTaxonomy creates a new taxonomy. Requires an admin caller.
func (s *TaxonomyService) CreateTaxonomy(ctx context.Context, caller *auth.Caller, req CreateTaxonomyRequest) (*domain.Taxonomy, error) {
	if err := s.requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	include, err := prefer.ParseFlags(req.Include)
	if err != nil {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"include": err.Error()})
	}
	exclude, err := prefer.ParseFlags(req.Exclude)
	if err != nil {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"exclude": err.Error()})
	}
	extraData, err := parseExtraData(req.ExtraData)
	if err != nil {
		return nil, err
	}

	taxonomyID, err := id.Generate(id.PrefixTaxonomy)
	if err != nil {
		return nil, err
	}

	t := &domain.Taxonomy{
		Syncable:  domain.Syncable{ID: taxonomyID},
		Code:      req.Code,
		URL:       req.URL,
		Public:    req.Public,
		ExtraData: extraData,
		Select: prefer.Representation{
			Include: include,
			Exclude: exclude,
			Options: prefer.Options{Levels: req.Levels},
		},
	}
	t.InitTimestamps()

	if err := s.store.CreateTaxonomy(ctx, t); err != nil {
		return nil, err
	}

	s.log(ctx).Info("taxonomy created", "id", t.ID, "code", t.Code, "public", t.Public)
	return t, nil
}

// DeleteTaxonomy removes a taxonomy with all its terms. Requires an admin caller.
func (s *TaxonomyService) DeleteTaxonomy(ctx context.Context, caller *auth.Caller, code string) error {
	if err := s.requireAdmin(caller); err != nil {
		return err
	}

	terms, err := s.store.ListTerms(ctx, code)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTaxonomy(ctx, code); err != nil {
		return err
	}

	if s.index != nil && len(terms) > 0 {
		ids := make([]string, len(terms))
		for i, t := range terms {
			ids[i] = t.ID
		}
		if err := s.index.DeleteTerms(ids); err != nil {
			s.log(ctx).Warn("failed to remove terms from search index", "taxonomy", code, "error", err)
		}
	}

	s.log(ctx).Info("taxonomy deleted", "code", code, "terms", len(terms))
	return nil
}

// CreateTermRequest contains fields for creating a term.
type CreateTermRequest struct {
	// Parent is the slug path of the parent term; empty creates a root term.
	Parent string `json:"parent" validate:"omitempty,slug"`
	// Slug is the local slug. It is normalized before use.
	Slug      string          `json:"slug" validate:"required,max=200"`
	ExtraData json.RawMessage `json:"extra_data"`
}

// CreateTerm creates a term under req.Parent. Requires an admin caller.
func (s *TaxonomyService) CreateTerm(ctx context.Context, caller *auth.Caller, code string, req CreateTermRequest) (*domain.Term, error) {
	if err := s.requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	local := slug.Make(req.Slug)
	if local == "" {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"slug": "must contain at least one letter or digit",
		})
	}
	extraData, err := parseExtraData(req.ExtraData)
	if err != nil {
		return nil, err
	}

	tax, err := s.store.GetTaxonomy(ctx, code)
	if err != nil {
		return nil, err
	}

	termID, err := id.Generate(id.PrefixTerm)
	if err != nil {
		return nil, err
	}

	term := &domain.Term{
		Syncable:     domain.Syncable{ID: termID},
		TaxonomyID:   tax.ID,
		TaxonomyCode: tax.Code,
		Slug:         domain.BuildSlug(req.Parent, local),
		Status:       domain.TermAlive,
		ExtraData:    extraData,
	}
	term.InitTimestamps()

	if err := s.store.CreateTerm(ctx, term); err != nil {
		return nil, err
	}

	if s.index != nil {
		if err := s.index.IndexTerm(term); err != nil {
			s.log(ctx).Warn("failed to index term", "taxonomy", code, "slug", term.Slug, "error", err)
		}
	}

	s.log(ctx).Info("term created", "taxonomy", code, "slug", term.Slug, "level", term.Level)
	return term, nil
}

// DeleteTerm soft-deletes a term and its descendants and returns the resulting status.
// Referenced subtrees become delete_pending. Requires an admin caller.
func (s *TaxonomyService) DeleteTerm(ctx context.Context, caller *auth.Caller, code, termSlug string) (domain.TermStatus, error) {
	if err := s.requireAdmin(caller); err != nil {
		return "", err
	}

	status, err := s.store.MarkTermDeleted(ctx, code, termSlug)
	if err != nil {
		return "", err
	}

	s.log(ctx).Info("term deleted", "taxonomy", code, "slug", termSlug, "status", status)
	return status, nil
}

// ObsoleteTerm records that termSlug is superseded by replacementSlug.
// An empty replacement clears the relation. Requires an admin caller.
func (s *TaxonomyService) ObsoleteTerm(ctx context.Context, caller *auth.Caller, code, termSlug, replacementSlug string) error {
	if err := s.requireAdmin(caller); err != nil {
		return err
	}
	if err := s.store.SetTermObsoletedBy(ctx, code, termSlug, replacementSlug); err != nil {
		return err
	}

	s.log(ctx).Info("term obsoleted", "taxonomy", code, "slug", termSlug, "by", replacementSlug)
	return nil
}

// SetTermBusyCount sets how many external records reference a term.
// Requires an admin caller.
func (s *TaxonomyService) SetTermBusyCount(ctx context.Context, caller *auth.Caller, code, termSlug string, busyCount int) error {
	if err := s.requireAdmin(caller); err != nil {
		return err
	}
	if err := s.validator.Var("busy_count", busyCount, "gte=0"); err != nil {
		return err
	}
	if err := s.store.SetTermBusyCount(ctx, code, termSlug, busyCount); err != nil {
		return err
	}

	s.log(ctx).Debug("term busy count set", "taxonomy", code, "slug", termSlug, "busy_count", busyCount)
	return nil
}

// GetTerms shapes and executes a term request.
func (s *TaxonomyService) GetTerms(ctx context.Context, req taxonomy.ShapeRequest) (*taxonomy.Page, error) {
	d, err := s.shaper.Shape(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.paginator.Execute(ctx, d)
}

// GetAncestors returns the term at termSlug and its ancestors as flat records,
// the term first and the root last. Terms that are not alive, pending deletion
// included, are only found with includeDeleted, as in GetTerms.
func (s *TaxonomyService) GetAncestors(ctx context.Context, caller *auth.Caller, code, termSlug string, includeDeleted bool) ([]*taxonomy.Record, error) {
	tax, err := s.store.GetTaxonomy(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("taxonomy %q not found", code)
	}
	if err != nil {
		return nil, err
	}
	if caller != nil {
		if err := s.policy.EnforceReadPermission(ctx, caller, tax, termSlug); err != nil {
			return nil, err
		}
	}

	term, err := s.store.GetTermWithAncestors(ctx, code, termSlug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("term %q not found in taxonomy %q", termSlug, code)
	}
	if err != nil {
		return nil, err
	}
	status := store.AliveOnly()
	if includeDeleted {
		status = store.AnyStatus()
	}
	if !status.Admits(term.Status) {
		return nil, domainerrors.NotFoundf("term %q not found in taxonomy %q", termSlug, code)
	}

	return taxonomy.FlattenAncestors(term, s.links.ForTaxonomy(code)), nil
}

// Reindex rebuilds the search index from the store and returns the number of indexed terms.
func (s *TaxonomyService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	if err := s.index.Rebuild(); err != nil {
		return 0, err
	}

	taxonomies, err := s.store.ListTaxonomies(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, t := range taxonomies {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		terms, err := s.store.ListTerms(ctx, t.Code)
		if err != nil {
			return total, err
		}
		if err := s.index.IndexTerms(terms); err != nil {
			return total, err
		}
		total += len(terms)
	}

	s.log(ctx).Info("search index rebuilt", "taxonomies", len(taxonomies), "terms", total)
	return total, nil
}

func parseExtraData(raw json.RawMessage) (*domain.ExtraData, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return domain.NewExtraData(), nil
	}
	data, err := domain.ParseExtraData(raw)
	if err != nil {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"extra_data": "must be a JSON object",
		})
	}
	return data, nil
}
