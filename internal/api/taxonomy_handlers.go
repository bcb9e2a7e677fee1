package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/taxonomy-server/internal/domain"
	domainerrors "github.com/listenupapp/taxonomy-server/internal/errors"
	"github.com/listenupapp/taxonomy-server/internal/service"
)

var bearerAuth = []map[string][]string{{"bearer": {}}}

func (s *Server) registerTaxonomyRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTaxonomies",
		Method:      http.MethodGet,
		Path:        s.basePath,
		Summary:     "List taxonomies",
		Description: "Returns the taxonomies the caller may read, ordered by code",
		Tags:        []string{"Taxonomies"},
	}, s.handleListTaxonomies)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createTaxonomy",
		Method:        http.MethodPost,
		Path:          s.basePath,
		Summary:       "Create taxonomy",
		Description:   "Creates a taxonomy with its default representation (admin only)",
		Tags:          []string{"Taxonomies"},
		DefaultStatus: http.StatusCreated,
		Security:      bearerAuth,
	}, s.handleCreateTaxonomy)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTaxonomy",
		Method:      http.MethodGet,
		Path:        s.basePath + "/{code}",
		Summary:     "Get taxonomy",
		Description: "Returns a taxonomy by code",
		Tags:        []string{"Taxonomies"},
	}, s.handleGetTaxonomy)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteTaxonomy",
		Method:        http.MethodDelete,
		Path:          s.basePath + "/{code}",
		Summary:       "Delete taxonomy",
		Description:   "Deletes a taxonomy with all its terms (admin only)",
		Tags:          []string{"Taxonomies"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearerAuth,
	}, s.handleDeleteTaxonomy)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createTerm",
		Method:        http.MethodPost,
		Path:          s.basePath + "/{code}/terms",
		Summary:       "Create term",
		Description:   "Creates a term under an optional parent; the local slug is normalized (admin only)",
		Tags:          []string{"Terms"},
		DefaultStatus: http.StatusCreated,
		Security:      bearerAuth,
	}, s.handleCreateTerm)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTerm",
		Method:      http.MethodDelete,
		Path:        s.basePath + "/{code}/terms",
		Summary:     "Delete term",
		Description: "Soft-deletes a term and its descendants. Referenced subtrees become delete_pending (admin only)",
		Tags:        []string{"Terms"},
		Security:    bearerAuth,
	}, s.handleDeleteTerm)

	huma.Register(s.api, huma.Operation{
		OperationID:   "obsoleteTerm",
		Method:        http.MethodPost,
		Path:          s.basePath + "/{code}/obsolete",
		Summary:       "Obsolete term",
		Description:   "Records the term that supersedes another; an empty replacement clears it (admin only)",
		Tags:          []string{"Terms"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearerAuth,
	}, s.handleObsoleteTerm)

	huma.Register(s.api, huma.Operation{
		OperationID:   "setTermBusyCount",
		Method:        http.MethodPost,
		Path:          s.basePath + "/{code}/busy",
		Summary:       "Set busy count",
		Description:   "Sets how many external records reference a term (admin only)",
		Tags:          []string{"Terms"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearerAuth,
	}, s.handleSetTermBusyCount)
}

// === DTOs ===

// TaxonomyLinks points at the term endpoints of a taxonomy.
type TaxonomyLinks struct {
	Terms string `json:"terms" doc:"Root terms of the taxonomy"`
	Tree  string `json:"tree" doc:"The whole taxonomy as a tree"`
}

// TaxonomyResponse contains taxonomy data in API responses.
type TaxonomyResponse struct {
	ID        string        `json:"id" doc:"Taxonomy ID"`
	Code      string        `json:"code" doc:"Taxonomy code"`
	URL       string        `json:"url,omitempty" doc:"External home of the vocabulary"`
	Public    bool          `json:"public" doc:"Readable without a grant"`
	ExtraData any           `json:"extra_data,omitempty" doc:"Free-form metadata, key order preserved"`
	Include   string        `json:"include,omitempty" doc:"Default include flags"`
	Exclude   string        `json:"exclude,omitempty" doc:"Default exclude flags"`
	Levels    *int          `json:"levels,omitempty" doc:"Default depth bound for descendants"`
	Links     TaxonomyLinks `json:"links" doc:"Related endpoints"`
	CreatedAt time.Time     `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time     `json:"updated_at" doc:"Last update time"`
	// Only set on single taxonomy reads.
	Checkpoint *time.Time `json:"checkpoint,omitempty" doc:"Last change to the taxonomy or any of its terms"`
}

// ListTaxonomiesOutput wraps the taxonomy list for Huma.
type ListTaxonomiesOutput struct {
	Body []TaxonomyResponse
}

// CreateTaxonomyBody is the request body for creating a taxonomy.
type CreateTaxonomyBody struct {
	Code      string         `json:"code" minLength:"1" maxLength:"64" doc:"URL-safe taxonomy code"`
	URL       string         `json:"url,omitempty" doc:"External home of the vocabulary"`
	Public    bool           `json:"public,omitempty" doc:"Readable without a grant"`
	ExtraData map[string]any `json:"extra_data,omitempty" doc:"Free-form metadata"`
	Include   string         `json:"include,omitempty" doc:"Default include flags, space separated" example:"self slug data"`
	Exclude   string         `json:"exclude,omitempty" doc:"Default exclude flags, space separated"`
	Levels    *int           `json:"levels,omitempty" minimum:"0" doc:"Default depth bound for descendants"`
}

// CreateTaxonomyInput wraps the create taxonomy request for Huma.
// RawBody is decoded again so extra data keeps its key order.
type CreateTaxonomyInput struct {
	RawBody []byte
	Body    CreateTaxonomyBody
}

// TaxonomyOutput wraps a taxonomy response for Huma.
type TaxonomyOutput struct {
	Location string `header:"Location"`
	Body     TaxonomyResponse
}

// TaxonomyCodeInput addresses a taxonomy.
type TaxonomyCodeInput struct {
	Code string `path:"code" doc:"Taxonomy code"`
}

// CreateTermBody is the request body for creating a term.
type CreateTermBody struct {
	Parent    string         `json:"parent,omitempty" doc:"Slug path of the parent term; empty creates a root term" example:"europe"`
	Slug      string         `json:"slug" minLength:"1" maxLength:"200" doc:"Local slug or title, normalized before use" example:"Czech Republic"`
	ExtraData map[string]any `json:"extra_data,omitempty" doc:"Free-form metadata"`
}

// CreateTermInput wraps the create term request for Huma.
type CreateTermInput struct {
	Code    string `path:"code" doc:"Taxonomy code"`
	RawBody []byte
	Body    CreateTermBody
}

// TermLinks holds the URLs of a term.
type TermLinks struct {
	Self string `json:"self" doc:"Canonical term URL"`
	Tree string `json:"tree" doc:"The term with its descendants"`
}

// TermResponse contains term data in API responses.
type TermResponse struct {
	ID        string    `json:"id" doc:"Term ID"`
	Slug      string    `json:"slug" doc:"Full slug path"`
	Level     int       `json:"level" doc:"Depth, 1 for root terms"`
	Status    string    `json:"status" doc:"alive, delete_pending or deleted"`
	ExtraData any       `json:"extra_data,omitempty" doc:"Free-form metadata, key order preserved"`
	Links     TermLinks `json:"links" doc:"Related endpoints"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

// TermOutput wraps a term response for Huma.
type TermOutput struct {
	Location string `header:"Location"`
	Body     TermResponse
}

// DeleteTermInput addresses the term to delete.
type DeleteTermInput struct {
	Code string `path:"code" doc:"Taxonomy code"`
	Slug string `query:"slug" required:"true" minLength:"1" doc:"Slug path of the term"`
}

// DeleteTermResponse reports the state a deleted term ended in.
type DeleteTermResponse struct {
	Slug   string `json:"slug" doc:"Slug path of the term"`
	Status string `json:"status" doc:"deleted, or delete_pending while the subtree is referenced"`
}

// DeleteTermOutput wraps the delete term response for Huma.
type DeleteTermOutput struct {
	Body DeleteTermResponse
}

// ObsoleteTermBody is the request body for obsoleting a term.
type ObsoleteTermBody struct {
	Slug        string `json:"slug" minLength:"1" doc:"Slug path of the superseded term"`
	ObsoletedBy string `json:"obsoleted_by,omitempty" doc:"Slug path of the replacement; empty clears it"`
}

// ObsoleteTermInput wraps the obsolete request for Huma.
type ObsoleteTermInput struct {
	Code string `path:"code" doc:"Taxonomy code"`
	Body ObsoleteTermBody
}

// BusyCountBody is the request body for setting a busy count.
type BusyCountBody struct {
	Slug      string `json:"slug" minLength:"1" doc:"Slug path of the term"`
	BusyCount int    `json:"busy_count" minimum:"0" doc:"Number of external references"`
}

// BusyCountInput wraps the busy count request for Huma.
type BusyCountInput struct {
	Code string `path:"code" doc:"Taxonomy code"`
	Body BusyCountBody
}

// === Handlers ===

func (s *Server) handleListTaxonomies(ctx context.Context, _ *struct{}) (*ListTaxonomiesOutput, error) {
	list, err := s.services.Taxonomy.ListTaxonomies(ctx, callerFrom(ctx))
	if err != nil {
		return nil, err
	}

	resp := make([]TaxonomyResponse, len(list))
	for i, t := range list {
		resp[i] = s.taxonomyResponse(t)
	}
	return &ListTaxonomiesOutput{Body: resp}, nil
}

func (s *Server) handleCreateTaxonomy(ctx context.Context, input *CreateTaxonomyInput) (*TaxonomyOutput, error) {
	var req service.CreateTaxonomyRequest
	if err := decodeRawBody(input.RawBody, &req); err != nil {
		return nil, err
	}

	t, err := s.services.Taxonomy.CreateTaxonomy(ctx, callerFrom(ctx), req)
	if err != nil {
		return nil, err
	}

	body := s.taxonomyResponse(t)
	return &TaxonomyOutput{Location: s.basePath + "/" + t.Code, Body: body}, nil
}

func (s *Server) handleGetTaxonomy(ctx context.Context, input *TaxonomyCodeInput) (*TaxonomyOutput, error) {
	caller := callerFrom(ctx)
	t, err := s.services.Taxonomy.GetTaxonomy(ctx, caller, input.Code)
	if err != nil {
		return nil, err
	}
	checkpoint, err := s.services.Taxonomy.TaxonomyCheckpoint(ctx, caller, input.Code)
	if err != nil {
		return nil, err
	}

	resp := s.taxonomyResponse(t)
	resp.Checkpoint = &checkpoint
	return &TaxonomyOutput{Body: resp}, nil
}

func (s *Server) handleDeleteTaxonomy(ctx context.Context, input *TaxonomyCodeInput) (*struct{}, error) {
	if err := s.services.Taxonomy.DeleteTaxonomy(ctx, callerFrom(ctx), input.Code); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (s *Server) handleCreateTerm(ctx context.Context, input *CreateTermInput) (*TermOutput, error) {
	var req service.CreateTermRequest
	if err := decodeRawBody(input.RawBody, &req); err != nil {
		return nil, err
	}
	req.Parent = cleanSlug(req.Parent)

	term, err := s.services.Taxonomy.CreateTerm(ctx, callerFrom(ctx), input.Code, req)
	if err != nil {
		return nil, err
	}

	links := s.links.ForTaxonomy(input.Code)
	return &TermOutput{
		Location: links.Self(term.Slug),
		Body: TermResponse{
			ID:        term.ID,
			Slug:      term.Slug,
			Level:     term.Level + 1,
			Status:    string(term.Status),
			ExtraData: term.ExtraData,
			Links:     TermLinks{Self: links.Self(term.Slug), Tree: links.Tree(term.Slug)},
			CreatedAt: term.CreatedAt,
		},
	}, nil
}

func (s *Server) handleDeleteTerm(ctx context.Context, input *DeleteTermInput) (*DeleteTermOutput, error) {
	termSlug := cleanSlug(input.Slug)

	status, err := s.services.Taxonomy.DeleteTerm(ctx, callerFrom(ctx), input.Code, termSlug)
	if err != nil {
		return nil, err
	}
	return &DeleteTermOutput{Body: DeleteTermResponse{Slug: termSlug, Status: string(status)}}, nil
}

func (s *Server) handleObsoleteTerm(ctx context.Context, input *ObsoleteTermInput) (*struct{}, error) {
	err := s.services.Taxonomy.ObsoleteTerm(ctx, callerFrom(ctx), input.Code,
		cleanSlug(input.Body.Slug), cleanSlug(input.Body.ObsoletedBy))
	if err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (s *Server) handleSetTermBusyCount(ctx context.Context, input *BusyCountInput) (*struct{}, error) {
	err := s.services.Taxonomy.SetTermBusyCount(ctx, callerFrom(ctx), input.Code,
		cleanSlug(input.Body.Slug), input.Body.BusyCount)
	if err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (s *Server) taxonomyResponse(t *domain.Taxonomy) TaxonomyResponse {
	resp := TaxonomyResponse{
		ID:        t.ID,
		Code:      t.Code,
		URL:       t.URL,
		Public:    t.Public,
		Include:   t.Select.Include.String(),
		Exclude:   t.Select.Exclude.String(),
		Levels:    t.Select.Options.Levels,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		Links: TaxonomyLinks{
			Terms: s.links.ForTaxonomy(t.Code).Self(""),
			Tree:  "https://" + s.links.Host + s.basePath + "/" + t.Code + "/tree",
		},
	}
	if t.ExtraData != nil && t.ExtraData.Len() > 0 {
		resp.ExtraData = t.ExtraData
	}
	return resp
}

// decodeRawBody decodes a request body huma has already validated.
func decodeRawBody(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return domainerrors.Validationf("invalid request body: %v", err)
	}
	return nil
}
