package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	domainerrors "github.com/listenupapp/taxonomy-server/internal/errors"
	"github.com/listenupapp/taxonomy-server/internal/http/response"
	"github.com/listenupapp/taxonomy-server/internal/logger"
	"github.com/listenupapp/taxonomy-server/internal/prefer"
	"github.com/listenupapp/taxonomy-server/internal/taxonomy"
)

// registerTermRoutes mounts the read endpoints whose paths end in a slug.
// Slugs contain "/", so these are chi wildcard routes rather than huma operations.
func (s *Server) registerTermRoutes() {
	s.router.Get(s.basePath+"/{code}/tree", s.handleGetTree)
	s.router.Get(s.basePath+"/{code}/terms", s.handleGetTerms)
	s.router.Get(s.basePath+"/{code}/terms/*", s.handleGetTerms)
	s.router.Get(s.basePath+"/{code}/ancestors/*", s.handleGetAncestors)
}

// handleGetTree returns the descendants of the whole taxonomy.
func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	s.serveTerms(w, r, "", func(rep prefer.Representation) prefer.Representation {
		return rep.With(prefer.IncludeDescendants)
	})
}

// handleGetTerms runs a shaped term query for the slug after /terms/.
func (s *Server) handleGetTerms(w http.ResponseWriter, r *http.Request) {
	termSlug, err := slugParam(r)
	if err != nil {
		response.HandleError(w, err, logger.FromContext(r.Context(), s.logger))
		return
	}
	s.serveTerms(w, r, termSlug, nil)
}

func (s *Server) serveTerms(w http.ResponseWriter, r *http.Request, termSlug string, adjust func(prefer.Representation) prefer.Representation) {
	ctx := r.Context()
	log := logger.FromContext(ctx, s.logger)

	req, err := parseShapeRequest(r)
	if err != nil {
		response.HandleError(w, err, log)
		return
	}
	req.Code = chi.URLParam(r, "code")
	req.Slug = termSlug
	req.Caller = callerFrom(ctx)
	if adjust != nil {
		req.Prefer = adjust(req.Prefer)
	}

	page, err := s.services.Taxonomy.GetTerms(ctx, req)
	if err != nil {
		response.HandleError(w, err, log)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(page.Total))
	if page.HasMore {
		w.Header().Set("Link", "<"+nextPageURL(r, page)+`>; rel="next"`)
	}
	if len(r.Header.Values("Prefer")) > 0 {
		w.Header().Set("Preference-Applied", "return=representation")
	}
	response.Success(w, page.Data, log)
}

// handleGetAncestors returns the term and its ancestors as flat records, root last.
// Deleted terms are found when the representation includes "del".
func (s *Server) handleGetAncestors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx, s.logger)

	termSlug, err := slugParam(r)
	if err != nil {
		response.HandleError(w, err, log)
		return
	}
	if termSlug == "" {
		response.BadRequest(w, "term slug is required", log)
		return
	}

	rep, err := prefer.ParseRequest(r.Header.Values("Prefer"), r.URL.Query())
	if err != nil {
		response.HandleError(w, preferError(err), log)
		return
	}

	records, err := s.services.Taxonomy.GetAncestors(ctx, callerFrom(ctx), chi.URLParam(r, "code"), termSlug,
		rep.Contains(prefer.IncludeDeleted))
	if err != nil {
		response.HandleError(w, err, log)
		return
	}

	response.Success(w, records, log)
}

// parseShapeRequest reads the representation, paging and free-text query.
func parseShapeRequest(r *http.Request) (taxonomy.ShapeRequest, error) {
	q := r.URL.Query()

	rep, err := prefer.ParseRequest(r.Header.Values("Prefer"), q)
	if err != nil {
		return taxonomy.ShapeRequest{}, preferError(err)
	}

	req := taxonomy.ShapeRequest{Prefer: rep}
	if req.Page, err = intParam(q, "page", 1); err != nil {
		return taxonomy.ShapeRequest{}, err
	}
	if req.Size, err = intParam(q, "size", 1); err != nil {
		return taxonomy.ShapeRequest{}, err
	}
	if q.Has("q") {
		text := strings.TrimSpace(q.Get("q"))
		req.Query = &text
	}
	return req, nil
}

// intParam parses an optional integer query parameter no smaller than minimum.
func intParam(q url.Values, name string, minimum int) (*int, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < minimum {
		return nil, domainerrors.ValidationWithDetails("invalid query parameter", map[string]string{
			name: "must be an integer >= " + strconv.Itoa(minimum),
		})
	}
	return &n, nil
}

func preferError(err error) error {
	return domainerrors.ValidationWithDetails("invalid representation preference", map[string]string{
		"prefer": err.Error(),
	})
}

// slugParam returns the unescaped wildcard slug without surrounding slashes.
func slugParam(r *http.Request) (string, error) {
	raw, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		return "", domainerrors.Validationf("invalid slug path: %v", err)
	}
	return cleanSlug(raw), nil
}

// cleanSlug strips surrounding slashes. Stored slugs never carry them.
func cleanSlug(s string) string {
	return strings.Trim(strings.TrimSpace(s), "/")
}

// nextPageURL rewrites the request's page parameter to the following page.
func nextPageURL(r *http.Request, page *taxonomy.Page) string {
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page.Page+1))
	q.Set("size", strconv.Itoa(page.Size))
	return r.URL.Path + "?" + q.Encode()
}
