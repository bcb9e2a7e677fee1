// Package api provides the HTTP API server and handlers for the taxonomy server.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/taxonomy-server/internal/config"
	"github.com/listenupapp/taxonomy-server/internal/ratelimit"
	"github.com/listenupapp/taxonomy-server/internal/service"
	"github.com/listenupapp/taxonomy-server/internal/taxonomy"
)

// APIVersion is reported in the OpenAPI document.
const APIVersion = "1.0.0"

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocumentCounter reports the size of the search index.
type DocumentCounter interface {
	DocumentCount() (uint64, error)
}

// Services holds everything the handlers call into.
type Services struct {
	Taxonomy *service.TaxonomyService
	Tokens   TokenVerifier
	Store    Pinger          // optional, for health checks
	Index    DocumentCounter // optional, for health checks
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	cfg      *config.Config
	services *Services
	limiter  *ratelimit.KeyedRateLimiter
	router   *chi.Mux
	api      huma.API
	basePath string // e.g. "/api/v1/taxonomies"
	links    taxonomy.LinkBuilder
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// A nil limiter disables rate limiting.
func NewServer(cfg *config.Config, services *Services, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		services: services,
		limiter:  limiter,
		router:   chi.NewRouter(),
		basePath: strings.TrimSuffix(cfg.Taxonomies.URLPrefix, "/"),
		links:    taxonomy.LinkBuilder{Host: cfg.Server.Name, Prefix: cfg.Taxonomies.URLPrefix},
		logger:   logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Taxonomy API", APIVersion)
	humaConfig.Info.Description = "Hierarchical vocabularies with shaped term queries."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	// No $schema links in bodies: every response is an envelope.
	humaConfig.CreateHooks = nil
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, e.g. for exporting the OpenAPI document.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.cfg.Server.TrustProxy {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Prefer"},
		ExposedHeaders:   []string{"Link", "X-Total-Count", "Preference-Applied"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.limiter != nil {
		s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
	}
	s.router.Use(authMiddleware(s.services.Tokens, s.logger))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerTaxonomyRoutes()
	s.registerTermRoutes()
}
