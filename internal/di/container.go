// Package di provides dependency injection configuration for the taxonomy server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/taxonomy-server/internal/auth"
	"github.com/listenupapp/taxonomy-server/internal/config"
	"github.com/listenupapp/taxonomy-server/internal/di/providers"
	"github.com/listenupapp/taxonomy-server/internal/logger"
	"github.com/listenupapp/taxonomy-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	registerProviders(injector)

	return injector
}

// NewToolContainer creates a container around an already loaded configuration.
// Command-line tools use it to reach the store and services without starting
// the HTTP server.
func NewToolContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	registerProviders(injector)

	return injector
}

func registerProviders(injector do.Injector) {
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage and search
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvidePolicy)

	// Business services
	do.Provide(injector, providers.ProvideTaxonomyService)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)
}

// Bootstrap initializes all services and starts the HTTP server.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*service.TaxonomyService](injector)

	// Server
	_ = do.MustInvoke[*providers.RateLimiterHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Rebuild a fresh index from the database
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
