package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/taxonomy-server/internal/auth"
	"github.com/listenupapp/taxonomy-server/internal/config"
	"github.com/listenupapp/taxonomy-server/internal/logger"
	"github.com/listenupapp/taxonomy-server/internal/service"
	"github.com/listenupapp/taxonomy-server/internal/taxonomy"
)

// ProvideTaxonomyService provides the taxonomy service.
func ProvideTaxonomyService(i do.Injector) (*service.TaxonomyService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	policy := do.MustInvoke[*auth.Policy](i)

	defaults, err := cfg.Taxonomies.Representation()
	if err != nil {
		return nil, err
	}
	links := taxonomy.LinkBuilder{Host: cfg.Server.Name, Prefix: cfg.Taxonomies.URLPrefix}

	return service.NewTaxonomyService(storeHandle.Store, indexHandle.TermIndex, policy, defaults, links, log.Logger), nil
}
