package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/taxonomy-server/internal/config"
	"github.com/listenupapp/taxonomy-server/internal/logger"
	"github.com/listenupapp/taxonomy-server/internal/search"
	"github.com/listenupapp/taxonomy-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.TermIndex
	created bool
}

// Created reports whether the index was created empty on this start.
func (h *SearchIndexHandle) Created() bool {
	return h.created
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve term index and hands it to the store
// for free-text term queries.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	index, created, err := search.NewTermIndex(search.Options{
		DataPath: cfg.Storage.DataPath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	// Wire to store for free-text filtering
	storeHandle.SetTermSearcher(index)

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount, "created", created)

	return &SearchIndexHandle{TermIndex: index, created: created}, nil
}

// TriggerSearchReindexIfNeeded rebuilds a freshly created index from the store.
// Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	if !indexHandle.created {
		return
	}

	svc := do.MustInvoke[*service.TaxonomyService](i)
	log := do.MustInvoke[*logger.Logger](i)

	log.Info("Search index was created, triggering initial reindex")

	go func() {
		count, err := svc.Reindex(context.Background())
		if err != nil {
			log.Error("Initial search reindex failed", "error", err)
			return
		}
		log.Info("Initial search reindex completed", "terms", count)
	}()
}
