package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/listenupapp/taxonomy-server/internal/domain"
)

// TermIndex is a Bleve index of taxonomy terms used for free-text term
// queries. Methods are safe for concurrent use; Rebuild takes the write lock.
type TermIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string
	Logger   *slog.Logger // nil discards
}

// mappingVersion changes with buildIndexMapping. An index written under
// another version is dropped on open.
const mappingVersion = "1"

// NewTermIndex opens the term index under opts.DataPath, creating it when it
// is missing, unreadable or built with another mapping. The bool reports a
// fresh index that the caller should fill from the store.
func NewTermIndex(opts Options) (*TermIndex, bool, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ti := &TermIndex{
		path:   filepath.Join(opts.DataPath, "terms.bleve"),
		logger: logger,
	}
	versionPath := filepath.Join(opts.DataPath, "terms.version")

	if index, ok := ti.openCurrent(versionPath); ok {
		ti.index = index
		logger.Info("opened existing search index", "path", ti.path)
		return ti, false, nil
	}

	if err := os.RemoveAll(ti.path); err != nil {
		return nil, false, fmt.Errorf("remove old index: %w", err)
	}
	index, err := bleve.New(ti.path, buildIndexMapping())
	if err != nil {
		return nil, false, fmt.Errorf("create index: %w", err)
	}
	if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o600); err != nil {
		logger.Warn("failed to write search version file", "error", err)
	}
	ti.index = index
	logger.Info("created search index", "path", ti.path, "mapping_version", mappingVersion)
	return ti, true, nil
}

// openCurrent opens the index on disk if it exists and matches mappingVersion.
func (s *TermIndex) openCurrent(versionPath string) (bleve.Index, bool) {
	if _, err := os.Stat(s.path); err != nil {
		return nil, false
	}

	version, err := os.ReadFile(versionPath)
	if err != nil || string(version) != mappingVersion {
		s.logger.Info("search index mapping is stale, rebuilding",
			"found", string(version),
			"want", mappingVersion,
		)
		return nil, false
	}

	index, err := bleve.Open(s.path)
	if err != nil {
		s.logger.Warn("failed to open search index, rebuilding", "path", s.path, "error", err)
		return nil, false
	}
	return index, true
}

// Close closes the index and releases resources.
func (s *TermIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexTerm indexes or replaces a single term.
func (s *TermIndex) IndexTerm(t *domain.Term) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := NewTermDocument(t)
	return s.index.Index(doc.ID, doc.ToMap())
}

// IndexTerms indexes terms in batches of 500.
func (s *TermIndex) IndexTerms(terms []*domain.Term) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(terms); i += batchSize {
		end := min(i+batchSize, len(terms))

		batch := s.index.NewBatch()
		for _, t := range terms[i:end] {
			doc := NewTermDocument(t)
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}

		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DeleteTerm removes a term from the index.
func (s *TermIndex) DeleteTerm(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// DeleteTerms removes several terms from the index.
func (s *TermIndex) DeleteTerms(ids []string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return s.index.Batch(batch)
}

// DocumentCount returns the total number of indexed terms.
func (s *TermIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild replaces the index with an empty one. Other calls block until it returns.
func (s *TermIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)

	return nil
}
