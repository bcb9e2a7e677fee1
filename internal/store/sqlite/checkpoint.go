package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/listenupapp/taxonomy-server/internal/store"
)

// GetTaxonomyCheckpoint returns the most recent updated_at timestamp across
// the taxonomy and all its terms, deleted ones included, so a status change
// moves the checkpoint forward.
func (s *Store) GetTaxonomyCheckpoint(ctx context.Context, code string) (time.Time, error) {
	var taxonomyID, taxonomyUpdated string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, updated_at FROM taxonomies WHERE code = ?`, code).Scan(&taxonomyID, &taxonomyUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, store.ErrTaxonomyNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query taxonomy checkpoint: %w", err)
	}

	checkpoint, err := parseTime(taxonomyUpdated)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse checkpoint time: %w", err)
	}

	// RFC3339Nano drops trailing zeros, so the strings do not sort as times.
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT updated_at FROM terms WHERE taxonomy_id = ?`, taxonomyID)
	if err != nil {
		return time.Time{}, fmt.Errorf("query term checkpoints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var updated string
		if err := rows.Scan(&updated); err != nil {
			return time.Time{}, err
		}
		t, err := parseTime(updated)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse checkpoint time: %w", err)
		}
		if t.After(checkpoint) {
			checkpoint = t
		}
	}

	return checkpoint, rows.Err()
}
