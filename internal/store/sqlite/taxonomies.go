package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/listenupapp/taxonomy-server/internal/domain"
	"github.com/listenupapp/taxonomy-server/internal/prefer"
	"github.com/listenupapp/taxonomy-server/internal/store"
)

// taxonomyColumns is the ordered list of columns selected in taxonomy queries.
// Must match the scan order in scanTaxonomy.
const taxonomyColumns = `id, created_at, updated_at, code, url, public, extra_data,
	select_include, select_exclude, select_levels`

// scanTaxonomy scans a sql.Row (or sql.Rows via its Scan method) into a domain.Taxonomy.
func scanTaxonomy(scanner interface{ Scan(dest ...any) error }) (*domain.Taxonomy, error) {
	var t domain.Taxonomy

	var (
		createdAt string
		updatedAt string
		url       sql.NullString
		public    int
		extraData string
		include   string
		exclude   string
		levels    sql.NullInt64
	)

	err := scanner.Scan(
		&t.ID,
		&createdAt,
		&updatedAt,
		&t.Code,
		&url,
		&public,
		&extraData,
		&include,
		&exclude,
		&levels,
	)
	if err != nil {
		return nil, err
	}

	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if url.Valid {
		t.URL = url.String
	}
	t.Public = public != 0

	if t.ExtraData, err = domain.ParseExtraData([]byte(extraData)); err != nil {
		return nil, fmt.Errorf("taxonomy %s extra data: %w", t.Code, err)
	}

	if t.Select.Include, err = prefer.ParseFlags(include); err != nil {
		return nil, fmt.Errorf("taxonomy %s select: %w", t.Code, err)
	}
	if t.Select.Exclude, err = prefer.ParseFlags(exclude); err != nil {
		return nil, fmt.Errorf("taxonomy %s select: %w", t.Code, err)
	}
	if levels.Valid {
		t.Select.Options.Levels = prefer.Levels(int(levels.Int64))
	}

	return &t, nil
}

// CreateTaxonomy inserts a new taxonomy.
// Returns store.ErrAlreadyExists if the ID or code is taken.
func (s *Store) CreateTaxonomy(ctx context.Context, t *domain.Taxonomy) error {
	extraData, err := encodeExtraData(t.ExtraData)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO taxonomies (`+taxonomyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
		t.Code,
		nullString(t.URL),
		boolToInt(t.Public),
		extraData,
		t.Select.Include.String(),
		t.Select.Exclude.String(),
		nullInt(t.Select.Options.Levels),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("taxonomy %q already exists", t.Code))
	}
	return err
}

// GetTaxonomy retrieves a taxonomy by code.
// Returns store.ErrTaxonomyNotFound if it does not exist.
func (s *Store) GetTaxonomy(ctx context.Context, code string) (*domain.Taxonomy, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taxonomyColumns+` FROM taxonomies WHERE code = ?`, code)

	t, err := scanTaxonomy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTaxonomyNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTaxonomies returns all taxonomies sorted by code.
func (s *Store) ListTaxonomies(ctx context.Context) ([]*domain.Taxonomy, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taxonomyColumns+` FROM taxonomies ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var taxonomies []*domain.Taxonomy
	for rows.Next() {
		t, err := scanTaxonomy(rows)
		if err != nil {
			return nil, err
		}
		taxonomies = append(taxonomies, t)
	}
	return taxonomies, rows.Err()
}

// DeleteTaxonomy removes a taxonomy and, through the foreign key cascade, all its terms.
// Returns store.ErrTaxonomyNotFound if it does not exist.
func (s *Store) DeleteTaxonomy(ctx context.Context, code string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM taxonomies WHERE code = ?`, code)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrTaxonomyNotFound
	}
	return nil
}
