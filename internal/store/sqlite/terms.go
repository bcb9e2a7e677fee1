package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/listenupapp/taxonomy-server/internal/domain"
	"github.com/listenupapp/taxonomy-server/internal/store"
)

// termColumns is the ordered list of columns selected in term queries.
// Must match the scan order in scanTerm.
const termColumns = `t.id, t.created_at, t.updated_at, t.taxonomy_id, x.code, t.slug, t.level,
	t.parent_id, t.obsoleted_by_id, o.slug, t.status, t.busy_count, t.extra_data`

// termFrom joins the owning taxonomy and the superseding term, if any.
const termFrom = ` FROM terms t
	JOIN taxonomies x ON x.id = t.taxonomy_id
	LEFT JOIN terms o ON o.id = t.obsoleted_by_id`

// scanTerm scans the termColumns followed by any extra destinations.
// When the term is obsoleted, ObsoletedBy is set to a stub carrying the superseding ID and slug.
func scanTerm(scanner interface{ Scan(dest ...any) error }, extra ...any) (*domain.Term, error) {
	var t domain.Term

	var (
		createdAt     string
		updatedAt     string
		parentID      sql.NullString
		obsoletedByID sql.NullString
		obsoletedSlug sql.NullString
		status        string
		extraData     string
	)

	dest := append([]any{
		&t.ID,
		&createdAt,
		&updatedAt,
		&t.TaxonomyID,
		&t.TaxonomyCode,
		&t.Slug,
		&t.Level,
		&parentID,
		&obsoletedByID,
		&obsoletedSlug,
		&status,
		&t.BusyCount,
		&extraData,
	}, extra...)

	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if parentID.Valid {
		t.ParentID = parentID.String
	}
	if obsoletedByID.Valid {
		t.ObsoletedByID = obsoletedByID.String
		t.ObsoletedBy = &domain.Term{
			Syncable:     domain.Syncable{ID: obsoletedByID.String},
			TaxonomyID:   t.TaxonomyID,
			TaxonomyCode: t.TaxonomyCode,
			Slug:         obsoletedSlug.String,
		}
	}
	t.Status = domain.TermStatus(status)

	if t.ExtraData, err = domain.ParseExtraData([]byte(extraData)); err != nil {
		return nil, fmt.Errorf("term %s extra data: %w", t.Slug, err)
	}

	return &t, nil
}

func collectTerms(rows *sql.Rows) ([]*domain.Term, error) {
	defer rows.Close()

	var terms []*domain.Term
	for rows.Next() {
		t, err := scanTerm(rows)
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

// CreateTerm inserts a new term.
// Level and ParentID are derived from the slug path: the parent must already exist.
// Returns store.ErrParentNotFound when it does not, and store.ErrAlreadyExists on a
// duplicate slug within the taxonomy.
func (s *Store) CreateTerm(ctx context.Context, t *domain.Term) error {
	extraData, err := encodeExtraData(t.ExtraData)
	if err != nil {
		return err
	}
	if t.Status == "" {
		t.Status = domain.TermAlive
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	t.ParentID, t.Level = "", 0
	if parentSlug := t.ParentSlug(); parentSlug != "" {
		var parentLevel int
		err := tx.QueryRowContext(ctx,
			`SELECT id, level FROM terms WHERE taxonomy_id = ? AND slug = ?`,
			t.TaxonomyID, parentSlug,
		).Scan(&t.ParentID, &parentLevel)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrParentNotFound.WithMessage(fmt.Sprintf("parent term %q not found", parentSlug))
		}
		if err != nil {
			return fmt.Errorf("get parent term: %w", err)
		}
		t.Level = parentLevel + 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO terms (
			id, created_at, updated_at, taxonomy_id, slug, level,
			parent_id, obsoleted_by_id, status, busy_count, extra_data
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
		t.TaxonomyID,
		t.Slug,
		t.Level,
		nullString(t.ParentID),
		nullString(t.ObsoletedByID),
		string(t.Status),
		t.BusyCount,
		extraData,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("term %q already exists", t.Slug))
	}
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetTerm retrieves a term by taxonomy code and slug, whatever its status.
// Returns store.ErrTermNotFound if it does not exist.
func (s *Store) GetTerm(ctx context.Context, code, slug string) (*domain.Term, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+termColumns+termFrom+` WHERE x.code = ? AND t.slug = ?`, code, slug)

	t, err := scanTerm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTermNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTermWithAncestors loads a term and its whole ancestor chain in one query.
// The returned term has Parent linked up to the root, so callers can walk the
// chain without further reads.
func (s *Store) GetTermWithAncestors(ctx context.Context, code, slug string) (*domain.Term, error) {
	chain := domain.AncestorSlugs(slug)
	if len(chain) == 0 {
		return nil, store.ErrTermNotFound
	}

	args := make([]any, 0, len(chain)+1)
	args = append(args, code)
	for _, ancestor := range chain {
		args = append(args, ancestor)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+termColumns+termFrom+`
		WHERE x.code = ? AND t.slug IN (`+placeholders(len(chain))+`)
		ORDER BY t.level ASC`, args...)
	if err != nil {
		return nil, err
	}
	terms, err := collectTerms(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Term, len(terms))
	var target *domain.Term
	for _, t := range terms {
		byID[t.ID] = t
		if t.Slug == slug {
			target = t
		}
	}
	if target == nil {
		return nil, store.ErrTermNotFound
	}

	for _, t := range terms {
		if t.IsRoot() {
			continue
		}
		parent, ok := byID[t.ParentID]
		if !ok {
			return nil, fmt.Errorf("term %q: parent %s missing from ancestor chain", t.Slug, t.ParentID)
		}
		t.Parent = parent
	}

	return target, nil
}

// ListTerms returns every term of a taxonomy ordered by slug, whatever its status.
func (s *Store) ListTerms(ctx context.Context, code string) ([]*domain.Term, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+termColumns+termFrom+` WHERE x.code = ? ORDER BY t.slug ASC`, code)
	if err != nil {
		return nil, err
	}
	return collectTerms(rows)
}

// subtreeCond matches the term aliased t and all its descendants in the alias d.
const subtreeCond = `d.taxonomy_id = t.taxonomy_id
	AND (d.id = t.id OR substr(d.slug, 1, length(t.slug) + 1) = t.slug || '/')`

// MarkTermDeleted soft-deletes a term and its descendants.
// When anything in the subtree is still referenced (busy_count > 0) the subtree
// becomes delete_pending instead of deleted. The resulting status is returned.
func (s *Store) MarkTermDeleted(ctx context.Context, code, slug string) (domain.TermStatus, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var (
		termID string
		busy   int
	)
	err = tx.QueryRowContext(ctx, `
		SELECT t.id, (SELECT COALESCE(SUM(d.busy_count), 0) FROM terms d WHERE `+subtreeCond+`)
		FROM terms t JOIN taxonomies x ON x.id = t.taxonomy_id
		WHERE x.code = ? AND t.slug = ?`, code, slug).Scan(&termID, &busy)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrTermNotFound
	}
	if err != nil {
		return "", err
	}

	status := domain.TermDeleted
	if busy > 0 {
		status = domain.TermDeletePending
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE terms SET status = ?, updated_at = ?
		WHERE id IN (
			SELECT d.id FROM terms d, terms t WHERE t.id = ? AND `+subtreeCond+`
		) AND status != 'deleted'`,
		string(status), formatTime(time.Now()), termID)
	if err != nil {
		return "", fmt.Errorf("mark deleted: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return status, nil
}

// SetTermObsoletedBy records that the term at slug is superseded by the term at
// replacementSlug. An empty replacementSlug clears the relation.
func (s *Store) SetTermObsoletedBy(ctx context.Context, code, slug, replacementSlug string) error {
	var replacementID sql.NullString
	if replacementSlug != "" {
		replacement, err := s.GetTerm(ctx, code, replacementSlug)
		if err != nil {
			return err
		}
		if replacement.Slug == slug {
			return store.ErrInvalidInput.WithMessage("a term cannot obsolete itself")
		}
		replacementID = nullString(replacement.ID)
	}

	return s.updateTerm(ctx, code, slug, `obsoleted_by_id = ?`, replacementID)
}

// SetTermBusyCount sets the number of external references to a term.
// A delete_pending term whose count drops to zero becomes deleted.
func (s *Store) SetTermBusyCount(ctx context.Context, code, slug string, busyCount int) error {
	if busyCount < 0 {
		return store.ErrInvalidInput.WithMessage("busy count must not be negative")
	}
	return s.updateTerm(ctx, code, slug, `busy_count = ?,
		status = CASE WHEN status = 'delete_pending' AND ? = 0 THEN 'deleted' ELSE status END`,
		busyCount, busyCount)
}

// updateTerm applies a SET clause to one term. Returns store.ErrTermNotFound when nothing matched.
func (s *Store) updateTerm(ctx context.Context, code, slug, set string, args ...any) error {
	args = append(args, formatTime(time.Now()), slug, code)

	result, err := s.db.ExecContext(ctx, `
		UPDATE terms SET `+set+`, updated_at = ?
		WHERE slug = ? AND taxonomy_id = (SELECT id FROM taxonomies WHERE code = ?)`,
		args...)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrTermNotFound
	}
	return nil
}
