package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/listenupapp/taxonomy-server/internal/domain"
	"github.com/listenupapp/taxonomy-server/internal/store"
)

// maxTextHits caps how many search hits a free-text filter turns into an ID list.
const maxTextHits = 10000

// sqlQuery accumulates SQL fragments with their arguments in textual order.
type sqlQuery struct {
	selects    []string
	selectArgs []any
	where      []string
	whereArgs  []any
}

func (q *sqlQuery) addSelect(expr string, args ...any) {
	q.selects = append(q.selects, expr)
	q.selectArgs = append(q.selectArgs, args...)
}

func (q *sqlQuery) addWhere(cond string, args ...any) {
	q.where = append(q.where, cond)
	q.whereArgs = append(q.whereArgs, args...)
}

func (q *sqlQuery) whereClause() string {
	return " WHERE " + strings.Join(q.where, " AND ")
}

// statusCond renders a status condition on column, or "" when it admits everything.
func statusCond(column string, c store.StatusCondition) (string, []any) {
	if c.AdmitsAll() {
		return "", nil
	}
	args := make([]any, len(c.Statuses))
	for i, st := range c.Statuses {
		args[i] = string(st)
	}
	return column + ` IN (` + placeholders(len(args)) + `)`, args
}

// ExecuteTermQuery runs q and returns one page of terms ordered by slug, plus the
// total number of matching terms. A limit <= 0 returns every match.
//
// Aggregates are only computed when q asks for them. The descendant count honours
// the query's status condition; the busy count sums the whole subtree.
func (s *Store) ExecuteTermQuery(ctx context.Context, q store.TermQuery, offset, limit int) ([]*domain.Term, int, error) {
	var sq sqlQuery
	sq.addSelect(termColumns)
	sq.addWhere(`x.code = ?`, q.Term.TaxonomyCode)

	switch q.Mode {
	case store.ModeSelf:
		switch {
		case q.Term.Slug == "":
			sq.addWhere(`t.level = 0`)
		case q.ExcludeSelf:
			return nil, 0, nil
		default:
			sq.addWhere(`t.slug = ?`, q.Term.Slug)
		}

	case store.ModeDescendantsOrSelf:
		if q.Term.Slug == "" {
			if q.Levels != nil {
				// Roots are the first generation below the taxonomy.
				sq.addWhere(`t.level < ?`, *q.Levels)
			}
			break
		}

		if q.ExcludeSelf {
			sq.addWhere(`substr(t.slug, 1, ?) = ?`, len(q.Term.Slug)+1, q.Term.Slug+"/")
		} else {
			sq.addWhere(`(t.slug = ? OR substr(t.slug, 1, ?) = ?)`,
				q.Term.Slug, len(q.Term.Slug)+1, q.Term.Slug+"/")
		}
		if q.Levels != nil {
			baseLevel, err := s.termLevel(ctx, q.Term)
			if errors.Is(err, store.ErrNotFound) {
				return nil, 0, nil
			}
			if err != nil {
				return nil, 0, err
			}
			sq.addWhere(`t.level <= ?`, baseLevel+*q.Levels)
		}

	default:
		return nil, 0, fmt.Errorf("unknown term query mode %d", q.Mode)
	}

	if cond, args := statusCond("t.status", q.Status); cond != "" {
		sq.addWhere(cond, args...)
	}

	if q.HasText() {
		ids, err := s.searcher.SearchTermIDs(ctx, q.TextScope, q.Text, maxTextHits)
		if err != nil {
			return nil, 0, fmt.Errorf("search terms: %w", err)
		}
		if len(ids) == 0 {
			return nil, 0, nil
		}
		args := make([]any, len(ids))
		for i, id := range ids {
			args[i] = id
		}
		sq.addWhere(`t.id IN (`+placeholders(len(ids))+`)`, args...)
	}

	if q.WithDescendantsCount {
		cond, args := statusCond("d.status", q.Status)
		if cond != "" {
			cond = " AND " + cond
		}
		sq.addSelect(`(SELECT COUNT(*) FROM terms d
			WHERE d.taxonomy_id = t.taxonomy_id
			AND substr(d.slug, 1, length(t.slug) + 1) = t.slug || '/'`+cond+`)`, args...)
	}
	if q.WithBusyCount {
		sq.addSelect(`(SELECT COALESCE(SUM(d.busy_count), 0) FROM terms d WHERE ` + subtreeCond + `)`)
	}

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*)`+termFrom+sq.whereClause(), sq.whereArgs...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count terms: %w", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	query := `SELECT ` + strings.Join(sq.selects, ", ") + termFrom + sq.whereClause() + ` ORDER BY t.slug ASC`
	args := append(append([]any{}, sq.selectArgs...), sq.whereArgs...)
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query terms: %w", err)
	}
	defer rows.Close()

	var terms []*domain.Term
	for rows.Next() {
		var descendants, busy sql.NullInt64
		var extra []any
		if q.WithDescendantsCount {
			extra = append(extra, &descendants)
		}
		if q.WithBusyCount {
			extra = append(extra, &busy)
		}

		t, err := scanTerm(rows, extra...)
		if err != nil {
			return nil, 0, err
		}
		if q.WithDescendantsCount {
			n := int(descendants.Int64)
			t.DescendantsCount = &n
		}
		if q.WithBusyCount {
			n := int(busy.Int64)
			t.DescendantsBusyCount = &n
		}
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return terms, total, nil
}

// termLevel returns the stored level of the identified term.
func (s *Store) termLevel(ctx context.Context, id store.TermIdentification) (int, error) {
	var level int
	err := s.db.QueryRowContext(ctx, `
		SELECT t.level FROM terms t JOIN taxonomies x ON x.id = t.taxonomy_id
		WHERE x.code = ? AND t.slug = ?`, id.TaxonomyCode, id.Slug).Scan(&level)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.ErrTermNotFound
	}
	return level, err
}
