package taxonomy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/taxonomy-server/internal/domain"
	domainerrors "github.com/listenupapp/taxonomy-server/internal/errors"
	"github.com/listenupapp/taxonomy-server/internal/prefer"
	"github.com/listenupapp/taxonomy-server/internal/store"
)

// fakeExecutor pages over a fixed row set and records the requested window.
type fakeExecutor struct {
	rows   []*domain.Term
	offset int
	limit  int
}

func (f *fakeExecutor) ExecuteTermQuery(_ context.Context, _ store.TermQuery, offset, limit int) ([]*domain.Term, int, error) {
	f.offset, f.limit = offset, limit
	if limit <= 0 {
		return f.rows, len(f.rows), nil
	}
	if offset >= len(f.rows) {
		return nil, len(f.rows), nil
	}
	end := min(offset+limit, len(f.rows))
	return f.rows[offset:end], len(f.rows), nil
}

func descriptor(d QueryDescriptor) *QueryDescriptor {
	d.Taxonomy = &domain.Taxonomy{Code: "countries"}
	d.Render = func(rows []*domain.Term) []*Record {
		return RenderTree(rows, prefer.Representation{Include: prefer.IncludeSlug}, testLinks)
	}
	return &d
}

func TestPaginator_EmptyIsNotFound(t *testing.T) {
	p := NewPaginator(&fakeExecutor{})

	_, err := p.Execute(context.Background(), descriptor(QueryDescriptor{Slug: "europe"}))
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestPaginator_EmptyAllowed(t *testing.T) {
	p := NewPaginator(&fakeExecutor{})

	page, err := p.Execute(context.Background(), descriptor(QueryDescriptor{AllowEmpty: true}))
	require.NoError(t, err)
	assert.Empty(t, page.Data)

	page, err = p.Execute(context.Background(), descriptor(QueryDescriptor{HasQuery: true}))
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)

	page, err = p.Execute(context.Background(), descriptor(QueryDescriptor{HasQuery: true, SingleResult: true}))
	require.NoError(t, err)
	assert.Empty(t, page.Data)
}

func TestPaginator_SingleResult(t *testing.T) {
	p := NewPaginator(&fakeExecutor{rows: []*domain.Term{row("europe", 0)}})

	page, err := p.Execute(context.Background(), descriptor(QueryDescriptor{Slug: "europe", SingleResult: true}))
	require.NoError(t, err)

	rec, ok := page.Data.(*Record)
	require.True(t, ok)
	slug, _ := rec.Get("slug")
	assert.Equal(t, "europe", slug)
}

func TestPaginator_Paging(t *testing.T) {
	exec := &fakeExecutor{rows: []*domain.Term{row("a", 0), row("b", 0), row("c", 0), row("d", 0), row("e", 0)}}
	p := NewPaginator(exec)
	pageNo, size := 2, 2

	page, err := p.Execute(context.Background(), descriptor(QueryDescriptor{Page: &pageNo, Size: &size, AllowEmpty: true}))
	require.NoError(t, err)

	assert.Equal(t, 2, exec.offset)
	assert.Equal(t, 2, exec.limit)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Size)
	assert.True(t, page.HasMore)
	assert.Len(t, page.Data, 2)

	pageNo = 3
	page, err = p.Execute(context.Background(), descriptor(QueryDescriptor{Page: &pageNo, Size: &size, AllowEmpty: true}))
	require.NoError(t, err)
	assert.False(t, page.HasMore)
	assert.Len(t, page.Data, 1)
}

func TestPaginator_NoPagingReturnsAll(t *testing.T) {
	exec := &fakeExecutor{rows: []*domain.Term{row("a", 0), row("b", 0)}}
	p := NewPaginator(exec)

	page, err := p.Execute(context.Background(), descriptor(QueryDescriptor{}))
	require.NoError(t, err)

	assert.Equal(t, 0, exec.limit)
	assert.False(t, page.HasMore)
	assert.Len(t, page.Data, 2)
}
