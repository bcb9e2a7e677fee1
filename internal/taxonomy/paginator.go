package taxonomy

import (
	"context"

	domainerrors "github.com/listenupapp/taxonomy-server/internal/errors"
	"github.com/listenupapp/taxonomy-server/internal/store"
)

// Page is an executed and rendered term request.
type Page struct {
	// Data is a *Record for single results and []*Record otherwise.
	Data    any
	Total   int
	Page    int
	Size    int
	HasMore bool
}

// Paginator executes query descriptors.
type Paginator struct {
	exec store.TermExecutor
}

// NewPaginator creates a Paginator running queries on exec.
func NewPaginator(exec store.TermExecutor) *Paginator {
	return &Paginator{exec: exec}
}

// Execute runs d's query, applies paging and renders the rows.
//
// An empty result is a NotFound error unless d allows it or a free-text query
// was given. Paging applies only when d carries a page or size.
func (p *Paginator) Execute(ctx context.Context, d *QueryDescriptor) (*Page, error) {
	page := &Page{}

	offset, limit := 0, 0
	if d.Page != nil || d.Size != nil {
		params := store.PageParams{}
		if d.Page != nil {
			params.Page = *d.Page
		}
		if d.Size != nil {
			params.Size = *d.Size
		}
		params.Validate()
		offset, limit = params.Offset(), params.Size
		page.Page, page.Size = params.Page, params.Size
	}

	rows, total, err := p.exec.ExecuteTermQuery(ctx, d.Query, offset, limit)
	if err != nil {
		return nil, err
	}
	page.Total = total
	page.HasMore = limit > 0 && offset+len(rows) < total

	if len(rows) == 0 && !d.AllowEmpty && !d.HasQuery {
		return nil, notFound(d)
	}

	records := d.Render(rows)
	if d.SingleResult {
		if len(records) == 0 {
			if d.HasQuery {
				page.Data = []*Record{}
				return page, nil
			}
			return nil, notFound(d)
		}
		page.Data = records[0]
		return page, nil
	}

	page.Data = records
	return page, nil
}

func notFound(d *QueryDescriptor) error {
	if d.Slug == "" {
		return domainerrors.NotFoundf("no terms found in taxonomy %q", d.Taxonomy.Code)
	}
	return domainerrors.NotFoundf("term %q not found in taxonomy %q", d.Slug, d.Taxonomy.Code)
}
