package store

// Paging limits.
const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// PageParams selects one page of an ordered result. Pages are one-based.
type PageParams struct {
	Page int
	Size int
}

// Validate clamps the parameters into range.
func (p *PageParams) Validate() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
}

// Offset returns the number of rows before the page.
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.Size
}
