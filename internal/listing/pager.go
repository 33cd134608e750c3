package listing

// DefaultPageSize is the number of rows per page.
const DefaultPageSize = 10

// Pager filters a slice and serves it one page at a time. Pages are
// numbered from 1.
type Pager[T any] struct {
	items    []T
	filtered []T
	match    func(T) bool
	filterID string
	page     int
	size     int
}

// NewPager returns an empty pager. A non-positive size uses the default.
func NewPager[T any](size int) *Pager[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Pager[T]{page: 1, size: size}
}

// SetItems replaces the underlying rows, keeping the filter and clamping
// the current page.
func (p *Pager[T]) SetItems(items []T) {
	p.items = items
	p.apply()
	p.clamp()
}

// SetFilter installs match. id identifies the filter state (for example
// the search text and status); a different id sends the pager back to
// page 1. A nil match shows everything.
func (p *Pager[T]) SetFilter(id string, match func(T) bool) {
	if id != p.filterID {
		p.page = 1
	}
	p.filterID = id
	p.match = match
	p.apply()
	p.clamp()
}

func (p *Pager[T]) apply() {
	if p.match == nil {
		p.filtered = p.items
		return
	}
	out := make([]T, 0, len(p.items))
	for _, it := range p.items {
		if p.match(it) {
			out = append(out, it)
		}
	}
	p.filtered = out
}

func (p *Pager[T]) clamp() {
	if total := p.TotalPages(); p.page > total {
		p.page = total
	}
	if p.page < 1 {
		p.page = 1
	}
}

// TotalPages is at least 1, even with no rows.
func (p *Pager[T]) TotalPages() int {
	n := len(p.filtered)
	if n == 0 {
		return 1
	}
	return (n + p.size - 1) / p.size
}

// Current returns the page number.
func (p *Pager[T]) Current() int { return p.page }

// Size returns the page size.
func (p *Pager[T]) Size() int { return p.size }

// Goto moves to page, clamped to the valid range.
func (p *Pager[T]) Goto(page int) {
	p.page = page
	p.clamp()
}

// Next and Prev step one page within range.
func (p *Pager[T]) Next() { p.Goto(p.page + 1) }
func (p *Pager[T]) Prev() { p.Goto(p.page - 1) }

// Page returns the rows of the current page.
func (p *Pager[T]) Page() []T {
	start := (p.page - 1) * p.size
	if start >= len(p.filtered) {
		return nil
	}
	end := start + p.size
	if end > len(p.filtered) {
		end = len(p.filtered)
	}
	return p.filtered[start:end]
}

// Filtered returns every row passing the filter.
func (p *Pager[T]) Filtered() []T { return p.filtered }

// Total is the number of rows passing the filter.
func (p *Pager[T]) Total() int { return len(p.filtered) }

// Range returns the 1-based first and last row numbers of the page, for
// "Showing x to y of z" footers. Both are 0 when empty.
func (p *Pager[T]) Range() (int, int) {
	if len(p.filtered) == 0 {
		return 0, 0
	}
	start := (p.page-1)*p.size + 1
	return start, start + len(p.Page()) - 1
}
