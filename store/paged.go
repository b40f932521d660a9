package store

// PagedResult bundles one page of items with total-count metadata. TotalCount
// is the filtered-but-unpaged count, so len(Items) <= PageSize and
// TotalCount >= len(Items) always hold.
type PagedResult[T any] struct {
	Items      []T
	TotalCount int64
	PageIndex  int
	PageSize   int
}

// NewPagedResult builds a paged result.
func NewPagedResult[T any](items []T, totalCount int64, pageIndex, pageSize int) PagedResult[T] {
	return PagedResult[T]{
		Items:      items,
		TotalCount: totalCount,
		PageIndex:  pageIndex,
		PageSize:   pageSize,
	}
}

// TotalPages returns the number of pages needed to cover TotalCount.
func (p PagedResult[T]) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return int((p.TotalCount + int64(p.PageSize) - 1) / int64(p.PageSize))
}

// HasNext reports whether a page exists after this one.
func (p PagedResult[T]) HasNext() bool {
	return p.PageIndex+1 < p.TotalPages()
}

// HasPrevious reports whether a page exists before this one.
func (p PagedResult[T]) HasPrevious() bool {
	return p.PageIndex > 0
}
