package response

import "library-api/internal/usecase/queries"

type PageResponse[T any] struct {
	Items []T   `json:"items"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPage maps a query-side page into its response shape item by item.
func NewPage[V any, R any](p *queries.Page[V], mapFn func(V) R) *PageResponse[R] {
	items := make([]R, len(p.Items))
	for i, v := range p.Items {
		items[i] = mapFn(v)
	}
	return &PageResponse[R]{
		Items: items,
		Page:  p.Page,
		Limit: p.Limit,
		Total: p.Total,
		Pages: p.Pages,
	}
}
