package model

// Page is the paginated envelope of the list endpoints.
// A missing results array decodes to nil and a missing count to zero.
type Page[T any] struct {
	Count   int `json:"count" validate:"gte=0"`
	Results []T `json:"results" validate:"dive"`
}

// First returns the first result, or nil for an empty page.
func (p *Page[T]) First() *T {
	if p == nil || len(p.Results) == 0 {
		return nil
	}
	first := p.Results[0]
	return &first
}

// Items never returns nil so templates can range over it safely.
func (p *Page[T]) Items() []T {
	if p == nil || p.Results == nil {
		return []T{}
	}
	return p.Results
}

// TotalPages returns ceil(count / pageSize), zero for an empty listing.
func TotalPages(count, pageSize int) int {
	if count <= 0 || pageSize <= 0 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}
