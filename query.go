package tenantkit

// Pagination defaults and bounds. Out-of-range values are normalized, not
// rejected; the transport layer has already rejected non-numeric input.
const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 100
)

// ListOptions narrows a paginated read. Filters are exact-match and
// combined with AND; the search term is matched case-insensitively as a
// substring against the entity type's searchable fields, any of which may
// match.
type ListOptions struct {
	Filters map[string]any
	Search  string
	Page    int
	Limit   int
}

// NewListOptions creates ListOptions with default pagination.
func NewListOptions() ListOptions {
	return ListOptions{Page: DefaultPage, Limit: DefaultLimit}
}

// WithFilter adds an exact-match filter on a field.
func (o ListOptions) WithFilter(field string, value any) ListOptions {
	filters := make(map[string]any, len(o.Filters)+1)
	for k, v := range o.Filters {
		filters[k] = v
	}
	filters[field] = value
	o.Filters = filters
	return o
}

// WithSearch sets the search term.
func (o ListOptions) WithSearch(term string) ListOptions {
	o.Search = term
	return o
}

// WithPage sets the page number (1-based).
func (o ListOptions) WithPage(page int) ListOptions {
	o.Page = page
	return o
}

// WithLimit sets the page size.
func (o ListOptions) WithLimit(limit int) ListOptions {
	o.Limit = limit
	return o
}

// normalize returns the effective page and limit: page minimum 1, limit
// defaulted to DefaultLimit and clamped to [1, MaxLimit].
func (o ListOptions) normalize() (page, limit int) {
	page = o.Page
	if page < 1 {
		page = DefaultPage
	}

	limit = o.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Page is one page of an organization-scoped listing. Total counts all rows
// matching the filters and search before pagination; a page past the end
// has empty Items but real metadata.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// newPage assembles a Page with derived metadata.
func newPage[T any](items []T, total, page, limit int) *Page[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return &Page[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
