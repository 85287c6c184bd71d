package shared

import "strings"

// Filter carries paging, ordering and free-text search for list queries
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]interface{}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: defaultPageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]interface{}),
	}
}

// Normalize clamps paging values into range and lowercases the direction
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	f.OrderDir = strings.ToLower(f.OrderDir)
	if f.OrderDir != "asc" {
		f.OrderDir = "desc"
	}
	if f.OrderBy == "" {
		f.OrderBy = "created_at"
	}
	if f.Filters == nil {
		f.Filters = make(map[string]interface{})
	}
	return f
}

// Offset returns the row offset for the current page
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// With returns a copy of the filter with an extra key/value condition
func (f Filter) With(key string, value interface{}) Filter {
	next := make(map[string]interface{}, len(f.Filters)+1)
	for k, v := range f.Filters {
		next[k] = v
	}
	next[key] = value
	f.Filters = next
	return f
}

// Paginated represents a paginated result
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated creates a new paginated result
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize > 0 {
			totalPages++
		}
	}
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
