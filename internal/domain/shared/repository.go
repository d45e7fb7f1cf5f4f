package shared

import "math"

// Default paging values used when a caller omits or garbles them.
const (
	DefaultPage     = 1
	DefaultPageSize = 8
)

// Filter represents query filter options
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// Normalize replaces non-positive paging values with the defaults.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	return f
}

// Offset returns the number of rows to skip for the filter's page
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// LastPage returns ceil(total/pageSize), 0 when there is nothing to page.
func LastPage(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}
