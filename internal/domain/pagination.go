package domain

import "strings"

// Pagination carries list filtering: page window, an optional search term and
// a sort key. Sort is a column name with an optional leading "-" for
// descending order; callers translate and safelist API sort parameters before
// setting it. An empty Sort means newest first.
type Pagination struct {
	Page     int
	PageSize int
	Term     string
	Sort     string
}

func (f Pagination) SortColumn() string {
	if f.Sort == "" {
		return "created_at"
	}

	return strings.TrimPrefix(f.Sort, "-")
}

func (f Pagination) SortDirection() string {
	if f.Sort == "" || strings.HasPrefix(f.Sort, "-") {
		return "DESC"
	}

	return "ASC"
}

func (f Pagination) Limit() int {
	return f.PageSize
}

func (f Pagination) Offset() int {
	return (f.Page - 1) * f.PageSize
}
