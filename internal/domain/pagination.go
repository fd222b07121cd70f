package domain

// DefaultItemsPerPage is the default page size when none is specified.
const DefaultItemsPerPage = 10

// MaxItemsPerPage is the maximum allowed page size.
const MaxItemsPerPage = 100

// PageRequest holds 1-based page pagination parameters for list operations.
type PageRequest struct {
	Page         int
	ItemsPerPage int
}

// Limit returns the effective page size, clamped to [1, MaxItemsPerPage].
func (p PageRequest) Limit() int {
	if p.ItemsPerPage <= 0 {
		return DefaultItemsPerPage
	}
	if p.ItemsPerPage > MaxItemsPerPage {
		return MaxItemsPerPage
	}
	return p.ItemsPerPage
}

// Offset returns the row offset for the requested page.
func (p PageRequest) Offset() int {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * p.Limit()
}
