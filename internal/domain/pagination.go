package domain

// MaxPageLimit bounds every paginated query.
const MaxPageLimit = 100

// PageRequest is a validated 1-based page request.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest validates page >= 1 and 1 <= limit <= MaxPageLimit.
func NewPageRequest(page, limit int) (PageRequest, error) {
	if page < 1 {
		return PageRequest{}, Invalid("page", "must be at least 1")
	}
	if limit < 1 || limit > MaxPageLimit {
		return PageRequest{}, Invalid("limit", "must be between 1 and %d", MaxPageLimit)
	}
	return PageRequest{Page: page, Limit: limit}, nil
}

// Offset is the number of rows to skip.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination describes the page returned alongside a result set.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Paginate fills in the page count for total rows.
func (p PageRequest) Paginate(total int) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}
