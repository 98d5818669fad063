package domain

import "strings"

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// SearchQuery is the typed shape of a catalog search. Zero values are
// legal inputs; Normalize clamps them to usable defaults.
type SearchQuery struct {
	Term     string
	Category int64 // 0 means all categories
	Page     int
	Limit    int
}

// Normalize trims the term and clamps page/limit to positive integers.
func (q SearchQuery) Normalize() SearchQuery {
	q.Term = strings.TrimSpace(q.Term)
	if q.Page < 1 {
		q.Page = defaultPage
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return q
}

// Offset is the row offset implied by page and limit.
func (q SearchQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// SearchResult is the payload cached under a search key.
type SearchResult struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}
