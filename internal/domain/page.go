package domain

import "strings"

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// PageRequest carries paging inputs for list operations. Key is an optional
// free-text substring filter interpreted by the owning repository.
type PageRequest struct {
	Page  int
	Limit int
	Key   string
}

// Normalize applies defaults for absent or non-positive values. No upper
// bound is imposed here; callers cap Limit where required.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	return p
}

// Offset computes the row offset for the requested page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// HasKeyword reports whether a substring filter was supplied.
func (p PageRequest) HasKeyword() bool {
	return len(p.Key) > 0
}

// Keyword returns the LIKE pattern for the substring filter.
func (p PageRequest) Keyword() string {
	return "%" + strings.ToLower(p.Key) + "%"
}

// PageMeta describes the position of a page within the full result set.
type PageMeta struct {
	TotalItems   int `json:"totalItems"`
	ItemCount    int `json:"itemCount"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalPages   int `json:"totalPages"`
	CurrentPage  int `json:"currentPage"`
}

// Page is a bounded slice of a collection plus pagination metadata.
type Page[T any] struct {
	Items []T      `json:"items"`
	Meta  PageMeta `json:"meta"`
}

// NewPage assembles a Page, deriving metadata from the item slice and the
// total count. totalPages is ceil(totalItems/limit); zero items means zero
// pages.
func NewPage[T any](items []T, totalItems, page, limit int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := totalItems / limit
	if totalItems%limit != 0 {
		totalPages++
	}
	return &Page[T]{
		Items: items,
		Meta: PageMeta{
			TotalItems:   totalItems,
			ItemCount:    len(items),
			ItemsPerPage: limit,
			TotalPages:   totalPages,
			CurrentPage:  page,
		},
	}
}
