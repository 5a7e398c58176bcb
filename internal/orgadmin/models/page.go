package models

import "math"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest selects a zero-based page of results.
// Sort names a field, optionally prefixed with "-" for descending order.
type PageRequest struct {
	Page int
	Size int
	Sort string
}

// Normalize clamps the request into a valid range using the given limits.
func (p PageRequest) Normalize(defaultSize, maxSize int) PageRequest {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = defaultSize
	}
	if p.Size > maxSize {
		p.Size = maxSize
	}
	// Page*Size must not overflow, or the offset wraps negative and the
	// database silently serves the first page.
	if last := math.MaxInt / p.Size; p.Page > last {
		p.Page = last
	}
	return p
}

// Offset returns the number of rows preceding the page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is one page of output records.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// NewPage assembles a page from its content and the total element count.
func NewPage[T any](content []T, req PageRequest, total int64) *Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return &Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    pages,
	}
}
