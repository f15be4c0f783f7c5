package helpers

import "github.com/yigit/courseatlas/internal/app/models/dto"

// Page sizes for list endpoints. Pages are 1-based.
const (
	DefaultPage     = 1
	DefaultPageSize = 25
	MaxPageSize     = 200
)

// ClampPage replaces an out-of-range page or size with the defaults
func ClampPage(page, size int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return page, size
}

// CalculateOffsetLimit turns a page and size into squirrel Offset/Limit values
func CalculateOffsetLimit(page, size int) (offset uint64, limit uint64) {
	page, size = ClampPage(page, size)
	return uint64(page-1) * uint64(size), uint64(size)
}

// NewPaginationInfo describes page of size over totalItems rows
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	page, size = ClampPage(page, size)

	var totalPages int
	if totalItems > 0 {
		totalPages = int((totalItems + int64(size) - 1) / int64(size))
	}

	return dto.PaginationInfo{
		CurrentPage: page,
		TotalPages:  totalPages,
		PageSize:    size,
		TotalItems:  totalItems,
	}
}
