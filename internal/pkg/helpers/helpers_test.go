package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateOffsetLimit(t *testing.T) {
	offset, limit := CalculateOffsetLimit(3, 20)
	assert.Equal(t, uint64(40), offset)
	assert.Equal(t, uint64(20), limit)

	offset, limit = CalculateOffsetLimit(0, 5000)
	assert.Equal(t, uint64(0), offset)
	assert.Equal(t, uint64(DefaultPageSize), limit)
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(51, 2, 25)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)
	assert.Equal(t, int64(51), info.TotalItems)

	empty := NewPaginationInfo(0, 1, 25)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestClampPage(t *testing.T) {
	page, size := ClampPage(4, 0)
	assert.Equal(t, 4, page)
	assert.Equal(t, DefaultPageSize, size)

	page, size = ClampPage(-1, MaxPageSize+1)
	assert.Equal(t, DefaultPage, page)
	assert.Equal(t, DefaultPageSize, size)
}

func TestNullIfBlank(t *testing.T) {
	assert.Nil(t, NullIfBlank("   "))
	assert.Equal(t, "abc", *NullIfBlank(" abc "))
	assert.Equal(t, "", StringValue(nil))
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 900*time.Millisecond, ParseDuration("900ms", time.Second))
	assert.Equal(t, time.Second, ParseDuration("later", time.Second))
}
