package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/courseatlas/internal/app/models"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"comma reordered with initial", "Smith, John A.", "John A Smith"},
		{"already display order", "John A. Smith", "John A Smith"},
		{"extra whitespace", "  Mary   Ann   Lee ", "Mary Ann Lee"},
		{"multiple given segments", "Garcia, Maria, Elena", "Maria Elena Garcia"},
		{"trailing comma", "Nguyen,", "Nguyen"},
		{"abbreviation kept", "Smith, Jr.", "Jr. Smith"},
		{"lowercase initial kept", "Smith, John a.", "John a. Smith"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.raw))
		})
	}
}

func TestMatchKey(t *testing.T) {
	assert.Equal(t, "johnasmith", MatchKey("Smith, John A."))
	assert.Equal(t, "johnasmith", MatchKey("John A Smith"))
	assert.Equal(t, "maryoconnor", MatchKey("O'Connor, Mary"))
	assert.Equal(t, "", MatchKey(" 123 "))
}

func TestIndexKeepsCollisions(t *testing.T) {
	a := &models.Instructor{ID: 1, Name: "John Smith"}
	b := &models.Instructor{ID: 2, Name: "Smith, John"}
	c := &models.Instructor{ID: 3, Name: "Jane Doe"}

	idx := NewIndex([]*models.Instructor{a, b, c, {ID: 4, Name: "..."}})
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 2, idx.Keys())

	matches := idx.Lookup("JOHN SMITH")
	require.Len(t, matches, 2)
	assert.ElementsMatch(t, []int64{1, 2}, []int64{matches[0].ID, matches[1].ID})
	assert.Equal(t, []string{"johnsmith"}, idx.Ambiguous())

	assert.Empty(t, idx.Lookup("Nobody Here"))
	assert.Empty(t, idx.Lookup(""))
}
