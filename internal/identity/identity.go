// Package identity canonicalizes instructor names and derives the keys used to
// compare them across the catalog and external rating sources.
package identity

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/yigit/courseatlas/internal/app/models"
)

var initialWithPeriod = regexp.MustCompile(`^([A-Z])\.$`)

// Canonicalize turns "Family, Given Middle" into "Given Middle Family", collapses
// whitespace and drops the period after single uppercase initials.
func Canonicalize(raw string) string {
	name := strings.TrimSpace(raw)
	if strings.Contains(name, ",") {
		var parts []string
		for _, p := range strings.Split(name, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) >= 2 {
			name = strings.Join(append(parts[1:], parts[0]), " ")
		} else {
			name = strings.Join(parts, " ")
		}
	}

	tokens := strings.Fields(name)
	for i, tok := range tokens {
		tokens[i] = initialWithPeriod.ReplaceAllString(tok, "$1")
	}
	return strings.Join(tokens, " ")
}

// MatchKey lowercases the canonical form and keeps letters only, so
// "Smith, John A." and "John A. Smith" both become "johnasmith".
func MatchKey(raw string) string {
	canonical := strings.ToLower(Canonicalize(raw))
	var b strings.Builder
	b.Grow(len(canonical))
	for _, r := range canonical {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Index maps matching keys to every catalog instructor row sharing that key.
// Collisions are kept: a lookup may return more than one row.
type Index struct {
	byKey map[string][]*models.Instructor
	size  int
}

// NewIndex builds an index over the given instructors. Rows whose name yields an
// empty key are left out.
func NewIndex(instructors []*models.Instructor) *Index {
	idx := &Index{byKey: make(map[string][]*models.Instructor, len(instructors))}
	for _, inst := range instructors {
		idx.Add(inst)
	}
	return idx
}

// Add inserts one instructor under its name's key
func (idx *Index) Add(inst *models.Instructor) {
	if inst == nil {
		return
	}
	key := MatchKey(inst.Name)
	if key == "" {
		return
	}
	idx.byKey[key] = append(idx.byKey[key], inst)
	idx.size++
}

// Lookup returns the instructors whose key equals the key of displayName
func (idx *Index) Lookup(displayName string) []*models.Instructor {
	key := MatchKey(displayName)
	if key == "" {
		return nil
	}
	return idx.byKey[key]
}

// Len is the number of indexed instructor rows
func (idx *Index) Len() int { return idx.size }

// Keys is the number of distinct keys
func (idx *Index) Keys() int { return len(idx.byKey) }

// Ambiguous lists keys shared by more than one instructor row
func (idx *Index) Ambiguous() []string {
	var keys []string
	for k, rows := range idx.byKey {
		if len(rows) > 1 {
			keys = append(keys, k)
		}
	}
	return keys
}
