package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	m := &Migrator{files: Schema, dir: "sql"}

	files, err := m.Pending()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "001_catalog.sql", files[0])
	assert.Equal(t, "002_instructor_ratings.sql", files[1])
	assert.Equal(t, "001", Version(files[0]))
}

func TestCatalogSchemaCarriesNaturalKeys(t *testing.T) {
	body, err := fs.ReadFile(Schema, "sql/001_catalog.sql")
	require.NoError(t, err)

	schema := string(body)
	assert.Contains(t, schema, "UNIQUE (semester, year)")
	assert.Contains(t, schema, "UNIQUE (term_id, crn)")
	assert.Contains(t, schema, "UNIQUE (subject_id, course_number, title)")
	assert.Contains(t, schema, "COALESCE(netid, ''), COALESCE(email, '')")
	assert.Contains(t, schema, "PRIMARY KEY (section_id, instructor_id)")
}
