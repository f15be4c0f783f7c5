package repositories

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/courseatlas/internal/app/migrations"
	"github.com/yigit/courseatlas/internal/app/models"
	"github.com/yigit/courseatlas/internal/config"
	"github.com/yigit/courseatlas/internal/db"
	"github.com/yigit/courseatlas/internal/ingest"
	"github.com/yigit/courseatlas/internal/pkg/helpers"
)

// openTestDB connects to COURSEATLAS_TEST_DATABASE_URL and migrates it
func openTestDB(t *testing.T) *db.PostgresDB {
	t.Helper()
	url := os.Getenv("COURSEATLAS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("COURSEATLAS_TEST_DATABASE_URL not set")
	}

	cfg := &config.Config{}
	cfg.Database.URL = url
	cfg.Database.MaxOpenConns = 2
	cfg.Database.ConnMaxLifetime = "1h"

	ctx := context.Background()
	database, err := db.NewPostgresDB(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(database.Close)

	_, err = migrations.NewMigrator(database.Pool).Migrate(ctx)
	require.NoError(t, err)
	return database
}

type seeded struct {
	termID, sectionID, instructorID int64
}

func ingestSection(t *testing.T, tx *CatalogTransactor, term models.Term, crn string, enrolled int) seeded {
	t.Helper()
	var out seeded
	err := tx.InTx(context.Background(), func(ctx context.Context, store ingest.Store) error {
		var err error
		if out.termID, err = store.TermID(ctx, term); err != nil {
			return err
		}
		subjectID, err := store.SubjectID(ctx, "ZZT")
		if err != nil {
			return err
		}
		courseID, err := store.CourseID(ctx, subjectID, "101", "Integration Testing")
		if err != nil {
			return err
		}
		if out.instructorID, err = store.InstructorID(ctx, "Jane Q Tester", nil, nil); err != nil {
			return err
		}
		out.sectionID, err = store.UpsertSection(ctx, &models.Section{
			CourseID:          courseID,
			TermID:            out.termID,
			CRN:               crn,
			CreditsMin:        helpers.Ptr(3.0),
			CreditsMax:        helpers.Ptr(3.0),
			MaxEnrollment:     helpers.Ptr(30),
			CurrentEnrollment: helpers.Ptr(enrolled),
		})
		if err != nil {
			return err
		}
		if err := store.ReplaceMeeting(ctx, out.sectionID, &models.Meeting{
			StartTime: helpers.Ptr("09:00"),
			EndTime:   helpers.Ptr("09:50"),
			Days:      helpers.Ptr("MWF"),
		}); err != nil {
			return err
		}
		if err := store.LinkInstructor(ctx, out.sectionID, out.instructorID, nil); err != nil {
			return err
		}
		return store.LinkInstructor(ctx, out.sectionID, out.instructorID, nil)
	})
	require.NoError(t, err)
	return out
}

func TestSectionSnapshotIsOverwritten(t *testing.T) {
	database := openTestDB(t)
	repos := NewRepositories(database)
	ctx := context.Background()

	term := models.Term{Semester: models.SemesterWinter, Year: 2150}
	crn := uuid.NewString()[:8]

	first := ingestSection(t, repos.CatalogTransactor, term, crn, 20)
	second := ingestSection(t, repos.CatalogTransactor, term, crn, 25)

	assert.Equal(t, first.termID, second.termID)
	assert.Equal(t, first.sectionID, second.sectionID)
	assert.Equal(t, first.instructorID, second.instructorID)

	sec, err := repos.SectionRepository.GetByID(ctx, second.sectionID)
	require.NoError(t, err)
	require.NotNil(t, sec.CurrentEnrollment)
	assert.Equal(t, 25, *sec.CurrentEnrollment)
	assert.Len(t, sec.Meetings, 1)
	assert.Len(t, sec.Instructors, 1)
}

func TestRatingUpsertRoundTrip(t *testing.T) {
	database := openTestDB(t)
	repos := NewRepositories(database)
	ctx := context.Background()

	term := models.Term{Semester: models.SemesterWinter, Year: 2151}
	s := ingestSection(t, repos.CatalogTransactor, term, uuid.NewString()[:8], 10)

	instructors, err := repos.InstructorRepository.ListForTerm(ctx, term.Semester, term.Year)
	require.NoError(t, err)
	var ids []int64
	for _, inst := range instructors {
		ids = append(ids, inst.ID)
	}
	assert.Contains(t, ids, s.instructorID)

	require.NoError(t, repos.InstructorRepository.UpdateRating(ctx, s.instructorID, &models.InstructorRating{
		ProfileID: helpers.Ptr(int64(2468)),
		Average:   helpers.Ptr(4.5),
		Count:     helpers.Ptr(12),
	}))

	inst, err := repos.InstructorRepository.GetByID(ctx, s.instructorID)
	require.NoError(t, err)
	require.NotNil(t, inst.Rating)
	assert.Equal(t, 4.5, *inst.Rating.Average)
	assert.Empty(t, inst.Rating.TopTags)
	assert.Nil(t, inst.Rating.Difficulty)
	assert.NotNil(t, inst.Rating.LastRefreshed)
}
