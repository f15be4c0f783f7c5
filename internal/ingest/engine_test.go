package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/courseatlas/internal/app/models"
	"github.com/yigit/courseatlas/internal/pkg/apperrors"
)

const fallHeader = "Subj,Number,Title,Comp Numb,Lec Lab,Credits,Start Time,End Time,Days,Bldg,Room,Instructor,NetId,Email,Max Enrollment,Current Enrollment"

func writeCSV(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func newTestEngine(store *memStore) *Engine {
	return NewEngine(store, zerolog.Nop())
}

func TestIngestIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "uvm_fall_2024_cleaned.csv",
		fallHeader,
		`CS,021,Computer Programming I,10001,LEC,3,9:00,10:15,TR,votey,105,"Smith, John A.",jsmith,jsmith@uvm.edu,30,20`,
		`CS,021,Computer Programming I,10002,LAB,0,13:00,14:50,W,votey,229,"Doe, Jane",,,24,18`,
		`MATH,021,Calculus I,10100,LEC,4,8:30,9:20,MWF,lafayette,L207,"Lee, Ann; Park, Sam",,,40,39`,
	)

	store := newMemStore()
	engine := newTestEngine(store)

	first, err := engine.Run(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, first.Files, 1)
	assert.NoError(t, first.Files[0].Err)
	assert.Equal(t, 3, first.Processed)
	assert.Equal(t, "Fall 2024", first.Files[0].Term)
	assert.NotEmpty(t, first.RunID)

	snapshot := store.committed.clone()

	second, err := engine.Run(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, 3, second.Processed)

	assert.Equal(t, len(snapshot.terms), len(store.committed.terms))
	assert.Equal(t, len(snapshot.subjects), len(store.committed.subjects))
	assert.Equal(t, len(snapshot.courses), len(store.committed.courses))
	assert.Equal(t, len(snapshot.sections), len(store.committed.sections))
	assert.Equal(t, len(snapshot.instructors), len(store.committed.instructors))
	assert.Equal(t, len(snapshot.links), len(store.committed.links))
	for sectionID, meetings := range store.committed.meetings {
		assert.Len(t, meetings, 1, "section %d", sectionID)
	}

	assert.Len(t, store.committed.subjects, 2)
	assert.Len(t, store.committed.courses, 2)
	assert.Len(t, store.committed.instructors, 4)
	assert.Len(t, store.committed.links, 4)
	assert.Contains(t, store.instructorNames(), "John A Smith|jsmith|jsmith@uvm.edu")
	assert.Contains(t, store.instructorNames(), "Ann Lee||")
}

func TestSnapshotOverwriteAndMeetingReplacement(t *testing.T) {
	dir := t.TempDir()
	first := writeCSV(t, dir, "a_fall_2024.csv",
		fallHeader,
		`CS,021,Computer Programming I,10001,LEC,3,9:00,10:15,TR,votey,105,"Smith, John",,,30,20`,
	)
	second := writeCSV(t, dir, "b_fall_2024.csv",
		fallHeader,
		`CS,021,Computer Programming I,10001,LEC,3,11:30,12:45,MWF,kalkin,001,"Smith, John",,,30,25`,
	)

	store := newMemStore()
	report, err := newTestEngine(store).Run(context.Background(), []string{first, second})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Zero(t, report.Failed)

	assert.Len(t, store.committed.sections, 1)
	sec := store.section(models.SemesterFall, 2024, "10001")
	require.NotNil(t, sec)
	assert.Equal(t, 25, *sec.CurrentEnrollment)
	assert.Equal(t, 30, *sec.MaxEnrollment)

	meetings := store.committed.meetings[sec.ID]
	require.Len(t, meetings, 1)
	assert.Equal(t, "11:30", *meetings[0].StartTime)
	assert.Equal(t, "MWF", *meetings[0].Days)
	assert.Equal(t, "KALKIN 001", *meetings[0].Location)
}

func TestSkippedRowsAreCounted(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "uvm_spring_2023_cleaned.csv",
		"Subject,Catalog Nbr,Course Title,CRN,Credit Hrs",
		"BIO,001,Intro Biology,20001,4",
		"BIO,002,,20002,4",
		"nan,003,Genetics,20003,3",
		"BIO,004,Ecology,20004,1 to 4",
	)

	store := newMemStore()
	report, err := newTestEngine(store).Run(context.Background(), []string{path})
	require.NoError(t, err)

	fr := report.Files[0]
	assert.NoError(t, fr.Err)
	assert.Equal(t, 2, fr.Processed)
	assert.Equal(t, 2, fr.Skipped)
	assert.Equal(t, 2, fr.SkipReasons[apperrors.ErrMissingRequiredField.Error()])

	sec := store.section(models.SemesterSpring, 2023, "20004")
	require.NotNil(t, sec)
	assert.Equal(t, 1.0, *sec.CreditsMin)
	assert.Equal(t, 4.0, *sec.CreditsMax)
}

func TestTermColumnsOverrideFilename(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "historical_extract.csv",
		"Subj,Number,Title,CRN,Semester,Year",
		"CS,008,Computer Literacy,90001,Fall,1999",
		"CS,008,Computer Literacy,90002,,",
	)

	store := newMemStore()
	report, err := newTestEngine(store).Run(context.Background(), []string{path})
	require.NoError(t, err)

	fr := report.Files[0]
	assert.Equal(t, 1, fr.Processed)
	assert.Equal(t, 1, fr.SkipReasons[apperrors.ErrTermUnresolved.Error()])
	assert.NotNil(t, store.section(models.SemesterFall, 1999, "90001"))
}

func TestStoreFailureAbortsOnlyThatFile(t *testing.T) {
	dir := t.TempDir()
	bad := writeCSV(t, dir, "a_fall_2024.csv",
		fallHeader,
		`CS,021,Computer Programming I,10001,LEC,3,9:00,10:15,TR,votey,105,"Smith, John",,,30,20`,
		`CS,121,Data Structures,10500,LEC,3,9:00,10:15,TR,votey,105,"Doe, Jane",,,30,20`,
	)
	good := writeCSV(t, dir, "b_spring_2025.csv",
		fallHeader,
		`CS,124,Algorithms,20001,LEC,3,9:00,10:15,TR,votey,105,"Doe, Jane",,,30,20`,
	)

	store := newMemStore()
	store.failOnCRN = "10500"

	report, err := newTestEngine(store).Run(context.Background(), []string{bad, good})
	require.NoError(t, err)
	require.Len(t, report.Files, 2)

	assert.ErrorIs(t, report.Files[0].Err, apperrors.ErrFileAborted)
	assert.Contains(t, report.Files[0].Err.Error(), "line 3")
	assert.Zero(t, report.Files[0].Processed)
	assert.Nil(t, store.section(models.SemesterFall, 2024, "10001"), "rolled back with its file")

	assert.NoError(t, report.Files[1].Err)
	assert.Equal(t, 1, report.Files[1].Processed)
	assert.NotNil(t, store.section(models.SemesterSpring, 2025, "20001"))

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 2, store.txCount)
}

func TestUnreadableFileIsReported(t *testing.T) {
	dir := t.TempDir()
	empty := writeCSV(t, dir, "empty_fall_2020.csv")

	store := newMemStore()
	report, err := newTestEngine(store).Run(context.Background(), []string{empty})
	require.NoError(t, err)
	assert.ErrorIs(t, report.Files[0].Err, apperrors.ErrFileAborted)
	assert.ErrorIs(t, report.Files[0].Err, apperrors.ErrEmptyFile)
	assert.Zero(t, store.txCount)
}

func TestCanceledBatch(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "uvm_fall_2024_cleaned.csv", fallHeader)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newTestEngine(newMemStore()).Run(ctx, []string{path})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Files)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	b := writeCSV(t, dir, "uvm_spring_2020_cleaned.csv", fallHeader)
	a := writeCSV(t, dir, "uvm_fall_2019_cleaned.csv", fallHeader)
	writeCSV(t, dir, "notes.txt", "ignored")

	files, err := Discover([]string{dir, a}, "*_cleaned.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, files)

	_, err = Discover([]string{filepath.Join(dir, "missing")}, "*.csv")
	assert.Error(t, err)
}
