package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/courseatlas/internal/app/models"
	"github.com/yigit/courseatlas/internal/db"
	"github.com/yigit/courseatlas/internal/ingest"
	"github.com/yigit/courseatlas/internal/pkg/apperrors"
	"github.com/yigit/courseatlas/internal/pkg/dberrors"
)

// CatalogRepository writes the catalog tables. It runs on whatever DBTX it is
// given; ingestion hands it the file's transaction.
type CatalogRepository struct {
	db db.DBTX
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(conn db.DBTX) *CatalogRepository {
	return &CatalogRepository{db: conn}
}

// getOrCreate looks the row up by natural key and inserts it on a miss. The insert
// uses ON CONFLICT DO NOTHING so a lost race falls back to the re-select instead of
// aborting the surrounding transaction.
func (r *CatalogRepository) getOrCreate(ctx context.Context, what, selectSQL, insertSQL string, args ...any) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, selectSQL, args...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("error looking up %s: %w", what, err)
	}

	err = r.db.QueryRow(ctx, insertSQL, args...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, wrapWriteError(what, err)
	}

	if err := r.db.QueryRow(ctx, selectSQL, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("error re-reading %s after conflict: %w", what, err)
	}
	return id, nil
}

// TermID returns the id of the (semester, year) term, creating it if needed
func (r *CatalogRepository) TermID(ctx context.Context, term models.Term) (int64, error) {
	return r.getOrCreate(ctx, "term",
		`SELECT term_id FROM terms WHERE semester = $1 AND year = $2`,
		`INSERT INTO terms (semester, year) VALUES ($1, $2)
		 ON CONFLICT (semester, year) DO NOTHING
		 RETURNING term_id`,
		string(term.Semester), term.Year)
}

// SubjectID returns the id of the subject code, creating it if needed
func (r *CatalogRepository) SubjectID(ctx context.Context, code string) (int64, error) {
	return r.getOrCreate(ctx, "subject",
		`SELECT subject_id FROM subjects WHERE code = $1`,
		`INSERT INTO subjects (code) VALUES ($1)
		 ON CONFLICT (code) DO NOTHING
		 RETURNING subject_id`,
		code)
}

// CourseID returns the id of the (subject, number, title) course, creating it if needed
func (r *CatalogRepository) CourseID(ctx context.Context, subjectID int64, number, title string) (int64, error) {
	return r.getOrCreate(ctx, "course",
		`SELECT course_id FROM courses WHERE subject_id = $1 AND course_number = $2 AND title = $3`,
		`INSERT INTO courses (subject_id, course_number, title) VALUES ($1, $2, $3)
		 ON CONFLICT (subject_id, course_number, title) DO NOTHING
		 RETURNING course_id`,
		subjectID, number, title)
}

// InstructorID returns the id of the instructor with this name, netid and email.
// NULL netid and email match each other.
func (r *CatalogRepository) InstructorID(ctx context.Context, name string, netID, email *string) (int64, error) {
	return r.getOrCreate(ctx, "instructor",
		`SELECT instructor_id FROM instructors
		 WHERE name = $1 AND COALESCE(netid, '') = COALESCE($2, '') AND COALESCE(email, '') = COALESCE($3, '')`,
		`INSERT INTO instructors (name, netid, email) VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING
		 RETURNING instructor_id`,
		name, netID, email)
}

// UpsertSection inserts the section or overwrites every non-key column of the
// existing (term, crn) row, returning its id.
func (r *CatalogRepository) UpsertSection(ctx context.Context, section *models.Section) (int64, error) {
	query := `
		INSERT INTO sections
			(course_id, term_id, crn, lec_lab, credits_min, credits_max, max_enrollment, current_enrollment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (term_id, crn) DO UPDATE SET
			course_id          = EXCLUDED.course_id,
			lec_lab            = EXCLUDED.lec_lab,
			credits_min        = EXCLUDED.credits_min,
			credits_max        = EXCLUDED.credits_max,
			max_enrollment     = EXCLUDED.max_enrollment,
			current_enrollment = EXCLUDED.current_enrollment
		RETURNING section_id
	`

	err := r.db.QueryRow(ctx, query,
		section.CourseID, section.TermID, section.CRN, section.LecLab,
		section.CreditsMin, section.CreditsMax, section.MaxEnrollment, section.CurrentEnrollment,
	).Scan(&section.ID)
	if err != nil {
		return 0, wrapWriteError("section", err)
	}
	return section.ID, nil
}

// ReplaceMeeting deletes the section's meetings and inserts the given one
func (r *CatalogRepository) ReplaceMeeting(ctx context.Context, sectionID int64, meeting *models.Meeting) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM meetings WHERE section_id = $1`, sectionID); err != nil {
		return fmt.Errorf("error deleting meetings: %w", err)
	}

	query := `
		INSERT INTO meetings (section_id, start_time, end_time, days, bldg, room, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING meeting_id
	`
	err := r.db.QueryRow(ctx, query,
		sectionID, meeting.StartTime, meeting.EndTime, meeting.Days,
		meeting.Building, meeting.Room, meeting.Location,
	).Scan(&meeting.ID)
	if err != nil {
		return wrapWriteError("meeting", err)
	}
	meeting.SectionID = sectionID
	return nil
}

// LinkInstructor records the section/instructor pair once
func (r *CatalogRepository) LinkInstructor(ctx context.Context, sectionID, instructorID int64, role *string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO section_instructors (section_id, instructor_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (section_id, instructor_id) DO NOTHING`,
		sectionID, instructorID, role)
	if err != nil {
		return wrapWriteError("section instructor", err)
	}
	return nil
}

func wrapWriteError(what string, err error) error {
	if dberrors.IsUniqueViolation(err) {
		return fmt.Errorf("error writing %s: %w: %w", what, apperrors.ErrConflict, err)
	}
	return fmt.Errorf("error writing %s: %w", what, err)
}

var _ ingest.Store = (*CatalogRepository)(nil)

// CatalogTransactor opens one transaction per ingested file
type CatalogTransactor struct {
	db *db.PostgresDB
}

// NewCatalogTransactor creates a transactor over the pool
func NewCatalogTransactor(database *db.PostgresDB) *CatalogTransactor {
	return &CatalogTransactor{db: database}
}

// InTx runs fn with a CatalogRepository bound to a fresh transaction
func (t *CatalogTransactor) InTx(ctx context.Context, fn func(ctx context.Context, store ingest.Store) error) error {
	return t.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, NewCatalogRepository(tx))
	})
}
