package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/courseatlas/internal/app/models"
	"github.com/yigit/courseatlas/internal/db"
	"github.com/yigit/courseatlas/internal/pkg/apperrors"
	"github.com/yigit/courseatlas/internal/pkg/logger"
)

// semesterOrder sorts semesters in calendar order
const semesterOrder = "CASE t.semester WHEN 'Spring' THEN 1 WHEN 'Summer' THEN 2 WHEN 'Fall' THEN 3 WHEN 'Winter' THEN 4 ELSE 5 END"

// SectionFilter narrows section listings. Rating bounds are satisfied by any
// linked instructor that meets them or has no rating yet.
type SectionFilter struct {
	Search        string
	Subject       string
	Semester      models.Semester
	Year          *int
	CRN           string
	InstructorID  *int64
	Instructor    string
	MinCredits    *float64
	MaxCredits    *float64
	Status        string
	MinRating     *float64
	MinCount      *int
	MaxDifficulty *float64
	Offset        uint64
	Limit         uint64
}

// SectionRepository reads sections with their course, term, meetings and instructors
type SectionRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewSectionRepository creates a new SectionRepository
func NewSectionRepository(conn db.DBTX) *SectionRepository {
	return &SectionRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// instructorExists matches sections having a linked instructor satisfying cond
func instructorExists(cond string, args ...any) squirrel.Sqlizer {
	return squirrel.Expr(`EXISTS (
		SELECT 1 FROM section_instructors si
		JOIN instructors i ON i.instructor_id = si.instructor_id
		WHERE si.section_id = s.section_id AND `+cond+`)`, args...)
}

func (f SectionFilter) where() squirrel.And {
	where := squirrel.And{}

	if q := strings.TrimSpace(f.Search); q != "" {
		like := "%" + q + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"c.title": like},
			squirrel.ILike{"c.course_number": like},
			squirrel.ILike{"sub.code": like},
			instructorExists("i.name ILIKE ?", like),
		})
	}
	if f.Subject != "" {
		where = append(where, squirrel.Eq{"sub.code": strings.ToUpper(strings.TrimSpace(f.Subject))})
	}
	if f.Semester != "" {
		where = append(where, squirrel.Eq{"t.semester": string(f.Semester)})
	}
	if f.Year != nil {
		where = append(where, squirrel.Eq{"t.year": *f.Year})
	}
	if f.CRN != "" {
		where = append(where, squirrel.Eq{"s.crn": f.CRN})
	}
	if f.InstructorID != nil {
		where = append(where, instructorExists("si.instructor_id = ?", *f.InstructorID))
	}
	if name := strings.TrimSpace(f.Instructor); name != "" {
		where = append(where, instructorExists("i.name ILIKE ?", "%"+name+"%"))
	}
	if f.MinCredits != nil {
		where = append(where, squirrel.Expr("COALESCE(s.credits_min, 0) >= ?", *f.MinCredits))
	}
	if f.MaxCredits != nil {
		where = append(where, squirrel.Expr("COALESCE(s.credits_max, s.credits_min) <= ?", *f.MaxCredits))
	}
	switch f.Status {
	case "open":
		where = append(where, squirrel.Expr("s.max_enrollment IS NOT NULL AND s.current_enrollment IS NOT NULL AND s.current_enrollment < s.max_enrollment"))
	case "closed":
		where = append(where, squirrel.Expr("s.max_enrollment IS NOT NULL AND s.current_enrollment IS NOT NULL AND s.current_enrollment >= s.max_enrollment"))
	}
	if f.MinRating != nil {
		where = append(where, instructorExists("(i.rating_avg IS NULL OR i.rating_avg >= ?)", *f.MinRating))
	}
	if f.MinCount != nil {
		where = append(where, instructorExists("(i.rating_count IS NULL OR i.rating_count >= ?)", *f.MinCount))
	}
	if f.MaxDifficulty != nil {
		where = append(where, instructorExists("(i.rating_difficulty IS NULL OR i.rating_difficulty <= ?)", *f.MaxDifficulty))
	}
	return where
}

func (r *SectionRepository) baseSelect(columns ...string) squirrel.SelectBuilder {
	return r.sb.Select(columns...).
		From("sections s").
		Join("courses c ON c.course_id = s.course_id").
		Join("subjects sub ON sub.subject_id = c.subject_id").
		Join("terms t ON t.term_id = s.term_id")
}

var sectionColumns = []string{
	"s.section_id", "s.course_id", "s.term_id", "s.crn", "s.lec_lab",
	"s.credits_min", "s.credits_max", "s.max_enrollment", "s.current_enrollment",
	"c.course_number", "c.title", "sub.subject_id", "sub.code", "t.semester", "t.year",
}

func scanSection(row pgx.Row) (*models.Section, error) {
	var (
		sec      models.Section
		course   models.Course
		subject  models.Subject
		term     models.Term
		semester string
	)
	err := row.Scan(
		&sec.ID, &sec.CourseID, &sec.TermID, &sec.CRN, &sec.LecLab,
		&sec.CreditsMin, &sec.CreditsMax, &sec.MaxEnrollment, &sec.CurrentEnrollment,
		&course.CourseNumber, &course.Title, &subject.ID, &subject.Code, &semester, &term.Year,
	)
	if err != nil {
		return nil, err
	}
	course.ID = sec.CourseID
	course.SubjectID = subject.ID
	course.Subject = &subject
	term.ID = sec.TermID
	term.Semester = models.Semester(semester)
	sec.Course = &course
	sec.Term = &term
	return &sec, nil
}

// List returns one page of sections (with meetings and instructors) and the total count
func (r *SectionRepository) List(ctx context.Context, f SectionFilter) ([]*models.Section, int64, error) {
	where := f.where()

	countSQL, countArgs, err := r.baseSelect("COUNT(*)").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count sections query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count sections query")
		return nil, 0, fmt.Errorf("failed to count sections: %w", err)
	}
	if total == 0 {
		return []*models.Section{}, 0, nil
	}

	q := r.baseSelect(sectionColumns...).
		Where(where).
		OrderBy("t.year DESC", semesterOrder, "sub.code", "c.course_number", "c.title", "s.crn").
		Offset(f.Offset)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list sections query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing sections: %w", err)
	}
	defer rows.Close()

	sections := make([]*models.Section, 0)
	for rows.Next() {
		sec, err := scanSection(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning section: %w", err)
		}
		sections = append(sections, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachRelations(ctx, sections); err != nil {
		return nil, 0, err
	}
	return sections, total, nil
}

// GetByID retrieves one section with its meetings and instructors
func (r *SectionRepository) GetByID(ctx context.Context, id int64) (*models.Section, error) {
	sql, args, err := r.baseSelect(sectionColumns...).Where(squirrel.Eq{"s.section_id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build section query: %w", err)
	}

	sec, err := scanSection(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSectionNotFound
		}
		return nil, fmt.Errorf("error retrieving section: %w", err)
	}

	if err := r.attachRelations(ctx, []*models.Section{sec}); err != nil {
		return nil, err
	}
	return sec, nil
}

// attachRelations loads meetings and instructors for a page of sections in two queries
func (r *SectionRepository) attachRelations(ctx context.Context, sections []*models.Section) error {
	if len(sections) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(sections))
	byID := make(map[int64]*models.Section, len(sections))
	for _, s := range sections {
		ids = append(ids, s.ID)
		byID[s.ID] = s
	}

	meetingSQL, meetingArgs, err := r.sb.Select("meeting_id", "section_id", "start_time", "end_time", "days", "bldg", "room", "location").
		From("meetings").
		Where(squirrel.Eq{"section_id": ids}).
		OrderBy("section_id", "meeting_id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build meetings query: %w", err)
	}

	rows, err := r.db.Query(ctx, meetingSQL, meetingArgs...)
	if err != nil {
		return fmt.Errorf("error loading meetings: %w", err)
	}
	for rows.Next() {
		var m models.Meeting
		if err := rows.Scan(&m.ID, &m.SectionID, &m.StartTime, &m.EndTime, &m.Days, &m.Building, &m.Room, &m.Location); err != nil {
			rows.Close()
			return fmt.Errorf("error scanning meeting: %w", err)
		}
		byID[m.SectionID].Meetings = append(byID[m.SectionID].Meetings, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	instSQL, instArgs, err := r.sb.Select(append([]string{"si.section_id"}, instructorColumns...)...).
		From("section_instructors si").
		Join("instructors i ON i.instructor_id = si.instructor_id").
		Where(squirrel.Eq{"si.section_id": ids}).
		OrderBy("si.section_id", "i.name").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build section instructors query: %w", err)
	}

	rows, err = r.db.Query(ctx, instSQL, instArgs...)
	if err != nil {
		return fmt.Errorf("error loading section instructors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sectionID int64
		inst, err := scanInstructor(prefixedRow{row: rows, prefix: []any{&sectionID}})
		if err != nil {
			return fmt.Errorf("error scanning section instructor: %w", err)
		}
		byID[sectionID].Instructors = append(byID[sectionID].Instructors, inst)
	}
	return rows.Err()
}

// prefixedRow lets scanInstructor read rows that carry extra leading columns
type prefixedRow struct {
	row    pgx.Row
	prefix []any
}

func (p prefixedRow) Scan(dest ...any) error {
	return p.row.Scan(append(p.prefix, dest...)...)
}
