package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/courseatlas/internal/app/models"
	"github.com/yigit/courseatlas/internal/db"
	"github.com/yigit/courseatlas/internal/pkg/logger"
)

// CourseFilter narrows course listings
type CourseFilter struct {
	Search  string
	Subject string
	Offset  uint64
	Limit   uint64
}

// TermRepository reads the term, subject and course dimensions
type TermRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewTermRepository creates a new TermRepository
func NewTermRepository(conn db.DBTX) *TermRepository {
	return &TermRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ListTerms returns every term, newest year first and in calendar order within a year
func (r *TermRepository) ListTerms(ctx context.Context) ([]models.Term, error) {
	sql, args, err := r.sb.Select("t.term_id", "t.semester", "t.year").
		From("terms t").
		OrderBy("t.year DESC", semesterOrder).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build terms query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing terms: %w", err)
	}
	defer rows.Close()

	terms := make([]models.Term, 0)
	for rows.Next() {
		var (
			term     models.Term
			semester string
		)
		if err := rows.Scan(&term.ID, &semester, &term.Year); err != nil {
			return nil, fmt.Errorf("error scanning term: %w", err)
		}
		term.Semester = models.Semester(semester)
		terms = append(terms, term)
	}
	return terms, rows.Err()
}

// ListSubjects returns every subject ordered by code
func (r *TermRepository) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	rows, err := r.db.Query(ctx, `SELECT subject_id, code FROM subjects ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("error listing subjects: %w", err)
	}
	defer rows.Close()

	subjects := make([]models.Subject, 0)
	for rows.Next() {
		var s models.Subject
		if err := rows.Scan(&s.ID, &s.Code); err != nil {
			return nil, fmt.Errorf("error scanning subject: %w", err)
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// ListCourses returns one page of courses ordered by subject code and number, plus the total
func (r *TermRepository) ListCourses(ctx context.Context, f CourseFilter) ([]*models.Course, int64, error) {
	where := squirrel.And{}
	if q := strings.TrimSpace(f.Search); q != "" {
		like := "%" + q + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"c.title": like},
			squirrel.ILike{"c.course_number": like},
		})
	}
	if s := strings.TrimSpace(f.Subject); s != "" {
		where = append(where, squirrel.Eq{"sub.code": strings.ToUpper(s)})
	}

	base := func(columns ...string) squirrel.SelectBuilder {
		return r.sb.Select(columns...).
			From("courses c").
			Join("subjects sub ON sub.subject_id = c.subject_id").
			Where(where)
	}

	countSQL, countArgs, err := base("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count courses query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count courses query")
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}
	if total == 0 {
		return []*models.Course{}, 0, nil
	}

	q := base("c.course_id", "c.subject_id", "c.course_number", "c.title", "sub.code").
		OrderBy("sub.code", "c.course_number", "c.title").
		Offset(f.Offset)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list courses query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing courses: %w", err)
	}
	defer rows.Close()

	courses := make([]*models.Course, 0)
	for rows.Next() {
		c := &models.Course{Subject: &models.Subject{}}
		if err := rows.Scan(&c.ID, &c.SubjectID, &c.CourseNumber, &c.Title, &c.Subject.Code); err != nil {
			return nil, 0, fmt.Errorf("error scanning course: %w", err)
		}
		c.Subject.ID = c.SubjectID
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}
