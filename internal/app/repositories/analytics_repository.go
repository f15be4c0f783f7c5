package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/courseatlas/internal/app/models"
	"github.com/yigit/courseatlas/internal/db"
)

// termKey orders terms across years: year*10 plus the semester position
const termKey = "(t.year * 10 + " + semesterOrder + ")"

// AnalyticsRepository aggregates sections and meetings into chart series
type AnalyticsRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewAnalyticsRepository creates a new AnalyticsRepository
func NewAnalyticsRepository(conn db.DBTX) *AnalyticsRepository {
	return &AnalyticsRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// analyticsWhere expects the sub, c and t aliases to be joined
func analyticsWhere(f models.AnalyticsFilter) squirrel.And {
	where := squirrel.And{}

	codes := make([]string, 0, len(f.Subjects))
	for _, s := range f.Subjects {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			codes = append(codes, s)
		}
	}
	if len(codes) > 0 {
		where = append(where, squirrel.Eq{"sub.code": codes})
	}

	levels := squirrel.Or{}
	for _, l := range f.Levels {
		l = strings.TrimSpace(l)
		if l != "" && l[0] >= '0' && l[0] <= '9' {
			levels = append(levels, squirrel.Like{"c.course_number": l[:1] + "__"})
		}
	}
	if len(levels) > 0 {
		where = append(where, levels)
	}

	if f.StartYear != nil {
		where = append(where, squirrel.GtOrEq{"t.year": *f.StartYear})
	}
	if f.EndYear != nil {
		where = append(where, squirrel.LtOrEq{"t.year": *f.EndYear})
	}
	return where
}

func sectionsJoined(b squirrel.SelectBuilder) squirrel.SelectBuilder {
	return b.From("sections s").
		Join("courses c ON c.course_id = s.course_id").
		Join("subjects sub ON sub.subject_id = c.subject_id").
		Join("terms t ON t.term_id = s.term_id")
}

// EnrollmentOverTime sums current and max enrollment and counts sections per
// term. The series is split by subject when the filter names subjects.
func (r *AnalyticsRepository) EnrollmentOverTime(ctx context.Context, f models.AnalyticsFilter) ([]models.TermPoint, error) {
	bySubject := len(f.Subjects) > 0

	subjectCol := "'' AS subject"
	groupBy := []string{"t.year", "t.semester"}
	orderBy := []string{"t.year ASC", semesterOrder + " ASC"}
	if bySubject {
		subjectCol = "sub.code AS subject"
		groupBy = append([]string{"sub.code"}, groupBy...)
		orderBy = append(orderBy, "sub.code")
	}

	q := sectionsJoined(r.sb.Select(
		subjectCol, "t.year", "t.semester",
		"SUM(COALESCE(s.current_enrollment, 0))",
		"SUM(COALESCE(s.max_enrollment, 0))",
		"COUNT(*)",
	)).Where(analyticsWhere(f)).GroupBy(groupBy...).OrderBy(orderBy...)

	return queryRows(ctx, r.db, q, "enrollment over time", func(rows pgx.Rows) (models.TermPoint, error) {
		var p models.TermPoint
		err := rows.Scan(&p.Subject, &p.Year, &p.Semester, &p.CurrentEnrollment, &p.MaxEnrollment, &p.Sections)
		return p, err
	})
}

// SectionsOverTime counts sections per term, split by subject like EnrollmentOverTime
func (r *AnalyticsRepository) SectionsOverTime(ctx context.Context, f models.AnalyticsFilter) ([]models.TermPoint, error) {
	bySubject := len(f.Subjects) > 0

	subjectCol := "'' AS subject"
	groupBy := []string{"t.year", "t.semester"}
	orderBy := []string{"t.year ASC", semesterOrder + " ASC"}
	if bySubject {
		subjectCol = "sub.code AS subject"
		groupBy = append([]string{"sub.code"}, groupBy...)
		orderBy = append(orderBy, "sub.code")
	}

	q := sectionsJoined(r.sb.Select(subjectCol, "t.year", "t.semester", "COUNT(*)")).
		Where(analyticsWhere(f)).
		GroupBy(groupBy...).
		OrderBy(orderBy...)

	return queryRows(ctx, r.db, q, "sections over time", func(rows pgx.Rows) (models.TermPoint, error) {
		var p models.TermPoint
		err := rows.Scan(&p.Subject, &p.Year, &p.Semester, &p.Sections)
		return p, err
	})
}

// CourseBirthDeath counts, per term, the (subject, number) pairs offered there for
// the first time and for the last time. Terms with neither are omitted.
func (r *AnalyticsRepository) CourseBirthDeath(ctx context.Context, f models.AnalyticsFilter) ([]models.CourseLifecyclePoint, error) {
	// nested builder keeps ? placeholders; the outer builder numbers them
	lifetimes := sectionsJoined(squirrel.Select(
		"sub.code", "c.course_number",
		"MIN"+termKey+" AS first_key",
		"MAX"+termKey+" AS last_key",
	)).Where(analyticsWhere(f)).GroupBy("sub.code", "c.course_number")

	births := "SUM(CASE WHEN ct.first_key = " + termKey + " THEN 1 ELSE 0 END)"
	deaths := "SUM(CASE WHEN ct.last_key = " + termKey + " THEN 1 ELSE 0 END)"

	q := r.sb.Select("t.year", "t.semester", births, deaths).
		From("terms t").
		JoinClause(lifetimes.Prefix("CROSS JOIN (").Suffix(") ct")).
		GroupBy("t.year", "t.semester").
		Having(births + " > 0 OR " + deaths + " > 0").
		OrderBy("t.year ASC", semesterOrder+" ASC")

	return queryRows(ctx, r.db, q, "course birth/death", func(rows pgx.Rows) (models.CourseLifecyclePoint, error) {
		var p models.CourseLifecyclePoint
		err := rows.Scan(&p.Year, &p.Semester, &p.Births, &p.Deaths)
		return p, err
	})
}

// MeetingHeatmap counts meetings by day pattern and start hour
func (r *AnalyticsRepository) MeetingHeatmap(ctx context.Context, f models.AnalyticsFilter) ([]models.HeatmapCell, error) {
	q := r.sb.Select("m.days", "split_part(m.start_time, ':', 1)::int AS hour", "COUNT(*)").
		From("meetings m").
		Join("sections s ON s.section_id = m.section_id").
		Join("courses c ON c.course_id = s.course_id").
		Join("subjects sub ON sub.subject_id = c.subject_id").
		Join("terms t ON t.term_id = s.term_id").
		Where(analyticsWhere(f)).
		Where(squirrel.NotEq{"m.days": nil, "m.start_time": nil}).
		GroupBy("1", "2").
		OrderBy("2", "1")

	return queryRows(ctx, r.db, q, "meeting heatmap", func(rows pgx.Rows) (models.HeatmapCell, error) {
		var c models.HeatmapCell
		err := rows.Scan(&c.Days, &c.Hour, &c.Count)
		return c, err
	})
}

// CreditsDistribution buckets sections per term by the midpoint of their credit
// range rounded to one decimal.
func (r *AnalyticsRepository) CreditsDistribution(ctx context.Context, f models.AnalyticsFilter) ([]models.CreditsBucket, error) {
	midpoint := "ROUND(((COALESCE(s.credits_min, s.credits_max) + COALESCE(s.credits_max, s.credits_min)) / 2.0)::numeric, 1)::float8"

	q := sectionsJoined(r.sb.Select("t.year", "t.semester", midpoint+" AS credits", "COUNT(*)")).
		Where(analyticsWhere(f)).
		Where(squirrel.Or{squirrel.NotEq{"s.credits_min": nil}, squirrel.NotEq{"s.credits_max": nil}}).
		GroupBy("t.year", "t.semester", "3").
		OrderBy("t.year ASC", semesterOrder+" ASC", "3 ASC")

	return queryRows(ctx, r.db, q, "credits distribution", func(rows pgx.Rows) (models.CreditsBucket, error) {
		var b models.CreditsBucket
		err := rows.Scan(&b.Year, &b.Semester, &b.Credits, &b.Count)
		return b, err
	})
}

// queryRows runs q and scans every row with scan
func queryRows[T any](ctx context.Context, conn db.DBTX, q squirrel.SelectBuilder, what string, scan func(pgx.Rows) (T, error)) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s query: %w", what, err)
	}

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying %s: %w", what, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning %s: %w", what, err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
