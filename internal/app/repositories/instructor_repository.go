package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/courseatlas/internal/app/models"
	"github.com/yigit/courseatlas/internal/db"
	"github.com/yigit/courseatlas/internal/pkg/apperrors"
	"github.com/yigit/courseatlas/internal/pkg/logger"
)

// instructorColumns is the full column list read by scanInstructor
var instructorColumns = []string{
	"i.instructor_id", "i.name", "i.netid", "i.email",
	"i.rating_profile_id", "i.rating_school_id", "i.rating_url", "i.rating_department",
	"i.rating_avg", "i.rating_count", "i.rating_would_take_again", "i.rating_difficulty",
	"i.rating_top_tags", "i.rating_distribution", "i.rating_recent", "i.rating_last_refreshed",
}

// InstructorFilter narrows instructor listings. Rating bounds only match rated rows.
type InstructorFilter struct {
	Search        string
	HasRating     bool
	MinRating     *float64
	MinCount      *int
	MaxDifficulty *float64
	Sort          string
	Desc          bool
	Offset        uint64
	Limit         uint64
}

// InstructorRepository handles instructor reads and rating snapshot writes
type InstructorRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

// NewInstructorRepository creates a new InstructorRepository
func NewInstructorRepository(conn db.DBTX) *InstructorRepository {
	return &InstructorRepository{
		db: conn,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ListForTerm returns the distinct instructors teaching at least one section in
// the term. An empty semester lists every instructor.
func (r *InstructorRepository) ListForTerm(ctx context.Context, semester models.Semester, year int) ([]*models.Instructor, error) {
	q := r.sb.Select("DISTINCT i.instructor_id", "i.name", "i.netid", "i.email").
		From("instructors i").
		OrderBy("i.instructor_id")

	if semester != "" {
		q = q.Join("section_instructors si ON si.instructor_id = i.instructor_id").
			Join("sections s ON s.section_id = si.section_id").
			Join("terms t ON t.term_id = s.term_id").
			Where(squirrel.Eq{"t.semester": string(semester), "t.year": year})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build term instructors query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing term instructors: %w", err)
	}
	defer rows.Close()

	var instructors []*models.Instructor
	for rows.Next() {
		var inst models.Instructor
		if err := rows.Scan(&inst.ID, &inst.Name, &inst.NetID, &inst.Email); err != nil {
			return nil, fmt.Errorf("error scanning instructor: %w", err)
		}
		instructors = append(instructors, &inst)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return instructors, nil
}

// UpdateRating overwrites every rating column of the instructor with the snapshot.
// Nil fields become NULL, empty lists are stored as [] and refreshed time is now().
func (r *InstructorRepository) UpdateRating(ctx context.Context, instructorID int64, rating *models.InstructorRating) error {
	if rating == nil {
		rating = &models.InstructorRating{}
	}

	topTags, err := marshalJSON(rating.TopTags, "[]")
	if err != nil {
		return fmt.Errorf("failed to encode top tags: %w", err)
	}
	distribution, err := json.Marshal(rating.Distribution)
	if err != nil {
		return fmt.Errorf("failed to encode rating distribution: %w", err)
	}
	recent, err := marshalJSON(rating.Recent, "[]")
	if err != nil {
		return fmt.Errorf("failed to encode recent ratings: %w", err)
	}

	query := `
		UPDATE instructors SET
			rating_profile_id       = $1,
			rating_school_id        = $2,
			rating_url              = $3,
			rating_department       = $4,
			rating_avg              = $5,
			rating_count            = $6,
			rating_would_take_again = $7,
			rating_difficulty       = $8,
			rating_top_tags         = $9,
			rating_distribution     = $10,
			rating_recent           = $11,
			rating_last_refreshed   = now()
		WHERE instructor_id = $12
	`

	cmdTag, err := r.db.Exec(ctx, query,
		rating.ProfileID, rating.SchoolID, rating.URL, rating.Department,
		rating.Average, rating.Count, rating.WouldTakeAgain, rating.Difficulty,
		topTags, distribution, recent,
		instructorID,
	)
	if err != nil {
		return fmt.Errorf("error updating instructor rating: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrInstructorNotFound
	}
	return nil
}

// GetByID retrieves an instructor with its rating snapshot
func (r *InstructorRepository) GetByID(ctx context.Context, id int64) (*models.Instructor, error) {
	sql, args, err := r.sb.Select(instructorColumns...).
		From("instructors i").
		Where(squirrel.Eq{"i.instructor_id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build instructor query: %w", err)
	}

	inst, err := scanInstructor(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrInstructorNotFound
		}
		return nil, fmt.Errorf("error retrieving instructor: %w", err)
	}
	return inst, nil
}

// List returns one page of instructors and the total matching count
func (r *InstructorRepository) List(ctx context.Context, f InstructorFilter) ([]*models.Instructor, int64, error) {
	where := squirrel.And{}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, squirrel.ILike{"i.name": "%" + s + "%"})
	}
	if f.HasRating {
		where = append(where, squirrel.NotEq{"i.rating_profile_id": nil})
	}
	if f.MinRating != nil {
		where = append(where, squirrel.GtOrEq{"i.rating_avg": *f.MinRating})
	}
	if f.MinCount != nil {
		where = append(where, squirrel.GtOrEq{"i.rating_count": *f.MinCount})
	}
	if f.MaxDifficulty != nil {
		where = append(where, squirrel.LtOrEq{"i.rating_difficulty": *f.MaxDifficulty})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("instructors i").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count instructors query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count instructors query")
		return nil, 0, fmt.Errorf("failed to count instructors: %w", err)
	}
	if total == 0 {
		return []*models.Instructor{}, 0, nil
	}

	q := r.sb.Select(instructorColumns...).
		From("instructors i").
		Where(where).
		OrderBy(instructorOrder(f.Sort, f.Desc)...).
		Offset(f.Offset)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list instructors query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing instructors: %w", err)
	}
	defer rows.Close()

	instructors := make([]*models.Instructor, 0)
	for rows.Next() {
		inst, err := scanInstructor(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning instructor: %w", err)
		}
		instructors = append(instructors, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return instructors, total, nil
}

// instructorOrder keeps unrated rows last for rating sorts
func instructorOrder(sort string, desc bool) []string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	switch sort {
	case "rating":
		return []string{"i.rating_avg IS NULL", "i.rating_avg " + dir, "i.rating_count DESC NULLS LAST", "i.name"}
	case "count":
		return []string{"i.rating_count IS NULL", "i.rating_count " + dir, "i.rating_avg DESC NULLS LAST", "i.name"}
	case "difficulty":
		return []string{"i.rating_difficulty IS NULL", "i.rating_difficulty " + dir, "i.rating_avg DESC NULLS LAST", "i.name"}
	default:
		return []string{"i.name " + dir, "i.instructor_id"}
	}
}

// scanInstructor reads the instructorColumns projection
func scanInstructor(row pgx.Row) (*models.Instructor, error) {
	var (
		inst                          models.Instructor
		rating                        models.InstructorRating
		topTags, distribution, recent []byte
		lastRefreshed                 *time.Time
	)

	err := row.Scan(
		&inst.ID, &inst.Name, &inst.NetID, &inst.Email,
		&rating.ProfileID, &rating.SchoolID, &rating.URL, &rating.Department,
		&rating.Average, &rating.Count, &rating.WouldTakeAgain, &rating.Difficulty,
		&topTags, &distribution, &recent, &lastRefreshed,
	)
	if err != nil {
		return nil, err
	}

	if lastRefreshed == nil && rating.ProfileID == nil {
		return &inst, nil
	}
	rating.LastRefreshed = lastRefreshed

	if len(topTags) > 0 {
		if err := json.Unmarshal(topTags, &rating.TopTags); err != nil {
			return nil, fmt.Errorf("invalid rating_top_tags: %w", err)
		}
	}
	if len(distribution) > 0 {
		if err := json.Unmarshal(distribution, &rating.Distribution); err != nil {
			return nil, fmt.Errorf("invalid rating_distribution: %w", err)
		}
	}
	if len(recent) > 0 {
		if err := json.Unmarshal(recent, &rating.Recent); err != nil {
			return nil, fmt.Errorf("invalid rating_recent: %w", err)
		}
	}
	inst.Rating = &rating
	return &inst, nil
}

// marshalJSON encodes v, substituting empty when v is a nil or empty slice
func marshalJSON[T any](v []T, empty string) ([]byte, error) {
	if len(v) == 0 {
		return []byte(empty), nil
	}
	return json.Marshal(v)
}
