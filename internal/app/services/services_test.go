package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/courseatlas/internal/app/models"
	"github.com/yigit/courseatlas/internal/app/models/dto"
	"github.com/yigit/courseatlas/internal/app/repositories"
	"github.com/yigit/courseatlas/internal/pkg/apperrors"
	"github.com/yigit/courseatlas/internal/pkg/helpers"
)

type fakeSections struct {
	got   repositories.SectionFilter
	total int64
}

func (f *fakeSections) List(_ context.Context, filter repositories.SectionFilter) ([]*models.Section, int64, error) {
	f.got = filter
	return []*models.Section{{ID: 1, CRN: "10001"}}, f.total, nil
}

func (f *fakeSections) GetByID(_ context.Context, id int64) (*models.Section, error) {
	if id != 1 {
		return nil, apperrors.ErrSectionNotFound
	}
	return &models.Section{ID: 1}, nil
}

type fakeTerms struct {
	got repositories.CourseFilter
}

func (f *fakeTerms) ListTerms(context.Context) ([]models.Term, error) {
	return []models.Term{{ID: 1, Semester: models.SemesterFall, Year: 2024}}, nil
}

func (f *fakeTerms) ListSubjects(context.Context) ([]models.Subject, error) {
	return []models.Subject{{ID: 1, Code: "CS"}}, nil
}

func (f *fakeTerms) ListCourses(_ context.Context, filter repositories.CourseFilter) ([]*models.Course, int64, error) {
	f.got = filter
	return []*models.Course{}, 0, nil
}

type fakeInstructors struct {
	got  repositories.InstructorFilter
	byID map[int64]*models.Instructor
}

func (f *fakeInstructors) List(_ context.Context, filter repositories.InstructorFilter) ([]*models.Instructor, int64, error) {
	f.got = filter
	return []*models.Instructor{}, 0, nil
}

func (f *fakeInstructors) GetByID(_ context.Context, id int64) (*models.Instructor, error) {
	inst, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrInstructorNotFound
	}
	return inst, nil
}

func TestListSectionsBuildsFilter(t *testing.T) {
	sections := &fakeSections{total: 60}
	svc := NewCatalogService(&fakeTerms{}, sections)

	year := 2024
	minRating := 3.5
	resp, err := svc.ListSections(context.Background(), &dto.SectionFilterRequest{
		Subject:   "cs",
		Semester:  "fall",
		Year:      &year,
		CRN:       " 10001 ",
		Status:    "open",
		RatingMin: &minRating,
		Page:      2,
		Size:      25,
	})
	require.NoError(t, err)

	assert.Equal(t, models.SemesterFall, sections.got.Semester)
	assert.Equal(t, "10001", sections.got.CRN)
	assert.Equal(t, &minRating, sections.got.MinRating)
	assert.Equal(t, uint64(25), sections.got.Offset)
	assert.Equal(t, uint64(25), sections.got.Limit)

	assert.Equal(t, 2, resp.Pagination.CurrentPage)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.Equal(t, int64(60), resp.Pagination.TotalItems)
}

func TestListSectionsRejectsBadInput(t *testing.T) {
	svc := NewCatalogService(&fakeTerms{}, &fakeSections{})

	_, err := svc.ListSections(context.Background(), &dto.SectionFilterRequest{Semester: "Autumn"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.ListSections(context.Background(), &dto.SectionFilterRequest{
		MinCredits: helpers.Ptr(4.0),
		MaxCredits: helpers.Ptr(3.0),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	var custom *apperrors.CustomError
	require.ErrorAs(t, err, &custom)
	assert.Equal(t, "min_credits", custom.Field)
}

func TestPageSizeIsClamped(t *testing.T) {
	terms := &fakeTerms{}
	svc := NewCatalogService(terms, &fakeSections{})

	resp, err := svc.ListCourses(context.Background(), &dto.CourseFilterRequest{Page: 0, Size: 10000})
	require.NoError(t, err)

	assert.Equal(t, uint64(0), terms.got.Offset)
	assert.Equal(t, uint64(helpers.DefaultPageSize), terms.got.Limit)
	assert.Equal(t, helpers.DefaultPageSize, resp.Pagination.PageSize)
	assert.Equal(t, 0, resp.Pagination.TotalPages)
}

func TestGetSectionNotFound(t *testing.T) {
	svc := NewCatalogService(&fakeTerms{}, &fakeSections{})

	_, err := svc.GetSection(context.Background(), 99)
	assert.ErrorIs(t, err, apperrors.ErrSectionNotFound)
}

func TestListInstructorsSortDefaults(t *testing.T) {
	repo := &fakeInstructors{}
	svc := NewInstructorService(repo)

	_, err := svc.ListInstructors(context.Background(), &dto.InstructorFilterRequest{})
	require.NoError(t, err)
	assert.Equal(t, "name", repo.got.Sort)
	assert.False(t, repo.got.Desc)

	_, err = svc.ListInstructors(context.Background(), &dto.InstructorFilterRequest{Sort: "rating", HasRating: true})
	require.NoError(t, err)
	assert.Equal(t, "rating", repo.got.Sort)
	assert.True(t, repo.got.Desc)
	assert.True(t, repo.got.HasRating)

	_, err = svc.ListInstructors(context.Background(), &dto.InstructorFilterRequest{Sort: "difficulty", Order: "asc"})
	require.NoError(t, err)
	assert.False(t, repo.got.Desc)
}

func TestGetInstructorRating(t *testing.T) {
	avg := 4.2
	repo := &fakeInstructors{byID: map[int64]*models.Instructor{
		1: {ID: 1, Name: "Jane Doe", Rating: &models.InstructorRating{Average: &avg}},
		2: {ID: 2, Name: "John Smith"},
	}}
	svc := NewInstructorService(repo)

	rated, err := svc.GetInstructorRating(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, rated.Rated)
	assert.Equal(t, &avg, rated.Rating.Average)

	unrated, err := svc.GetInstructorRating(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, unrated.Rated)
	assert.Nil(t, unrated.Rating)

	_, err = svc.GetInstructorRating(context.Background(), 3)
	assert.ErrorIs(t, err, apperrors.ErrInstructorNotFound)
}

type fakeAnalytics struct {
	got models.AnalyticsFilter
}

func (f *fakeAnalytics) EnrollmentOverTime(_ context.Context, filter models.AnalyticsFilter) ([]models.TermPoint, error) {
	f.got = filter
	return []models.TermPoint{{Subject: "CS", Year: 2024, Semester: "Fall", CurrentEnrollment: 25}}, nil
}

func (f *fakeAnalytics) SectionsOverTime(_ context.Context, filter models.AnalyticsFilter) ([]models.TermPoint, error) {
	f.got = filter
	return nil, nil
}

func (f *fakeAnalytics) CourseBirthDeath(_ context.Context, filter models.AnalyticsFilter) ([]models.CourseLifecyclePoint, error) {
	f.got = filter
	return nil, nil
}

func (f *fakeAnalytics) MeetingHeatmap(_ context.Context, filter models.AnalyticsFilter) ([]models.HeatmapCell, error) {
	f.got = filter
	return nil, nil
}

func (f *fakeAnalytics) CreditsDistribution(_ context.Context, filter models.AnalyticsFilter) ([]models.CreditsBucket, error) {
	f.got = filter
	return nil, nil
}

func TestAnalyticsFilterSplitsLists(t *testing.T) {
	repo := &fakeAnalytics{}
	svc := NewAnalyticsService(repo)

	points, err := svc.EnrollmentOverTime(context.Background(), &dto.AnalyticsFilterRequest{
		Subjects: []string{"CS, MATH", "PHYS"},
		Levels:   []string{"100,200"},
	})
	require.NoError(t, err)
	require.Len(t, points, 1)

	assert.Equal(t, []string{"CS", "MATH", "PHYS"}, repo.got.Subjects)
	assert.Equal(t, []string{"100", "200"}, repo.got.Levels)
}

func TestAnalyticsFilterValidation(t *testing.T) {
	svc := NewAnalyticsService(&fakeAnalytics{})

	_, err := svc.MeetingHeatmap(context.Background(), &dto.AnalyticsFilterRequest{Levels: []string{"grad"}})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.CreditsDistribution(context.Background(), &dto.AnalyticsFilterRequest{
		StartYear: helpers.Ptr(2020),
		EndYear:   helpers.Ptr(2010),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}
