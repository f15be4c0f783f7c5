package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yigit/courseatlas/internal/app/models"
	"github.com/yigit/courseatlas/internal/app/models/dto"
	"github.com/yigit/courseatlas/internal/pkg/apperrors"
)

// AnalyticsReader is the analytics repository
type AnalyticsReader interface {
	EnrollmentOverTime(ctx context.Context, f models.AnalyticsFilter) ([]models.TermPoint, error)
	SectionsOverTime(ctx context.Context, f models.AnalyticsFilter) ([]models.TermPoint, error)
	CourseBirthDeath(ctx context.Context, f models.AnalyticsFilter) ([]models.CourseLifecyclePoint, error)
	MeetingHeatmap(ctx context.Context, f models.AnalyticsFilter) ([]models.HeatmapCell, error)
	CreditsDistribution(ctx context.Context, f models.AnalyticsFilter) ([]models.CreditsBucket, error)
}

// AnalyticsService serves the aggregate chart series
type AnalyticsService interface {
	EnrollmentOverTime(ctx context.Context, req *dto.AnalyticsFilterRequest) ([]models.TermPoint, error)
	SectionsOverTime(ctx context.Context, req *dto.AnalyticsFilterRequest) ([]models.TermPoint, error)
	CourseBirthDeath(ctx context.Context, req *dto.AnalyticsFilterRequest) ([]models.CourseLifecyclePoint, error)
	MeetingHeatmap(ctx context.Context, req *dto.AnalyticsFilterRequest) ([]models.HeatmapCell, error)
	CreditsDistribution(ctx context.Context, req *dto.AnalyticsFilterRequest) ([]models.CreditsBucket, error)
}

type analyticsServiceImpl struct {
	analyticsRepo AnalyticsReader
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(analyticsRepo AnalyticsReader) AnalyticsService {
	return &analyticsServiceImpl{analyticsRepo: analyticsRepo}
}

// splitList flattens repeated and comma separated values
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// analyticsFilter validates levels and the year range
func analyticsFilter(req *dto.AnalyticsFilterRequest) (models.AnalyticsFilter, error) {
	f := models.AnalyticsFilter{
		Subjects:  splitList(req.Subjects),
		Levels:    splitList(req.Levels),
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
	}
	for _, level := range f.Levels {
		if level[0] < '1' || level[0] > '9' {
			return f, apperrors.NewValidationError("level", fmt.Sprintf("invalid course level %q", level))
		}
	}
	if f.StartYear != nil && f.EndYear != nil && *f.StartYear > *f.EndYear {
		return f, apperrors.NewValidationError("start_year", "start_year is after end_year")
	}
	return f, nil
}

// series runs one analytics query after validating the filter
func series[T any](ctx context.Context, req *dto.AnalyticsFilterRequest, name string,
	query func(context.Context, models.AnalyticsFilter) ([]T, error)) ([]T, error) {
	f, err := analyticsFilter(req)
	if err != nil {
		return nil, err
	}
	points, err := query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return points, nil
}

func (s *analyticsServiceImpl) EnrollmentOverTime(ctx context.Context, req *dto.AnalyticsFilterRequest) ([]models.TermPoint, error) {
	return series(ctx, req, "enrollment series", s.analyticsRepo.EnrollmentOverTime)
}

func (s *analyticsServiceImpl) SectionsOverTime(ctx context.Context, req *dto.AnalyticsFilterRequest) ([]models.TermPoint, error) {
	return series(ctx, req, "section series", s.analyticsRepo.SectionsOverTime)
}

func (s *analyticsServiceImpl) CourseBirthDeath(ctx context.Context, req *dto.AnalyticsFilterRequest) ([]models.CourseLifecyclePoint, error) {
	return series(ctx, req, "course lifecycle series", s.analyticsRepo.CourseBirthDeath)
}

func (s *analyticsServiceImpl) MeetingHeatmap(ctx context.Context, req *dto.AnalyticsFilterRequest) ([]models.HeatmapCell, error) {
	return series(ctx, req, "meeting heatmap", s.analyticsRepo.MeetingHeatmap)
}

func (s *analyticsServiceImpl) CreditsDistribution(ctx context.Context, req *dto.AnalyticsFilterRequest) ([]models.CreditsBucket, error) {
	return series(ctx, req, "credits distribution", s.analyticsRepo.CreditsDistribution)
}
