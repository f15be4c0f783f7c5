package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yigit/courseatlas/internal/app/models"
	"github.com/yigit/courseatlas/internal/app/models/dto"
	"github.com/yigit/courseatlas/internal/app/repositories"
	"github.com/yigit/courseatlas/internal/pkg/apperrors"
	"github.com/yigit/courseatlas/internal/pkg/helpers"
)

// TermReader is the read surface of the term repository
type TermReader interface {
	ListTerms(ctx context.Context) ([]models.Term, error)
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	ListCourses(ctx context.Context, f repositories.CourseFilter) ([]*models.Course, int64, error)
}

// SectionReader is the read surface of the section repository
type SectionReader interface {
	List(ctx context.Context, f repositories.SectionFilter) ([]*models.Section, int64, error)
	GetByID(ctx context.Context, id int64) (*models.Section, error)
}

// CatalogService serves terms, subjects, courses and sections
type CatalogService interface {
	ListTerms(ctx context.Context) ([]models.Term, error)
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	ListCourses(ctx context.Context, req *dto.CourseFilterRequest) (*dto.PaginatedResponse, error)
	ListSections(ctx context.Context, req *dto.SectionFilterRequest) (*dto.PaginatedResponse, error)
	GetSection(ctx context.Context, id int64) (*models.Section, error)
}

type catalogServiceImpl struct {
	termRepo    TermReader
	sectionRepo SectionReader
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(termRepo TermReader, sectionRepo SectionReader) CatalogService {
	return &catalogServiceImpl{
		termRepo:    termRepo,
		sectionRepo: sectionRepo,
	}
}

func (s *catalogServiceImpl) ListTerms(ctx context.Context) ([]models.Term, error) {
	terms, err := s.termRepo.ListTerms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list terms: %w", err)
	}
	return terms, nil
}

func (s *catalogServiceImpl) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	subjects, err := s.termRepo.ListSubjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	return subjects, nil
}

func (s *catalogServiceImpl) ListCourses(ctx context.Context, req *dto.CourseFilterRequest) (*dto.PaginatedResponse, error) {
	page, size := helpers.ClampPage(req.Page, req.Size)
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	courses, total, err := s.termRepo.ListCourses(ctx, repositories.CourseFilter{
		Search:  req.Search,
		Subject: req.Subject,
		Offset:  offset,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	return &dto.PaginatedResponse{
		Items:      courses,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}, nil
}

// sectionFilter validates the request and converts it to a repository filter
func sectionFilter(req *dto.SectionFilterRequest) (repositories.SectionFilter, error) {
	f := repositories.SectionFilter{
		Search:        req.Search,
		Subject:       req.Subject,
		Year:          req.Year,
		CRN:           strings.TrimSpace(req.CRN),
		InstructorID:  req.InstructorID,
		Instructor:    req.Instructor,
		MinCredits:    req.MinCredits,
		MaxCredits:    req.MaxCredits,
		Status:        req.Status,
		MinRating:     req.RatingMin,
		MinCount:      req.RatingMinCount,
		MaxDifficulty: req.RatingMaxDifficulty,
	}

	if strings.TrimSpace(req.Semester) != "" {
		semester, ok := models.ParseSemester(req.Semester)
		if !ok {
			return f, apperrors.NewValidationError("semester", fmt.Sprintf("unknown semester %q", req.Semester))
		}
		f.Semester = semester
	}
	if f.MinCredits != nil && f.MaxCredits != nil && *f.MinCredits > *f.MaxCredits {
		return f, apperrors.NewValidationError("min_credits", "min_credits exceeds max_credits")
	}
	return f, nil
}

func (s *catalogServiceImpl) ListSections(ctx context.Context, req *dto.SectionFilterRequest) (*dto.PaginatedResponse, error) {
	f, err := sectionFilter(req)
	if err != nil {
		return nil, err
	}

	page, size := helpers.ClampPage(req.Page, req.Size)
	f.Offset, f.Limit = helpers.CalculateOffsetLimit(page, size)

	sections, total, err := s.sectionRepo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}

	return &dto.PaginatedResponse{
		Items:      sections,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}, nil
}

func (s *catalogServiceImpl) GetSection(ctx context.Context, id int64) (*models.Section, error) {
	section, err := s.sectionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get section %d: %w", id, err)
	}
	return section, nil
}
