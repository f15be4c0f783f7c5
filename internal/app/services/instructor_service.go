package services

import (
	"context"
	"fmt"

	"github.com/yigit/courseatlas/internal/app/models"
	"github.com/yigit/courseatlas/internal/app/models/dto"
	"github.com/yigit/courseatlas/internal/app/repositories"
	"github.com/yigit/courseatlas/internal/pkg/helpers"
)

// InstructorReader is the read surface of the instructor repository
type InstructorReader interface {
	List(ctx context.Context, f repositories.InstructorFilter) ([]*models.Instructor, int64, error)
	GetByID(ctx context.Context, id int64) (*models.Instructor, error)
}

// InstructorService serves instructors and their rating snapshots
type InstructorService interface {
	ListInstructors(ctx context.Context, req *dto.InstructorFilterRequest) (*dto.PaginatedResponse, error)
	GetInstructor(ctx context.Context, id int64) (*models.Instructor, error)
	GetInstructorRating(ctx context.Context, id int64) (*dto.InstructorRatingResponse, error)
}

type instructorServiceImpl struct {
	instructorRepo InstructorReader
}

// NewInstructorService creates a new InstructorService
func NewInstructorService(instructorRepo InstructorReader) InstructorService {
	return &instructorServiceImpl{instructorRepo: instructorRepo}
}

func (s *instructorServiceImpl) ListInstructors(ctx context.Context, req *dto.InstructorFilterRequest) (*dto.PaginatedResponse, error) {
	page, size := helpers.ClampPage(req.Page, req.Size)
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	sortBy := req.Sort
	if sortBy == "" {
		sortBy = "name"
	}
	// rating sorts default to best first
	desc := req.Order == "desc" || (req.Order == "" && sortBy != "name")

	instructors, total, err := s.instructorRepo.List(ctx, repositories.InstructorFilter{
		Search:        req.Search,
		HasRating:     req.HasRating,
		MinRating:     req.RatingMin,
		MinCount:      req.RatingMinCount,
		MaxDifficulty: req.RatingMaxDifficulty,
		Sort:          sortBy,
		Desc:          desc,
		Offset:        offset,
		Limit:         limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list instructors: %w", err)
	}

	return &dto.PaginatedResponse{
		Items:      instructors,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}, nil
}

func (s *instructorServiceImpl) GetInstructor(ctx context.Context, id int64) (*models.Instructor, error) {
	inst, err := s.instructorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get instructor %d: %w", id, err)
	}
	return inst, nil
}

func (s *instructorServiceImpl) GetInstructorRating(ctx context.Context, id int64) (*dto.InstructorRatingResponse, error) {
	inst, err := s.GetInstructor(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.InstructorRatingResponse{
		InstructorID: inst.ID,
		Name:         inst.Name,
		Rated:        inst.Rating != nil,
		Rating:       inst.Rating,
	}, nil
}
