package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/courseatlas/internal/app/models/dto"
	"github.com/yigit/courseatlas/internal/app/services"
	"github.com/yigit/courseatlas/internal/middleware"
)

// InstructorController handles instructor listing and rating lookups
type InstructorController struct {
	instructorService services.InstructorService
}

// NewInstructorController creates a new InstructorController
func NewInstructorController(instructorService services.InstructorService) *InstructorController {
	return &InstructorController{
		instructorService: instructorService,
	}
}

// parseInstructorID writes a 400 response and returns false on a malformed id
func parseInstructorID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid instructor ID")
		errorDetail = errorDetail.WithDetails("Instructor ID must be a positive number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// GetInstructors lists instructors
// @Summary List instructors
// @Description Rating bounds only match instructors that have a rating
// @Tags instructors
// @Produce json
// @Param search query string false "Name substring"
// @Param has_rating query bool false "Only rated instructors"
// @Param rating_min query number false "Minimum average rating"
// @Param rating_min_count query int false "Minimum rating count"
// @Param rating_max_difficulty query number false "Maximum difficulty"
// @Param sort query string false "name, rating, count or difficulty"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 25)"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Instructor}} "Instructors retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /instructors [get]
func (c *InstructorController) GetInstructors(ctx *gin.Context) {
	var req dto.InstructorFilterRequest
	if !middleware.BindQuery(ctx, &req, "Invalid instructor filters") {
		return
	}

	resp, err := c.instructorService.ListInstructors(ctx, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// GetInstructorByID retrieves an instructor
// @Summary Get instructor by ID
// @Tags instructors
// @Produce json
// @Param id path int true "Instructor ID"
// @Success 200 {object} dto.APIResponse{data=models.Instructor} "Instructor retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid instructor ID"
// @Failure 404 {object} dto.ErrorResponse "Instructor not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /instructors/{id} [get]
func (c *InstructorController) GetInstructorByID(ctx *gin.Context) {
	id, ok := parseInstructorID(ctx)
	if !ok {
		return
	}

	instructor, err := c.instructorService.GetInstructor(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(instructor))
}

// GetInstructorRating retrieves the rating snapshot of an instructor
// @Summary Get instructor rating
// @Tags instructors
// @Produce json
// @Param id path int true "Instructor ID"
// @Success 200 {object} dto.APIResponse{data=dto.InstructorRatingResponse} "Rating retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid instructor ID"
// @Failure 404 {object} dto.ErrorResponse "Instructor not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /instructors/{id}/rating [get]
func (c *InstructorController) GetInstructorRating(ctx *gin.Context) {
	id, ok := parseInstructorID(ctx)
	if !ok {
		return
	}

	rating, err := c.instructorService.GetInstructorRating(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(rating))
}
