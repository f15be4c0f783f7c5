package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/courseatlas/internal/app/models/dto"
	"github.com/yigit/courseatlas/internal/app/services"
	"github.com/yigit/courseatlas/internal/middleware"
)

// CatalogController handles terms, subjects, courses and sections
type CatalogController struct {
	catalogService services.CatalogService
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(catalogService services.CatalogService) *CatalogController {
	return &CatalogController{
		catalogService: catalogService,
	}
}

// GetTerms lists every term
// @Summary List terms
// @Description Terms ordered by year descending, then Spring, Summer, Fall, Winter
// @Tags catalog
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Term} "Terms retrieved successfully"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /terms [get]
func (c *CatalogController) GetTerms(ctx *gin.Context) {
	terms, err := c.catalogService.ListTerms(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(terms))
}

// GetSubjects lists every subject code
// @Summary List subjects
// @Tags catalog
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Subject} "Subjects retrieved successfully"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /subjects [get]
func (c *CatalogController) GetSubjects(ctx *gin.Context) {
	subjects, err := c.catalogService.ListSubjects(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(subjects))
}

// GetCourses lists courses
// @Summary List courses
// @Tags catalog
// @Produce json
// @Param subject query string false "Subject code"
// @Param search query string false "Title or course number substring"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 25)"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Course}} "Courses retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /courses [get]
func (c *CatalogController) GetCourses(ctx *gin.Context) {
	var req dto.CourseFilterRequest
	if !middleware.BindQuery(ctx, &req, "Invalid course filters") {
		return
	}

	resp, err := c.catalogService.ListCourses(ctx, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// GetSections lists sections with their course, term, meetings and instructors
// @Summary List sections
// @Tags catalog
// @Produce json
// @Param search query string false "Matches title, course number, subject or instructor"
// @Param subject query string false "Subject code"
// @Param semester query string false "Spring, Summer, Fall or Winter"
// @Param year query int false "Year"
// @Param crn query string false "Course reference number"
// @Param instructor_id query int false "Instructor ID"
// @Param instructor query string false "Instructor name substring"
// @Param min_credits query number false "Minimum credits"
// @Param max_credits query number false "Maximum credits"
// @Param status query string false "open or closed"
// @Param rating_min query number false "Minimum instructor rating (unrated pass)"
// @Param rating_min_count query int false "Minimum rating count (unrated pass)"
// @Param rating_max_difficulty query number false "Maximum difficulty (unrated pass)"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 25)"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Section}} "Sections retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /sections [get]
func (c *CatalogController) GetSections(ctx *gin.Context) {
	var req dto.SectionFilterRequest
	if !middleware.BindQuery(ctx, &req, "Invalid section filters") {
		return
	}

	resp, err := c.catalogService.ListSections(ctx, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// GetSectionByID retrieves one section
// @Summary Get section by ID
// @Tags catalog
// @Produce json
// @Param id path int true "Section ID"
// @Success 200 {object} dto.APIResponse{data=models.Section} "Section retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid section ID"
// @Failure 404 {object} dto.ErrorResponse "Section not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /sections/{id} [get]
func (c *CatalogController) GetSectionByID(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid section ID")
		errorDetail = errorDetail.WithDetails("Section ID must be a positive number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	section, err := c.catalogService.GetSection(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(section))
}
