package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/courseatlas/internal/app/models/dto"
	"github.com/yigit/courseatlas/internal/app/services"
	"github.com/yigit/courseatlas/internal/middleware"
)

// AnalyticsController serves the aggregate chart series. Every endpoint accepts
// subject, level, start_year and end_year.
type AnalyticsController struct {
	analyticsService services.AnalyticsService
}

// NewAnalyticsController creates a new AnalyticsController
func NewAnalyticsController(analyticsService services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{
		analyticsService: analyticsService,
	}
}

// serveSeries binds the filter, runs load and writes the series
func serveSeries[T any](ctx *gin.Context, load func(context.Context, *dto.AnalyticsFilterRequest) ([]T, error)) {
	var req dto.AnalyticsFilterRequest
	if !middleware.BindQuery(ctx, &req, "Invalid analytics filters") {
		return
	}

	points, err := load(ctx, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if points == nil {
		points = []T{}
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(points))
}

// GetEnrollment returns enrollment totals per term
// @Summary Enrollment over time
// @Tags analytics
// @Produce json
// @Param subject query []string false "Subject codes"
// @Param level query []string false "Course levels such as 100"
// @Param start_year query int false "First year"
// @Param end_year query int false "Last year"
// @Success 200 {object} dto.APIResponse{data=[]models.TermPoint}
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Router /analytics/enrollment [get]
func (c *AnalyticsController) GetEnrollment(ctx *gin.Context) {
	serveSeries(ctx, c.analyticsService.EnrollmentOverTime)
}

// GetSections returns section counts per term
// @Summary Sections over time
// @Tags analytics
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.TermPoint}
// @Router /analytics/sections [get]
func (c *AnalyticsController) GetSections(ctx *gin.Context) {
	serveSeries(ctx, c.analyticsService.SectionsOverTime)
}

// GetCourseLifecycle returns courses first and last offered per term
// @Summary Course births and deaths
// @Tags analytics
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.CourseLifecyclePoint}
// @Router /analytics/course-lifecycle [get]
func (c *AnalyticsController) GetCourseLifecycle(ctx *gin.Context) {
	serveSeries(ctx, c.analyticsService.CourseBirthDeath)
}

// GetMeetingHeatmap returns meeting counts by days and start hour
// @Summary Meeting heatmap
// @Tags analytics
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.HeatmapCell}
// @Router /analytics/meeting-heatmap [get]
func (c *AnalyticsController) GetMeetingHeatmap(ctx *gin.Context) {
	serveSeries(ctx, c.analyticsService.MeetingHeatmap)
}

// GetCredits returns section counts by credit value per term
// @Summary Credits distribution
// @Tags analytics
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.CreditsBucket}
// @Router /analytics/credits [get]
func (c *AnalyticsController) GetCredits(ctx *gin.Context) {
	serveSeries(ctx, c.analyticsService.CreditsDistribution)
}
