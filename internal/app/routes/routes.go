package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/courseatlas/internal/app/controllers"
)

// SetupRouter configures all application routes. Every route is read-only.
func SetupRouter(
	router *gin.Engine,
	healthController *controllers.HealthController,
	catalogController *controllers.CatalogController,
	instructorController *controllers.InstructorController,
	analyticsController *controllers.AnalyticsController,
) {
	// API version group
	v1 := router.Group("/api/v1")

	v1.GET("/health", healthController.Health)

	// Catalog routes
	v1.GET("/terms", catalogController.GetTerms)
	v1.GET("/subjects", catalogController.GetSubjects)
	v1.GET("/courses", catalogController.GetCourses)

	sections := v1.Group("/sections")
	{
		sections.GET("", catalogController.GetSections)
		sections.GET("/:id", catalogController.GetSectionByID)
	}

	instructors := v1.Group("/instructors")
	{
		instructors.GET("", instructorController.GetInstructors)
		instructors.GET("/:id", instructorController.GetInstructorByID)
		instructors.GET("/:id/rating", instructorController.GetInstructorRating)
	}

	analytics := v1.Group("/analytics")
	{
		analytics.GET("/enrollment", analyticsController.GetEnrollment)
		analytics.GET("/sections", analyticsController.GetSections)
		analytics.GET("/course-lifecycle", analyticsController.GetCourseLifecycle)
		analytics.GET("/meeting-heatmap", analyticsController.GetMeetingHeatmap)
		analytics.GET("/credits", analyticsController.GetCredits)
	}
}
