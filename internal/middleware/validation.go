package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/courseatlas/internal/app/models/dto"
)

// BindQuery binds and validates query parameters into obj. On failure it writes
// a 400 response listing every invalid field and returns false.
func BindQuery(c *gin.Context, obj interface{}, message string) bool {
	err := c.ShouldBindQuery(obj)
	if err == nil {
		return true
	}

	errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message)

	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		details := make([]dto.ErrorDetail, 0, len(fieldErrors))
		for _, fe := range fieldErrors {
			details = append(details, dto.ErrorDetail{
				Code:     dto.ErrorCodeValidationFailed,
				Message:  formatValidationError(fe),
				Field:    fe.Field(),
				Severity: dto.ErrorSeverityError,
			})
		}
		errorDetail = errorDetail.WithDetails(details)
	} else {
		errorDetail = errorDetail.WithDetails(err.Error())
	}

	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
	return false
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "semester":
		return e.Field() + " must be Spring, Summer, Fall or Winter"
	case "subject":
		return e.Field() + " must be a subject code such as CS"
	case "crn":
		return e.Field() + " must be numeric"
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
