package dto

import "github.com/yigit/courseatlas/internal/app/models"

// CourseFilterRequest holds the /courses query parameters
type CourseFilterRequest struct {
	Search  string `form:"search"`
	Subject string `form:"subject" binding:"omitempty,subject"`
	Page    int    `form:"page"`
	Size    int    `form:"size"`
}

// SectionFilterRequest holds the /sections query parameters. Rating filters
// let sections whose instructors are unrated through.
type SectionFilterRequest struct {
	Search              string   `form:"search"`
	Subject             string   `form:"subject" binding:"omitempty,subject"`
	Semester            string   `form:"semester" binding:"omitempty,semester"`
	Year                *int     `form:"year" binding:"omitempty,min=1900,max=2200"`
	CRN                 string   `form:"crn" binding:"omitempty,crn"`
	InstructorID        *int64   `form:"instructor_id" binding:"omitempty,min=1"`
	Instructor          string   `form:"instructor"`
	MinCredits          *float64 `form:"min_credits" binding:"omitempty,min=0"`
	MaxCredits          *float64 `form:"max_credits" binding:"omitempty,min=0"`
	Status              string   `form:"status" binding:"omitempty,oneof=open closed"`
	RatingMin           *float64 `form:"rating_min" binding:"omitempty,min=0,max=5"`
	RatingMinCount      *int     `form:"rating_min_count" binding:"omitempty,min=0"`
	RatingMaxDifficulty *float64 `form:"rating_max_difficulty" binding:"omitempty,min=0,max=5"`
	Page                int      `form:"page"`
	Size                int      `form:"size"`
}

// InstructorFilterRequest holds the /instructors query parameters
type InstructorFilterRequest struct {
	Search              string   `form:"search"`
	HasRating           bool     `form:"has_rating"`
	RatingMin           *float64 `form:"rating_min" binding:"omitempty,min=0,max=5"`
	RatingMinCount      *int     `form:"rating_min_count" binding:"omitempty,min=0"`
	RatingMaxDifficulty *float64 `form:"rating_max_difficulty" binding:"omitempty,min=0,max=5"`
	Sort                string   `form:"sort" binding:"omitempty,oneof=name rating count difficulty"`
	Order               string   `form:"order" binding:"omitempty,oneof=asc desc"`
	Page                int      `form:"page"`
	Size                int      `form:"size"`
}

// AnalyticsFilterRequest scopes the analytics series. Subjects and levels may be
// repeated or comma separated.
type AnalyticsFilterRequest struct {
	Subjects  []string `form:"subject"`
	Levels    []string `form:"level"`
	StartYear *int     `form:"start_year" binding:"omitempty,min=1900,max=2200"`
	EndYear   *int     `form:"end_year" binding:"omitempty,min=1900,max=2200"`
}

// InstructorRatingResponse is the rating snapshot of one instructor
type InstructorRatingResponse struct {
	InstructorID int64                    `json:"instructorId" example:"42"`
	Name         string                   `json:"name" example:"Jane Doe"`
	Rated        bool                     `json:"rated" example:"true"`
	Rating       *models.InstructorRating `json:"rating,omitempty"`
}
