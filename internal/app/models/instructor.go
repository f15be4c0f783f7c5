package models

import "time"

// Instructor is unique on (name, netid, email) with NULL netid/email comparing equal
type Instructor struct {
	ID    int64   `json:"id" db:"instructor_id"`
	Name  string  `json:"name" db:"name"`
	NetID *string `json:"netid,omitempty" db:"netid"`
	Email *string `json:"email,omitempty" db:"email"`

	Rating *InstructorRating `json:"rating,omitempty"`
}

// InstructorRating is the rating snapshot written by the crawler. Every column is
// overwritten on each successful match; nil fields are stored as NULL.
type InstructorRating struct {
	ProfileID      *int64             `json:"profileId,omitempty"`
	SchoolID       *int64             `json:"schoolId,omitempty"`
	URL            *string            `json:"url,omitempty"`
	Department     *string            `json:"department,omitempty"`
	Average        *float64           `json:"average,omitempty"`
	Count          *int               `json:"count,omitempty"`
	WouldTakeAgain *float64           `json:"wouldTakeAgain,omitempty"`
	Difficulty     *float64           `json:"difficulty,omitempty"`
	TopTags        []string           `json:"topTags"`
	Distribution   RatingDistribution `json:"distribution"`
	Recent         []IndividualRating `json:"recent"`
	LastRefreshed  *time.Time         `json:"lastRefreshed,omitempty"`
}

// RatingDistribution counts ratings per bucket; all nil when the chart was not rendered
type RatingDistribution struct {
	Awesome *int `json:"awesome"`
	Great   *int `json:"great"`
	Good    *int `json:"good"`
	OK      *int `json:"ok"`
	Awful   *int `json:"awful"`
}

// IndividualRating is one student review from the profile page
type IndividualRating struct {
	Course     *string           `json:"course,omitempty"`
	Date       *string           `json:"date,omitempty"`
	Quality    *float64          `json:"quality,omitempty"`
	Difficulty *float64          `json:"difficulty,omitempty"`
	Comment    *string           `json:"comment,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Meta       map[string]string `json:"meta,omitempty"`
	ThumbsUp   *int              `json:"thumbsUp,omitempty"`
	ThumbsDown *int              `json:"thumbsDown,omitempty"`
}
