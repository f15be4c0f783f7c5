package models

// Subject is a department code such as "CS"
type Subject struct {
	ID   int64  `json:"id" db:"subject_id"`
	Code string `json:"code" db:"code"`
}

// Course is unique on (subject, course number, title); the same number under a
// different title is a separate course.
type Course struct {
	ID           int64  `json:"id" db:"course_id"`
	SubjectID    int64  `json:"subjectId" db:"subject_id"`
	CourseNumber string `json:"courseNumber" db:"course_number"`
	Title        string `json:"title" db:"title"`

	// Relations (populated when needed)
	Subject *Subject `json:"subject,omitempty"`
}
