package models

// Section is one offering of a course in a term, identified by its reference number (CRN)
type Section struct {
	ID                int64    `json:"id" db:"section_id"`
	CourseID          int64    `json:"courseId" db:"course_id"`
	TermID            int64    `json:"termId" db:"term_id"`
	CRN               string   `json:"crn" db:"crn"`
	LecLab            *string  `json:"lecLab,omitempty" db:"lec_lab"`
	CreditsMin        *float64 `json:"creditsMin,omitempty" db:"credits_min"`
	CreditsMax        *float64 `json:"creditsMax,omitempty" db:"credits_max"`
	MaxEnrollment     *int     `json:"maxEnrollment,omitempty" db:"max_enrollment"`
	CurrentEnrollment *int     `json:"currentEnrollment,omitempty" db:"current_enrollment"`

	// Relations (populated when needed)
	Course      *Course       `json:"course,omitempty"`
	Term        *Term         `json:"term,omitempty"`
	Meetings    []Meeting     `json:"meetings,omitempty"`
	Instructors []*Instructor `json:"instructors,omitempty"`
}

// Meeting is owned by exactly one section and replaced whenever the section is re-ingested
type Meeting struct {
	ID        int64   `json:"id" db:"meeting_id"`
	SectionID int64   `json:"sectionId" db:"section_id"`
	StartTime *string `json:"startTime,omitempty" db:"start_time"`
	EndTime   *string `json:"endTime,omitempty" db:"end_time"`
	Days      *string `json:"days,omitempty" db:"days"`
	Building  *string `json:"building,omitempty" db:"bldg"`
	Room      *string `json:"room,omitempty" db:"room"`
	Location  *string `json:"location,omitempty" db:"location"`
}

// SectionInstructor links a section to one of its instructors; a pair is recorded once
type SectionInstructor struct {
	SectionID    int64   `json:"sectionId" db:"section_id"`
	InstructorID int64   `json:"instructorId" db:"instructor_id"`
	Role         *string `json:"role,omitempty" db:"role"`
}
