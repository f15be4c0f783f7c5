package models

import (
	"fmt"
	"strings"
)

// Semester is one of the four academic terms of a year
type Semester string

// Semester constants
const (
	SemesterSpring Semester = "Spring"
	SemesterSummer Semester = "Summer"
	SemesterFall   Semester = "Fall"
	SemesterWinter Semester = "Winter"
)

// Semesters lists every semester in calendar order
var Semesters = []Semester{SemesterSpring, SemesterSummer, SemesterFall, SemesterWinter}

// ParseSemester matches s case-insensitively against the known semesters.
func ParseSemester(s string) (Semester, bool) {
	s = strings.TrimSpace(s)
	for _, sem := range Semesters {
		if strings.EqualFold(s, string(sem)) {
			return sem, true
		}
	}
	return "", false
}

// Order is the position of the semester within a calendar year
func (s Semester) Order() int {
	for i, sem := range Semesters {
		if sem == s {
			return i
		}
	}
	return len(Semesters)
}

// Term is a (semester, year) pair; its natural key is the pair itself
type Term struct {
	ID       int64    `json:"id" db:"term_id"`
	Semester Semester `json:"semester" db:"semester"`
	Year     int      `json:"year" db:"year"`
}

// String renders the term as "Fall 2024"
func (t Term) String() string {
	return fmt.Sprintf("%s %d", t.Semester, t.Year)
}
