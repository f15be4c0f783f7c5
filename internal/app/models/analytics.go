package models

// AnalyticsFilter scopes every analytics series. Levels are course-number
// hundreds such as "100"; only the leading digit is used.
type AnalyticsFilter struct {
	Subjects  []string
	Levels    []string
	StartYear *int
	EndYear   *int
}

// TermPoint is one term bucket of a time series. Subject is empty unless the
// series was grouped by subject.
type TermPoint struct {
	Subject           string `json:"subject"`
	Year              int    `json:"year"`
	Semester          string `json:"semester"`
	CurrentEnrollment int64  `json:"currentEnrollment"`
	MaxEnrollment     int64  `json:"maxEnrollment"`
	Sections          int64  `json:"sections"`
}

// CourseLifecyclePoint counts courses first and last offered in a term
type CourseLifecyclePoint struct {
	Year     int    `json:"year"`
	Semester string `json:"semester"`
	Births   int64  `json:"births"`
	Deaths   int64  `json:"deaths"`
}

// HeatmapCell counts meetings by day pattern and start hour
type HeatmapCell struct {
	Days  string `json:"days"`
	Hour  int    `json:"hour"`
	Count int64  `json:"count"`
}

// CreditsBucket counts sections by rounded mid-range credit value per term
type CreditsBucket struct {
	Year     int     `json:"year"`
	Semester string  `json:"semester"`
	Credits  float64 `json:"credits"`
	Count    int64   `json:"count"`
}
