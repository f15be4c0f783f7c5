package ingest

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/yigit/courseatlas/internal/app/models"
	"github.com/yigit/courseatlas/internal/pkg/apperrors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Record is one source row in canonical form. Optional fields are nil when the
// column is missing or the cell is blank, a placeholder or malformed.
type Record struct {
	Line int

	Subject      string
	CourseNumber string
	Title        string
	CRN          string

	LecLab     *string
	CreditsMin *float64
	CreditsMax *float64

	StartTime *string
	EndTime   *string
	Days      *string
	Building  *string
	Room      *string
	Location  *string

	Instructor *string
	NetID      *string
	Email      *string

	MaxEnrollment     *int
	CurrentEnrollment *int

	Term models.Term
}

var (
	creditRange = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)$`)
	creditTo    = regexp.MustCompile(`(?i)\s+to\s+`)
	clock       = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

	filenameTermSemFirst  = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(spring|summer|fall|winter)_(\d{4})(?:[^a-z0-9]|$)`)
	filenameTermYearFirst = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(\d{4})_(spring|summer|fall|winter)(?:[^a-z0-9]|$)`)
	embeddedTerm          = regexp.MustCompile(`(?i)^(spring|summer|fall|winter)\s+(\d{4})$`)

	titleCaser = cases.Title(language.English)
)

// Normalize converts one row into a Record. Rows missing a required field or a
// resolvable term are rejected with ErrMissingRequiredField or ErrTermUnresolved.
func Normalize(km KeyMap, row []string, line int, fileTerm *models.Term) (*Record, error) {
	rec := &Record{Line: line}

	for _, req := range []struct {
		field Field
		dst   *string
	}{
		{FieldSubject, &rec.Subject},
		{FieldNumber, &rec.CourseNumber},
		{FieldTitle, &rec.Title},
		{FieldCRN, &rec.CRN},
	} {
		v := km.Value(row, req.field)
		if v == nil {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrMissingRequiredField, req.field)
		}
		*req.dst = *v
	}

	term, ok := TermFromColumns(km.Value(row, FieldSemester), km.Value(row, FieldYear))
	if !ok {
		if fileTerm == nil {
			return nil, fmt.Errorf("%w: line %d", apperrors.ErrTermUnresolved, line)
		}
		term = *fileTerm
	}
	rec.Term = term

	rec.LecLab = km.Value(row, FieldLecLab)
	rec.CreditsMin, rec.CreditsMax = ParseCredits(km.Value(row, FieldCredits))

	rec.StartTime = ParseClock(km.Value(row, FieldStartTime))
	rec.EndTime = ParseClock(km.Value(row, FieldEndTime))
	rec.Days = NormalizeDays(km.Value(row, FieldDays))
	rec.Building = upper(km.Value(row, FieldBuilding))
	rec.Room = upper(km.Value(row, FieldRoom))
	rec.Location = km.Value(row, FieldLocation)
	if rec.Location == nil {
		rec.Location = CombineLocation(rec.Building, rec.Room)
	}

	rec.Instructor = km.Value(row, FieldInstructor)
	rec.NetID = km.Value(row, FieldNetID)
	rec.Email = km.Value(row, FieldEmail)

	rec.MaxEnrollment = ParseInt(km.Value(row, FieldMaxEnrollment))
	rec.CurrentEnrollment = ParseInt(km.Value(row, FieldCurrentEnrollment))

	return rec, nil
}

// ParseCredits reads "3" as (3, 3) and "1 to 18", "1-18" or dash variants as a
// range. Anything else is (nil, nil).
func ParseCredits(s *string) (*float64, *float64) {
	if s == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil, nil
	}
	v = strings.NewReplacer("–", "-", "—", "-").Replace(v)
	v = creditTo.ReplaceAllString(v, "-")

	if m := creditRange.FindStringSubmatch(v); m != nil {
		lo, err1 := strconv.ParseFloat(m[1], 64)
		hi, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			return nil, nil
		}
		return &lo, &hi
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, nil
	}
	lo, hi := f, f
	return &lo, &hi
}

// ParseClock returns a zero-padded "HH:MM" for H:MM or HH:MM input within a day.
// TBA, blanks and malformed values are nil.
func ParseClock(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, "TBA") {
		return nil
	}
	m := clock.FindStringSubmatch(v)
	if m == nil {
		return nil
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if hh > 23 || mm > 59 {
		return nil
	}
	out := fmt.Sprintf("%02d:%02d", hh, mm)
	return &out
}

// NormalizeDays strips all whitespace ("M W F" becomes "MWF")
func NormalizeDays(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.Join(strings.Fields(*s), "")
	if v == "" {
		return nil
	}
	return &v
}

// CombineLocation renders "BLDG ROOM" from whichever parts are present
func CombineLocation(building, room *string) *string {
	var parts []string
	if building != nil {
		parts = append(parts, strings.ToUpper(*building))
	}
	if room != nil {
		parts = append(parts, strings.ToUpper(*room))
	}
	if len(parts) == 0 {
		return nil
	}
	loc := strings.Join(parts, " ")
	return &loc
}

// ParseInt accepts "25" and "25.0". Fractional, non-numeric and out-of-int4-range values are nil.
func ParseInt(s *string) *int {
	if s == nil {
		return nil
	}
	v := strings.ReplaceAll(strings.TrimSpace(*s), ",", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}

// TermFromColumns builds a term from semester and year cells. A semester cell
// such as "Fall 2024" carries its own year.
func TermFromColumns(semester, year *string) (models.Term, bool) {
	if semester == nil {
		return models.Term{}, false
	}
	semText := strings.TrimSpace(*semester)
	var yearText string
	if m := embeddedTerm.FindStringSubmatch(semText); m != nil {
		semText, yearText = m[1], m[2]
	}
	if year != nil {
		yearText = *year
	}

	sem, ok := models.ParseSemester(titleCaser.String(strings.ToLower(semText)))
	if !ok {
		return models.Term{}, false
	}
	y := ParseInt(&yearText)
	if y == nil || *y < 1800 || *y > 9999 {
		return models.Term{}, false
	}
	return models.Term{Semester: sem, Year: *y}, true
}

// TermFromFilename recognizes "<semester>_<yyyy>" and "<yyyy>_<semester>" in a
// file's base name, e.g. uvm_fall_2019_cleaned.csv.
func TermFromFilename(path string) (*models.Term, bool) {
	base := filepath.Base(path)

	var semText, yearText string
	if m := filenameTermSemFirst.FindStringSubmatch(base); m != nil {
		semText, yearText = m[1], m[2]
	} else if m := filenameTermYearFirst.FindStringSubmatch(base); m != nil {
		semText, yearText = m[2], m[1]
	} else {
		return nil, false
	}

	sem, ok := models.ParseSemester(titleCaser.String(strings.ToLower(semText)))
	if !ok {
		return nil, false
	}
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return nil, false
	}
	return &models.Term{Semester: sem, Year: year}, true
}

// SplitInstructorNames splits a multi-instructor cell on ";", " / ", " & " and
// " and ". Commas are kept since names arrive as "Family, Given".
func SplitInstructorNames(value string) []string {
	s := strings.TrimSpace(value)
	if s == "" {
		return nil
	}
	s = strings.NewReplacer(" / ", ";", " & ", ";", " and ", ";").Replace(s)

	var names []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

func upper(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToUpper(*s)
	return &v
}
