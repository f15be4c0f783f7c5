// Package ingest reconciles heterogeneous enrollment extracts into canonical
// records and writes them into the catalog store one file per transaction.
package ingest

import "strings"

// Field is a canonical column understood by the pipeline
type Field string

// Canonical fields
const (
	FieldSubject           Field = "Subj"
	FieldNumber            Field = "Number"
	FieldTitle             Field = "Title"
	FieldCRN               Field = "Comp Numb"
	FieldLecLab            Field = "Lec Lab"
	FieldCredits           Field = "Credits"
	FieldStartTime         Field = "Start Time"
	FieldEndTime           Field = "End Time"
	FieldDays              Field = "Days"
	FieldBuilding          Field = "Bldg"
	FieldRoom              Field = "Room"
	FieldLocation          Field = "Location"
	FieldInstructor        Field = "Instructor"
	FieldNetID             Field = "NetId"
	FieldEmail             Field = "Email"
	FieldMaxEnrollment     Field = "Max Enrollment"
	FieldCurrentEnrollment Field = "Current Enrollment"
	FieldSemester          Field = "Semester"
	FieldYear              Field = "Year"
)

// Aliases lists, per canonical field, the header names seen across extract eras.
// Order matters: the first alias present in a file wins.
var Aliases = map[Field][]string{
	FieldSubject:           {"Subj", "SUBJ", "Subject", "Subject Code", "Dept", "Dept Code"},
	FieldNumber:            {"Number", "#", "Course Number", "Course #", "Catalog Nbr", "Catalog Number"},
	FieldTitle:             {"Title", "Course Title", "Long Title"},
	FieldCRN:               {"Comp Numb", "CRN", "Crn", "Course Reference Number"},
	FieldLecLab:            {"Lec Lab", "Component", "Cmpnt", "Type"},
	FieldCredits:           {"Credits", "Credit Hrs", "Credit Hours"},
	FieldStartTime:         {"Start Time", "Start", "Begin Time", "Meeting Start Time"},
	FieldEndTime:           {"End Time", "End", "Finish Time", "Meeting End Time"},
	FieldDays:              {"Days", "Day", "Meeting Days"},
	FieldBuilding:          {"Bldg", "Building", "Bldg Code"},
	FieldRoom:              {"Room", "Room Nbr", "Room Number"},
	FieldLocation:          {"Location", "Campus", "Bldg/Room", "Loc"},
	FieldInstructor:        {"Instructor", "Primary Instructor", "Instr", "Instructor Name"},
	FieldNetID:             {"NetId", "NetID", "Net Id", "Netid"},
	FieldEmail:             {"Email", "E-mail", "Instructor Email", "Email Address"},
	FieldMaxEnrollment:     {"Max Enrollment", "Cap", "Capacity", "Enrollment Cap", "Max Enrl"},
	FieldCurrentEnrollment: {"Current Enrollment", "Enrolled", "Enrollment", "Current Enrl"},
	FieldSemester:          {"Semester", "Term", "Term Name"},
	FieldYear:              {"Year", "Term Year"},
}

// KeyMap resolves canonical fields to column positions for one file's header row
type KeyMap map[Field]int

// BuildKeyMap picks, for each canonical field, the first alias found in headers.
// An exact match is tried before a case-insensitive one for every alias.
func BuildKeyMap(headers []string) KeyMap {
	exact := make(map[string]int, len(headers))
	folded := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			continue
		}
		if _, ok := exact[h]; !ok {
			exact[h] = i
		}
		lower := strings.ToLower(h)
		if _, ok := folded[lower]; !ok {
			folded[lower] = i
		}
	}

	km := make(KeyMap, len(Aliases))
	for field, aliases := range Aliases {
		for _, alias := range aliases {
			if idx, ok := exact[alias]; ok {
				km[field] = idx
				break
			}
			if idx, ok := folded[strings.ToLower(alias)]; ok {
				km[field] = idx
				break
			}
		}
	}
	return km
}

// Has reports whether the file carries a column for field
func (km KeyMap) Has(field Field) bool {
	_, ok := km[field]
	return ok
}

// Missing lists the required fields without a column
func (km KeyMap) Missing() []Field {
	var missing []Field
	for _, f := range requiredFields {
		if !km.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Value returns the trimmed cell for field, or nil when the column is absent or
// the cell holds a placeholder.
func (km KeyMap) Value(row []string, field Field) *string {
	idx, ok := km[field]
	if !ok || idx >= len(row) {
		return nil
	}
	return cell(row[idx])
}

var requiredFields = []Field{FieldSubject, FieldNumber, FieldTitle, FieldCRN}

// cell trims s and maps placeholder spellings to absent
func cell(s string) *string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "none", "null":
		return nil
	}
	return &s
}
