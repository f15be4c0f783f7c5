package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/courseatlas/internal/app/models"
)

type instructorKey struct {
	name, netID, email string
}

type linkKey struct {
	sectionID, instructorID int64
}

type sectionKey struct {
	termID int64
	crn    string
}

// memState mirrors the catalog tables and their natural-key constraints
type memState struct {
	nextID      int64
	terms       map[models.Term]int64
	subjects    map[string]int64
	courses     map[courseKey]int64
	instructors map[instructorKey]int64
	sections    map[sectionKey]*models.Section
	meetings    map[int64][]models.Meeting
	links       map[linkKey]bool
}

func newMemState() *memState {
	return &memState{
		terms:       map[models.Term]int64{},
		subjects:    map[string]int64{},
		courses:     map[courseKey]int64{},
		instructors: map[instructorKey]int64{},
		sections:    map[sectionKey]*models.Section{},
		meetings:    map[int64][]models.Meeting{},
		links:       map[linkKey]bool{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	c.nextID = s.nextID
	for k, v := range s.terms {
		c.terms[k] = v
	}
	for k, v := range s.subjects {
		c.subjects[k] = v
	}
	for k, v := range s.courses {
		c.courses[k] = v
	}
	for k, v := range s.instructors {
		c.instructors[k] = v
	}
	for k, v := range s.sections {
		sec := *v
		c.sections[k] = &sec
	}
	for k, v := range s.meetings {
		c.meetings[k] = append([]models.Meeting(nil), v...)
	}
	for k, v := range s.links {
		c.links[k] = v
	}
	return c
}

// memStore is a transactional in-memory Store. failOnCRN makes UpsertSection
// fail for that reference number to exercise file rollback.
type memStore struct {
	committed *memState
	tx        *memState
	failOnCRN string
	txCount   int
}

func newMemStore() *memStore {
	return &memStore{committed: newMemState()}
}

func (m *memStore) InTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	m.txCount++
	m.tx = m.committed.clone()
	defer func() { m.tx = nil }()

	if err := fn(ctx, m); err != nil {
		return err
	}
	m.committed = m.tx
	return nil
}

func (m *memStore) id() int64 {
	m.tx.nextID++
	return m.tx.nextID
}

func (m *memStore) TermID(_ context.Context, term models.Term) (int64, error) {
	if id, ok := m.tx.terms[term]; ok {
		return id, nil
	}
	id := m.id()
	m.tx.terms[term] = id
	return id, nil
}

func (m *memStore) SubjectID(_ context.Context, code string) (int64, error) {
	if id, ok := m.tx.subjects[code]; ok {
		return id, nil
	}
	id := m.id()
	m.tx.subjects[code] = id
	return id, nil
}

func (m *memStore) CourseID(_ context.Context, subjectID int64, number, title string) (int64, error) {
	k := courseKey{subjectID, number, title}
	if id, ok := m.tx.courses[k]; ok {
		return id, nil
	}
	id := m.id()
	m.tx.courses[k] = id
	return id, nil
}

func (m *memStore) InstructorID(_ context.Context, name string, netID, email *string) (int64, error) {
	k := instructorKey{name: name}
	if netID != nil {
		k.netID = *netID
	}
	if email != nil {
		k.email = *email
	}
	if id, ok := m.tx.instructors[k]; ok {
		return id, nil
	}
	id := m.id()
	m.tx.instructors[k] = id
	return id, nil
}

func (m *memStore) UpsertSection(_ context.Context, section *models.Section) (int64, error) {
	if m.failOnCRN != "" && section.CRN == m.failOnCRN {
		return 0, errors.New("connection reset by peer")
	}
	k := sectionKey{section.TermID, section.CRN}
	if existing, ok := m.tx.sections[k]; ok {
		id := existing.ID
		updated := *section
		updated.ID = id
		m.tx.sections[k] = &updated
		return id, nil
	}
	stored := *section
	stored.ID = m.id()
	m.tx.sections[k] = &stored
	return stored.ID, nil
}

func (m *memStore) ReplaceMeeting(_ context.Context, sectionID int64, meeting *models.Meeting) error {
	mt := *meeting
	mt.ID = m.id()
	m.tx.meetings[sectionID] = []models.Meeting{mt}
	return nil
}

func (m *memStore) LinkInstructor(_ context.Context, sectionID, instructorID int64, _ *string) error {
	if _, ok := m.tx.links[linkKey{sectionID, instructorID}]; ok {
		return nil
	}
	m.tx.links[linkKey{sectionID, instructorID}] = true
	return nil
}

func (m *memStore) section(semester models.Semester, year int, crn string) *models.Section {
	termID, ok := m.committed.terms[models.Term{Semester: semester, Year: year}]
	if !ok {
		return nil
	}
	return m.committed.sections[sectionKey{termID, crn}]
}

func (m *memStore) instructorNames() []string {
	var names []string
	for k := range m.committed.instructors {
		names = append(names, fmt.Sprintf("%s|%s|%s", k.name, k.netID, k.email))
	}
	return names
}
