package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/courseatlas/internal/app/models"
	"github.com/yigit/courseatlas/internal/identity"
	"github.com/yigit/courseatlas/internal/pkg/apperrors"
)

// Store is the catalog write surface used while a file's transaction is open.
// Lookups are get-or-create on the natural key and return the persistent id.
type Store interface {
	TermID(ctx context.Context, term models.Term) (int64, error)
	SubjectID(ctx context.Context, code string) (int64, error)
	CourseID(ctx context.Context, subjectID int64, number, title string) (int64, error)
	InstructorID(ctx context.Context, name string, netID, email *string) (int64, error)
	UpsertSection(ctx context.Context, section *models.Section) (int64, error)
	ReplaceMeeting(ctx context.Context, sectionID int64, meeting *models.Meeting) error
	LinkInstructor(ctx context.Context, sectionID, instructorID int64, role *string) error
}

// Transactor runs fn against a Store bound to a single transaction, committing
// when fn returns nil and rolling back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

// FileReport summarizes one file. When Err is set the file was rolled back and
// Processed is zero.
type FileReport struct {
	Path      string
	Term      string
	Processed int
	Skipped   int
	// SkipReasons counts rejected rows per validation error
	SkipReasons map[string]int
	Err         error
}

// Name is the file's base name
func (r FileReport) Name() string { return filepath.Base(r.Path) }

// Report is the outcome of a batch
type Report struct {
	RunID     string
	Files     []FileReport
	Processed int
	Skipped   int
	Failed    int
}

// Engine ingests extracts file by file, one transaction per file
type Engine struct {
	tx  Transactor
	log zerolog.Logger
}

// NewEngine creates an ingestion engine
func NewEngine(tx Transactor, log zerolog.Logger) *Engine {
	return &Engine{tx: tx, log: log}
}

// Run ingests files in the given order. A failed file does not stop the batch;
// only context cancellation does.
func (e *Engine) Run(ctx context.Context, files []string) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	log := e.log.With().Str("component", "ingest").Str("run_id", report.RunID).Logger()
	log.Info().Int("files", len(files)).Msg("Starting ingestion batch")

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Msg("Ingestion batch canceled")
			return report, err
		}

		fr := e.IngestFile(ctx, path)
		report.Files = append(report.Files, fr)
		report.Processed += fr.Processed
		report.Skipped += fr.Skipped

		event := log.Info()
		if fr.Err != nil {
			report.Failed++
			event = log.Error().Err(fr.Err)
		}
		event.Str("file", fr.Name()).
			Str("term", fr.Term).
			Int("processed", fr.Processed).
			Int("skipped", fr.Skipped).
			Msg("File ingested")
	}

	log.Info().
		Int("processed", report.Processed).
		Int("skipped", report.Skipped).
		Int("failed_files", report.Failed).
		Msg("Ingestion batch finished")
	return report, nil
}

// IngestFile loads, normalizes and writes one file inside one transaction
func (e *Engine) IngestFile(ctx context.Context, path string) FileReport {
	fr := FileReport{Path: path, SkipReasons: make(map[string]int)}

	src, err := ReadSource(path)
	if err != nil {
		fr.Err = fmt.Errorf("%w: %w", apperrors.ErrFileAborted, err)
		return fr
	}

	km := BuildKeyMap(src.Headers)
	if missing := km.Missing(); len(missing) > 0 {
		e.log.Warn().Str("file", filepath.Base(path)).Interface("missing", missing).
			Msg("Required columns not found, every row will be skipped")
	}

	fileTerm, ok := TermFromFilename(path)
	if ok {
		fr.Term = fileTerm.String()
	}

	processed := 0
	err = e.tx.InTx(ctx, func(ctx context.Context, store Store) error {
		w := newRowWriter(store)
		for i, row := range src.Rows {
			if err := ctx.Err(); err != nil {
				return err
			}

			line := src.FirstLine + i
			rec, err := Normalize(km, row, line, fileTerm)
			if err != nil {
				fr.Skipped++
				fr.SkipReasons[skipReason(err)]++
				e.log.Debug().Err(err).Str("file", filepath.Base(path)).Int("line", line).Msg("Row skipped")
				continue
			}
			if fr.Term == "" {
				fr.Term = rec.Term.String()
			}

			if err := w.write(ctx, rec); err != nil {
				return fmt.Errorf("%w at line %d: %w", apperrors.ErrFileAborted, line, err)
			}
			processed++
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrFileAborted) {
			err = fmt.Errorf("%w: %w", apperrors.ErrFileAborted, err)
		}
		fr.Err = err
		return fr
	}

	fr.Processed = processed
	return fr
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrMissingRequiredField):
		return apperrors.ErrMissingRequiredField.Error()
	case errors.Is(err, apperrors.ErrTermUnresolved):
		return apperrors.ErrTermUnresolved.Error()
	default:
		return "invalid row"
	}
}

type courseKey struct {
	subjectID int64
	number    string
	title     string
}

// rowWriter memoizes dimension ids for the lifetime of one file transaction
type rowWriter struct {
	store    Store
	terms    map[models.Term]int64
	subjects map[string]int64
	courses  map[courseKey]int64
}

func newRowWriter(store Store) *rowWriter {
	return &rowWriter{
		store:    store,
		terms:    make(map[models.Term]int64),
		subjects: make(map[string]int64),
		courses:  make(map[courseKey]int64),
	}
}

func (w *rowWriter) write(ctx context.Context, rec *Record) error {
	termID, ok := w.terms[rec.Term]
	if !ok {
		id, err := w.store.TermID(ctx, rec.Term)
		if err != nil {
			return fmt.Errorf("term %s: %w", rec.Term, err)
		}
		termID = id
		w.terms[rec.Term] = id
	}

	subjectID, ok := w.subjects[rec.Subject]
	if !ok {
		id, err := w.store.SubjectID(ctx, rec.Subject)
		if err != nil {
			return fmt.Errorf("subject %s: %w", rec.Subject, err)
		}
		subjectID = id
		w.subjects[rec.Subject] = id
	}

	ck := courseKey{subjectID: subjectID, number: rec.CourseNumber, title: rec.Title}
	courseID, ok := w.courses[ck]
	if !ok {
		id, err := w.store.CourseID(ctx, subjectID, rec.CourseNumber, rec.Title)
		if err != nil {
			return fmt.Errorf("course %s %s: %w", rec.Subject, rec.CourseNumber, err)
		}
		courseID = id
		w.courses[ck] = id
	}

	sectionID, err := w.store.UpsertSection(ctx, &models.Section{
		CourseID:          courseID,
		TermID:            termID,
		CRN:               rec.CRN,
		LecLab:            rec.LecLab,
		CreditsMin:        rec.CreditsMin,
		CreditsMax:        rec.CreditsMax,
		MaxEnrollment:     rec.MaxEnrollment,
		CurrentEnrollment: rec.CurrentEnrollment,
	})
	if err != nil {
		return fmt.Errorf("section %s: %w", rec.CRN, err)
	}

	if err := w.store.ReplaceMeeting(ctx, sectionID, &models.Meeting{
		SectionID: sectionID,
		StartTime: rec.StartTime,
		EndTime:   rec.EndTime,
		Days:      rec.Days,
		Building:  rec.Building,
		Room:      rec.Room,
		Location:  rec.Location,
	}); err != nil {
		return fmt.Errorf("meeting for section %s: %w", rec.CRN, err)
	}

	if rec.Instructor == nil {
		return nil
	}
	names := SplitInstructorNames(*rec.Instructor)
	netID, email := rec.NetID, rec.Email
	if len(names) > 1 {
		// a single netid/email column cannot be attributed to several people
		netID, email = nil, nil
	}
	for _, raw := range names {
		name := identity.Canonicalize(raw)
		if name == "" {
			continue
		}
		instructorID, err := w.store.InstructorID(ctx, name, netID, email)
		if err != nil {
			return fmt.Errorf("instructor %q: %w", name, err)
		}
		if err := w.store.LinkInstructor(ctx, sectionID, instructorID, nil); err != nil {
			return fmt.Errorf("link instructor %q: %w", name, err)
		}
	}
	return nil
}
