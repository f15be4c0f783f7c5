package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/yigit/courseatlas/internal/crawl"
	"github.com/yigit/courseatlas/internal/ingest"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

type fileReportJSON struct {
	File        string         `json:"file"`
	Term        string         `json:"term,omitempty"`
	Processed   int            `json:"processed"`
	Skipped     int            `json:"skipped"`
	SkipReasons map[string]int `json:"skipReasons,omitempty"`
	Error       string         `json:"error,omitempty"`
}

type ingestReportJSON struct {
	RunID     string           `json:"runId"`
	Files     []fileReportJSON `json:"files"`
	Processed int              `json:"processed"`
	Skipped   int              `json:"skipped"`
	Failed    int              `json:"failedFiles"`
}

func renderIngestReport(w io.Writer, format string, report *ingest.Report) error {
	if report == nil {
		return nil
	}

	if format == "json" {
		out := ingestReportJSON{
			RunID:     report.RunID,
			Files:     make([]fileReportJSON, 0, len(report.Files)),
			Processed: report.Processed,
			Skipped:   report.Skipped,
			Failed:    report.Failed,
		}
		for _, f := range report.Files {
			out.Files = append(out.Files, fileReportJSON{
				File:        f.Name(),
				Term:        f.Term,
				Processed:   f.Processed,
				Skipped:     f.Skipped,
				SkipReasons: f.SkipReasons,
				Error:       errString(f.Err),
			})
		}
		return writeJSON(w, out)
	}

	table := tablewriter.NewTable(w)
	table.Header("File", "Term", "Processed", "Skipped", "Error")
	for _, f := range report.Files {
		if err := table.Append(f.Name(), f.Term, strconv.Itoa(f.Processed), strconv.Itoa(f.Skipped), errString(f.Err)); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%d file(s): %d processed, %d skipped, %d failed\n",
		len(report.Files), report.Processed, report.Skipped, report.Failed)
	return err
}

type outcomeJSON struct {
	InstructorID int64    `json:"instructorId"`
	Instructor   string   `json:"instructor"`
	Card         string   `json:"card"`
	URL          string   `json:"url"`
	Status       string   `json:"status"`
	Average      *float64 `json:"average,omitempty"`
	Count        *int     `json:"count,omitempty"`
	Error        string   `json:"error,omitempty"`
}

type crawlResultJSON struct {
	RunID          string        `json:"runId"`
	Reason         string        `json:"reason"`
	Cycles         int           `json:"cycles"`
	StagnantCycles int           `json:"stagnantCycles"`
	CardsSeen      int           `json:"cardsSeen"`
	NoMatch        int           `json:"noMatch"`
	Parsed         int           `json:"parsed"`
	Outcomes       []outcomeJSON `json:"outcomes"`
}

func renderCrawlResult(w io.Writer, format string, result *crawl.Result) error {
	if format == "json" {
		out := crawlResultJSON{
			RunID:          result.RunID,
			Reason:         string(result.Reason),
			Cycles:         result.Cycles,
			StagnantCycles: result.StagnantCycles,
			CardsSeen:      result.CardsSeen,
			NoMatch:        result.NoMatch,
			Parsed:         result.Parsed(),
			Outcomes:       make([]outcomeJSON, 0, len(result.Outcomes)),
		}
		for _, o := range result.Outcomes {
			oj := outcomeJSON{
				InstructorID: o.InstructorID,
				Instructor:   o.InstructorName,
				Card:         o.CardName,
				URL:          o.URL,
				Status:       string(o.Status),
				Error:        errString(o.Err),
			}
			if o.Rating != nil {
				oj.Average = o.Rating.Average
				oj.Count = o.Rating.Count
			}
			out.Outcomes = append(out.Outcomes, oj)
		}
		return writeJSON(w, out)
	}

	table := tablewriter.NewTable(w)
	table.Header("ID", "Instructor", "Card", "Status", "Rating", "Error")
	for _, o := range result.Outcomes {
		rating := ""
		if o.Rating != nil && o.Rating.Average != nil {
			rating = strconv.FormatFloat(*o.Rating.Average, 'f', 1, 64)
			if o.Rating.Count != nil {
				rating += " (" + strconv.Itoa(*o.Rating.Count) + ")"
			}
		}
		if err := table.Append(strconv.FormatInt(o.InstructorID, 10), o.InstructorName, o.CardName,
			string(o.Status), rating, errString(o.Err)); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "stopped: %s after %d cycle(s); %d card(s), %d match(es), %d parsed, %d without match\n",
		result.Reason, result.Cycles, result.CardsSeen, len(result.Outcomes), result.Parsed(), result.NoMatch)
	return err
}
