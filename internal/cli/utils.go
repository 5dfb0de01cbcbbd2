// Package cli provides output helpers for the calcombine command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ziltek/calcombine/internal/aggregate"
	"github.com/ziltek/calcombine/internal/extract"
	"github.com/ziltek/calcombine/internal/ingest"
	"github.com/ziltek/calcombine/internal/report"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// CombineSummary is what the combine command reports.
type CombineSummary struct {
	Output   string            `json:"output"`
	Files    int               `json:"files"`
	Skipped  bool              `json:"skipped"`
	Sheets   int               `json:"sheets"`
	Rows     int               `json:"rows"`
	Warnings []extract.Warning `json:"warnings,omitempty"`
}

// NewCombineSummary summarises res for a run over files sources writing to outputPath.
func NewCombineSummary(res *aggregate.Result, files int, outputPath string) CombineSummary {
	return CombineSummary{
		Output:   outputPath,
		Files:    files,
		Skipped:  res.Skipped,
		Sheets:   res.SheetsProcessed,
		Rows:     len(res.Table),
		Warnings: res.Warnings,
	}
}

// WriteCombineSummary writes s to w in the given format.
func WriteCombineSummary(w io.Writer, s CombineSummary, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	if s.Skipped {
		fmt.Fprintf(w, "%s is up to date, nothing to do\n", s.Output)
		return nil
	}
	fmt.Fprintf(w, "Combined %d sheets from %d files into %s (%d rows)\n", s.Sheets, s.Files, s.Output, s.Rows)
	writeWarnings(w, s.Warnings)
	return nil
}

// WriteIngestResult writes the outcome of an import to w in the given format.
func WriteIngestResult(w io.Writer, res *ingest.Result, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "Imported %d records from %s (type %s)\n", len(res.Records), res.Filename, res.Type)
	for _, r := range res.Records {
		client := ""
		if r.Client != nil {
			client = Truncate(*r.Client, 40)
		}
		sheet := ""
		if r.Sheet != nil {
			sheet = *r.Sheet
		}
		fmt.Fprintf(w, "  %-20s %s\n", Truncate(sheet, 20), client)
	}
	writeWarnings(w, res.Warnings)
	return nil
}

// Report groups the reports printed by the report command.
type Report struct {
	TestsPerYear []report.Count   `json:"tests_per_year"`
	Measurements []report.Summary `json:"measurements"`
	Trends       []report.Trend   `json:"trends"`
}

// WriteReport writes rep to w in the given format.
func WriteReport(w io.Writer, rep Report, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, rep)
	}
	fmt.Fprintln(w, "Tests per year")
	if len(rep.TestsPerYear) == 0 {
		fmt.Fprintln(w, "  (no dated records)")
	}
	for _, c := range rep.TestsPerYear {
		fmt.Fprintf(w, "  %-6s %d\n", c.Key, c.Count)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Measurements")
	for _, s := range rep.Measurements {
		fmt.Fprintf(w, "  %-32s n=%-4d min=%.4g max=%.4g mean=%.4g median=%.4g sd=%.4g\n",
			s.Column, s.N, s.Min, s.Max, s.Mean, s.Median, s.StdDev)
	}
	if len(rep.Trends) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Trends")
		for _, t := range rep.Trends {
			fmt.Fprintf(w, "  %-32s n=%-4d slope/yr=%.4g r2=%.3f\n", t.Column, t.N, t.SlopePerYear, t.RSquared)
		}
	}
	return nil
}

func writeWarnings(w io.Writer, warnings []extract.Warning) {
	for _, wn := range warnings {
		fmt.Fprintf(w, "warning: %s\n", wn)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
