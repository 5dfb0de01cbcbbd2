package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ziltek/calcombine/internal/aggregate"
	"github.com/ziltek/calcombine/internal/extract"
	"github.com/ziltek/calcombine/internal/ingest"
	"github.com/ziltek/calcombine/internal/models"
	"github.com/ziltek/calcombine/internal/report"
)

func TestWriteCombineSummary_text(t *testing.T) {
	res := &aggregate.Result{
		Table:           models.Table{{}, {}, {}},
		SheetsProcessed: 3,
		Warnings: []extract.Warning{{
			File:    "mk1.xlsx",
			Sheet:   "Visit 1",
			Label:   "Client",
			Cells:   []string{"A1", "D1"},
			Message: `label "Client" found in A1, D1; using D1`,
		}},
	}
	var buf bytes.Buffer
	if err := WriteCombineSummary(&buf, NewCombineSummary(res, 2, "combine.csv"), OutputText); err != nil {
		t.Fatalf("WriteCombineSummary(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"Combined 3 sheets from 2 files into combine.csv", "(3 rows)", "warning: mk1.xlsx", "using D1"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteCombineSummary_skipped(t *testing.T) {
	var buf bytes.Buffer
	s := NewCombineSummary(&aggregate.Result{Skipped: true}, 2, "combine.csv")
	if err := WriteCombineSummary(&buf, s, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "up to date") {
		t.Errorf("skipped output: %q", buf.String())
	}
}

func TestWriteCombineSummary_JSON(t *testing.T) {
	res := &aggregate.Result{Table: models.Table{{}}, SheetsProcessed: 1}
	var buf bytes.Buffer
	if err := WriteCombineSummary(&buf, NewCombineSummary(res, 1, "out.csv"), OutputJSON); err != nil {
		t.Fatalf("WriteCombineSummary(json): %v", err)
	}
	var decoded CombineSummary
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Output != "out.csv" || decoded.Rows != 1 || decoded.Sheets != 1 || decoded.Skipped {
		t.Errorf("decoded: %+v", decoded)
	}
}

func TestWriteIngestResult_text(t *testing.T) {
	res := &ingest.Result{
		Filename: "mk2 Technical test Master copy.xlsx",
		Type:     "mk2",
		Records: []models.Record{
			{Sheet: models.StringPtr("Visit 1"), Client: models.StringPtr("Acme Labs")},
			{Sheet: models.StringPtr("Visit 2")},
		},
	}
	var buf bytes.Buffer
	if err := WriteIngestResult(&buf, res, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"Imported 2 records", "type mk2", "Visit 1", "Acme Labs", "Visit 2"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteReport(t *testing.T) {
	rep := Report{
		TestsPerYear: []report.Count{{Key: "2023", Count: 4}},
		Measurements: []report.Summary{{Column: models.ColBackgroundCap, N: 4, Mean: 4500}},
		Trends:       []report.Trend{{Column: models.ColBackgroundCap, N: 4, SlopePerYear: 12.5, RSquared: 0.9}},
	}
	var buf bytes.Buffer
	if err := WriteReport(&buf, rep, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"Tests per year", "2023", "Background_Cap", "mean=4500", "Trends", "slope/yr=12.5"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}

	buf.Reset()
	if err := WriteReport(&buf, Report{}, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "no dated records") || strings.Contains(buf.String(), "Trends") {
		t.Errorf("empty report: %q", buf.String())
	}

	buf.Reset()
	if err := WriteReport(&buf, rep, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded Report
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.TestsPerYear) != 1 || decoded.TestsPerYear[0].Count != 4 {
		t.Errorf("decoded: %+v", decoded)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		maxLen int
		want   string
	}{
		{"empty", "", 5, ""},
		{"short", "hi", 5, "hi"},
		{"exact", "hello", 5, "hello"},
		{"long", "hello world", 5, "hello..."},
		{"maxLen zero", "ab", 0, "ab"},
		{"maxLen negative", "ab", -1, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.s, tt.maxLen)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
			}
		})
	}
}
