// Package aggregate combines the records of many calibration workbooks into one table.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ziltek/calcombine/internal/extract"
	"github.com/ziltek/calcombine/internal/models"
	"github.com/ziltek/calcombine/internal/workbook"
	"go.uber.org/zap"
)

// ErrInputNotFound is returned when a configured input path does not exist.
var ErrInputNotFound = errors.New("input not found")

// ProgressFunc is called after each sheet with the running count of sheets processed.
type ProgressFunc func(processed int, file, sheet string)

// Result is the outcome of one aggregation run.
type Result struct {
	// Skipped is set when no input changed since the last output; Table is then nil.
	Skipped         bool
	Table           models.Table
	SheetsProcessed int
	Warnings        []extract.Warning
}

// Aggregator extracts every sheet of a list of workbooks into one table.
type Aggregator struct {
	extractor *extract.Extractor
	progress  ProgressFunc
	logger    *zap.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets a logger for debug output (sheet extracted, run skipped).
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithProgress sets a callback invoked after every sheet.
func WithProgress(fn ProgressFunc) Option {
	return func(a *Aggregator) { a.progress = fn }
}

// NewAggregator returns an Aggregator that uses ext for each workbook.
func NewAggregator(ext *extract.Extractor, opts ...Option) *Aggregator {
	a := &Aggregator{extractor: ext, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate stats every input, then returns a skipped result when none was modified after
// lastOutput. A zero lastOutput means there is no previous output. Otherwise each workbook
// is read in order, sheet by sheet, and its records appended to the table. Any unreadable
// workbook aborts the run and no table is returned.
func (a *Aggregator) Aggregate(ctx context.Context, files []models.SourceFile, lastOutput time.Time) (*Result, error) {
	infos, err := statInputs(files)
	if err != nil {
		return nil, err
	}
	if !changedSince(infos, lastOutput) {
		a.logger.Debug("inputs unchanged, skipping aggregation",
			zap.Int("files", len(files)),
			zap.Time("last_output", lastOutput))
		return &Result{Skipped: true}, nil
	}

	res := &Result{Table: models.Table{}}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := a.aggregateFile(f, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (a *Aggregator) aggregateFile(f models.SourceFile, res *Result) error {
	wb, err := workbook.Open(f.Path)
	if err != nil {
		return fmt.Errorf("%s: %w", f.Path, err)
	}
	defer wb.Close()

	_, err = a.extractor.ExtractWorkbook(wb, f.Type, func(sr extract.SheetRecord) {
		res.Table = append(res.Table, sr.Record)
		res.SheetsProcessed++
		for _, d := range sr.Duplicates {
			w := extract.DuplicateWarning(f.Path, sr.Sheet, d)
			res.Warnings = append(res.Warnings, w)
			a.logger.Warn("duplicate label", zap.String("path", f.Path), zap.String("sheet", sr.Sheet),
				zap.String("label", d.Label), zap.Strings("cells", d.Cells))
		}
		a.logger.Debug("sheet aggregated", zap.String("path", f.Path), zap.String("sheet", sr.Sheet),
			zap.Int("processed", res.SheetsProcessed))
		if a.progress != nil {
			a.progress(res.SheetsProcessed, f.Path, sr.Sheet)
		}
	})
	if err != nil {
		return fmt.Errorf("%s: %w", f.Path, err)
	}
	return nil
}

func statInputs(files []models.SourceFile) ([]os.FileInfo, error) {
	infos := make([]os.FileInfo, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrInputNotFound, f.Path)
			}
			return nil, fmt.Errorf("stat input: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", ErrInputNotFound, f.Path)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// changedSince reports whether any input was modified strictly after t.
func changedSince(infos []os.FileInfo, t time.Time) bool {
	for _, info := range infos {
		if info.ModTime().After(t) {
			return true
		}
	}
	return false
}
