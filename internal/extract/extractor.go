// Package extract scrapes labelled values out of calibration workbooks into normalized records.
package extract

import (
	"github.com/ziltek/calcombine/internal/catalog"
	"github.com/ziltek/calcombine/internal/models"
	"github.com/ziltek/calcombine/internal/workbook"
	"go.uber.org/zap"
)

// SheetRecord is the record extracted from one worksheet together with its scan diagnostics.
type SheetRecord struct {
	Sheet      string
	Record     models.Record
	Duplicates []Duplicate
}

// Extractor runs the scanner and normalizer over every worksheet of a workbook.
type Extractor struct {
	scanner    *Scanner
	normalizer *Normalizer
	logger     *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used for per-sheet debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExtractor returns an Extractor over cat.
func NewExtractor(cat *catalog.Catalog, opts ...Option) *Extractor {
	e := &Extractor{
		scanner:    NewScanner(cat),
		normalizer: NewNormalizer(cat),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractFile opens the workbook at path and extracts one record per worksheet, in
// workbook order. Failures to open or read wrap ErrWorkbookUnreadable.
func (e *Extractor) ExtractFile(path, sourceType string) ([]SheetRecord, error) {
	wb, err := workbook.Open(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	return e.ExtractWorkbook(wb, sourceType, nil)
}

// ExtractBytes is ExtractFile for workbook content held in memory, such as an upload.
func (e *Extractor) ExtractBytes(content []byte, sourceType string) ([]SheetRecord, error) {
	wb, err := workbook.OpenBytes(content)
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	return e.ExtractWorkbook(wb, sourceType, nil)
}
