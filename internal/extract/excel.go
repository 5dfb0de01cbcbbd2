package extract

import (
	"github.com/ziltek/calcombine/internal/workbook"
	"go.uber.org/zap"
)

// ExtractWorkbook extracts every worksheet of an open workbook. If each is non-nil it is
// called after every sheet. The workbook stays open; the caller closes it.
func (e *Extractor) ExtractWorkbook(wb *workbook.Workbook, sourceType string, each func(SheetRecord)) ([]SheetRecord, error) {
	names := wb.SheetNames()
	out := make([]SheetRecord, 0, len(names))
	for _, name := range names {
		sheet, err := wb.Sheet(name)
		if err != nil {
			return nil, err
		}
		sr := e.ExtractSheet(sheet, sourceType)
		e.logger.Debug("extracted sheet",
			zap.String("type", sourceType),
			zap.String("sheet", name),
			zap.Int("rows", sheet.MaxRow()),
			zap.Int("duplicates", len(sr.Duplicates)))
		out = append(out, sr)
		if each != nil {
			each(sr)
		}
	}
	return out, nil
}

// ExtractSheet scans and normalizes a single sheet.
func (e *Extractor) ExtractSheet(sheet Sheet, sourceType string) SheetRecord {
	res := e.scanner.Scan(sheet)
	return SheetRecord{
		Sheet:      sheet.Name(),
		Record:     e.normalizer.Normalize(res.Fields, sourceType, sheet.Name()),
		Duplicates: res.Duplicates,
	}
}
