package workbook

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrUnreadable is returned when a file is not a workbook that can be opened or read.
var ErrUnreadable = errors.New("workbook unreadable")

// Workbook is an open, read-only workbook. Close releases it.
type Workbook struct {
	f        *excelize.File
	date1904 bool
	dateFmt  map[int]formatKind // style index -> number format kind
}

// Open opens the workbook at path.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnreadable, path, err)
	}
	return newWorkbook(f)
}

// OpenBytes opens a workbook from its file content.
func OpenBytes(content []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrUnreadable, err)
	}
	return newWorkbook(f)
}

func newWorkbook(f *excelize.File) (*Workbook, error) {
	wb := &Workbook{f: f, dateFmt: make(map[int]formatKind)}
	props, err := f.GetWorkbookProps()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: workbook properties: %v", ErrUnreadable, err)
	}
	if props.Date1904 != nil {
		wb.date1904 = *props.Date1904
	}
	return wb, nil
}

// SheetNames returns the worksheet names in workbook order.
func (wb *Workbook) SheetNames() []string {
	return wb.f.GetSheetList()
}

// Sheet reads the named worksheet in full.
func (wb *Workbook) Sheet(name string) (*Sheet, error) {
	rows, err := wb.f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrUnreadable, name, err)
	}
	sheet := &Sheet{name: name, rows: make([][]Value, len(rows))}
	for r, row := range rows {
		values := make([]Value, len(row))
		for c, raw := range row {
			if raw == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, fmt.Errorf("%w: sheet %q: %v", ErrUnreadable, name, err)
			}
			v, err := wb.cellValue(name, cell, raw)
			if err != nil {
				return nil, fmt.Errorf("%w: sheet %q cell %s: %v", ErrUnreadable, name, cell, err)
			}
			values[c] = v
			if c+1 > sheet.maxCol {
				sheet.maxCol = c + 1
			}
		}
		sheet.rows[r] = values
	}
	return sheet, nil
}

// cellValue classifies a raw cell string using the stored cell type and number format.
func (wb *Workbook) cellValue(sheet, cell, raw string) (Value, error) {
	typ, err := wb.f.GetCellType(sheet, cell)
	if err != nil {
		return Value{}, err
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return TextValue(raw), nil
	case excelize.CellTypeBool:
		if raw == "1" || strings.EqualFold(raw, "true") {
			return TextValue("TRUE"), nil
		}
		return TextValue("FALSE"), nil
	case excelize.CellTypeDate:
		if t, ok := parseISODate(raw); ok {
			return DateValue(t), nil
		}
		return TextValue(raw), nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return TextValue(raw), nil
	}
	kind, err := wb.formatKind(sheet, cell)
	if err != nil {
		return Value{}, err
	}
	switch {
	case kind == plainFormat:
	case kind == timeFormat || (f >= 0 && f < 1):
		// A time of day or a duration carries no calendar date.
		return TextValue(clockText(f)), nil
	default:
		t, err := excelize.ExcelDateToTime(f, wb.date1904)
		if err == nil {
			return DateValue(t), nil
		}
	}
	return NumberValue(f), nil
}

func (wb *Workbook) formatKind(sheet, cell string) (formatKind, error) {
	idx, err := wb.f.GetCellStyle(sheet, cell)
	if err != nil {
		return plainFormat, err
	}
	if kind, ok := wb.dateFmt[idx]; ok {
		return kind, nil
	}
	style, err := wb.f.GetStyle(idx)
	if err != nil {
		// A dangling style index is not worth failing the sheet over.
		wb.dateFmt[idx] = plainFormat
		return plainFormat, nil
	}
	kind := classifyFormat(style.NumFmt, style.CustomNumFmt)
	wb.dateFmt[idx] = kind
	return kind, nil
}

// clockText renders a serial day fraction as hh:mm:ss, with hours past 24 for durations.
func clockText(serial float64) string {
	d := time.Duration(math.Round(math.Abs(serial) * 86400)) * time.Second
	h := int64(d / time.Hour)
	m := int64(d%time.Hour) / int64(time.Minute)
	sec := int64(d%time.Minute) / int64(time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

var isoDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseISODate(raw string) (time.Time, bool) {
	for _, layout := range isoDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Close releases the workbook.
func (wb *Workbook) Close() error {
	return wb.f.Close()
}

// Sheet is a fully read worksheet. Rows may be ragged; cells beyond a row's end are Empty.
type Sheet struct {
	name   string
	rows   [][]Value
	maxCol int
}

// NewSheet builds a sheet from a grid of values. rows[0][0] is cell A1.
func NewSheet(name string, rows [][]Value) *Sheet {
	s := &Sheet{name: name, rows: rows}
	for _, row := range rows {
		if len(row) > s.maxCol {
			s.maxCol = len(row)
		}
	}
	return s
}

// Name returns the worksheet name.
func (s *Sheet) Name() string { return s.name }

// MaxRow returns the number of rows read.
func (s *Sheet) MaxRow() int { return len(s.rows) }

// MaxCol returns the widest row length.
func (s *Sheet) MaxCol() int { return s.maxCol }

// Cell returns the value at 1-based row and col. Out of bounds yields an Empty value.
func (s *Sheet) Cell(row, col int) Value {
	if row < 1 || row > len(s.rows) {
		return Value{}
	}
	r := s.rows[row-1]
	if col < 1 || col > len(r) {
		return Value{}
	}
	return r[col-1]
}
