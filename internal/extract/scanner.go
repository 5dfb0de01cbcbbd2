package extract

import (
	"strings"

	"github.com/xuri/excelize/v2"
	"github.com/ziltek/calcombine/internal/catalog"
	"github.com/ziltek/calcombine/internal/workbook"
)

// Sheet is the read-only view of a worksheet the scanner needs.
type Sheet interface {
	Name() string
	MaxRow() int
	MaxCol() int
	// Cell returns the value at 1-based row and col; out of bounds is Empty.
	Cell(row, col int) workbook.Value
}

// RawFieldMap maps every catalog label to the raw value found for it.
// Labels never found map to an Empty value.
type RawFieldMap map[string]workbook.Value

// Duplicate reports a label that matched more than one cell in a sheet.
type Duplicate struct {
	Label string   `json:"label"`
	Cells []string `json:"cells"`
}

// ScanResult is the outcome of scanning one sheet.
type ScanResult struct {
	Fields     RawFieldMap
	Duplicates []Duplicate
}

// Scanner finds catalog labels in a sheet and reads the value at each label's offset.
type Scanner struct {
	catalog *catalog.Catalog
}

// NewScanner returns a scanner over cat.
func NewScanner(cat *catalog.Catalog) *Scanner {
	return &Scanner{catalog: cat}
}

// Scan visits every cell once in row-major order. A cell matches a label when its string
// form contains the label. The value at the label's offset is stored when non-empty, and
// a later match overwrites an earlier one. Labels matching several cells are reported in
// Duplicates; the stored values are not affected.
func (s *Scanner) Scan(sheet Sheet) ScanResult {
	labels := s.catalog.Labels()
	fields := make(RawFieldMap, len(labels))
	for _, l := range labels {
		fields[l.Text] = workbook.Value{}
	}
	matches := make(map[string][]string)

	maxRow, maxCol := sheet.MaxRow(), sheet.MaxCol()
	for row := 1; row <= maxRow; row++ {
		for col := 1; col <= maxCol; col++ {
			cell := sheet.Cell(row, col)
			if cell.IsEmpty() {
				continue
			}
			text := cell.String()
			for _, l := range labels {
				if !strings.Contains(text, l.Text) {
					continue
				}
				matches[l.Text] = append(matches[l.Text], cellName(row, col))
				if target := sheet.Cell(row, col+int(l.Offset)); !target.IsEmpty() {
					fields[l.Text] = target
				}
			}
		}
	}

	var dups []Duplicate
	for _, l := range labels {
		if cells := matches[l.Text]; len(cells) > 1 {
			dups = append(dups, Duplicate{Label: l.Text, Cells: cells})
		}
	}
	return ScanResult{Fields: fields, Duplicates: dups}
}

func cellName(row, col int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ""
	}
	return name
}
