package extract

import (
	"fmt"
	"strings"

	"github.com/ziltek/calcombine/internal/workbook"
)

// ErrWorkbookUnreadable is returned when a workbook cannot be opened or one of its
// sheets cannot be read. It is the same value as workbook.ErrUnreadable.
var ErrWorkbookUnreadable = workbook.ErrUnreadable

// Warning is a non-fatal finding about one sheet.
type Warning struct {
	File    string   `json:"file,omitempty"`
	Sheet   string   `json:"sheet"`
	Label   string   `json:"label"`
	Cells   []string `json:"cells"`
	Message string   `json:"message"`
}

func (w Warning) String() string {
	if w.File == "" {
		return fmt.Sprintf("sheet %q: %s", w.Sheet, w.Message)
	}
	return fmt.Sprintf("%s sheet %q: %s", w.File, w.Sheet, w.Message)
}

// DuplicateWarning describes a label found in more than one cell. The last match is used.
func DuplicateWarning(file, sheet string, d Duplicate) Warning {
	return Warning{
		File:    file,
		Sheet:   sheet,
		Label:   d.Label,
		Cells:   d.Cells,
		Message: fmt.Sprintf("label %q found in %s; using %s", strings.TrimSpace(d.Label), strings.Join(d.Cells, ", "), d.Cells[len(d.Cells)-1]),
	}
}
