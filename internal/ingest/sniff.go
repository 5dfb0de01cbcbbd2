package ingest

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ziltek/calcombine/internal/extract"
)

// checkWorkbook rejects content that is not a zip container before it reaches the workbook
// reader. Both .xlsx and .xlsm are zip packages.
func checkWorkbook(data []byte) error {
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return nil
		}
	}
	return fmt.Errorf("%w: content is %s", extract.ErrWorkbookUnreadable, detected.String())
}
