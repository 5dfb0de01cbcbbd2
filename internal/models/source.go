package models

import (
	"path/filepath"
	"strings"
	"unicode"
)

// WorkbookExtensions are the file extensions read as calibration workbooks.
var WorkbookExtensions = []string{".xlsx", ".xlsm"}

// IsWorkbook reports whether name has a workbook extension. Office lock files ("~$...") are not workbooks.
func IsWorkbook(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, e := range WorkbookExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// SourceTypeFromFilename returns the leading token of a workbook file name, which the
// master copies use as their template tag: "mk1 Technical test Master copy.xlsm" is "mk1".
func SourceTypeFromFilename(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	fields := strings.FieldsFunc(base, func(r rune) bool {
		return unicode.IsSpace(r) || r == '_' || r == '-'
	})
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
