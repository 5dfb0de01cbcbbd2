// Package fileid derives stable record IDs for rows scraped from workbook sheets.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/ziltek/calcombine/internal/models"
)

const prefix = "sheet:"

// RecordID returns a stable ID for the n-th record (from 0) taken from a sheet of the given
// source type. Re-importing the same sheet yields the same ID.
func RecordID(sourceType, sheet string, n int) string {
	return ScopedRecordID("", sourceType, sheet, n)
}

// ScopedRecordID is RecordID within scope, typically the uploaded file name. Sheets with
// the same type and name in different scopes get different IDs.
func ScopedRecordID(scope, sourceType, sheet string, n int) string {
	h := sha256.New()
	for _, part := range []string{scope, sourceType, sheet} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write([]byte(strconv.Itoa(n)))
	return prefix + hex.EncodeToString(h.Sum(nil))[:32]
}

// AssignRecordIDs sets a RecordID on every record that has none. Records sharing a source
// type and sheet name are numbered in table order so their IDs stay distinct.
func AssignRecordIDs(table models.Table) {
	AssignScopedRecordIDs("", table)
}

// AssignScopedRecordIDs is AssignRecordIDs using ScopedRecordID.
func AssignScopedRecordIDs(scope string, table models.Table) {
	seen := make(map[[2]string]int)
	for i := range table {
		r := &table[i]
		if r.ID != "" {
			continue
		}
		key := [2]string{deref(r.MKType), deref(r.Sheet)}
		r.ID = ScopedRecordID(scope, key[0], key[1], seen[key])
		seen[key]++
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
