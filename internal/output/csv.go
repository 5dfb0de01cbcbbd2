// Package output serializes combined calibration tables as CSV artifacts.
package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ziltek/calcombine/internal/models"
)

// ErrBadHeader is returned by ReadCSV when the header row is not the canonical column list.
var ErrBadHeader = errors.New("unexpected csv header")

// WriteCSV writes table with a header of the canonical columns. Nil values are empty fields
// and numbers use their shortest decimal form.
func WriteCSV(w io.Writer, table models.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.ColumnNames()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(models.Columns))
	for i := range table {
		for c, col := range models.Columns {
			row[c] = formatField(&table[i], col)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatField(r *models.Record, col models.Column) string {
	if col.Kind == models.KindNumber {
		if n := r.Number(col.Name); n != nil {
			return strconv.FormatFloat(*n, 'f', -1, 64)
		}
		return ""
	}
	if s := r.Text(col.Name); s != nil {
		return *s
	}
	return ""
}

// WriteFileAtomic writes table to path through a temporary file in the same directory,
// so readers see either the previous artifact or the complete new one.
func WriteFileAtomic(path string, table models.Table) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if err = WriteCSV(tmp, table); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

// ReadCSV parses an artifact written by WriteCSV. Empty fields read back as nil.
func ReadCSV(r io.Reader) (models.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(models.Columns)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrBadHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, name := range models.ColumnNames() {
		if header[i] != name {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrBadHeader, i+1, header[i], name)
		}
	}
	var table models.Table
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		var rec models.Record
		for c, col := range models.Columns {
			v := fields[c]
			if v == "" {
				continue
			}
			if col.Kind == models.KindNumber {
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d column %s: %w", line, col.Name, err)
				}
				_ = rec.SetNumber(col.Name, &f)
				continue
			}
			_ = rec.SetText(col.Name, models.StringPtr(v))
		}
		table = append(table, rec)
	}
	return table, nil
}

// ReadFile reads the artifact at path.
func ReadFile(path string) (models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}
