package extract

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/ziltek/calcombine/internal/catalog"
	"github.com/ziltek/calcombine/internal/models"
)

// twoSheetWorkbook has a "Visit 1" sheet with a few labels and an empty "Visit 2".
func twoSheetWorkbook(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Visit 1"))
	_, err := f.NewSheet("Visit 2")
	require.NoError(t, err)
	cells := map[string]interface{}{
		"A1": "Client",
		"B1": "Acme",
		"A2": "Service date",
		"B2": time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC),
		"A3": "Background Cap (Minimum requirement = 4500 @ Gain = 255)",
		"B3": 5012.5,
		"A4": "Polystyrene P/S Cap (Minimum requirement = 4000 @ Gain = 255)",
		"B4": "4500",
		"D1": "Client",
		"E1": "Acme Labs",
	}
	for cell, v := range cells {
		require.NoError(t, f.SetCellValue("Visit 1", cell, v))
	}
	return f
}

func TestExtractBytes_twoSheets(t *testing.T) {
	f := twoSheetWorkbook(t)
	defer f.Close()
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	e := NewExtractor(catalog.Default())
	got, err := e.ExtractBytes(buf.Bytes(), "mk1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0].Record
	assert.Equal(t, "Visit 1", got[0].Sheet)
	assert.Equal(t, "mk1", *first.MKType)
	assert.Equal(t, "Visit 1", *first.Sheet)
	assert.Equal(t, "Acme Labs", *first.Client)
	assert.Equal(t, "2023-03-14", *first.ServiceDate)
	assert.Equal(t, 5012.5, *first.BackgroundCap)
	assert.Nil(t, first.PolystyrenePSCap)
	assert.Nil(t, first.Country)
	require.Len(t, got[0].Duplicates, 1)
	assert.Equal(t, []string{"A1", "D1"}, got[0].Duplicates[0].Cells)

	second := got[1].Record
	assert.Equal(t, "mk1", *second.MKType)
	assert.Equal(t, "Visit 2", *second.Sheet)
	for _, col := range models.ColumnNames()[2:] {
		assert.Nil(t, second.Value(col), col)
	}
	assert.Empty(t, got[1].Duplicates)
}

func TestExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mk2 Technical test Master copy.xlsx")
	f := twoSheetWorkbook(t)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	var visited []string
	e := NewExtractor(catalog.Default())
	got, err := e.ExtractFile(path, "mk2")
	require.NoError(t, err)
	for _, sr := range got {
		visited = append(visited, sr.Sheet)
	}
	assert.Equal(t, []string{"Visit 1", "Visit 2"}, visited)
}

func TestExtract_unreadable(t *testing.T) {
	e := NewExtractor(catalog.Default())
	_, err := e.ExtractBytes([]byte("PK not really"), "mk1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWorkbookUnreadable))

	_, err = e.ExtractFile(filepath.Join(t.TempDir(), "missing.xlsx"), "mk1")
	assert.True(t, errors.Is(err, ErrWorkbookUnreadable))
}

func TestDuplicateWarning(t *testing.T) {
	w := DuplicateWarning("a.xlsx", "Visit 1", Duplicate{Label: "Client", Cells: []string{"A1", "D1"}})
	assert.Equal(t, "Client", w.Label)
	assert.Equal(t, `label "Client" found in A1, D1; using D1`, w.Message)
	assert.Equal(t, `a.xlsx sheet "Visit 1": label "Client" found in A1, D1; using D1`, w.String())
}
