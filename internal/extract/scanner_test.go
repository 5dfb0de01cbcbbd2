package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ziltek/calcombine/internal/catalog"
	"github.com/ziltek/calcombine/internal/workbook"
)

func text(s string) workbook.Value { return workbook.TextValue(s) }

func num(f float64) workbook.Value { return workbook.NumberValue(f) }

var blank = workbook.Value{}

func TestScan_everyLabelOnce(t *testing.T) {
	cat := catalog.Default()
	var rows [][]workbook.Value
	want := make(map[string]workbook.Value)
	for i, l := range cat.Labels() {
		v := num(float64(1000 + i))
		row := []workbook.Value{blank, text(l.Text), blank, blank}
		row[1+int(l.Offset)] = v
		rows = append(rows, row)
		want[l.Text] = v
	}

	res := NewScanner(cat).Scan(workbook.NewSheet("Visit", rows))
	require.Len(t, res.Fields, cat.Len())
	for label, v := range want {
		assert.Equal(t, v, res.Fields[label], label)
	}
	assert.Empty(t, res.Duplicates)
}

func TestScan_noLabels(t *testing.T) {
	cat := catalog.Default()
	sheet := workbook.NewSheet("Notes", [][]workbook.Value{
		{text("nothing"), num(1), text("to see")},
		{blank, text("here")},
	})
	res := NewScanner(cat).Scan(sheet)
	require.Len(t, res.Fields, cat.Len())
	for label, v := range res.Fields {
		assert.True(t, v.IsEmpty(), label)
	}
}

func TestScan_substringMatch(t *testing.T) {
	cat := catalog.Default()
	sheet := workbook.NewSheet("s", [][]workbook.Value{
		{text("  Client name:"), text("Acme")},
	})
	res := NewScanner(cat).Scan(sheet)
	assert.Equal(t, text("Acme"), res.Fields["Client"])
}

func TestScan_offsetOutOfBounds(t *testing.T) {
	cat := catalog.Default()
	sheet := workbook.NewSheet("s", [][]workbook.Value{
		{text("Country")},
	})
	res := NewScanner(cat).Scan(sheet)
	assert.True(t, res.Fields["Country"].IsEmpty())
	assert.Empty(t, res.Duplicates)
}

func TestScan_lastMatchWins(t *testing.T) {
	cat := catalog.Default()
	sheet := workbook.NewSheet("s", [][]workbook.Value{
		{text("Client"), text("First")},
		{text("Client"), blank},
		{text("Client"), text("Last")},
	})
	res := NewScanner(cat).Scan(sheet)
	assert.Equal(t, text("Last"), res.Fields["Client"])
	require.Len(t, res.Duplicates, 1)
	assert.Equal(t, Duplicate{Label: "Client", Cells: []string{"A1", "A2", "A3"}}, res.Duplicates[0])
}

func TestScan_emptyTargetKeepsEarlierValue(t *testing.T) {
	cat := catalog.Default()
	sheet := workbook.NewSheet("s", [][]workbook.Value{
		{text("Client"), text("Acme")},
		{blank, blank, text("Client")},
	})
	res := NewScanner(cat).Scan(sheet)
	assert.Equal(t, text("Acme"), res.Fields["Client"])
	require.Len(t, res.Duplicates, 1)
	assert.Equal(t, []string{"A1", "C2"}, res.Duplicates[0].Cells)
}

func TestScan_skipOffset(t *testing.T) {
	cat, err := catalog.New([]catalog.LabelSpec{
		{Text: "Beam", Offset: catalog.Skip, Column: "Single_beam_spectrum_2600_3000"},
	})
	require.NoError(t, err)
	sheet := workbook.NewSheet("s", [][]workbook.Value{
		{text("Beam"), text("unit"), num(7.5)},
	})
	res := NewScanner(cat).Scan(sheet)
	assert.Equal(t, num(7.5), res.Fields["Beam"])
}

func TestScan_numericCellsMatchOnStringForm(t *testing.T) {
	cat, err := catalog.New([]catalog.LabelSpec{
		{Text: "4500", Offset: catalog.Adjacent, Column: "Background_Cap"},
	})
	require.NoError(t, err)
	sheet := workbook.NewSheet("s", [][]workbook.Value{
		{num(4500), num(12)},
	})
	res := NewScanner(cat).Scan(sheet)
	assert.Equal(t, num(12), res.Fields["4500"])
}
