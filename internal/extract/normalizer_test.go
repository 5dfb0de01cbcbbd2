package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ziltek/calcombine/internal/catalog"
	"github.com/ziltek/calcombine/internal/models"
	"github.com/ziltek/calcombine/internal/workbook"
)

func TestNormalize_allColumnsPresent(t *testing.T) {
	n := NewNormalizer(catalog.Default())
	rec := n.Normalize(RawFieldMap{}, "mk1", "Visit 1")

	require.NotNil(t, rec.MKType)
	require.NotNil(t, rec.Sheet)
	assert.Equal(t, "mk1", *rec.MKType)
	assert.Equal(t, "Visit 1", *rec.Sheet)
	for _, col := range models.ColumnNames()[2:] {
		assert.Nil(t, rec.Value(col), col)
	}
	assert.Len(t, models.ColumnNames(), 16)
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name string
		in   workbook.Value
		want *string
	}{
		{"native date", workbook.DateValue(time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC)), models.StringPtr("2023-03-14")},
		{"date with time", workbook.DateValue(time.Date(2023, 3, 14, 16, 45, 0, 0, time.UTC)), models.StringPtr("2023-03-14")},
		{"day first text", text("14/03/2023"), models.StringPtr("2023-03-14")},
		{"single digits", text("4/3/2023"), models.StringPtr("2023-03-04")},
		{"month name", text("March 14"), models.StringPtr(models.NotAvailable)},
		{"iso text", text("2023-03-14"), models.StringPtr(models.NotAvailable)},
		{"impossible day", text("31/02/2023"), models.StringPtr(models.NotAvailable)},
		{"trailing text", text("14/03/2023 am"), models.StringPtr(models.NotAvailable)},
		{"number", num(44999), models.StringPtr(models.NotAvailable)},
		{"time of day", text("09:30:00"), models.StringPtr(models.NotAvailable)},
		{"empty", blank, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.in))
		})
	}
}

func TestNormalizeNumber(t *testing.T) {
	assert.Equal(t, models.FloatPtr(4500), NormalizeNumber(num(4500.0)))
	assert.Equal(t, models.FloatPtr(0.25), NormalizeNumber(num(0.25)))
	assert.Nil(t, NormalizeNumber(text("4500")))
	assert.Nil(t, NormalizeNumber(text("TRUE")))
	assert.Nil(t, NormalizeNumber(workbook.DateValue(time.Now())))
	assert.Nil(t, NormalizeNumber(blank))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, models.StringPtr("Acme"), NormalizeText(text("Acme")))
	assert.Equal(t, models.StringPtr("20455"), NormalizeText(num(20455)))
	assert.Nil(t, NormalizeText(blank))
}

func TestNormalize_fields(t *testing.T) {
	raw := RawFieldMap{
		"Client":           text("Acme"),
		"Country":          text("Australia"),
		"Service date":     text("14/03/2023"),
		"RemScan Serial #": num(1042),
	}
	raw["Background Cap (Minimum requirement = 4500 @ Gain = 255)"] = num(5012.5)
	raw["Polystyrene P/S Cap (Minimum requirement = 4000 @ Gain = 255)"] = text("4500")
	rec := NewNormalizer(catalog.Default()).Normalize(raw, "mk2", "Sheet1")

	assert.Equal(t, "Acme", *rec.Client)
	assert.Equal(t, "Australia", *rec.Country)
	assert.Equal(t, "2023-03-14", *rec.ServiceDate)
	assert.Equal(t, "1042", *rec.RemScanSerial)
	assert.Equal(t, 5012.5, *rec.BackgroundCap)
	assert.Nil(t, rec.PolystyrenePSCap)
	assert.Nil(t, rec.UserID)
}

func TestNormalize_aliasesFirstNonEmptyWins(t *testing.T) {
	labels := catalog.Default().LabelsFor(models.ColSingleBeamSpectrum4200)
	require.Len(t, labels, 2)
	n := NewNormalizer(catalog.Default())

	rec := n.Normalize(RawFieldMap{labels[0].Text: blank, labels[1].Text: num(1.4)}, "mk1", "s")
	assert.Equal(t, 1.4, *rec.SingleBeamSpectrum4200)

	rec = n.Normalize(RawFieldMap{labels[0].Text: num(2.1), labels[1].Text: num(1.4)}, "mk1", "s")
	assert.Equal(t, 2.1, *rec.SingleBeamSpectrum4200)
}
