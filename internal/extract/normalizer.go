package extract

import (
	"time"

	"github.com/ziltek/calcombine/internal/catalog"
	"github.com/ziltek/calcombine/internal/models"
	"github.com/ziltek/calcombine/internal/workbook"
)

// serviceDateInput is the day-first layout technicians type into the service date cell.
// Day and month may be one or two digits.
const serviceDateInput = "2/1/2006"

// Normalizer turns the raw values of a scan into a canonical record.
type Normalizer struct {
	catalog *catalog.Catalog
}

// NewNormalizer returns a normalizer over cat.
func NewNormalizer(cat *catalog.Catalog) *Normalizer {
	return &Normalizer{catalog: cat}
}

// Normalize builds the record for one sheet. MK_Type and Sheet come from the arguments;
// every other column is read from raw through the catalog. When several labels feed the
// same column, the first label in catalog order with a non-empty value wins.
func (n *Normalizer) Normalize(raw RawFieldMap, sourceType, sheetName string) models.Record {
	rec := models.Record{
		MKType: models.StringPtr(sourceType),
		Sheet:  models.StringPtr(sheetName),
	}
	for _, col := range models.Columns {
		if col.Name == models.ColMKType || col.Name == models.ColSheet {
			continue
		}
		v := n.resolve(raw, col.Name)
		switch col.Kind {
		case models.KindDate:
			_ = rec.SetText(col.Name, NormalizeDate(v))
		case models.KindNumber:
			_ = rec.SetNumber(col.Name, NormalizeNumber(v))
		default:
			_ = rec.SetText(col.Name, NormalizeText(v))
		}
	}
	return rec
}

func (n *Normalizer) resolve(raw RawFieldMap, column string) workbook.Value {
	for _, l := range n.catalog.LabelsFor(column) {
		if v, ok := raw[l.Text]; ok && !v.IsEmpty() {
			return v
		}
	}
	return workbook.Value{}
}

// NormalizeDate renders a service date as YYYY-MM-DD. Date cells are formatted directly;
// anything else must be exactly D/M/YYYY or it becomes "N/A". Empty stays nil.
func NormalizeDate(v workbook.Value) *string {
	switch v.Kind {
	case workbook.Empty:
		return nil
	case workbook.Date:
		return models.StringPtr(v.Time.Format(models.ServiceDateLayout))
	}
	t, err := time.Parse(serviceDateInput, v.String())
	if err != nil {
		return models.StringPtr(models.NotAvailable)
	}
	return models.StringPtr(t.Format(models.ServiceDateLayout))
}

// NormalizeNumber keeps numeric cells only. Text that looks like a number is still text.
func NormalizeNumber(v workbook.Value) *float64 {
	if v.Kind != workbook.Number {
		return nil
	}
	return models.FloatPtr(v.Number)
}

// NormalizeText passes any non-empty value through in its string form.
func NormalizeText(v workbook.Value) *string {
	if v.IsEmpty() {
		return nil
	}
	return models.StringPtr(v.String())
}
