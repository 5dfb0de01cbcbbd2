package report

import (
	"time"

	"github.com/ziltek/calcombine/internal/models"
	"gonum.org/v1/gonum/stat"
)

// Trend is a least-squares line through one measurement column against service date,
// with x in decimal years. SlopePerYear is the fitted change per year.
type Trend struct {
	Column       string  `json:"column"`
	N            int     `json:"n"`
	SlopePerYear float64 `json:"slope_per_year"`
	Intercept    float64 `json:"intercept"`
	RSquared     float64 `json:"r_squared"`
}

// Trends fits every measurement column that has at least two dated values on distinct days.
// Columns that cannot be fitted are omitted.
func Trends(records []models.Record) []Trend {
	var out []Trend
	for _, col := range models.MeasurementColumns() {
		var xs, ys []float64
		for i := range records {
			v := records[i].Number(col)
			t, ok := serviceDate(&records[i])
			if v == nil || !ok {
				continue
			}
			xs = append(xs, decimalYear(t))
			ys = append(ys, *v)
		}
		if !spread(xs) {
			continue
		}
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		// R squared is 0/0 when every value is the same; report such a flat line as 0.
		r2 := 0.0
		if spread(ys) {
			r2 = stat.RSquared(xs, ys, nil, alpha, beta)
		}
		out = append(out, Trend{
			Column:       col,
			N:            len(xs),
			SlopePerYear: beta,
			Intercept:    alpha,
			RSquared:     r2,
		})
	}
	return out
}

func spread(xs []float64) bool {
	for _, x := range xs {
		if x != xs[0] {
			return true
		}
	}
	return false
}

func decimalYear(t time.Time) float64 {
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	return float64(t.Year()) + t.Sub(start).Hours()/end.Sub(start).Hours()
}
