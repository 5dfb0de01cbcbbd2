// Package report computes the test count and measurement summaries shown on the dashboard.
package report

import (
	"sort"
	"strconv"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/ziltek/calcombine/internal/models"
)

// Count is the number of tests for one key (a year or a month name).
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

func serviceDate(r *models.Record) (time.Time, bool) {
	if r.ServiceDate == nil || *r.ServiceDate == models.NotAvailable {
		return time.Time{}, false
	}
	t, err := time.Parse(models.ServiceDateLayout, *r.ServiceDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// TestsPerYear counts records by service date year, in ascending year order. Records
// without a usable service date are not counted.
func TestsPerYear(records []models.Record) []Count {
	byYear := make(map[int]int)
	for i := range records {
		if t, ok := serviceDate(&records[i]); ok {
			byYear[t.Year()]++
		}
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	out := make([]Count, 0, len(years))
	for _, y := range years {
		out = append(out, Count{Key: strconv.Itoa(y), Count: byYear[y]})
	}
	return out
}

// TestsPerMonth counts the records of one year by month. Months without tests are left
// out; the rest are named ("January") in calendar order.
func TestsPerMonth(records []models.Record, year int) []Count {
	var byMonth [13]int
	for i := range records {
		if t, ok := serviceDate(&records[i]); ok && t.Year() == year {
			byMonth[t.Month()]++
		}
	}
	var out []Count
	for m := time.January; m <= time.December; m++ {
		if byMonth[m] > 0 {
			out = append(out, Count{Key: m.String(), Count: byMonth[m]})
		}
	}
	return out
}

// Summary describes the non-nil values of one measurement column.
type Summary struct {
	Column string  `json:"column"`
	N      int     `json:"n"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

// Measurements summarises every measurement column in canonical order. A column with no
// values has N == 0 and zero statistics.
func Measurements(records []models.Record) ([]Summary, error) {
	var out []Summary
	for _, col := range models.MeasurementColumns() {
		data := columnValues(records, col)
		s := Summary{Column: col, N: len(data)}
		if len(data) > 0 {
			var err error
			if s.Min, err = stats.Min(data); err != nil {
				return nil, err
			}
			if s.Max, err = stats.Max(data); err != nil {
				return nil, err
			}
			if s.Mean, err = stats.Mean(data); err != nil {
				return nil, err
			}
			if s.Median, err = stats.Median(data); err != nil {
				return nil, err
			}
			if s.StdDev, err = stats.StandardDeviation(data); err != nil {
				return nil, err
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func columnValues(records []models.Record, col string) stats.Float64Data {
	var data stats.Float64Data
	for i := range records {
		if v := records[i].Number(col); v != nil {
			data = append(data, *v)
		}
	}
	return data
}
