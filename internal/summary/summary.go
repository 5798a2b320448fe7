package summary

import (
	"github.com/shopspring/decimal"

	"github.com/northfarm/sales-backend/pkg/db/models"
)

// Row carries the yearly totals for a single location, split by whether the
// contributing dates were closed at aggregation time.
type Row struct {
	Location string          `json:"location"`
	Closed   decimal.Decimal `json:"closed"`
	Open     decimal.Decimal `json:"open"`
	Total    decimal.Decimal `json:"total"`
}

// Report is the yearly aggregation across every configured location.
// Locations with no entries still appear with zero rows.
type Report struct {
	Year        int             `json:"year"`
	Rows        []Row           `json:"rows"`
	ClosedTotal decimal.Decimal `json:"closed_total"`
	OpenTotal   decimal.Decimal `json:"open_total"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
}

// Summarize folds the given entries into per-location totals. The closed set
// keys are dates in YYYY-MM-DD form; entries on dates outside the set count
// toward the open totals. Entries for unknown locations are still counted,
// appended after the configured rows.
func Summarize(entries []models.SaleEntry, closed map[string]bool, year int, locations []string) *Report {
	report := &Report{
		Year:        year,
		Rows:        make([]Row, 0, len(locations)),
		ClosedTotal: decimal.Zero,
		OpenTotal:   decimal.Zero,
		GrandTotal:  decimal.Zero,
	}

	index := make(map[string]int, len(locations))
	for _, loc := range locations {
		index[loc] = len(report.Rows)
		report.Rows = append(report.Rows, Row{
			Location: loc,
			Closed:   decimal.Zero,
			Open:     decimal.Zero,
			Total:    decimal.Zero,
		})
	}

	for _, entry := range entries {
		if entry.Year() != year {
			continue
		}
		pos, ok := index[entry.Location]
		if !ok {
			index[entry.Location] = len(report.Rows)
			pos = len(report.Rows)
			report.Rows = append(report.Rows, Row{
				Location: entry.Location,
				Closed:   decimal.Zero,
				Open:     decimal.Zero,
				Total:    decimal.Zero,
			})
		}

		row := &report.Rows[pos]
		row.Total = row.Total.Add(entry.Amount)
		report.GrandTotal = report.GrandTotal.Add(entry.Amount)
		if closed[entry.Date] {
			row.Closed = row.Closed.Add(entry.Amount)
			report.ClosedTotal = report.ClosedTotal.Add(entry.Amount)
		} else {
			row.Open = row.Open.Add(entry.Amount)
			report.OpenTotal = report.OpenTotal.Add(entry.Amount)
		}
	}

	return report
}

// ClosedSet builds the date lookup Summarize expects from closure marks.
func ClosedSet(marks []models.ClosedDate) map[string]bool {
	set := make(map[string]bool, len(marks))
	for _, mark := range marks {
		set[mark.Date] = true
	}
	return set
}
