package report

import (
	"time"

	"shoezclean/backend/internal/domain"
)

// Point is one bucket of a revenue chart.
type Point struct {
	Label   string    `json:"label"`
	Start   time.Time `json:"start"`
	Revenue int64     `json:"revenue"`
	Orders  int       `json:"orders"`
}

func fill(points []Point, width func(Point) Window, orders []domain.Order, filter BranchFilter) []Point {
	for i := range points {
		w := width(points[i])
		for _, o := range orders {
			if o.PaymentStatus != domain.PaymentPaid || !filter.Match(o.BranchID) || !w.Contains(o.CreatedAt) {
				continue
			}
			points[i].Revenue += o.Total
			points[i].Orders++
		}
	}
	return points
}

// DailySeries returns paid revenue for the last days days, today last.
func DailySeries(orders []domain.Order, now time.Time, days int, filter BranchFilter) []Point {
	if days < 1 {
		days = 1
	}
	today := startOfDay(now)
	points := make([]Point, days)
	for i := range points {
		start := today.AddDate(0, 0, i-days+1)
		points[i] = Point{Label: start.Format("2006-01-02"), Start: start}
	}
	return fill(points, func(p Point) Window {
		return Window{Start: p.Start, End: p.Start.AddDate(0, 0, 1)}
	}, orders, filter)
}

// HourlySeries returns paid revenue for each hour of now's day.
func HourlySeries(orders []domain.Order, now time.Time, filter BranchFilter) []Point {
	today := startOfDay(now)
	points := make([]Point, 24)
	for h := range points {
		start := time.Date(today.Year(), today.Month(), today.Day(), h, 0, 0, 0, today.Location())
		points[h] = Point{Label: start.Format("15:04"), Start: start}
	}
	return fill(points, func(p Point) Window {
		return Window{Start: p.Start, End: p.Start.Add(time.Hour)}
	}, orders, filter)
}

// MonthlySeries returns paid revenue for each month of year in loc.
func MonthlySeries(orders []domain.Order, year int, loc *time.Location, filter BranchFilter) []Point {
	if loc == nil {
		loc = time.UTC
	}
	points := make([]Point, 12)
	for m := range points {
		start := time.Date(year, time.Month(m+1), 1, 0, 0, 0, 0, loc)
		points[m] = Point{Label: start.Format("2006-01"), Start: start}
	}
	return fill(points, func(p Point) Window {
		return Window{Start: p.Start, End: p.Start.AddDate(0, 1, 0)}
	}, orders, filter)
}
