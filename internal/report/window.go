package report

import (
	"fmt"
	"strings"
	"time"

	"shoezclean/backend/internal/domain"
)

type Period string

const (
	PeriodToday  Period = "today"
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodYear   Period = "year"
	PeriodCustom Period = "custom"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodMonth, nil
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodYear, PeriodCustom:
		return p, nil
	default:
		return "", domain.NewValidationError("period", "must be one of today week month year custom")
	}
}

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Previous is the window of equal length that ends where w starts.
func (w Window) Previous() Window {
	length := w.End.Sub(w.Start)
	return Window{Start: w.Start.Add(-length), End: w.Start}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WindowFor resolves a reporting period in now's location. Calendar periods
// start at the beginning of the current day, week (Monday), month or year and
// run through the end of today. A custom window covers from through to, both
// days inclusive.
func WindowFor(period Period, now time.Time, from, to time.Time) (Window, error) {
	today := startOfDay(now)
	end := today.AddDate(0, 0, 1)
	switch period {
	case PeriodToday:
		return Window{Start: today, End: end}, nil
	case PeriodWeek:
		offset := (int(today.Weekday()) + 6) % 7
		return Window{Start: today.AddDate(0, 0, -offset), End: end}, nil
	case PeriodMonth:
		return Window{Start: time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()), End: end}, nil
	case PeriodYear:
		return Window{Start: time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location()), End: end}, nil
	case PeriodCustom:
		if from.IsZero() || to.IsZero() {
			return Window{}, domain.NewValidationError("from", "custom period needs from and to")
		}
		start := startOfDay(from.In(now.Location()))
		stop := startOfDay(to.In(now.Location())).AddDate(0, 0, 1)
		if !stop.After(start) {
			return Window{}, domain.NewValidationError("to", "must not be before from")
		}
		return Window{Start: start, End: stop}, nil
	default:
		return Window{}, fmt.Errorf("unknown period %q", period)
	}
}

// BranchFilter selects orders by branch: AllBranches, CentralBranch or a
// branch id.
type BranchFilter string

const (
	AllBranches   BranchFilter = ""
	CentralBranch BranchFilter = "central"
)

func ParseBranchFilter(s string) BranchFilter {
	switch v := strings.TrimSpace(s); strings.ToLower(v) {
	case "", "all":
		return AllBranches
	case "central", "pusat":
		return CentralBranch
	default:
		return BranchFilter(v)
	}
}

func (f BranchFilter) Match(branchID string) bool {
	switch f {
	case AllBranches:
		return true
	case CentralBranch:
		return branchID == ""
	default:
		return branchID == string(f)
	}
}
