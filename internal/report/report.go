package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"shoezclean/backend/internal/domain"
)

// Summary aggregates the orders created inside a window. Revenue and the
// payment split count paid orders only; the counts cover every order.
type Summary struct {
	Revenue      int64                          `json:"revenue"`
	Orders       int                            `json:"orders"`
	Shoes        int                            `json:"shoes"`
	Paid         int                            `json:"paid"`
	Unpaid       int                            `json:"unpaid"`
	Cancelled    int                            `json:"cancelled"`
	AverageOrder int64                          `json:"average_order"`
	ByMethod     map[domain.PaymentMethod]int64 `json:"by_method"`
}

func Summarize(orders []domain.Order, w Window, filter BranchFilter) Summary {
	s := Summary{ByMethod: make(map[domain.PaymentMethod]int64, len(domain.PaymentMethods))}
	for _, m := range domain.PaymentMethods {
		s.ByMethod[m] = 0
	}
	for _, o := range orders {
		if !w.Contains(o.CreatedAt) || !filter.Match(o.BranchID) {
			continue
		}
		s.Orders++
		s.Shoes += o.ShoeCount()
		switch o.PaymentStatus {
		case domain.PaymentPaid:
			s.Paid++
			s.Revenue += o.Total
			if _, known := s.ByMethod[o.PaymentMethod]; known {
				s.ByMethod[o.PaymentMethod] += o.Total
			}
		case domain.PaymentCancelled:
			s.Cancelled++
		default:
			s.Unpaid++
		}
	}
	if s.Paid > 0 {
		s.AverageOrder = s.Revenue / int64(s.Paid)
	}
	return s
}

// PercentChange is (curr-prev)/prev*100 rounded to one decimal. A baseline
// of zero or below gives 100 when curr is positive and 0 otherwise.
func PercentChange(curr, prev int64) float64 {
	if prev <= 0 {
		if curr > 0 {
			return 100
		}
		return 0
	}
	change := decimal.NewFromInt(curr - prev).
		Div(decimal.NewFromInt(prev)).
		Mul(decimal.NewFromInt(100)).
		Round(1)
	f, _ := change.Float64()
	return f
}

type Delta struct {
	Current       Summary `json:"current"`
	Previous      Summary `json:"previous"`
	RevenueChange float64 `json:"revenue_change"`
	OrdersChange  float64 `json:"orders_change"`
}

// Compare summarizes w and the window before it.
func Compare(orders []domain.Order, w Window, filter BranchFilter) Delta {
	curr := Summarize(orders, w, filter)
	prev := Summarize(orders, w.Previous(), filter)
	return Delta{
		Current:       curr,
		Previous:      prev,
		RevenueChange: PercentChange(curr.Revenue, prev.Revenue),
		OrdersChange:  PercentChange(int64(curr.Orders), int64(prev.Orders)),
	}
}

type BranchStat struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Orders  int    `json:"orders"`
	Revenue int64  `json:"revenue"`
}

const centralName = "Pusat"

// BranchPerformance reports paid orders per branch, the central store
// included. Branches without a paid order in w are left out. Orders that
// point at a branch no longer listed are not counted.
func BranchPerformance(orders []domain.Order, branches []domain.Branch, w Window) []BranchStat {
	stats := map[string]*BranchStat{"": {ID: "", Name: centralName}}
	for _, b := range branches {
		stats[b.ID] = &BranchStat{ID: b.ID, Name: b.Name}
	}
	for _, o := range orders {
		if o.PaymentStatus != domain.PaymentPaid || !w.Contains(o.CreatedAt) {
			continue
		}
		if st, ok := stats[o.BranchID]; ok {
			st.Orders++
			st.Revenue += o.Total
		}
	}

	out := make([]BranchStat, 0, len(stats))
	for _, st := range stats {
		if st.Orders > 0 {
			out = append(out, *st)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Name < out[j].Name
	})
	return out
}

type ServiceStat struct {
	ServiceKey string `json:"service_key"`
	Count      int    `json:"count"`
	Revenue    int64  `json:"revenue"`
}

// TopServices ranks services by the list price of paid line items in w.
func TopServices(orders []domain.Order, w Window, filter BranchFilter, limit int) []ServiceStat {
	byKey := make(map[string]*ServiceStat)
	for _, o := range orders {
		if o.PaymentStatus != domain.PaymentPaid || !w.Contains(o.CreatedAt) || !filter.Match(o.BranchID) {
			continue
		}
		for _, item := range o.LineItems {
			st, ok := byKey[item.ServiceKey]
			if !ok {
				st = &ServiceStat{ServiceKey: item.ServiceKey}
				byKey[item.ServiceKey] = st
			}
			st.Count++
			st.Revenue += item.UnitPrice
		}
	}
	out := make([]ServiceStat, 0, len(byKey))
	for _, st := range byKey {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].ServiceKey < out[j].ServiceKey
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type CashSummary struct {
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
	Profit  int64 `json:"profit"`
}

// CashFlowSummary totals entries dated inside w.
func CashFlowSummary(entries []domain.CashFlowEntry, w Window) CashSummary {
	var s CashSummary
	for _, e := range entries {
		if !w.Contains(e.Date) {
			continue
		}
		switch e.Kind {
		case domain.CashFlowIncome:
			s.Income += e.Amount
		case domain.CashFlowExpense:
			s.Expense += e.Amount
		}
	}
	s.Profit = s.Income - s.Expense
	return s
}
