package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"shoezclean/backend/internal/domain"
	"shoezclean/backend/internal/export"
	"shoezclean/backend/internal/report"
	"shoezclean/backend/internal/store"
)

const (
	queryDateLayout = "2006-01-02"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	heartbeat       = 25 * time.Second
)

type reportQuery struct {
	period report.Period
	window report.Window
	branch report.BranchFilter
}

func (a *API) parseReportQuery(r *http.Request) (reportQuery, error) {
	q := r.URL.Query()
	period, err := report.ParsePeriod(q.Get("period"))
	if err != nil {
		return reportQuery{}, err
	}
	from, err := a.parseDate("from", q.Get("from"))
	if err != nil {
		return reportQuery{}, err
	}
	to, err := a.parseDate("to", q.Get("to"))
	if err != nil {
		return reportQuery{}, err
	}
	window, err := report.WindowFor(period, a.service.Now(), from, to)
	if err != nil {
		return reportQuery{}, err
	}
	return reportQuery{period: period, window: window, branch: report.ParseBranchFilter(q.Get("branch"))}, nil
}

func (a *API) parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(queryDateLayout, raw, a.service.Location())
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, "must be a date like 2006-01-02")
	}
	return t, nil
}

func (a *API) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	q, err := a.parseReportQuery(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	snap := a.service.State().Snapshot()
	now := a.service.Now()

	writeJSON(w, http.StatusOK, map[string]any{
		"period":       q.period,
		"window":       q.window,
		"summary":      report.Compare(snap.Orders, q.window, q.branch),
		"branches":     report.BranchPerformance(snap.Orders, snap.Branches, q.window),
		"cash_flow":    report.CashFlowSummary(snap.CashFlows, q.window),
		"top_services": report.TopServices(snap.Orders, q.window, q.branch, 5),
		"daily":        report.DailySeries(snap.Orders, now, 7, q.branch),
		"hourly":       report.HourlySeries(snap.Orders, now, q.branch),
		"monthly":      report.MonthlySeries(snap.Orders, now.Year(), a.service.Location(), q.branch),
	})
}

func (a *API) handleReportExport(w http.ResponseWriter, r *http.Request) {
	q, err := a.parseReportQuery(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	snap := a.service.State().Snapshot()

	orders := make([]domain.Order, 0, len(snap.Orders))
	for _, o := range snap.Orders {
		if q.window.Contains(o.CreatedAt) && q.branch.Match(o.BranchID) {
			orders = append(orders, o)
		}
	}
	lastDay := q.window.End.AddDate(0, 0, -1)
	title := fmt.Sprintf("Laporan %s - %s", q.window.Start.Format(queryDateLayout), lastDay.Format(queryDateLayout))

	var buf bytes.Buffer
	if err := export.WriteOrdersWorkbook(&buf, orders, snap.Branches, report.Summarize(snap.Orders, q.window, q.branch), title); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	filename := fmt.Sprintf("laporan-%s-%s.xlsx", q.window.Start.Format("20060102"), lastDay.Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type trackedItem struct {
	Brand         string               `json:"brand"`
	Service       string               `json:"service"`
	ProcessStatus domain.ProcessStatus `json:"process_status"`
	ProcessLabel  string               `json:"process_label"`
}

type trackedOrder struct {
	InvoiceNumber string               `json:"invoice_number"`
	CustomerName  string               `json:"customer_name"`
	EntryDate     time.Time            `json:"entry_date"`
	EstimatedDate time.Time            `json:"estimated_date"`
	PickupDate    *time.Time           `json:"pickup_date,omitempty"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	Total         int64                `json:"total"`
	Ready         bool                 `json:"ready"`
	Items         []trackedItem        `json:"items"`
}

// handleTrack is the public order status page. It never exposes the phone
// number or internal ids.
func (a *API) handleTrack(w http.ResponseWriter, r *http.Request) {
	order, ok := a.service.FindOrderByInvoice(chi.URLParam(r, "invoice"))
	if !ok {
		writeServiceError(w, store.ErrNotFound)
		return
	}
	cat := a.service.Catalog()
	out := trackedOrder{
		InvoiceNumber: order.InvoiceNumber,
		CustomerName:  order.CustomerName,
		EntryDate:     order.EntryDate,
		EstimatedDate: order.EstimatedDate,
		PickupDate:    order.PickupDate,
		PaymentStatus: order.PaymentStatus,
		Total:         order.Total,
		Ready:         order.AllReady(),
		Items:         make([]trackedItem, 0, len(order.LineItems)),
	}
	for _, item := range order.LineItems {
		name := item.ServiceKey
		if svc, ok := cat.Service(item.ServiceKey); ok {
			name = svc.Name
		}
		out.Items = append(out.Items, trackedItem{
			Brand:         item.Brand,
			Service:       name,
			ProcessStatus: item.ProcessStatus,
			ProcessLabel:  item.ProcessStatus.Label(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleEvents streams one "change" event per table notification of the
// local mirror until the client goes away.
func (a *API) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported"))
		return
	}
	changes, stop := a.service.State().Watch()
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case table, ok := <-changes:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "event: change\ndata: {\"table\":%q}\n\n", string(table)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
