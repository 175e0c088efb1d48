package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"shoezclean/backend/internal/domain"
	"shoezclean/backend/internal/report"
)

const (
	OrdersSheet  = "Orders"
	SummarySheet = "Ringkasan"

	dateLayout  = "2006-01-02 15:04"
	centralName = "Pusat"
)

var orderHeader = []string{
	"Invoice", "Tanggal", "Pelanggan", "Telepon", "Sepatu",
	"Subtotal", "Diskon", "Total", "Status", "Metode", "Cabang",
}

// WriteOrdersWorkbook writes orders and the period summary as an xlsx
// workbook. Orders are listed oldest first.
func WriteOrdersWorkbook(w io.Writer, orders []domain.Order, branches []domain.Branch, summary report.Summary, title string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(OrdersSheet)
	if err != nil {
		return err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	f.SetActiveSheet(index)

	names := make(map[string]string, len(branches))
	for _, b := range branches {
		names[b.ID] = b.Name
	}

	sorted := make([]domain.Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	if err := writeRow(f, OrdersSheet, 1, toAny(orderHeader)); err != nil {
		return err
	}
	for r, o := range sorted {
		branch := centralName
		if o.BranchID != "" {
			branch = names[o.BranchID]
			if branch == "" {
				branch = o.BranchID
			}
		}
		values := []any{
			o.InvoiceNumber,
			o.CreatedAt.Format(dateLayout),
			o.CustomerName,
			o.CustomerPhone,
			o.ShoeCount(),
			o.Subtotal,
			o.Discount,
			o.Total,
			string(o.PaymentStatus),
			string(o.PaymentMethod),
			branch,
		}
		if err := writeRow(f, OrdersSheet, r+2, values); err != nil {
			return err
		}
	}

	widths := []float64{22, 18, 24, 16, 8, 12, 12, 12, 12, 10, 20}
	for c, width := range widths {
		col, _ := excelize.ColumnNumberToName(c + 1)
		_ = f.SetColWidth(OrdersSheet, col, col, width)
	}
	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	lastHeader, _ := excelize.CoordinatesToCellName(len(orderHeader), 1)
	_ = f.SetCellStyle(OrdersSheet, "A1", lastHeader, style)

	if err := writeSummary(f, summary, title); err != nil {
		return err
	}
	_ = f.SetColWidth(SummarySheet, "A", "A", 24)
	_ = f.SetColWidth(SummarySheet, "B", "B", 18)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, s report.Summary, title string) error {
	rows := [][]any{
		{title},
		{},
		{"Pendapatan", s.Revenue},
		{"Jumlah Pesanan", s.Orders},
		{"Jumlah Sepatu", s.Shoes},
		{"Lunas", s.Paid},
		{"Belum Bayar", s.Unpaid},
		{"Dibatalkan", s.Cancelled},
		{"Rata-rata Pesanan", s.AverageOrder},
		{},
		{"Metode Pembayaran", "Pendapatan"},
	}
	for _, m := range domain.PaymentMethods {
		rows = append(rows, []any{string(m), s.ByMethod[m]})
	}
	for r, values := range rows {
		if err := writeRow(f, SummarySheet, r+1, values); err != nil {
			return err
		}
	}
	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 13}})
	_ = f.SetCellStyle(SummarySheet, "A1", "A1", bold)
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for c, v := range values {
		cell, err := excelize.CoordinatesToCellName(c+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
