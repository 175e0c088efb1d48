package notify

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"shoezclean/backend/internal/catalog"
	"shoezclean/backend/internal/domain"
)

// WhatsAppNumber turns a local phone number into the international digits
// wa.me expects.
func WhatsAppNumber(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	switch {
	case strings.HasPrefix(digits, "0"):
		return "62" + digits[1:]
	case strings.HasPrefix(digits, "62"):
		return digits
	default:
		return "62" + digits
	}
}

func WhatsAppLink(phone string, text string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return "https://wa.me/" + WhatsAppNumber(phone) + "?text=" + encoded
}

// ReadyMessage tells a customer that every shoe in the order can be picked up.
func ReadyMessage(order domain.Order, storeName string) string {
	return fmt.Sprintf("Halo %s!\n\nSepatu Anda dengan nomor invoice *%s* sudah selesai dan siap diambil di %s.\n\nTerima kasih telah mempercayakan sepatu Anda kepada kami!",
		order.CustomerName, order.InvoiceNumber, storeName)
}

// InvoiceMessage renders the invoice text sent to a customer. A template in the
// settings takes precedence over the built-in layout.
func InvoiceMessage(order domain.Order, settings domain.Settings, cat catalog.Catalog) string {
	status := "BELUM BAYAR"
	switch order.PaymentStatus {
	case domain.PaymentPaid:
		status = "LUNAS"
	case domain.PaymentCancelled:
		status = "DIBATALKAN"
	}

	var details strings.Builder
	for i, item := range order.LineItems {
		name := item.ServiceKey
		if svc, ok := cat.Service(item.ServiceKey); ok {
			name = svc.Name
		}
		if i > 0 {
			details.WriteString("\n")
		}
		fmt.Fprintf(&details, "%d. %s\n   %s - %s", i+1, item.Brand, name, FormatRupiah(item.UnitPrice))
	}

	if tpl := strings.TrimSpace(settings.WhatsAppTemplate); tpl != "" {
		return strings.NewReplacer(
			"{storeName}", settings.Name,
			"{invoiceNumber}", order.InvoiceNumber,
			"{date}", order.EntryDate.Format("02 Jan 2006"),
			"{customerName}", order.CustomerName,
			"{customerPhone}", order.CustomerPhone,
			"{shoeDetails}", details.String(),
			"{total}", FormatRupiah(order.Total),
			"{status}", status,
		).Replace(tpl)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*INVOICE %s*\n", settings.Name)
	fmt.Fprintf(&b, "No. Invoice: *%s*\n", order.InvoiceNumber)
	fmt.Fprintf(&b, "Tanggal: %s\n", order.EntryDate.Format("02 Jan 2006"))
	if !order.EstimatedDate.IsZero() {
		fmt.Fprintf(&b, "Estimasi: %s\n", order.EstimatedDate.Format("02 Jan 2006"))
	}
	fmt.Fprintf(&b, "\n*Pelanggan:*\n%s\n%s\n", order.CustomerName, order.CustomerPhone)
	fmt.Fprintf(&b, "\n*Detail Sepatu:*\n%s\n", details.String())
	fmt.Fprintf(&b, "\nSubtotal: %s\n", FormatRupiah(order.Subtotal))
	if order.Discount > 0 {
		fmt.Fprintf(&b, "Diskon: -%s\n", FormatRupiah(order.Discount))
	}
	fmt.Fprintf(&b, "*TOTAL: %s*\n", FormatRupiah(order.Total))
	fmt.Fprintf(&b, "\nStatus: %s\n", status)
	if order.PaymentMethod != "" {
		fmt.Fprintf(&b, "Metode: %s\n", strings.ToUpper(string(order.PaymentMethod)))
	}
	fmt.Fprintf(&b, "\n*Pembayaran:*\n%s - %s\na.n. %s\n", settings.BankName, settings.BankAccount, settings.AccountHolder)
	fmt.Fprintf(&b, "\nTerima kasih telah menggunakan jasa *%s*!\n\n%s\n%s", settings.Name, settings.Address, settings.Phone)
	return b.String()
}

// FormatRupiah formats an amount as "Rp 35.000".
func FormatRupiah(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "Rp " + b.String()
}
