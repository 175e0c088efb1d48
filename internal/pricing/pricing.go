package pricing

import (
	"github.com/shopspring/decimal"

	"shoezclean/backend/internal/catalog"
	"shoezclean/backend/internal/domain"
)

type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Total    int64 `json:"total"`
}

// PriceLineItem resolves the unit price for a selection. An incomplete or
// unknown selection prices at 0 rather than failing.
func PriceLineItem(c catalog.Catalog, serviceKey, variantKey string) int64 {
	price, err := c.Price(serviceKey, variantKey)
	if err != nil {
		return 0
	}
	return price
}

// ApplyDiscount returns the discount amount for one line item. Percentage
// discounts are floored to whole rupiah. Fixed discounts are taken as-is and
// may exceed the unit price.
func ApplyDiscount(unitPrice int64, d domain.Discount) int64 {
	value := decimal.NewFromFloat(d.Value)
	switch d.Kind {
	case domain.DiscountPercentage:
		return decimal.NewFromInt(unitPrice).Mul(value).Div(decimal.NewFromInt(100)).Floor().IntPart()
	case domain.DiscountFixed:
		return value.IntPart()
	default:
		return 0
	}
}

// ComputeOrderTotals sums line items. The total is not clamped at zero.
func ComputeOrderTotals(items []domain.LineItem) Totals {
	var t Totals
	for _, item := range items {
		t.Subtotal += item.UnitPrice
		t.Discount += item.DiscountAmount
	}
	t.Total = t.Subtotal - t.Discount
	return t
}

// BuildLineItem prices a selection and applies its discount. A discount that is
// unknown or inactive contributes nothing.
func BuildLineItem(c catalog.Catalog, in domain.LineItemInput, discounts []domain.Discount) domain.LineItem {
	item := domain.LineItem{
		Brand:         in.Brand,
		ServiceKey:    in.ServiceKey,
		VariantKey:    in.VariantKey,
		UnitPrice:     PriceLineItem(c, in.ServiceKey, in.VariantKey),
		ProcessStatus: domain.ProcessReceived,
	}
	if in.DiscountID == "" {
		return item
	}
	for _, d := range discounts {
		if d.ID != in.DiscountID {
			continue
		}
		item.DiscountID = d.ID
		if d.IsActive {
			item.DiscountAmount = ApplyDiscount(item.UnitPrice, d)
		}
		break
	}
	return item
}
