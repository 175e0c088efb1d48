package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"shoezclean/backend/internal/domain"
	"shoezclean/backend/internal/notify"
	"shoezclean/backend/internal/pricing"
	"shoezclean/backend/internal/store"
	"shoezclean/backend/internal/syncer"
	"shoezclean/backend/internal/validation"
	"shoezclean/backend/internal/xid"
)

const (
	paymentCategory    = "Pesanan"
	paymentDescription = "Pembayaran "
	defaultTurnaround  = 3
)

// Quote prices a selection of items without creating anything.
func (s *Service) Quote(items []domain.LineItemInput) ([]domain.LineItem, pricing.Totals) {
	priced := s.buildItems(items)
	return priced, pricing.ComputeOrderTotals(priced)
}

func (s *Service) buildItems(inputs []domain.LineItemInput) []domain.LineItem {
	discounts := s.state.Discounts.All()
	items := make([]domain.LineItem, 0, len(inputs))
	for _, in := range inputs {
		in.Brand = validation.Sanitize(strings.TrimSpace(in.Brand))
		item := pricing.BuildLineItem(s.catalog, in, discounts)
		item.ID = xid.New()
		items = append(items, item)
	}
	return items
}

// checkOffered rejects an order whose items name a service or variant the
// catalog does not offer. Quotes skip this and price a miss at zero.
func (s *Service) checkOffered(keys func(i int) (string, string), n int) error {
	verr := &domain.ValidationError{}
	for i := 0; i < n; i++ {
		serviceKey, variantKey := keys(i)
		if _, err := s.catalog.Price(serviceKey, variantKey); err != nil {
			verr.Fields = append(verr.Fields, domain.FieldError{
				Field:   fmt.Sprintf("line_items[%d]", i),
				Message: fmt.Sprintf("%s/%s is not in the catalog", serviceKey, variantKey),
			})
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// reprice prices edited items. An item that keeps its service and variant
// keeps the price it was captured at, and its discount amount too when the
// discount is unchanged.
func (s *Service) reprice(previous []domain.LineItem, edited []domain.LineItem) []domain.LineItem {
	before := make(map[string]domain.LineItem, len(previous))
	for _, item := range previous {
		before[item.ID] = item
	}
	discounts := s.state.Discounts.All()
	out := make([]domain.LineItem, 0, len(edited))
	for _, item := range edited {
		built := pricing.BuildLineItem(s.catalog, domain.LineItemInput{
			Brand:      validation.Sanitize(strings.TrimSpace(item.Brand)),
			ServiceKey: item.ServiceKey,
			VariantKey: item.VariantKey,
			DiscountID: item.DiscountID,
		}, discounts)
		built.ID = item.ID
		if built.ID == "" {
			built.ID = xid.New()
		}
		if item.ProcessStatus.Valid() {
			built.ProcessStatus = item.ProcessStatus
		}
		if prev, ok := before[item.ID]; ok && prev.ServiceKey == built.ServiceKey && prev.VariantKey == built.VariantKey {
			built.UnitPrice = prev.UnitPrice
			if prev.DiscountID == item.DiscountID {
				built.DiscountID = prev.DiscountID
				built.DiscountAmount = prev.DiscountAmount
			} else if d, found := s.state.Discounts.Get(built.DiscountID); found && d.IsActive {
				built.DiscountAmount = pricing.ApplyDiscount(built.UnitPrice, d)
			}
		}
		out = append(out, built)
	}
	return out
}

// AddOrder prices and creates an order. The order is visible locally under a
// temporary id until the remote store confirms it; a rejected create is
// removed again and the error returned. Once confirmed, the customer totals
// are bumped and a paid order gets its income entry.
func (s *Service) AddOrder(ctx context.Context, in domain.OrderInput) (domain.Order, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = validation.NormalizePhone(in.CustomerPhone)
	in.Notes = validation.Sanitize(strings.TrimSpace(in.Notes))
	if err := validation.Struct(in); err != nil {
		return domain.Order{}, err
	}
	if err := s.checkOffered(func(i int) (string, string) {
		return in.Items[i].ServiceKey, in.Items[i].VariantKey
	}, len(in.Items)); err != nil {
		return domain.Order{}, err
	}
	if in.PaymentStatus == "" {
		in.PaymentStatus = domain.PaymentUnpaid
	}
	if in.PaymentStatus == domain.PaymentPaid && in.PaymentMethod == "" {
		in.PaymentMethod = domain.PaymentCash
	}

	now := s.Now()
	if in.EntryDate.IsZero() {
		in.EntryDate = now
	}
	if in.EstimatedDate.IsZero() {
		in.EstimatedDate = in.EntryDate.AddDate(0, 0, defaultTurnaround)
	}

	items := s.buildItems(in.Items)
	totals := pricing.ComputeOrderTotals(items)
	order := domain.Order{
		ID:            xid.Temp(),
		InvoiceNumber: xid.Invoice(now),
		CustomerID:    in.CustomerID,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		LineItems:     items,
		EntryDate:     in.EntryDate,
		EstimatedDate: in.EstimatedDate,
		Notes:         in.Notes,
		PaymentStatus: in.PaymentStatus,
		PaymentMethod: in.PaymentMethod,
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		Total:         totals.Total,
		BranchID:      in.BranchID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := syncer.Create(ctx, s.sync, s.state.Orders, order, func(ctx context.Context) (*domain.Order, error) {
		return s.repo.InsertOrder(ctx, order)
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.log.WithFields(logrus.Fields{"invoice": created.InvoiceNumber, "total": created.Total}).Info("order created")
	s.bumpCustomer(ctx, created)
	if created.PaymentStatus == domain.PaymentPaid {
		if err := s.recordPayment(ctx, created).Wait(ctx); err != nil {
			s.log.WithField("invoice", created.InvoiceNumber).WithError(err).Warn("payment income entry not recorded")
		}
	}
	return created, nil
}

func (s *Service) bumpCustomer(ctx context.Context, order domain.Order) {
	updated, ok := s.state.Customers.Update(order.CustomerID, func(c *domain.Customer) {
		c.TotalOrders++
		c.TotalSpent += order.Total
	})
	if !ok {
		s.log.WithField("customer_id", order.CustomerID).Warn("order customer not in store, totals not updated")
		return
	}
	patch := domain.CustomerPatch{TotalOrders: &updated.TotalOrders, TotalSpent: &updated.TotalSpent}
	s.sync.Dispatch(ctx, "customers.update", func(ctx context.Context) error {
		return s.repo.UpdateCustomer(ctx, updated.ID, patch)
	})
}

// recordPayment places the income entry for a paid order unless one exists
// and confirms it through the write queue.
func (s *Service) recordPayment(ctx context.Context, order domain.Order) *syncer.Ack {
	s.paymentMu.Lock()
	defer s.paymentMu.Unlock()

	if _, exists := s.state.CashFlows.Find(func(e domain.CashFlowEntry) bool {
		return e.OrderID == order.ID && e.Kind == domain.CashFlowIncome
	}); exists {
		return syncer.Resolved(nil)
	}

	now := s.Now()
	entry := domain.CashFlowEntry{
		ID:          xid.Temp(),
		Kind:        domain.CashFlowIncome,
		Category:    paymentCategory,
		Description: paymentDescription + order.InvoiceNumber,
		Amount:      order.Total,
		Date:        now,
		OrderID:     order.ID,
		CreatedAt:   now,
	}
	return syncer.CreateDetached(ctx, s.sync, s.state.CashFlows, entry, func(ctx context.Context) (*domain.CashFlowEntry, error) {
		return s.repo.InsertCashFlow(ctx, entry)
	})
}

// UpdateOrder applies patch locally and writes it in the background. Edited
// line items are repriced and the totals recomputed. The first move into
// paid records the income entry.
func (s *Service) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (domain.Order, *syncer.Ack, error) {
	current, ok := s.state.Orders.Get(id)
	if !ok {
		return domain.Order{}, nil, store.ErrNotFound
	}
	if err := validateOrderPatch(&patch); err != nil {
		return domain.Order{}, nil, err
	}
	if patch.LineItems != nil {
		edited := *patch.LineItems
		if err := s.checkOffered(func(i int) (string, string) {
			return edited[i].ServiceKey, edited[i].VariantKey
		}, len(edited)); err != nil {
			return domain.Order{}, nil, err
		}
		items := s.reprice(current.LineItems, *patch.LineItems)
		totals := pricing.ComputeOrderTotals(items)
		patch.LineItems = &items
		patch.Subtotal = &totals.Subtotal
		patch.Discount = &totals.Discount
		patch.Total = &totals.Total
	} else {
		patch.Subtotal, patch.Discount, patch.Total = nil, nil, nil
	}
	now := s.Now()
	patch.UpdatedAt = &now

	updated, ok := s.state.Orders.Update(id, patch.Apply)
	if !ok {
		return domain.Order{}, nil, store.ErrNotFound
	}
	ack := s.sync.Dispatch(ctx, "orders.update", func(ctx context.Context) error {
		return s.repo.UpdateOrder(ctx, id, patch)
	})

	if current.PaymentStatus != domain.PaymentPaid && updated.PaymentStatus == domain.PaymentPaid {
		s.recordPayment(ctx, updated)
	}
	return updated, ack, nil
}

func validateOrderPatch(patch *domain.OrderPatch) error {
	if patch.CustomerName != nil {
		name := strings.TrimSpace(*patch.CustomerName)
		if name == "" {
			return domain.NewValidationError("customer_name", "is required")
		}
		patch.CustomerName = &name
	}
	if patch.CustomerPhone != nil {
		phone := validation.NormalizePhone(*patch.CustomerPhone)
		if !validation.IsPhone(phone) {
			return domain.NewValidationError("customer_phone", "must be a valid Indonesian mobile number")
		}
		patch.CustomerPhone = &phone
	}
	if patch.LineItems != nil && len(*patch.LineItems) == 0 {
		return domain.NewValidationError("line_items", "must contain at least 1 item")
	}
	if patch.PaymentStatus != nil {
		switch *patch.PaymentStatus {
		case domain.PaymentUnpaid, domain.PaymentPaid, domain.PaymentCancelled:
		default:
			return domain.NewValidationError("payment_status", "must be one of unpaid paid cancelled")
		}
	}
	if patch.PaymentMethod != nil {
		switch *patch.PaymentMethod {
		case domain.PaymentCash, domain.PaymentTransfer, domain.PaymentQRIS:
		default:
			return domain.NewValidationError("payment_method", "must be one of cash transfer qris")
		}
	}
	if patch.Notes != nil {
		notes := validation.Sanitize(strings.TrimSpace(*patch.Notes))
		patch.Notes = &notes
	}
	return nil
}

// ProcessUpdate is the outcome of moving one shoe through the workshop.
type ProcessUpdate struct {
	Order domain.Order `json:"order"`
	// ReadyLink is a WhatsApp link telling the customer the order is ready.
	// It is set only when this change made every shoe ready and WhatsApp
	// notifications are enabled.
	ReadyLink string      `json:"ready_link,omitempty"`
	Ack       *syncer.Ack `json:"-"`
}

func (s *Service) SetLineItemProcess(ctx context.Context, orderID, itemID string, status domain.ProcessStatus) (ProcessUpdate, error) {
	if !status.Valid() {
		return ProcessUpdate{}, domain.NewValidationError("process_status", "is not a known process stage")
	}
	order, ok := s.state.Orders.Get(orderID)
	if !ok {
		return ProcessUpdate{}, store.ErrNotFound
	}
	items := order.LineItems
	found := false
	for i := range items {
		if items[i].ID == itemID {
			items[i].ProcessStatus = status
			found = true
		}
	}
	if !found {
		return ProcessUpdate{}, store.ErrNotFound
	}

	now := s.Now()
	patch := domain.OrderPatch{LineItems: &items, UpdatedAt: &now}
	if order.PickupDate == nil && allAt(items, domain.ProcessPickedUp) {
		patch.PickupDate = &now
	}
	updated, ok := s.state.Orders.Update(orderID, patch.Apply)
	if !ok {
		return ProcessUpdate{}, store.ErrNotFound
	}
	ack := s.sync.Dispatch(ctx, "orders.update", func(ctx context.Context) error {
		return s.repo.UpdateOrder(ctx, orderID, patch)
	})

	out := ProcessUpdate{Order: updated, Ack: ack}
	settings := s.state.Settings()
	if status == domain.ProcessReady && updated.AllReady() && settings.WhatsAppNotificationEnabled {
		out.ReadyLink = notify.WhatsAppLink(updated.CustomerPhone, notify.ReadyMessage(updated, settings.Name))
	}
	return out, nil
}

func allAt(items []domain.LineItem, status domain.ProcessStatus) bool {
	for _, item := range items {
		if item.ProcessStatus != status {
			return false
		}
	}
	return len(items) > 0
}

// DeleteOrder removes an order together with the cash-flow entries that were
// recorded for it.
func (s *Service) DeleteOrder(ctx context.Context, id string) (*syncer.Ack, error) {
	if _, ok := s.state.Orders.Get(id); !ok {
		return nil, store.ErrNotFound
	}
	ofOrder := func(e domain.CashFlowEntry) bool { return e.OrderID == id }
	linked := s.state.CashFlows.Filter(ofOrder)
	s.state.CashFlows.RemoveWhere(ofOrder)
	s.state.Orders.Remove(id)

	return s.sync.Dispatch(ctx, "orders.delete", func(ctx context.Context) error {
		// Entries confirmed after the local removal were swapped back in.
		linked = append(linked, s.state.CashFlows.Filter(ofOrder)...)
		s.state.CashFlows.RemoveWhere(ofOrder)

		var errs []error
		for _, entry := range linked {
			if xid.IsTemp(entry.ID) {
				continue
			}
			if err := s.repo.DeleteCashFlow(ctx, entry.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
				errs = append(errs, err)
			}
		}
		if err := s.repo.DeleteOrder(ctx, id); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}), nil
}

func (s *Service) Order(id string) (domain.Order, bool) {
	return s.state.Orders.Get(id)
}

// Orders returns all orders, newest first.
func (s *Service) Orders() []domain.Order {
	return newestFirst(s.state.Orders.All())
}

// OrdersByBranch returns the orders of one branch. An empty branchID selects
// the central store.
func (s *Service) OrdersByBranch(branchID string) []domain.Order {
	return newestFirst(s.state.Orders.Filter(func(o domain.Order) bool { return o.BranchID == branchID }))
}

// FindOrderByInvoice looks an order up by invoice number, ignoring case.
func (s *Service) FindOrderByInvoice(invoice string) (domain.Order, bool) {
	invoice = strings.TrimSpace(invoice)
	if invoice == "" {
		return domain.Order{}, false
	}
	return s.state.Orders.Find(func(o domain.Order) bool { return strings.EqualFold(o.InvoiceNumber, invoice) })
}

// InvoiceText renders the customer invoice and its WhatsApp link.
func (s *Service) InvoiceText(id string) (text string, link string, err error) {
	order, ok := s.state.Orders.Get(id)
	if !ok {
		return "", "", store.ErrNotFound
	}
	text = notify.InvoiceMessage(order, s.state.Settings(), s.catalog)
	return text, notify.WhatsAppLink(order.CustomerPhone, text), nil
}

func newestFirst(orders []domain.Order) []domain.Order {
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders
}
