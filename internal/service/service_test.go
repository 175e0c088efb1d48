package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"shoezclean/backend/internal/auth"
	"shoezclean/backend/internal/cache"
	"shoezclean/backend/internal/catalog"
	"shoezclean/backend/internal/domain"
	"shoezclean/backend/internal/store"
	"shoezclean/backend/internal/store/memory"
	"shoezclean/backend/internal/syncer"
	"shoezclean/backend/internal/xid"
)

var errRemoteDown = errors.New("remote down")

type flakyRepo struct {
	*memory.Store
	failCustomerInsert bool
	failOrderInsert    bool
	failOrderUpdate    bool
	cashFlowGate       chan struct{}
}

func (r *flakyRepo) InsertCashFlow(ctx context.Context, e domain.CashFlowEntry) (*domain.CashFlowEntry, error) {
	if r.cashFlowGate != nil {
		<-r.cashFlowGate
	}
	return r.Store.InsertCashFlow(ctx, e)
}

func (r *flakyRepo) InsertCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	if r.failCustomerInsert {
		return nil, errRemoteDown
	}
	return r.Store.InsertCustomer(ctx, c)
}

func (r *flakyRepo) InsertOrder(ctx context.Context, o domain.Order) (*domain.Order, error) {
	if r.failOrderInsert {
		return nil, errRemoteDown
	}
	return r.Store.InsertOrder(ctx, o)
}

func (r *flakyRepo) UpdateOrder(ctx context.Context, id string, p domain.OrderPatch) error {
	if r.failOrderUpdate {
		return errRemoteDown
	}
	return r.Store.UpdateOrder(ctx, id, p)
}

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestService(opts ...Option) (*Service, *flakyRepo) {
	repo := &flakyRepo{Store: memory.New()}
	opts = append([]Option{WithTokenIssuer(auth.NewTokenIssuer(testSecret, time.Hour))}, opts...)
	svc := New(repo, catalog.Default(), opts...)
	return svc, repo
}

func mustCustomer(t *testing.T, svc *Service) domain.Customer {
	t.Helper()
	customer, err := svc.AddCustomer(context.Background(), domain.CustomerInput{Name: "Sari", Phone: "0812-3456-7890"})
	if err != nil {
		t.Fatalf("add customer failed: %v", err)
	}
	return customer
}

func orderInput(customer domain.Customer, status domain.PaymentStatus, items ...domain.LineItemInput) domain.OrderInput {
	return domain.OrderInput{
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
		Items:         items,
		PaymentStatus: status,
	}
}

func item(service, variant string) domain.LineItemInput {
	return domain.LineItemInput{Brand: "Nike", ServiceKey: service, VariantKey: variant}
}

func incomeFor(svc *Service, orderID string) []domain.CashFlowEntry {
	return svc.State().CashFlows.Filter(func(e domain.CashFlowEntry) bool {
		return e.OrderID == orderID && e.Kind == domain.CashFlowIncome
	})
}

func TestAddOrderAppliesPercentageDiscount(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	customer := mustCustomer(t, svc)

	discount, err := svc.AddDiscount(ctx, domain.DiscountInput{Name: "Member", Kind: domain.DiscountPercentage, Value: 10, IsActive: true})
	if err != nil {
		t.Fatalf("add discount failed: %v", err)
	}

	in := item("DEEP_CLEAN_EXPRESS", "gold")
	in.DiscountID = discount.ID
	order, err := svc.AddOrder(ctx, orderInput(customer, domain.PaymentUnpaid, in))
	if err != nil {
		t.Fatalf("add order failed: %v", err)
	}

	if order.Subtotal != 35000 || order.Discount != 3500 || order.Total != 31500 {
		t.Fatalf("unexpected totals subtotal=%d discount=%d total=%d", order.Subtotal, order.Discount, order.Total)
	}
	if order.Total != order.Subtotal-order.Discount {
		t.Fatalf("total must equal subtotal minus discount")
	}
	if xid.IsTemp(order.ID) {
		t.Fatalf("confirmed order still has temporary id %s", order.ID)
	}
	if !strings.HasPrefix(order.InvoiceNumber, "INV-") || len(order.InvoiceNumber) != len("INV-20060102-XXXXX") {
		t.Fatalf("unexpected invoice number %q", order.InvoiceNumber)
	}
	if got := svc.State().Orders.Len(); got != 1 {
		t.Fatalf("expected exactly one order in store, got %d", got)
	}
}

func TestPaymentTransitionRecordsIncomeOnce(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	customer := mustCustomer(t, svc)

	order, err := svc.AddOrder(ctx, orderInput(customer, domain.PaymentUnpaid,
		item("DEEP_CLEAN_REGULER", "platinum"), item("DEEP_CLEAN_REGULER", "platinum")))
	if err != nil {
		t.Fatalf("add order failed: %v", err)
	}
	if order.Total != 50000 {
		t.Fatalf("expected total 50000, got %d", order.Total)
	}
	if n := len(incomeFor(svc, order.ID)); n != 0 {
		t.Fatalf("unpaid order must not have income, got %d entries", n)
	}

	paid := domain.PaymentPaid
	for i := 0; i < 2; i++ {
		if _, _, err := svc.UpdateOrder(ctx, order.ID, domain.OrderPatch{PaymentStatus: &paid}); err != nil {
			t.Fatalf("update order failed: %v", err)
		}
	}

	entries := incomeFor(svc, order.ID)
	if len(entries) != 1 {
		t.Fatalf("expected one income entry, got %d", len(entries))
	}
	if entries[0].Amount != 50000 || entries[0].Category != "Pesanan" || entries[0].Description != "Pembayaran "+order.InvoiceNumber {
		t.Fatalf("unexpected income entry %+v", entries[0])
	}
}

func TestPaidOrderCreatesIncomeEntry(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	customer := mustCustomer(t, svc)

	order, err := svc.AddOrder(ctx, orderInput(customer, domain.PaymentPaid, item("FAST_CLEAN_EXPRESS", "silver")))
	if err != nil {
		t.Fatalf("add order failed: %v", err)
	}
	if order.PaymentMethod != domain.PaymentCash {
		t.Fatalf("paid order without method should default to cash, got %q", order.PaymentMethod)
	}
	if n := len(incomeFor(svc, order.ID)); n != 1 {
		t.Fatalf("expected one income entry, got %d", n)
	}
	remote, _ := repo.ListCashFlows(ctx)
	if len(remote) != 1 || remote[0].Amount != 27000 {
		t.Fatalf("expected remote income of 27000, got %+v", remote)
	}
}

func TestCustomerCreateFailureLeavesNoTrace(t *testing.T) {
	svc, repo := newTestService()
	repo.failCustomerInsert = true

	_, err := svc.AddCustomer(context.Background(), domain.CustomerInput{Name: "Budi", Phone: "081398765432"})
	var writeErr *syncer.RemoteWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected remote write error, got %v", err)
	}
	if _, found := svc.FindCustomerByPhone("081398765432"); found {
		t.Fatalf("rolled back customer must not be found")
	}
	if svc.State().Customers.Len() != 0 {
		t.Fatalf("expected no customers after rollback")
	}
}

func TestAddOrderRejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.AddOrder(context.Background(), domain.OrderInput{CustomerID: "c-1", CustomerName: "Sari", CustomerPhone: "12345"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) || len(vErr.Fields) < 2 {
		t.Fatalf("expected phone and items field errors, got %v", err)
	}
	if svc.State().Orders.Len() != 0 {
		t.Fatalf("invalid order must not reach the store")
	}
}

func TestCustomerTotalsBumpedOncePerConfirmedOrder(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	customer := mustCustomer(t, svc)

	if _, err := svc.AddOrder(ctx, orderInput(customer, domain.PaymentUnpaid, item("DEEP_CLEAN_EXPRESS", "silver"))); err != nil {
		t.Fatalf("first order failed: %v", err)
	}
	if _, err := svc.AddOrder(ctx, orderInput(customer, domain.PaymentUnpaid, item("UNYELLOWING", "premium"))); err != nil {
		t.Fatalf("second order failed: %v", err)
	}
	repo.failOrderInsert = true
	if _, err := svc.AddOrder(ctx, orderInput(customer, domain.PaymentUnpaid, item("REPAINT", "premium"))); err == nil {
		t.Fatalf("expected third order to fail")
	}
	svc.Flush()

	local, _ := svc.Customer(customer.ID)
	if local.TotalOrders != 2 || local.TotalSpent != 33000+40000 {
		t.Fatalf("unexpected local totals orders=%d spent=%d", local.TotalOrders, local.TotalSpent)
	}
	remote, _ := repo.ListCustomers(ctx)
	if len(remote) != 1 || remote[0].TotalOrders != 2 || remote[0].TotalSpent != 73000 {
		t.Fatalf("unexpected remote customer %+v", remote)
	}
	if svc.State().Orders.Len() != 2 {
		t.Fatalf("rolled back order must be removed, have %d orders", svc.State().Orders.Len())
	}
}

func TestCustomerTotalsSurviveReload(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	customer := mustCustomer(t, svc)

	const orders = 5
	for i := 0; i < orders; i++ {
		status := domain.PaymentUnpaid
		if i%2 == 0 {
			status = domain.PaymentPaid
		}
		if _, err := svc.AddOrder(ctx, orderInput(customer, status, item("DEEP_CLEAN_EXPRESS", "gold"))); err != nil {
			t.Fatalf("order %d failed: %v", i, err)
		}
	}
	svc.Flush()

	remote, _ := repo.ListCustomers(ctx)
	if len(remote) != 1 || remote[0].TotalOrders != orders || remote[0].TotalSpent != orders*35000 {
		t.Fatalf("unexpected remote customer %+v", remote)
	}
	if err := svc.FetchInitialData(ctx); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	reloaded, _ := svc.Customer(customer.ID)
	if reloaded.TotalOrders != orders || reloaded.TotalSpent != orders*35000 {
		t.Fatalf("reloaded totals orders=%d spent=%d", reloaded.TotalOrders, reloaded.TotalSpent)
	}
}

func TestSuccessiveUpdatesKeepLastValue(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	customer := mustCustomer(t, svc)
	order, err := svc.AddOrder(ctx, orderInput(customer, domain.PaymentUnpaid, item("REPAINT", "premium")))
	if err != nil {
		t.Fatalf("add order failed: %v", err)
	}

	for _, note := range []string{"catatan pertama", "catatan kedua", "catatan ketiga"} {
		note := note
		if _, _, err := svc.UpdateOrder(ctx, order.ID, domain.OrderPatch{Notes: &note}); err != nil {
			t.Fatalf("update order failed: %v", err)
		}
	}
	svc.Flush()

	remote, _ := repo.ListOrders(ctx)
	if len(remote) != 1 || remote[0].Notes != "catatan ketiga" {
		t.Fatalf("remote kept an earlier write: %+v", remote)
	}
	if err := svc.FetchInitialData(ctx); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if local, _ := svc.Order(order.ID); local.Notes != "catatan ketiga" {
		t.Fatalf("reload restored %q", local.Notes)
	}
}

func TestPaymentUpdateDoesNotWaitForIncomeEntry(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	customer := mustCustomer(t, svc)
	order, err := svc.AddOrder(ctx, orderInput(customer, domain.PaymentUnpaid, item("DEEP_CLEAN_REGULER", "silver")))
	if err != nil {
		t.Fatalf("add order failed: %v", err)
	}

	repo.cashFlowGate = make(chan struct{})
	paid := domain.PaymentPaid
	returned := make(chan error, 1)
	go func() {
		_, _, err := svc.UpdateOrder(ctx, order.ID, domain.OrderPatch{PaymentStatus: &paid})
		returned <- err
	}()
	select {
	case err := <-returned:
		if err != nil {
			t.Fatalf("update order failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		close(repo.cashFlowGate)
		t.Fatalf("update blocked on the remote income insert")
	}

	pending := incomeFor(svc, order.ID)
	if len(pending) != 1 || !xid.IsTemp(pending[0].ID) {
		t.Fatalf("expected one placeholder income entry, got %+v", pending)
	}

	close(repo.cashFlowGate)
	svc.Flush()
	confirmed := incomeFor(svc, order.ID)
	if len(confirmed) != 1 || xid.IsTemp(confirmed[0].ID) || confirmed[0].Amount != 19000 {
		t.Fatalf("expected one confirmed income entry, got %+v", confirmed)
	}
	remote, _ := repo.ListCashFlows(ctx)
	if len(remote) != 1 {
		t.Fatalf("expected one remote income entry, got %d", len(remote))
	}
}

func TestDeleteOrderRemovesIncomeConfirmedLater(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	customer := mustCustomer(t, svc)
	order, err := svc.AddOrder(ctx, orderInput(customer, domain.PaymentUnpaid, item("DEEP_CLEAN_EXPRESS", "gold")))
	if err != nil {
		t.Fatalf("add order failed: %v", err)
	}

	repo.cashFlowGate = make(chan struct{})
	paid := domain.PaymentPaid
	if _, _, err := svc.UpdateOrder(ctx, order.ID, domain.OrderPatch{PaymentStatus: &paid}); err != nil {
		t.Fatalf("update order failed: %v", err)
	}
	ack, err := svc.DeleteOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("delete order failed: %v", err)
	}
	close(repo.cashFlowGate)
	if err := ack.Wait(ctx); err != nil {
		t.Fatalf("remote delete failed: %v", err)
	}

	if n := len(incomeFor(svc, order.ID)); n != 0 {
		t.Fatalf("expected no local income for deleted order, got %d", n)
	}
	if remote, _ := repo.ListCashFlows(ctx); len(remote) != 0 {
		t.Fatalf("expected no remote cash flows, got %+v", remote)
	}
}

func TestOrdersRejectItemsOutsideCatalog(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	customer := mustCustomer(t, svc)

	_, err := svc.AddOrder(ctx, orderInput(customer, domain.PaymentPaid,
		item("DEEP_CLEAN_EXPRESS", "gold"), item("REPAINT", "silver")))
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) || len(vErr.Fields) != 1 || vErr.Fields[0].Field != "line_items[1]" {
		t.Fatalf("expected catalog error on second item, got %v", err)
	}
	if svc.State().Orders.Len() != 0 {
		t.Fatalf("rejected order must not reach the store")
	}

	order, err := svc.AddOrder(ctx, orderInput(customer, domain.PaymentUnpaid, item("DEEP_CLEAN_EXPRESS", "gold")))
	if err != nil {
		t.Fatalf("add order failed: %v", err)
	}
	items := order.LineItems
	items[0].ServiceKey = "SOLE_GLUE"
	if _, _, err := svc.UpdateOrder(ctx, order.ID, domain.OrderPatch{LineItems: &items}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for unknown service, got %v", err)
	}
	if local, _ := svc.Order(order.ID); local.LineItems[0].ServiceKey != "DEEP_CLEAN_EXPRESS" {
		t.Fatalf("rejected edit must leave the order unchanged")
	}
}

func TestUpdateOrderFailureKeepsLocalChange(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	customer := mustCustomer(t, svc)
	order, err := svc.AddOrder(ctx, orderInput(customer, domain.PaymentUnpaid, item("RECOLOUR", "platinum")))
	if err != nil {
		t.Fatalf("add order failed: %v", err)
	}

	repo.failOrderUpdate = true
	notes := "tali diganti"
	updated, ack, err := svc.UpdateOrder(ctx, order.ID, domain.OrderPatch{Notes: &notes})
	if err != nil {
		t.Fatalf("update order failed: %v", err)
	}
	if updated.Notes != notes {
		t.Fatalf("expected optimistic notes, got %q", updated.Notes)
	}
	if err := ack.Wait(ctx); !errors.Is(err, errRemoteDown) {
		t.Fatalf("expected remote failure through ack, got %v", err)
	}
	local, _ := svc.Order(order.ID)
	if local.Notes != notes {
		t.Fatalf("local change must be kept after remote failure")
	}
}

func TestUpdateOrderRepricesChangedItemsOnly(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	customer := mustCustomer(t, svc)
	order, err := svc.AddOrder(ctx, orderInput(customer, domain.PaymentUnpaid,
		item("DEEP_CLEAN_EXPRESS", "gold"), item("DEEP_CLEAN_EXPRESS", "gold")))
	if err != nil {
		t.Fatalf("add order failed: %v", err)
	}

	items := order.LineItems
	items[0].UnitPrice = 1
	items[1].VariantKey = "white"
	updated, ack, err := svc.UpdateOrder(ctx, order.ID, domain.OrderPatch{LineItems: &items})
	if err != nil {
		t.Fatalf("update order failed: %v", err)
	}
	if err := ack.Wait(ctx); err != nil {
		t.Fatalf("remote update failed: %v", err)
	}
	if updated.LineItems[0].UnitPrice != 35000 || updated.LineItems[1].UnitPrice != 40000 {
		t.Fatalf("unexpected prices %d %d", updated.LineItems[0].UnitPrice, updated.LineItems[1].UnitPrice)
	}
	if updated.Subtotal != 75000 || updated.Total != 75000 {
		t.Fatalf("unexpected totals subtotal=%d total=%d", updated.Subtotal, updated.Total)
	}
}

func TestDeleteOrderCascadesCashFlows(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	customer := mustCustomer(t, svc)
	order, err := svc.AddOrder(ctx, orderInput(customer, domain.PaymentPaid, item("DEEP_CLEAN_EXPRESS", "gold")))
	if err != nil {
		t.Fatalf("add order failed: %v", err)
	}
	if _, err := svc.AddCashFlow(ctx, domain.CashFlowInput{Kind: domain.CashFlowExpense, Category: "Sabun", Amount: 15000}); err != nil {
		t.Fatalf("add cash flow failed: %v", err)
	}

	ack, err := svc.DeleteOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("delete order failed: %v", err)
	}
	if err := ack.Wait(ctx); err != nil {
		t.Fatalf("remote delete failed: %v", err)
	}

	if _, ok := svc.Order(order.ID); ok {
		t.Fatalf("order must be gone locally")
	}
	if flows := svc.CashFlows(); len(flows) != 1 || flows[0].Kind != domain.CashFlowExpense {
		t.Fatalf("expected only the expense to remain, got %+v", flows)
	}
	remote, _ := repo.ListCashFlows(ctx)
	if len(remote) != 1 {
		t.Fatalf("expected one remote cash flow, got %d", len(remote))
	}
	if _, err := svc.DeleteOrder(ctx, order.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for second delete, got %v", err)
	}
}

func TestReadyLinkWhenAllShoesReady(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	enabled := true
	svc.UpdateSettings(ctx, domain.SettingsPatch{WhatsAppNotificationEnabled: &enabled})
	customer := mustCustomer(t, svc)
	order, err := svc.AddOrder(ctx, orderInput(customer, domain.PaymentUnpaid,
		item("DEEP_CLEAN_EXPRESS", "gold"), item("UNYELLOWING", "platinum")))
	if err != nil {
		t.Fatalf("add order failed: %v", err)
	}

	first, err := svc.SetLineItemProcess(ctx, order.ID, order.LineItems[0].ID, domain.ProcessReady)
	if err != nil {
		t.Fatalf("process update failed: %v", err)
	}
	if first.ReadyLink != "" {
		t.Fatalf("link must wait for every shoe, got %q", first.ReadyLink)
	}

	second, err := svc.SetLineItemProcess(ctx, order.ID, order.LineItems[1].ID, domain.ProcessReady)
	if err != nil {
		t.Fatalf("process update failed: %v", err)
	}
	if !strings.HasPrefix(second.ReadyLink, "https://wa.me/6281234567890?text=") {
		t.Fatalf("unexpected ready link %q", second.ReadyLink)
	}

	if _, err := svc.SetLineItemProcess(ctx, order.ID, "missing", domain.ProcessReady); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for unknown item, got %v", err)
	}
	if _, err := svc.SetLineItemProcess(ctx, order.ID, order.LineItems[0].ID, "washing"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for unknown stage, got %v", err)
	}
}

func TestPickupDateSetWhenAllPickedUp(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	customer := mustCustomer(t, svc)
	order, err := svc.AddOrder(ctx, orderInput(customer, domain.PaymentPaid, item("DEEP_CLEAN_EXPRESS", "gold")))
	if err != nil {
		t.Fatalf("add order failed: %v", err)
	}
	res, err := svc.SetLineItemProcess(ctx, order.ID, order.LineItems[0].ID, domain.ProcessPickedUp)
	if err != nil {
		t.Fatalf("process update failed: %v", err)
	}
	if res.Order.PickupDate == nil {
		t.Fatalf("expected pickup date once every shoe is picked up")
	}
}

func seedUser(t *testing.T, repo *flakyRepo, username, digest string, role domain.Role) domain.User {
	t.Helper()
	user, err := repo.Store.InsertUser(context.Background(), domain.User{Username: username, PasswordHash: digest, Role: role, IsActive: true})
	if err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	return *user
}

func TestLoginLoadsDataAndLogoutEndsSession(t *testing.T) {
	svc, repo := newTestService()
	t.Cleanup(svc.Close)
	hash, _ := auth.HashPassword("rahasia1")
	seedUser(t, repo, "kasir", hash, domain.RoleCashier)

	if svc.Login(context.Background(), "kasir", "salah") {
		t.Fatalf("login with wrong password must fail")
	}
	if !svc.Login(context.Background(), "KASIR", "rahasia1") {
		t.Fatalf("login failed")
	}
	user, ok := svc.CurrentUser()
	if !ok || user.Username != "kasir" {
		t.Fatalf("unexpected current user %+v", user)
	}
	if svc.State().Users.Len() != 1 || !svc.State().SettingsLoaded() {
		t.Fatalf("login must load the initial data")
	}

	sess, _ := svc.Session()
	if _, err := svc.Authenticate(context.Background(), sess.Token); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}

	svc.Logout(context.Background())
	if _, ok := svc.CurrentUser(); ok {
		t.Fatalf("logout must clear the session")
	}
	if _, err := svc.Authenticate(context.Background(), sess.Token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected no session after logout, got %v", err)
	}
}

func TestLoginRejectsInactiveAndPlaintext(t *testing.T) {
	svc, repo := newTestService()
	t.Cleanup(svc.Close)
	seedUser(t, repo, "plain", "rahasia1", domain.RoleAdmin)
	hash, _ := auth.HashPassword("rahasia1")
	inactive := seedUser(t, repo, "nonaktif", hash, domain.RoleAdmin)
	off := false
	_ = repo.Store.UpdateUser(context.Background(), inactive.ID, domain.UserPatch{IsActive: &off})

	if svc.Login(context.Background(), "plain", "rahasia1") {
		t.Fatalf("plaintext stored password must never verify")
	}
	if svc.Login(context.Background(), "nonaktif", "rahasia1") {
		t.Fatalf("inactive user must not sign in")
	}
}

func TestLoginLockoutAfterFiveFailures(t *testing.T) {
	svc, repo := newTestService()
	t.Cleanup(svc.Close)
	hash, _ := auth.HashPassword("rahasia1")
	seedUser(t, repo, "admin", hash, domain.RoleAdmin)

	for i := 0; i < 5; i++ {
		if svc.Login(context.Background(), "admin", "salah") {
			t.Fatalf("wrong password accepted")
		}
	}
	if svc.Login(context.Background(), "admin", "rahasia1") {
		t.Fatalf("locked account must not sign in")
	}
}

func TestLoginUpgradesLegacyDigest(t *testing.T) {
	svc, repo := newTestService()
	t.Cleanup(svc.Close)
	user := seedUser(t, repo, "lama", auth.LegacyDigest("rahasia1"), domain.RoleAdmin)

	if !svc.Login(context.Background(), "lama", "rahasia1") {
		t.Fatalf("legacy digest must verify once")
	}
	svc.Flush()

	users, _ := repo.ListUsers(context.Background())
	for _, u := range users {
		if u.ID == user.ID && !strings.HasPrefix(u.PasswordHash, "$2") {
			t.Fatalf("expected bcrypt digest after upgrade, got %q", u.PasswordHash)
		}
	}
}

func TestIdleSessionExpires(t *testing.T) {
	now := time.Now()
	svc, repo := newTestService(WithClock(func() time.Time { return now }), WithIdleTimeout(30*time.Minute))
	t.Cleanup(svc.Close)
	hash, _ := auth.HashPassword("rahasia1")
	seedUser(t, repo, "kasir", hash, domain.RoleCashier)

	if !svc.Login(context.Background(), "kasir", "rahasia1") {
		t.Fatalf("login failed")
	}
	sess, _ := svc.Session()

	now = now.Add(20 * time.Minute)
	if _, err := svc.Authenticate(context.Background(), sess.Token); err != nil {
		t.Fatalf("active session rejected: %v", err)
	}
	now = now.Add(31 * time.Minute)
	if _, err := svc.Authenticate(context.Background(), sess.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected idle expiry, got %v", err)
	}
	if _, ok := svc.Session(); ok {
		t.Fatalf("expired session must be cleared")
	}
}

func TestResumeRestoresPersistedSession(t *testing.T) {
	sessions := cache.NewMemorySessionCache()
	tokens := auth.NewTokenIssuer(testSecret, time.Hour)
	repo := &flakyRepo{Store: memory.New()}
	hash, _ := auth.HashPassword("rahasia1")
	seedUser(t, repo, "owner", hash, domain.RoleSuperuser)

	first := New(repo, catalog.Default(), WithSessionCache(sessions), WithTokenIssuer(tokens))
	if !first.Login(context.Background(), "owner", "rahasia1") {
		t.Fatalf("login failed")
	}
	first.Close()

	second := New(repo, catalog.Default(), WithSessionCache(sessions), WithTokenIssuer(tokens))
	t.Cleanup(second.Close)
	if !second.Resume(context.Background()) {
		t.Fatalf("resume failed")
	}
	user, ok := second.CurrentUser()
	if !ok || user.Username != "owner" {
		t.Fatalf("unexpected resumed user %+v", user)
	}

	second.Logout(context.Background())
	third := New(repo, catalog.Default(), WithSessionCache(sessions), WithTokenIssuer(tokens))
	if third.Resume(context.Background()) {
		t.Fatalf("resume after logout must fail")
	}
}

func TestOnlyMasterGrantsSuperuser(t *testing.T) {
	svc, _ := newTestService()
	master := domain.User{ID: "m-1", Username: "owner", Role: domain.RoleSuperuser, IsMaster: true}
	super := domain.User{ID: "s-1", Username: "wakil", Role: domain.RoleSuperuser}

	_, err := svc.AddUser(WithActor(context.Background(), super), domain.UserInput{Username: "boss", Password: "rahasia1", Role: domain.RoleSuperuser, IsActive: true})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-master must not create superusers, got %v", err)
	}

	created, err := svc.AddUser(WithActor(context.Background(), master), domain.UserInput{Username: "boss", Password: "rahasia1", Role: domain.RoleSuperuser, IsActive: true})
	if err != nil {
		t.Fatalf("master create failed: %v", err)
	}
	if created.PasswordHash == "rahasia1" || !strings.HasPrefix(created.PasswordHash, "$2") {
		t.Fatalf("password must be stored as bcrypt")
	}

	_, err = svc.AddUser(WithActor(context.Background(), master), domain.UserInput{Username: "BOSS", Password: "rahasia1", Role: domain.RoleAdmin, IsActive: true})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected duplicate username conflict, got %v", err)
	}

	admin := domain.RoleAdmin
	if _, _, err := svc.UpdateUser(WithActor(context.Background(), super), created.ID, domain.UserUpdate{Role: &admin}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-master must not demote a superuser, got %v", err)
	}
	if _, err := svc.DeleteUser(WithActor(context.Background(), created), created.ID); !errors.Is(err, auth.ErrSelfDelete) {
		t.Fatalf("expected self delete error, got %v", err)
	}
	if _, err := svc.AddUser(context.Background(), domain.UserInput{Username: "anon", Password: "rahasia1", Role: domain.RoleCashier}); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected no session without an actor, got %v", err)
	}
}

func TestFindOrderByInvoiceIgnoresCase(t *testing.T) {
	svc, _ := newTestService()
	customer := mustCustomer(t, svc)
	order, err := svc.AddOrder(context.Background(), orderInput(customer, domain.PaymentUnpaid, item("REPAINT", "platinum")))
	if err != nil {
		t.Fatalf("add order failed: %v", err)
	}
	found, ok := svc.FindOrderByInvoice(strings.ToLower(order.InvoiceNumber))
	if !ok || found.ID != order.ID {
		t.Fatalf("order not found by invoice")
	}
	if _, ok := svc.FindOrderByInvoice(""); ok {
		t.Fatalf("empty invoice must not match")
	}
}
