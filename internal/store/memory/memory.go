package memory

import (
	"cmp"
	"context"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"shoezclean/backend/internal/domain"
	"shoezclean/backend/internal/store"
	"shoezclean/backend/internal/xid"
)

// Store is an in-process Repository with its own change feed. It backs dev
// mode and tests.
type Store struct {
	mu        sync.RWMutex
	orders    map[string]domain.Order
	customers map[string]domain.Customer
	discounts map[string]domain.Discount
	cashFlows map[string]domain.CashFlowEntry
	users     map[string]domain.User
	branches  map[string]domain.Branch
	settings  *domain.Settings

	subsMu  sync.Mutex
	subs    map[int]chan domain.ChangeEvent
	nextSub int

	now func() time.Time
}

func New() *Store {
	return &Store{
		orders:    make(map[string]domain.Order),
		customers: make(map[string]domain.Customer),
		discounts: make(map[string]domain.Discount),
		cashFlows: make(map[string]domain.CashFlowEntry),
		users:     make(map[string]domain.User),
		branches:  make(map[string]domain.Branch),
		subs:      make(map[int]chan domain.ChangeEvent),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// NewSeeded returns a store with the dev accounts and one outlet. Settings are
// left absent so the first load writes the defaults.
func NewSeeded() *Store {
	s := New()
	for _, u := range seedUsers() {
		s.users[u.ID] = u
	}
	branch := domain.Branch{
		ID:        xid.New(),
		Name:      "Cabang Selatan",
		Address:   "Jl. Fatmawati No. 8, Jakarta",
		Phone:     "081298765432",
		IsActive:  true,
		CreatedAt: s.now(),
	}
	s.branches[branch.ID] = branch
	return s
}

// seedUsers builds the dev accounts. Passwords come from SEED_OWNER_PASSWORD,
// SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; unset values fall back to
// dev defaults with a warning. Production runs on postgres and never seeds.
func seedUsers() []domain.User {
	ownerPwd := envOr("SEED_OWNER_PASSWORD", "owner123")
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_OWNER_PASSWORD") == "" || os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		logrus.WithField("module", "memory-store").Warn("using default dev credentials, set SEED_*_PASSWORD to override")
	}

	now := time.Now().UTC()
	users := make([]domain.User, 0, 3)
	for _, u := range []struct {
		username string
		password string
		role     domain.Role
		master   bool
	}{
		{"owner", ownerPwd, domain.RoleSuperuser, true},
		{"admin", adminPwd, domain.RoleAdmin, false},
		{"kasir", cashierPwd, domain.RoleCashier, false},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			logrus.WithField("module", "memory-store").Fatalf("failed to hash seed password for %s: %v", u.username, err)
		}
		users = append(users, domain.User{
			ID:           xid.New(),
			Username:     u.username,
			PasswordHash: string(hash),
			Role:         u.role,
			IsActive:     true,
			IsMaster:     u.master,
			CreatedAt:    now,
		})
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// sortedRows returns rows newest first, ties broken by id.
func sortedRows[T any](rows map[string]T, created func(T) time.Time, id func(T) string) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	slices.SortFunc(out, func(a, b T) int {
		if c := created(b).Compare(created(a)); c != 0 {
			return c
		}
		return cmp.Compare(id(a), id(b))
	})
	return out
}

func (s *Store) stamp(created time.Time) time.Time {
	if created.IsZero() {
		return s.now()
	}
	return created
}

func (s *Store) ListOrders(_ context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := sortedRows(s.orders, func(o domain.Order) time.Time { return o.CreatedAt }, func(o domain.Order) string { return o.ID })
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out, nil
}

func (s *Store) InsertOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	order = order.Clone()
	order.ID = xid.New()
	order.CreatedAt = s.stamp(order.CreatedAt)
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}

	s.mu.Lock()
	s.orders[order.ID] = order
	s.mu.Unlock()

	s.publish(domain.TableOrders, domain.ChangeInsert)
	created := order.Clone()
	return &created, nil
}

func (s *Store) UpdateOrder(_ context.Context, id string, patch domain.OrderPatch) error {
	s.mu.Lock()
	order, ok := s.orders[id]
	if !ok {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	order = order.Clone()
	patch.Apply(&order)
	s.orders[id] = order
	s.mu.Unlock()

	s.publish(domain.TableOrders, domain.ChangeUpdate)
	return nil
}

func (s *Store) DeleteOrder(_ context.Context, id string) error {
	return deleteRow(s, s.orders, id, domain.TableOrders)
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedRows(s.customers, func(c domain.Customer) time.Time { return c.CreatedAt }, func(c domain.Customer) string { return c.ID }), nil
}

func (s *Store) InsertCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	customer.ID = xid.New()
	customer.CreatedAt = s.stamp(customer.CreatedAt)

	s.mu.Lock()
	s.customers[customer.ID] = customer
	s.mu.Unlock()

	s.publish(domain.TableCustomers, domain.ChangeInsert)
	return &customer, nil
}

func (s *Store) UpdateCustomer(_ context.Context, id string, patch domain.CustomerPatch) error {
	return updateRow(s, s.customers, id, domain.TableCustomers, patch.Apply)
}

func (s *Store) ListDiscounts(_ context.Context) ([]domain.Discount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedRows(s.discounts, func(d domain.Discount) time.Time { return d.CreatedAt }, func(d domain.Discount) string { return d.ID }), nil
}

func (s *Store) InsertDiscount(_ context.Context, discount domain.Discount) (*domain.Discount, error) {
	discount.ID = xid.New()
	discount.CreatedAt = s.stamp(discount.CreatedAt)

	s.mu.Lock()
	s.discounts[discount.ID] = discount
	s.mu.Unlock()

	s.publish(domain.TableDiscounts, domain.ChangeInsert)
	return &discount, nil
}

func (s *Store) UpdateDiscount(_ context.Context, id string, patch domain.DiscountPatch) error {
	return updateRow(s, s.discounts, id, domain.TableDiscounts, patch.Apply)
}

func (s *Store) DeleteDiscount(_ context.Context, id string) error {
	return deleteRow(s, s.discounts, id, domain.TableDiscounts)
}

func (s *Store) ListCashFlows(_ context.Context) ([]domain.CashFlowEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedRows(s.cashFlows, func(c domain.CashFlowEntry) time.Time { return c.CreatedAt }, func(c domain.CashFlowEntry) string { return c.ID }), nil
}

func (s *Store) InsertCashFlow(_ context.Context, entry domain.CashFlowEntry) (*domain.CashFlowEntry, error) {
	entry.ID = xid.New()
	entry.CreatedAt = s.stamp(entry.CreatedAt)
	if entry.Date.IsZero() {
		entry.Date = entry.CreatedAt
	}

	s.mu.Lock()
	s.cashFlows[entry.ID] = entry
	s.mu.Unlock()

	s.publish(domain.TableCashFlows, domain.ChangeInsert)
	return &entry, nil
}

func (s *Store) DeleteCashFlow(_ context.Context, id string) error {
	return deleteRow(s, s.cashFlows, id, domain.TableCashFlows)
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedRows(s.users, func(u domain.User) time.Time { return u.CreatedAt }, func(u domain.User) string { return u.ID }), nil
}

func (s *Store) InsertUser(_ context.Context, user domain.User) (*domain.User, error) {
	user.ID = xid.New()
	user.CreatedAt = s.stamp(user.CreatedAt)

	s.mu.Lock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, user.Username) {
			s.mu.Unlock()
			return nil, store.ErrConflict
		}
	}
	s.users[user.ID] = user
	s.mu.Unlock()

	s.publish(domain.TableUsers, domain.ChangeInsert)
	return &user, nil
}

func (s *Store) UpdateUser(_ context.Context, id string, patch domain.UserPatch) error {
	if patch.Username != nil {
		s.mu.RLock()
		for _, existing := range s.users {
			if existing.ID != id && strings.EqualFold(existing.Username, *patch.Username) {
				s.mu.RUnlock()
				return store.ErrConflict
			}
		}
		s.mu.RUnlock()
	}
	return updateRow(s, s.users, id, domain.TableUsers, patch.Apply)
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	return deleteRow(s, s.users, id, domain.TableUsers)
}

func (s *Store) ListBranches(_ context.Context) ([]domain.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedRows(s.branches, func(b domain.Branch) time.Time { return b.CreatedAt }, func(b domain.Branch) string { return b.ID }), nil
}

func (s *Store) InsertBranch(_ context.Context, branch domain.Branch) (*domain.Branch, error) {
	branch.ID = xid.New()
	branch.CreatedAt = s.stamp(branch.CreatedAt)

	s.mu.Lock()
	s.branches[branch.ID] = branch
	s.mu.Unlock()

	s.publish(domain.TableBranches, domain.ChangeInsert)
	return &branch, nil
}

func (s *Store) UpdateBranch(_ context.Context, id string, patch domain.BranchPatch) error {
	return updateRow(s, s.branches, id, domain.TableBranches, patch.Apply)
}

func (s *Store) DeleteBranch(_ context.Context, id string) error {
	return deleteRow(s, s.branches, id, domain.TableBranches)
}

func (s *Store) GetSettings(_ context.Context) (*domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return nil, store.ErrNotFound
	}
	settings := *s.settings
	return &settings, nil
}

func (s *Store) InsertSettings(_ context.Context, settings domain.Settings) (*domain.Settings, error) {
	s.mu.Lock()
	if s.settings != nil {
		s.mu.Unlock()
		return nil, store.ErrConflict
	}
	stored := settings
	s.settings = &stored
	s.mu.Unlock()

	s.publish(domain.TableSettings, domain.ChangeInsert)
	return &settings, nil
}

func (s *Store) UpdateSettings(_ context.Context, patch domain.SettingsPatch) error {
	s.mu.Lock()
	if s.settings == nil {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	patch.Apply(s.settings)
	s.mu.Unlock()

	s.publish(domain.TableSettings, domain.ChangeUpdate)
	return nil
}

func updateRow[T any](s *Store, rows map[string]T, id string, table domain.Table, apply func(*T)) error {
	s.mu.Lock()
	row, ok := rows[id]
	if !ok {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	apply(&row)
	rows[id] = row
	s.mu.Unlock()

	s.publish(table, domain.ChangeUpdate)
	return nil
}

func deleteRow[T any](s *Store, rows map[string]T, id string, table domain.Table) error {
	s.mu.Lock()
	if _, ok := rows[id]; !ok {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	delete(rows, id)
	s.mu.Unlock()

	s.publish(table, domain.ChangeDelete)
	return nil
}

func (s *Store) Subscribe(ctx context.Context) (<-chan domain.ChangeEvent, error) {
	ch := make(chan domain.ChangeEvent, 64)

	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subsMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subsMu.Lock()
		delete(s.subs, id)
		close(ch)
		s.subsMu.Unlock()
	}()
	return ch, nil
}

// publish never blocks; a slow subscriber drops events.
func (s *Store) publish(table domain.Table, kind domain.ChangeType) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- domain.ChangeEvent{Table: table, Type: kind}:
		default:
		}
	}
}
