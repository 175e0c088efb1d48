package entity

import (
	"sync"
	"time"

	"shoezclean/backend/internal/domain"
)

// Store is the in-memory mirror of the remote data plus the signed-in user.
// It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	Orders    *Collection[domain.Order]
	Customers *Collection[domain.Customer]
	Discounts *Collection[domain.Discount]
	CashFlows *Collection[domain.CashFlowEntry]
	Users     *Collection[domain.User]
	Branches  *Collection[domain.Branch]

	settings    domain.Settings
	hasSettings bool
	session     *Session

	watchMu  sync.Mutex
	watchers map[int]chan domain.Table
	nextID   int
}

// Session is the signed-in user and the token that identifies the session.
type Session struct {
	User         domain.User
	Token        string
	ExpiresAt    time.Time
	LastActivity time.Time
}

func New() *Store {
	s := &Store{
		settings: domain.DefaultSettings(),
		watchers: make(map[int]chan domain.Table),
	}
	s.Orders = newCollection(s, domain.TableOrders, func(o domain.Order) string { return o.ID }, domain.Order.Clone)
	s.Customers = newCollection(s, domain.TableCustomers, func(c domain.Customer) string { return c.ID }, nil)
	s.Discounts = newCollection(s, domain.TableDiscounts, func(d domain.Discount) string { return d.ID }, nil)
	s.CashFlows = newCollection(s, domain.TableCashFlows, func(c domain.CashFlowEntry) string { return c.ID }, nil)
	s.Users = newCollection(s, domain.TableUsers, func(u domain.User) string { return u.ID }, nil)
	s.Branches = newCollection(s, domain.TableBranches, func(b domain.Branch) string { return b.ID }, nil)
	return s
}

// Settings returns the current settings. Before the first load this is the
// built-in default.
func (s *Store) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SettingsLoaded reports whether settings came from the remote store.
func (s *Store) SettingsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasSettings
}

func (s *Store) SetSettings(settings domain.Settings) {
	s.mu.Lock()
	s.settings = settings
	s.hasSettings = true
	s.mu.Unlock()
	s.notify(domain.TableSettings)
}

func (s *Store) PatchSettings(patch domain.SettingsPatch) domain.Settings {
	s.mu.Lock()
	patch.Apply(&s.settings)
	out := s.settings
	s.mu.Unlock()
	s.notify(domain.TableSettings)
	return out
}

func (s *Store) Session() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

func (s *Store) SetSession(session Session) {
	s.mu.Lock()
	s.session = &session
	s.mu.Unlock()
}

// TouchSession records activity on the current session.
func (s *Store) TouchSession(at time.Time) {
	s.mu.Lock()
	if s.session != nil {
		s.session.LastActivity = at
	}
	s.mu.Unlock()
}

func (s *Store) ClearSession() {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
}

// Reset drops all mirrored data and the session.
func (s *Store) Reset() {
	s.mu.Lock()
	s.Orders.reset()
	s.Customers.reset()
	s.Discounts.reset()
	s.CashFlows.reset()
	s.Users.reset()
	s.Branches.reset()
	s.settings = domain.DefaultSettings()
	s.hasSettings = false
	s.session = nil
	s.mu.Unlock()
	for _, t := range []domain.Table{domain.TableOrders, domain.TableCustomers, domain.TableDiscounts, domain.TableCashFlows, domain.TableUsers, domain.TableBranches, domain.TableSettings} {
		s.notify(t)
	}
}

// Snapshot is a consistent copy of everything reports and exports read.
type Snapshot struct {
	Orders    []domain.Order
	Customers []domain.Customer
	Discounts []domain.Discount
	CashFlows []domain.CashFlowEntry
	Branches  []domain.Branch
	Settings  domain.Settings
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Orders:    s.Orders.copyLocked(),
		Customers: s.Customers.copyLocked(),
		Discounts: s.Discounts.copyLocked(),
		CashFlows: s.CashFlows.copyLocked(),
		Branches:  s.Branches.copyLocked(),
		Settings:  s.settings,
	}
}

// Watch returns a channel that receives the name of each table that changes,
// and a function that stops the subscription. Notifications are dropped when
// the watcher is not keeping up.
func (s *Store) Watch() (<-chan domain.Table, func()) {
	ch := make(chan domain.Table, 32)

	s.watchMu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = ch
	s.watchMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.watchMu.Lock()
			delete(s.watchers, id)
			close(ch)
			s.watchMu.Unlock()
		})
	}
}

func (s *Store) notify(table domain.Table) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- table:
		default:
		}
	}
}
