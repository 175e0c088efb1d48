package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"

	"shoezclean/backend/internal/domain"
	"shoezclean/backend/internal/store"
)

type Store struct {
	db  *sql.DB
	log *logrus.Entry
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(16)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, log: logrus.WithField("module", "postgres-store")}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const orderColumns = `id, invoice_number, customer_id, customer_name, customer_phone, line_items,
	entry_date, estimated_date, pickup_date, COALESCE(notes, ''), payment_status,
	COALESCE(payment_method, ''), subtotal, discount, total, COALESCE(branch_id, ''),
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		o         domain.Order
		lineItems []byte
		pickup    sql.NullTime
	)
	err := row.Scan(&o.ID, &o.InvoiceNumber, &o.CustomerID, &o.CustomerName, &o.CustomerPhone, &lineItems,
		&o.EntryDate, &o.EstimatedDate, &pickup, &o.Notes, &o.PaymentStatus,
		&o.PaymentMethod, &o.Subtotal, &o.Discount, &o.Total, &o.BranchID,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	if err := json.Unmarshal(lineItems, &o.LineItems); err != nil {
		return domain.Order{}, fmt.Errorf("decode line items for order %s: %w", o.ID, err)
	}
	if pickup.Valid {
		t := pickup.Time
		o.PickupDate = &t
	}
	return o, nil
}

func (s *Store) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, 256)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *Store) InsertOrder(ctx context.Context, o domain.Order) (*domain.Order, error) {
	lineItems, err := json.Marshal(o.LineItems)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO orders (invoice_number, customer_id, customer_name, customer_phone, line_items,
			entry_date, estimated_date, pickup_date, notes, payment_status, payment_method,
			subtotal, discount, total, branch_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,COALESCE($16::timestamptz, now()),COALESCE($17::timestamptz, now()))
		RETURNING `+orderColumns,
		o.InvoiceNumber, o.CustomerID, o.CustomerName, o.CustomerPhone, string(lineItems),
		o.EntryDate, o.EstimatedDate, nullTime(o.PickupDate), nullIfEmpty(o.Notes), o.PaymentStatus,
		nullIfEmpty(string(o.PaymentMethod)), o.Subtotal, o.Discount, o.Total, nullIfEmpty(o.BranchID),
		nullZeroTime(o.CreatedAt), nullZeroTime(o.UpdatedAt))

	created, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) UpdateOrder(ctx context.Context, id string, p domain.OrderPatch) error {
	var set setBuilder
	set.add("customer_name", p.CustomerName)
	set.add("customer_phone", p.CustomerPhone)
	if p.LineItems != nil {
		lineItems, err := json.Marshal(*p.LineItems)
		if err != nil {
			return err
		}
		set.addValue("line_items", string(lineItems))
	}
	set.add("estimated_date", p.EstimatedDate)
	set.add("pickup_date", p.PickupDate)
	set.add("notes", p.Notes)
	set.add("payment_status", p.PaymentStatus)
	set.add("payment_method", p.PaymentMethod)
	set.add("subtotal", p.Subtotal)
	set.add("discount", p.Discount)
	set.add("total", p.Total)
	set.add("branch_id", p.BranchID)
	if p.UpdatedAt != nil {
		set.add("updated_at", p.UpdatedAt)
	} else {
		set.raw("updated_at = now()")
	}
	return s.execUpdate(ctx, "orders", id, set)
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	return s.execDelete(ctx, "orders", id)
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, total_orders, total_spent, created_at
		FROM customers
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 128)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.TotalOrders, &c.TotalSpent, &c.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *Store) InsertCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO customers (name, phone, total_orders, total_spent, created_at)
		VALUES ($1,$2,$3,$4,COALESCE($5::timestamptz, now()))
		RETURNING id, created_at
	`, c.Name, c.Phone, c.TotalOrders, c.TotalSpent, nullZeroTime(c.CreatedAt)).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, id string, p domain.CustomerPatch) error {
	var set setBuilder
	set.add("name", p.Name)
	set.add("phone", p.Phone)
	set.add("total_orders", p.TotalOrders)
	set.add("total_spent", p.TotalSpent)
	return s.execUpdate(ctx, "customers", id, set)
}

func (s *Store) ListDiscounts(ctx context.Context) ([]domain.Discount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, kind, value::float8, is_active, created_at
		FROM discounts
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	discounts := make([]domain.Discount, 0, 16)
	for rows.Next() {
		var d domain.Discount
		if err := rows.Scan(&d.ID, &d.Name, &d.Kind, &d.Value, &d.IsActive, &d.CreatedAt); err != nil {
			return nil, err
		}
		discounts = append(discounts, d)
	}
	return discounts, rows.Err()
}

func (s *Store) InsertDiscount(ctx context.Context, d domain.Discount) (*domain.Discount, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO discounts (name, kind, value, is_active, created_at)
		VALUES ($1,$2,$3,$4,COALESCE($5::timestamptz, now()))
		RETURNING id, created_at
	`, d.Name, d.Kind, d.Value, d.IsActive, nullZeroTime(d.CreatedAt)).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) UpdateDiscount(ctx context.Context, id string, p domain.DiscountPatch) error {
	var set setBuilder
	set.add("name", p.Name)
	set.add("kind", p.Kind)
	set.add("value", p.Value)
	set.add("is_active", p.IsActive)
	return s.execUpdate(ctx, "discounts", id, set)
}

func (s *Store) DeleteDiscount(ctx context.Context, id string) error {
	return s.execDelete(ctx, "discounts", id)
}

func (s *Store) ListCashFlows(ctx context.Context) ([]domain.CashFlowEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, category, description, amount, date, COALESCE(order_id, ''), created_at
		FROM cash_flows
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.CashFlowEntry, 0, 256)
	for rows.Next() {
		var e domain.CashFlowEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Category, &e.Description, &e.Amount, &e.Date, &e.OrderID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) InsertCashFlow(ctx context.Context, e domain.CashFlowEntry) (*domain.CashFlowEntry, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO cash_flows (kind, category, description, amount, date, order_id, created_at)
		VALUES ($1,$2,$3,$4,COALESCE($5::timestamptz, now()),$6,COALESCE($7::timestamptz, now()))
		RETURNING id, date, created_at
	`, e.Kind, e.Category, e.Description, e.Amount, nullZeroTime(e.Date), nullIfEmpty(e.OrderID), nullZeroTime(e.CreatedAt)).
		Scan(&e.ID, &e.Date, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) DeleteCashFlow(ctx context.Context, id string) error {
	return s.execDelete(ctx, "cash_flows", id)
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, password_hash, role, is_active, is_master, created_at
		FROM app_users
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, 16)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.IsActive, &u.IsMaster, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) InsertUser(ctx context.Context, u domain.User) (*domain.User, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO app_users (username, password_hash, role, is_active, is_master, created_at)
		VALUES ($1,$2,$3,$4,$5,COALESCE($6::timestamptz, now()))
		RETURNING id, created_at
	`, u.Username, u.PasswordHash, u.Role, u.IsActive, u.IsMaster, nullZeroTime(u.CreatedAt)).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, p domain.UserPatch) error {
	var set setBuilder
	set.add("username", p.Username)
	set.add("password_hash", p.PasswordHash)
	set.add("role", p.Role)
	set.add("is_active", p.IsActive)
	err := s.execUpdate(ctx, "app_users", id, set)
	if isUniqueViolation(err) {
		return store.ErrConflict
	}
	return err
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.execDelete(ctx, "app_users", id)
}

func (s *Store) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, address, phone, is_active, created_at
		FROM branches
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	branches := make([]domain.Branch, 0, 8)
	for rows.Next() {
		var b domain.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.Phone, &b.IsActive, &b.CreatedAt); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

func (s *Store) InsertBranch(ctx context.Context, b domain.Branch) (*domain.Branch, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO branches (name, address, phone, is_active, created_at)
		VALUES ($1,$2,$3,$4,COALESCE($5::timestamptz, now()))
		RETURNING id, created_at
	`, b.Name, b.Address, b.Phone, b.IsActive, nullZeroTime(b.CreatedAt)).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) UpdateBranch(ctx context.Context, id string, p domain.BranchPatch) error {
	var set setBuilder
	set.add("name", p.Name)
	set.add("address", p.Address)
	set.add("phone", p.Phone)
	set.add("is_active", p.IsActive)
	return s.execUpdate(ctx, "branches", id, set)
}

func (s *Store) DeleteBranch(ctx context.Context, id string) error {
	return s.execDelete(ctx, "branches", id)
}

func (s *Store) GetSettings(ctx context.Context) (*domain.Settings, error) {
	var st domain.Settings
	err := s.db.QueryRowContext(ctx, `
		SELECT name, tagline, phone, address, email, website, bank_name, bank_account, account_holder,
			COALESCE(qr_payment, ''), COALESCE(logo, ''), whatsapp_notification_enabled,
			COALESCE(whatsapp_template, ''), COALESCE(sidebar_theme, '')
		FROM store_settings
		WHERE id = 1
	`).Scan(&st.Name, &st.Tagline, &st.Phone, &st.Address, &st.Email, &st.Website, &st.BankName, &st.BankAccount, &st.AccountHolder,
		&st.QRPayment, &st.Logo, &st.WhatsAppNotificationEnabled, &st.WhatsAppTemplate, &st.SidebarTheme)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

func (s *Store) InsertSettings(ctx context.Context, st domain.Settings) (*domain.Settings, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO store_settings (id, name, tagline, phone, address, email, website, bank_name, bank_account,
			account_holder, qr_payment, logo, whatsapp_notification_enabled, whatsapp_template, sidebar_theme)
		VALUES (1,$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, st.Name, st.Tagline, st.Phone, st.Address, st.Email, st.Website, st.BankName, st.BankAccount,
		st.AccountHolder, nullIfEmpty(st.QRPayment), nullIfEmpty(st.Logo), st.WhatsAppNotificationEnabled,
		nullIfEmpty(st.WhatsAppTemplate), nullIfEmpty(st.SidebarTheme))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	return &st, nil
}

func (s *Store) UpdateSettings(ctx context.Context, p domain.SettingsPatch) error {
	var set setBuilder
	set.add("name", p.Name)
	set.add("tagline", p.Tagline)
	set.add("phone", p.Phone)
	set.add("address", p.Address)
	set.add("email", p.Email)
	set.add("website", p.Website)
	set.add("bank_name", p.BankName)
	set.add("bank_account", p.BankAccount)
	set.add("account_holder", p.AccountHolder)
	set.add("qr_payment", p.QRPayment)
	set.add("logo", p.Logo)
	set.add("whatsapp_notification_enabled", p.WhatsAppNotificationEnabled)
	set.add("whatsapp_template", p.WhatsAppTemplate)
	set.add("sidebar_theme", p.SidebarTheme)
	set.raw("updated_at = now()")
	return s.execUpdate(ctx, "store_settings", "1", set)
}

// Subscribe holds one pooled connection in LISTEN mode for as long as ctx lives.
func (s *Store) Subscribe(ctx context.Context) (<-chan domain.ChangeEvent, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.ExecContext(ctx, `LISTEN `+changeChannel); err != nil {
		_ = conn.Close()
		return nil, err
	}

	events := make(chan domain.ChangeEvent, 64)
	go func() {
		defer close(events)
		defer conn.Close()
		err := conn.Raw(func(driverConn any) error {
			pgxConn := driverConn.(*stdlib.Conn).Conn()
			for {
				n, err := pgxConn.WaitForNotification(ctx)
				if err != nil {
					return err
				}
				var ev domain.ChangeEvent
				if err := json.Unmarshal([]byte(n.Payload), &ev); err != nil {
					continue
				}
				select {
				case events <- ev:
				default:
				}
			}
		})
		if err != nil && ctx.Err() == nil {
			s.log.WithError(err).Warn("change feed stopped")
		}
	}()
	return events, nil
}

const changeChannel = "shoez_changes"

type setBuilder struct {
	cols []string
	args []any
}

func (b *setBuilder) add(col string, val any) {
	switch v := val.(type) {
	case *string:
		if v != nil {
			b.addValue(col, *v)
		}
	case *int:
		if v != nil {
			b.addValue(col, *v)
		}
	case *int64:
		if v != nil {
			b.addValue(col, *v)
		}
	case *float64:
		if v != nil {
			b.addValue(col, *v)
		}
	case *bool:
		if v != nil {
			b.addValue(col, *v)
		}
	case *time.Time:
		if v != nil {
			b.addValue(col, *v)
		}
	case *domain.PaymentStatus:
		if v != nil {
			b.addValue(col, string(*v))
		}
	case *domain.PaymentMethod:
		if v != nil {
			b.addValue(col, nullIfEmpty(string(*v)))
		}
	case *domain.DiscountKind:
		if v != nil {
			b.addValue(col, string(*v))
		}
	case *domain.Role:
		if v != nil {
			b.addValue(col, string(*v))
		}
	default:
		panic(fmt.Sprintf("postgres: unsupported patch field %s (%T)", col, val))
	}
}

func (b *setBuilder) addValue(col string, val any) {
	b.args = append(b.args, val)
	b.cols = append(b.cols, fmt.Sprintf("%s = $%d", col, len(b.args)))
}

func (b *setBuilder) raw(expr string) {
	b.cols = append(b.cols, expr)
}

func (s *Store) execUpdate(ctx context.Context, table string, id string, set setBuilder) error {
	if len(set.cols) == 0 {
		return nil
	}
	args := append(set.args, id)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id::text = $%d`, table, strings.Join(set.cols, ", "), len(args))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) execDelete(ctx context.Context, table string, id string) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id::text = $1`, table), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}

func nullZeroTime(val time.Time) any {
	if val.IsZero() {
		return nil
	}
	return val
}
