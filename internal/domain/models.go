package domain

import (
	"slices"
	"time"
)

type PaymentStatus string

const (
	PaymentUnpaid    PaymentStatus = "unpaid"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCancelled PaymentStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentQRIS     PaymentMethod = "qris"
)

// PaymentMethods lists the methods in the order reports present them.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentTransfer, PaymentQRIS}

type ProcessStatus string

const (
	ProcessReceived  ProcessStatus = "received"
	ProcessCleaning  ProcessStatus = "cleaning"
	ProcessDrying    ProcessStatus = "drying"
	ProcessFinishing ProcessStatus = "finishing"
	ProcessReady     ProcessStatus = "ready"
	ProcessPickedUp  ProcessStatus = "picked_up"
)

var processLabels = map[ProcessStatus]string{
	ProcessReceived:  "Diterima",
	ProcessCleaning:  "Sedang Disikat",
	ProcessDrying:    "Sedang Dikeringkan",
	ProcessFinishing: "Finishing",
	ProcessReady:     "Siap Diambil",
	ProcessPickedUp:  "Sudah Diambil",
}

// ProcessStatuses is the workshop pipeline in order.
var ProcessStatuses = []ProcessStatus{
	ProcessReceived,
	ProcessCleaning,
	ProcessDrying,
	ProcessFinishing,
	ProcessReady,
	ProcessPickedUp,
}

func (s ProcessStatus) Valid() bool {
	_, ok := processLabels[s]
	return ok
}

func (s ProcessStatus) Label() string {
	return processLabels[s]
}

type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

type CashFlowKind string

const (
	CashFlowIncome  CashFlowKind = "income"
	CashFlowExpense CashFlowKind = "expense"
)

type Role string

const (
	RoleSuperuser Role = "superuser"
	RoleAdmin     Role = "admin"
	RoleCashier   Role = "cashier"
)

// LineItem is one pair of shoes on an order. UnitPrice is captured when the
// service is selected and never re-read from the catalog afterwards.
type LineItem struct {
	ID             string        `json:"id"`
	Brand          string        `json:"brand"`
	ServiceKey     string        `json:"service_key"`
	VariantKey     string        `json:"variant_key"`
	UnitPrice      int64         `json:"unit_price"`
	DiscountID     string        `json:"discount_id,omitempty"`
	DiscountAmount int64         `json:"discount_amount"`
	ProcessStatus  ProcessStatus `json:"process_status"`
}

type Order struct {
	ID            string        `json:"id"`
	InvoiceNumber string        `json:"invoice_number"`
	CustomerID    string        `json:"customer_id"`
	CustomerName  string        `json:"customer_name"`
	CustomerPhone string        `json:"customer_phone"`
	LineItems     []LineItem    `json:"line_items"`
	EntryDate     time.Time     `json:"entry_date"`
	EstimatedDate time.Time     `json:"estimated_date"`
	PickupDate    *time.Time    `json:"pickup_date,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
	Subtotal      int64         `json:"subtotal"`
	Discount      int64         `json:"discount"`
	Total         int64         `json:"total"`
	BranchID      string        `json:"branch_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (o Order) ShoeCount() int {
	return len(o.LineItems)
}

// AllReady reports whether every line item has reached the ready stage.
func (o Order) AllReady() bool {
	if len(o.LineItems) == 0 {
		return false
	}
	for _, item := range o.LineItems {
		if item.ProcessStatus != ProcessReady {
			return false
		}
	}
	return true
}

func (o Order) Clone() Order {
	o.LineItems = slices.Clone(o.LineItems)
	if o.PickupDate != nil {
		pickup := *o.PickupDate
		o.PickupDate = &pickup
	}
	return o
}

type Customer struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	TotalOrders int       `json:"total_orders"`
	TotalSpent  int64     `json:"total_spent"`
	CreatedAt   time.Time `json:"created_at"`
}

type Discount struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Kind      DiscountKind `json:"kind"`
	Value     float64      `json:"value"`
	IsActive  bool         `json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
}

type CashFlowEntry struct {
	ID          string       `json:"id"`
	Kind        CashFlowKind `json:"kind"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Amount      int64        `json:"amount"`
	Date        time.Time    `json:"date"`
	OrderID     string       `json:"order_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	IsMaster     bool      `json:"is_master"`
	CreatedAt    time.Time `json:"created_at"`
}

// Branch is an outlet. Orders with an empty BranchID belong to the central store.
type Branch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Settings struct {
	Name                        string `json:"name"`
	Tagline                     string `json:"tagline"`
	Phone                       string `json:"phone"`
	Address                     string `json:"address"`
	Email                       string `json:"email"`
	Website                     string `json:"website"`
	BankName                    string `json:"bank_name"`
	BankAccount                 string `json:"bank_account"`
	AccountHolder               string `json:"account_holder"`
	QRPayment                   string `json:"qr_payment,omitempty"`
	Logo                        string `json:"logo,omitempty"`
	WhatsAppNotificationEnabled bool   `json:"whatsapp_notification_enabled"`
	WhatsAppTemplate            string `json:"whatsapp_template,omitempty"`
	SidebarTheme                string `json:"sidebar_theme,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{
		Name:          "Dr.ShoezClean",
		Tagline:       "@dr.shoezclean",
		Phone:         "+62 812-1456-7890",
		Address:       "Jl. Contoh Alamat No. 123, Jakarta",
		Email:         "info@drshoezclean.com",
		Website:       "www.drshoezclean.com",
		BankName:      "BCA",
		BankAccount:   "123-456-7890",
		AccountHolder: "Dr.ShoezClean",
	}
}
