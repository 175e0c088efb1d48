package domain

// Table names the remote collections. They double as realtime channel topics.
type Table string

const (
	TableOrders    Table = "orders"
	TableCustomers Table = "customers"
	TableDiscounts Table = "discounts"
	TableCashFlows Table = "cash_flows"
	TableUsers     Table = "app_users"
	TableBranches  Table = "branches"
	TableSettings  Table = "store_settings"
)

var tableLabels = map[Table]string{
	TableOrders:    "pesanan",
	TableCustomers: "pelanggan",
	TableDiscounts: "diskon",
	TableCashFlows: "arus kas",
	TableUsers:     "pengguna",
	TableBranches:  "cabang",
	TableSettings:  "pengaturan",
}

// Known reports whether t is one of the synchronized tables.
func (t Table) Known() bool {
	_, ok := tableLabels[t]
	return ok
}

// Label is the human name shown in notices, e.g. "pesanan".
func (t Table) Label() string {
	if label, ok := tableLabels[t]; ok {
		return label
	}
	return string(t)
}

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

type ChangeEvent struct {
	Table Table      `json:"table"`
	Type  ChangeType `json:"type"`
}
