package domain

import "time"

type LineItemInput struct {
	Brand      string `json:"brand" validate:"required,max=80"`
	ServiceKey string `json:"service_key" validate:"required"`
	VariantKey string `json:"variant_key" validate:"required"`
	DiscountID string `json:"discount_id,omitempty"`
}

type OrderInput struct {
	CustomerID    string          `json:"customer_id" validate:"required"`
	CustomerName  string          `json:"customer_name" validate:"required,max=120"`
	CustomerPhone string          `json:"customer_phone" validate:"required,idphone"`
	Items         []LineItemInput `json:"items" validate:"required,min=1,dive"`
	EntryDate     time.Time       `json:"entry_date"`
	EstimatedDate time.Time       `json:"estimated_date"`
	Notes         string          `json:"notes,omitempty" validate:"max=500"`
	PaymentStatus PaymentStatus   `json:"payment_status" validate:"omitempty,oneof=unpaid paid cancelled"`
	PaymentMethod PaymentMethod   `json:"payment_method,omitempty" validate:"omitempty,oneof=cash transfer qris"`
	BranchID      string          `json:"branch_id,omitempty"`
}

type CustomerInput struct {
	Name  string `json:"name" validate:"required,max=120"`
	Phone string `json:"phone" validate:"required,idphone"`
}

type DiscountInput struct {
	Name     string       `json:"name" validate:"required,max=80"`
	Kind     DiscountKind `json:"kind" validate:"required,oneof=percentage fixed"`
	Value    float64      `json:"value" validate:"gt=0"`
	IsActive bool         `json:"is_active"`
}

type CashFlowInput struct {
	Kind        CashFlowKind `json:"kind" validate:"required,oneof=income expense"`
	Category    string       `json:"category" validate:"required,max=80"`
	Description string       `json:"description" validate:"max=250"`
	Amount      int64        `json:"amount" validate:"gt=0"`
	Date        time.Time    `json:"date"`
	OrderID     string       `json:"order_id,omitempty"`
}

type UserInput struct {
	Username string `json:"username" validate:"required,min=3,max=40,nospace"`
	Password string `json:"password" validate:"required,min=6"`
	Role     Role   `json:"role" validate:"required,oneof=superuser admin cashier"`
	IsActive bool   `json:"is_active"`
}

// UserUpdate carries a plain-text password; the service hashes it before it
// reaches the store.
type UserUpdate struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=40,nospace"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6"`
	Role     *Role   `json:"role,omitempty" validate:"omitempty,oneof=superuser admin cashier"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type BranchInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Address  string `json:"address" validate:"max=250"`
	Phone    string `json:"phone" validate:"omitempty,idphone"`
	IsActive bool   `json:"is_active"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type QuoteRequest struct {
	Items []LineItemInput `json:"items"`
}
