package domain

import (
	"slices"
	"time"
)

// Patch types carry only the fields a caller wants to change. A nil field is
// left untouched when the patch is applied.

type OrderPatch struct {
	CustomerName  *string        `json:"customer_name,omitempty"`
	CustomerPhone *string        `json:"customer_phone,omitempty"`
	LineItems     *[]LineItem    `json:"line_items,omitempty"`
	EstimatedDate *time.Time     `json:"estimated_date,omitempty"`
	PickupDate    *time.Time     `json:"pickup_date,omitempty"`
	Notes         *string        `json:"notes,omitempty"`
	PaymentStatus *PaymentStatus `json:"payment_status,omitempty"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty"`
	Subtotal      *int64         `json:"subtotal,omitempty"`
	Discount      *int64         `json:"discount,omitempty"`
	Total         *int64         `json:"total,omitempty"`
	BranchID      *string        `json:"branch_id,omitempty"`
	UpdatedAt     *time.Time     `json:"updated_at,omitempty"`
}

func (p OrderPatch) Apply(o *Order) {
	if p.CustomerName != nil {
		o.CustomerName = *p.CustomerName
	}
	if p.CustomerPhone != nil {
		o.CustomerPhone = *p.CustomerPhone
	}
	if p.LineItems != nil {
		o.LineItems = slices.Clone(*p.LineItems)
	}
	if p.EstimatedDate != nil {
		o.EstimatedDate = *p.EstimatedDate
	}
	if p.PickupDate != nil {
		pickup := *p.PickupDate
		o.PickupDate = &pickup
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
	if p.PaymentStatus != nil {
		o.PaymentStatus = *p.PaymentStatus
	}
	if p.PaymentMethod != nil {
		o.PaymentMethod = *p.PaymentMethod
	}
	if p.Subtotal != nil {
		o.Subtotal = *p.Subtotal
	}
	if p.Discount != nil {
		o.Discount = *p.Discount
	}
	if p.Total != nil {
		o.Total = *p.Total
	}
	if p.BranchID != nil {
		o.BranchID = *p.BranchID
	}
	if p.UpdatedAt != nil {
		o.UpdatedAt = *p.UpdatedAt
	}
}

type CustomerPatch struct {
	Name        *string `json:"name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	TotalOrders *int    `json:"total_orders,omitempty"`
	TotalSpent  *int64  `json:"total_spent,omitempty"`
}

func (p CustomerPatch) Apply(c *Customer) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.TotalOrders != nil {
		c.TotalOrders = *p.TotalOrders
	}
	if p.TotalSpent != nil {
		c.TotalSpent = *p.TotalSpent
	}
}

type DiscountPatch struct {
	Name     *string       `json:"name,omitempty"`
	Kind     *DiscountKind `json:"kind,omitempty"`
	Value    *float64      `json:"value,omitempty"`
	IsActive *bool         `json:"is_active,omitempty"`
}

func (p DiscountPatch) Apply(d *Discount) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Kind != nil {
		d.Kind = *p.Kind
	}
	if p.Value != nil {
		d.Value = *p.Value
	}
	if p.IsActive != nil {
		d.IsActive = *p.IsActive
	}
}

type UserPatch struct {
	Username     *string `json:"username,omitempty"`
	PasswordHash *string `json:"-"`
	Role         *Role   `json:"role,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

func (p UserPatch) Apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
}

type BranchPatch struct {
	Name     *string `json:"name,omitempty"`
	Address  *string `json:"address,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (p BranchPatch) Apply(b *Branch) {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Address != nil {
		b.Address = *p.Address
	}
	if p.Phone != nil {
		b.Phone = *p.Phone
	}
	if p.IsActive != nil {
		b.IsActive = *p.IsActive
	}
}

type SettingsPatch struct {
	Name                        *string `json:"name,omitempty"`
	Tagline                     *string `json:"tagline,omitempty"`
	Phone                       *string `json:"phone,omitempty"`
	Address                     *string `json:"address,omitempty"`
	Email                       *string `json:"email,omitempty"`
	Website                     *string `json:"website,omitempty"`
	BankName                    *string `json:"bank_name,omitempty"`
	BankAccount                 *string `json:"bank_account,omitempty"`
	AccountHolder               *string `json:"account_holder,omitempty"`
	QRPayment                   *string `json:"qr_payment,omitempty"`
	Logo                        *string `json:"logo,omitempty"`
	WhatsAppNotificationEnabled *bool   `json:"whatsapp_notification_enabled,omitempty"`
	WhatsAppTemplate            *string `json:"whatsapp_template,omitempty"`
	SidebarTheme                *string `json:"sidebar_theme,omitempty"`
}

func (p SettingsPatch) Apply(s *Settings) {
	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	assign(&s.Name, p.Name)
	assign(&s.Tagline, p.Tagline)
	assign(&s.Phone, p.Phone)
	assign(&s.Address, p.Address)
	assign(&s.Email, p.Email)
	assign(&s.Website, p.Website)
	assign(&s.BankName, p.BankName)
	assign(&s.BankAccount, p.BankAccount)
	assign(&s.AccountHolder, p.AccountHolder)
	assign(&s.QRPayment, p.QRPayment)
	assign(&s.Logo, p.Logo)
	assign(&s.WhatsAppTemplate, p.WhatsAppTemplate)
	assign(&s.SidebarTheme, p.SidebarTheme)
	if p.WhatsAppNotificationEnabled != nil {
		s.WhatsAppNotificationEnabled = *p.WhatsAppNotificationEnabled
	}
}

// Ptr returns a pointer to v. Handy when building patches.
func Ptr[T any](v T) *T {
	return &v
}
