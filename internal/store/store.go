package store

import (
	"context"
	"errors"

	"shoezclean/backend/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Repository is the remote store. Inserts return the canonical record with the
// server-assigned id. Updates are partial.
type Repository interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
	InsertOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) error
	DeleteOrder(ctx context.Context, id string) error

	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	InsertCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, id string, patch domain.CustomerPatch) error

	ListDiscounts(ctx context.Context) ([]domain.Discount, error)
	InsertDiscount(ctx context.Context, discount domain.Discount) (*domain.Discount, error)
	UpdateDiscount(ctx context.Context, id string, patch domain.DiscountPatch) error
	DeleteDiscount(ctx context.Context, id string) error

	ListCashFlows(ctx context.Context) ([]domain.CashFlowEntry, error)
	InsertCashFlow(ctx context.Context, entry domain.CashFlowEntry) (*domain.CashFlowEntry, error)
	DeleteCashFlow(ctx context.Context, id string) error

	ListUsers(ctx context.Context) ([]domain.User, error)
	InsertUser(ctx context.Context, user domain.User) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, patch domain.UserPatch) error
	DeleteUser(ctx context.Context, id string) error

	ListBranches(ctx context.Context) ([]domain.Branch, error)
	InsertBranch(ctx context.Context, branch domain.Branch) (*domain.Branch, error)
	UpdateBranch(ctx context.Context, id string, patch domain.BranchPatch) error
	DeleteBranch(ctx context.Context, id string) error

	// GetSettings returns ErrNotFound when the singleton row does not exist yet.
	GetSettings(ctx context.Context) (*domain.Settings, error)
	InsertSettings(ctx context.Context, settings domain.Settings) (*domain.Settings, error)
	UpdateSettings(ctx context.Context, patch domain.SettingsPatch) error

	// Subscribe streams change events until ctx is cancelled, then closes the channel.
	Subscribe(ctx context.Context) (<-chan domain.ChangeEvent, error)
}
