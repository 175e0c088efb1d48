package service

import (
	"context"
	"sort"
	"strings"

	"shoezclean/backend/internal/auth"
	"shoezclean/backend/internal/domain"
	"shoezclean/backend/internal/store"
	"shoezclean/backend/internal/syncer"
	"shoezclean/backend/internal/validation"
	"shoezclean/backend/internal/xid"
)

// AddCustomer creates a customer. A rejected create leaves no trace locally.
func (s *Service) AddCustomer(ctx context.Context, in domain.CustomerInput) (domain.Customer, error) {
	in.Name = validation.Sanitize(strings.TrimSpace(in.Name))
	in.Phone = validation.NormalizePhone(in.Phone)
	if err := validation.Struct(in); err != nil {
		return domain.Customer{}, err
	}
	customer := domain.Customer{ID: xid.Temp(), Name: in.Name, Phone: in.Phone, CreatedAt: s.Now()}
	return syncer.Create(ctx, s.sync, s.state.Customers, customer, func(ctx context.Context) (*domain.Customer, error) {
		return s.repo.InsertCustomer(ctx, customer)
	})
}

func (s *Service) UpdateCustomer(ctx context.Context, id string, patch domain.CustomerPatch) (domain.Customer, *syncer.Ack, error) {
	if patch.Name != nil {
		name := validation.Sanitize(strings.TrimSpace(*patch.Name))
		if name == "" {
			return domain.Customer{}, nil, domain.NewValidationError("name", "is required")
		}
		patch.Name = &name
	}
	if patch.Phone != nil {
		phone := validation.NormalizePhone(*patch.Phone)
		if !validation.IsPhone(phone) {
			return domain.Customer{}, nil, domain.NewValidationError("phone", "must be a valid Indonesian mobile number")
		}
		patch.Phone = &phone
	}
	updated, ok := s.state.Customers.Update(id, patch.Apply)
	if !ok {
		return domain.Customer{}, nil, store.ErrNotFound
	}
	ack := s.sync.Dispatch(ctx, "customers.update", func(ctx context.Context) error {
		return s.repo.UpdateCustomer(ctx, id, patch)
	})
	return updated, ack, nil
}

func (s *Service) Customer(id string) (domain.Customer, bool) {
	return s.state.Customers.Get(id)
}

// FindCustomerByPhone matches on the normalized number.
func (s *Service) FindCustomerByPhone(phone string) (domain.Customer, bool) {
	phone = validation.NormalizePhone(phone)
	if phone == "" {
		return domain.Customer{}, false
	}
	return s.state.Customers.Find(func(c domain.Customer) bool { return validation.NormalizePhone(c.Phone) == phone })
}

func (s *Service) Customers() []domain.Customer {
	customers := s.state.Customers.All()
	sort.SliceStable(customers, func(i, j int) bool { return customers[i].CreatedAt.After(customers[j].CreatedAt) })
	return customers
}

func (s *Service) AddDiscount(ctx context.Context, in domain.DiscountInput) (domain.Discount, error) {
	in.Name = validation.Sanitize(strings.TrimSpace(in.Name))
	if err := validation.Struct(in); err != nil {
		return domain.Discount{}, err
	}
	if in.Kind == domain.DiscountPercentage && in.Value > 100 {
		return domain.Discount{}, domain.NewValidationError("value", "must be at most 100 for a percentage")
	}
	discount := domain.Discount{ID: xid.Temp(), Name: in.Name, Kind: in.Kind, Value: in.Value, IsActive: in.IsActive, CreatedAt: s.Now()}
	return syncer.Create(ctx, s.sync, s.state.Discounts, discount, func(ctx context.Context) (*domain.Discount, error) {
		return s.repo.InsertDiscount(ctx, discount)
	})
}

func (s *Service) UpdateDiscount(ctx context.Context, id string, patch domain.DiscountPatch) (domain.Discount, *syncer.Ack, error) {
	current, ok := s.state.Discounts.Get(id)
	if !ok {
		return domain.Discount{}, nil, store.ErrNotFound
	}
	next := current
	patch.Apply(&next)
	if strings.TrimSpace(next.Name) == "" {
		return domain.Discount{}, nil, domain.NewValidationError("name", "is required")
	}
	if next.Kind != domain.DiscountPercentage && next.Kind != domain.DiscountFixed {
		return domain.Discount{}, nil, domain.NewValidationError("kind", "must be one of percentage fixed")
	}
	if next.Value <= 0 || (next.Kind == domain.DiscountPercentage && next.Value > 100) {
		return domain.Discount{}, nil, domain.NewValidationError("value", "is out of range")
	}

	updated, _ := s.state.Discounts.Update(id, patch.Apply)
	ack := s.sync.Dispatch(ctx, "discounts.update", func(ctx context.Context) error {
		return s.repo.UpdateDiscount(ctx, id, patch)
	})
	return updated, ack, nil
}

func (s *Service) DeleteDiscount(ctx context.Context, id string) (*syncer.Ack, error) {
	if !s.state.Discounts.Remove(id) {
		return nil, store.ErrNotFound
	}
	return s.sync.Dispatch(ctx, "discounts.delete", func(ctx context.Context) error {
		return s.repo.DeleteDiscount(ctx, id)
	}), nil
}

func (s *Service) Discounts() []domain.Discount {
	return s.state.Discounts.All()
}

func (s *Service) ActiveDiscounts() []domain.Discount {
	return s.state.Discounts.Filter(func(d domain.Discount) bool { return d.IsActive })
}

func (s *Service) AddCashFlow(ctx context.Context, in domain.CashFlowInput) (domain.CashFlowEntry, error) {
	in.Category = validation.Sanitize(strings.TrimSpace(in.Category))
	in.Description = validation.Sanitize(strings.TrimSpace(in.Description))
	if err := validation.Struct(in); err != nil {
		return domain.CashFlowEntry{}, err
	}
	now := s.Now()
	if in.Date.IsZero() {
		in.Date = now
	}
	entry := domain.CashFlowEntry{
		ID:          xid.Temp(),
		Kind:        in.Kind,
		Category:    in.Category,
		Description: in.Description,
		Amount:      in.Amount,
		Date:        in.Date,
		OrderID:     in.OrderID,
		CreatedAt:   now,
	}
	return syncer.Create(ctx, s.sync, s.state.CashFlows, entry, func(ctx context.Context) (*domain.CashFlowEntry, error) {
		return s.repo.InsertCashFlow(ctx, entry)
	})
}

func (s *Service) DeleteCashFlow(ctx context.Context, id string) (*syncer.Ack, error) {
	if !s.state.CashFlows.Remove(id) {
		return nil, store.ErrNotFound
	}
	return s.sync.Dispatch(ctx, "cash_flows.delete", func(ctx context.Context) error {
		return s.repo.DeleteCashFlow(ctx, id)
	}), nil
}

// CashFlows returns entries ordered by date, newest first.
func (s *Service) CashFlows() []domain.CashFlowEntry {
	entries := s.state.CashFlows.All()
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date.After(entries[j].Date) })
	return entries
}

// AddUser creates an account. Only the master account may create superusers.
func (s *Service) AddUser(ctx context.Context, in domain.UserInput) (domain.User, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.User{}, err
	}
	in.Username = strings.TrimSpace(in.Username)
	if err := validation.Struct(in); err != nil {
		return domain.User{}, err
	}
	if err := auth.CanCreateUser(actor, in.Role); err != nil {
		return domain.User{}, err
	}
	if s.usernameTaken(in.Username, "") {
		return domain.User{}, store.ErrConflict
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}
	user := domain.User{ID: xid.Temp(), Username: in.Username, PasswordHash: hash, Role: in.Role, IsActive: in.IsActive, CreatedAt: s.Now()}
	created, err := syncer.Create(ctx, s.sync, s.state.Users, user, func(ctx context.Context) (*domain.User, error) {
		return s.repo.InsertUser(ctx, user)
	})
	if err != nil {
		return domain.User{}, err
	}
	s.log.WithField("username", created.Username).WithField("by", actor.Username).Info("user created")
	return created, nil
}

func (s *Service) UpdateUser(ctx context.Context, id string, in domain.UserUpdate) (domain.User, *syncer.Ack, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.User{}, nil, err
	}
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		in.Username = &name
	}
	if err := validation.Struct(in); err != nil {
		return domain.User{}, nil, err
	}
	target, ok := s.state.Users.Get(id)
	if !ok {
		return domain.User{}, nil, store.ErrNotFound
	}
	if err := auth.CanUpdateUser(actor, target, in.Role); err != nil {
		return domain.User{}, nil, err
	}
	if in.Username != nil && s.usernameTaken(*in.Username, id) {
		return domain.User{}, nil, store.ErrConflict
	}

	patch := domain.UserPatch{Username: in.Username, Role: in.Role, IsActive: in.IsActive}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return domain.User{}, nil, err
		}
		patch.PasswordHash = &hash
	}

	updated, ok := s.state.Users.Update(id, patch.Apply)
	if !ok {
		return domain.User{}, nil, store.ErrNotFound
	}
	ack := s.sync.Dispatch(ctx, "app_users.update", func(ctx context.Context) error {
		return s.repo.UpdateUser(ctx, id, patch)
	})
	return updated, ack, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) (*syncer.Ack, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	target, ok := s.state.Users.Get(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	if err := auth.CanDeleteUser(actor, target); err != nil {
		return nil, err
	}
	s.state.Users.Remove(id)
	return s.sync.Dispatch(ctx, "app_users.delete", func(ctx context.Context) error {
		return s.repo.DeleteUser(ctx, id)
	}), nil
}

func (s *Service) Users() []domain.User {
	users := s.state.Users.All()
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users
}

func (s *Service) usernameTaken(username string, exceptID string) bool {
	_, taken := s.state.Users.Find(func(u domain.User) bool {
		return u.ID != exceptID && strings.EqualFold(u.Username, username)
	})
	return taken
}

func (s *Service) AddBranch(ctx context.Context, in domain.BranchInput) (domain.Branch, error) {
	in.Name = validation.Sanitize(strings.TrimSpace(in.Name))
	in.Address = validation.Sanitize(strings.TrimSpace(in.Address))
	in.Phone = validation.NormalizePhone(in.Phone)
	if err := validation.Struct(in); err != nil {
		return domain.Branch{}, err
	}
	branch := domain.Branch{ID: xid.Temp(), Name: in.Name, Address: in.Address, Phone: in.Phone, IsActive: in.IsActive, CreatedAt: s.Now()}
	return syncer.Create(ctx, s.sync, s.state.Branches, branch, func(ctx context.Context) (*domain.Branch, error) {
		return s.repo.InsertBranch(ctx, branch)
	})
}

func (s *Service) UpdateBranch(ctx context.Context, id string, patch domain.BranchPatch) (domain.Branch, *syncer.Ack, error) {
	if patch.Name != nil {
		name := validation.Sanitize(strings.TrimSpace(*patch.Name))
		if name == "" {
			return domain.Branch{}, nil, domain.NewValidationError("name", "is required")
		}
		patch.Name = &name
	}
	if patch.Phone != nil {
		phone := validation.NormalizePhone(*patch.Phone)
		if phone != "" && !validation.IsPhone(phone) {
			return domain.Branch{}, nil, domain.NewValidationError("phone", "must be a valid Indonesian mobile number")
		}
		patch.Phone = &phone
	}
	updated, ok := s.state.Branches.Update(id, patch.Apply)
	if !ok {
		return domain.Branch{}, nil, store.ErrNotFound
	}
	ack := s.sync.Dispatch(ctx, "branches.update", func(ctx context.Context) error {
		return s.repo.UpdateBranch(ctx, id, patch)
	})
	return updated, ack, nil
}

// DeleteBranch removes a branch. Its orders are kept as they are.
func (s *Service) DeleteBranch(ctx context.Context, id string) (*syncer.Ack, error) {
	if !s.state.Branches.Remove(id) {
		return nil, store.ErrNotFound
	}
	return s.sync.Dispatch(ctx, "branches.delete", func(ctx context.Context) error {
		return s.repo.DeleteBranch(ctx, id)
	}), nil
}

func (s *Service) Branches() []domain.Branch {
	branches := s.state.Branches.All()
	sort.SliceStable(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches
}

func (s *Service) Settings() domain.Settings {
	return s.state.Settings()
}

func (s *Service) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, *syncer.Ack) {
	sanitize := func(v *string) {
		if v != nil {
			*v = validation.Sanitize(strings.TrimSpace(*v))
		}
	}
	sanitize(patch.Name)
	sanitize(patch.Tagline)
	sanitize(patch.Address)
	updated := s.state.PatchSettings(patch)
	ack := s.sync.Dispatch(ctx, "store_settings.update", func(ctx context.Context) error {
		return s.repo.UpdateSettings(ctx, patch)
	})
	return updated, ack
}
