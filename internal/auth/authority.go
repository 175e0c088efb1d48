package auth

import (
	"errors"

	"shoezclean/backend/internal/domain"
)

var (
	ErrForbidden  = errors.New("forbidden")
	ErrSelfDelete = errors.New("cannot delete your own account")
)

// CanCreateUser checks that actor may create an account with role.
func CanCreateUser(actor domain.User, role domain.Role) error {
	if role == domain.RoleSuperuser && !actor.IsMaster {
		return ErrForbidden
	}
	return nil
}

// CanUpdateUser checks that actor may apply a change to target. newRole is nil
// when the role is not being changed.
func CanUpdateUser(actor domain.User, target domain.User, newRole *domain.Role) error {
	if target.IsMaster && actor.ID != target.ID {
		return ErrForbidden
	}
	if newRole != nil && *newRole != target.Role {
		if *newRole == domain.RoleSuperuser || target.Role == domain.RoleSuperuser {
			if !actor.IsMaster {
				return ErrForbidden
			}
		}
		if target.IsMaster {
			return ErrForbidden
		}
	}
	return nil
}

func CanDeleteUser(actor domain.User, target domain.User) error {
	if actor.ID == target.ID {
		return ErrSelfDelete
	}
	if target.IsMaster {
		return ErrForbidden
	}
	if target.Role == domain.RoleSuperuser && !actor.IsMaster {
		return ErrForbidden
	}
	return nil
}
