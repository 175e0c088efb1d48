package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoezclean/backend/internal/domain"
)

func TestVerifyPasswordBcrypt(t *testing.T) {
	hash, err := HashPassword("rahasia123")
	require.NoError(t, err)

	ok, upgrade := VerifyPassword(hash, "rahasia123")
	assert.True(t, ok)
	assert.False(t, upgrade)

	ok, _ = VerifyPassword(hash, "salah")
	assert.False(t, ok)
}

func TestVerifyPasswordLegacyDigestAsksForUpgrade(t *testing.T) {
	stored := LegacyDigest("admin123")

	ok, upgrade := VerifyPassword(stored, "admin123")
	assert.True(t, ok)
	assert.True(t, upgrade)

	ok, upgrade = VerifyPassword(stored, "admin124")
	assert.False(t, ok)
	assert.False(t, upgrade)
}

func TestVerifyPasswordRejectsPlaintext(t *testing.T) {
	ok, _ := VerifyPassword("admin123", "admin123")
	assert.False(t, ok)

	ok, _ = VerifyPassword("", "")
	assert.False(t, ok)
}

func TestTokenIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)
	user := domain.User{ID: "u-1", Username: "owner", Role: domain.RoleSuperuser}

	token, expiresAt, err := issuer.Issue(user)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "owner", claims.Username)
	assert.Equal(t, domain.RoleSuperuser, claims.Role)
}

func TestTokenParseRejectsOtherSecretAndExpiry(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Minute)
	token, _, err := issuer.Issue(domain.User{ID: "u-1"})
	require.NoError(t, err)

	other := NewTokenIssuer("fedcba9876543210fedcba9876543210", time.Minute)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	issuer.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLockoutAfterFiveFailures(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l := NewLockout(5, 5*time.Minute, 5*time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 4; i++ {
		assert.False(t, l.Fail("Kasir"))
	}
	assert.False(t, l.Locked("kasir"))
	assert.True(t, l.Fail("kasir"))
	assert.True(t, l.Locked("KASIR"))

	now = now.Add(6 * time.Minute)
	assert.False(t, l.Locked("kasir"))
}

func TestLockoutResetClearsFailures(t *testing.T) {
	l := NewLockout(2, time.Minute, time.Minute)
	l.Fail("admin")
	l.Reset("admin")
	assert.False(t, l.Fail("admin"))
	assert.False(t, l.Locked("admin"))
}

func TestOnlyMasterManagesSuperusers(t *testing.T) {
	master := domain.User{ID: "m", Role: domain.RoleSuperuser, IsMaster: true}
	super := domain.User{ID: "s", Role: domain.RoleSuperuser}
	admin := domain.User{ID: "a", Role: domain.RoleAdmin}
	superRole := domain.RoleSuperuser
	cashierRole := domain.RoleCashier

	assert.NoError(t, CanCreateUser(master, domain.RoleSuperuser))
	assert.ErrorIs(t, CanCreateUser(super, domain.RoleSuperuser), ErrForbidden)
	assert.NoError(t, CanCreateUser(super, domain.RoleAdmin))

	assert.NoError(t, CanUpdateUser(master, admin, &superRole))
	assert.ErrorIs(t, CanUpdateUser(super, admin, &superRole), ErrForbidden)
	assert.ErrorIs(t, CanUpdateUser(super, super, &cashierRole), ErrForbidden)
	assert.ErrorIs(t, CanUpdateUser(super, master, nil), ErrForbidden)
	assert.ErrorIs(t, CanUpdateUser(master, master, &cashierRole), ErrForbidden)
	assert.NoError(t, CanUpdateUser(admin, domain.User{ID: "k", Role: domain.RoleCashier}, nil))

	assert.ErrorIs(t, CanDeleteUser(admin, admin), ErrSelfDelete)
	assert.ErrorIs(t, CanDeleteUser(super, master), ErrForbidden)
	assert.ErrorIs(t, CanDeleteUser(super, domain.User{ID: "s2", Role: domain.RoleSuperuser}), ErrForbidden)
	assert.NoError(t, CanDeleteUser(master, super))
}
