package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoezclean/backend/internal/domain"
)

func TestIsPhone(t *testing.T) {
	cases := []struct {
		phone string
		want  bool
	}{
		{"081234567890", true},
		{"0812-3456-7890", true},
		{"+62 812 3456 7890", true},
		{"62812345678", true},
		{"0712345678", false},
		{"08012345678", false},
		{"0812", false},
		{"", false},
	}
	for _, tc := range cases {
		t.Run(tc.phone, func(t *testing.T) {
			assert.Equal(t, tc.want, IsPhone(tc.phone))
		})
	}
}

func TestStructReportsFieldNames(t *testing.T) {
	err := Struct(domain.CustomerInput{Name: "", Phone: "123"})
	require.Error(t, err)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, errors.Is(err, domain.ErrValidation))

	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "is required", fields["name"])
	assert.Equal(t, "must be a valid Indonesian phone number", fields["phone"])
}

func TestStructAcceptsValidOrder(t *testing.T) {
	err := Struct(domain.OrderInput{
		CustomerID:    "c-1",
		CustomerName:  "Budi",
		CustomerPhone: "081234567890",
		Items: []domain.LineItemInput{
			{Brand: "Nike", ServiceKey: "DEEP_CLEAN_EXPRESS", VariantKey: "gold"},
		},
	})
	assert.NoError(t, err)
}

func TestStructRejectsEmptyItemsAndUsernameSpaces(t *testing.T) {
	err := Struct(domain.OrderInput{CustomerID: "c", CustomerName: "n", CustomerPhone: "081234567890"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = Struct(domain.UserInput{Username: "kasir satu", Password: "secret1", Role: domain.RoleCashier})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "username", verr.Fields[0].Field)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "hello world", Sanitize("  <b>hello</b> world<script>"))
}
