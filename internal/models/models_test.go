package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAmount(t *testing.T) {
	cases := []struct {
		in   string
		want error
	}{
		{"0.01", nil},
		{"50000", nil},
		{"12.50", nil},
		{"0", ErrNonPositiveAmount},
		{"-1", ErrNonPositiveAmount},
		{"0.001", ErrAmountPrecision},
		{"10.005", ErrAmountPrecision},
		{"99999999999999999999999.99", nil},
		{"100000000000000000000000", ErrAmountTooLarge},
		{"1000000000000000000000000", ErrAmountTooLarge},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			err := ValidateAmount(decimal.RequireFromString(c.in))
			if c.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, c.want)
		})
	}
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount("30000.25")
	require.NoError(t, err)
	assert.Equal(t, "30000.25", d.String())

	_, err = ParseAmount("abc")
	assert.Error(t, err)
}

func TestAccountValidate(t *testing.T) {
	a := Account{Email: " a@example.com "}
	require.NoError(t, a.Validate())
	assert.Equal(t, "a@example.com", a.Email)
	assert.Equal(t, RoleUser, a.Role)

	assert.Error(t, (&Account{Email: "nope"}).Validate())
	assert.Error(t, (&Account{Email: "a@b.c", Role: "root"}).Validate())
	assert.Error(t, (&Account{Email: "a@b.c", Balance: decimal.NewFromInt(-1)}).Validate())
}

func TestTransferStatusAndReject(t *testing.T) {
	assert.False(t, TransferPending.Terminal())
	assert.True(t, TransferConfirmed.Terminal())
	assert.True(t, TransferRejected.Terminal())

	tr := TransferRequest{Status: TransferPending}
	tr.Reject("")
	assert.Equal(t, TransferRejected, tr.Status)
	assert.Nil(t, tr.RejectedReason)

	tr.Reject("Insufficient balance.")
	require.NotNil(t, tr.RejectedReason)
	assert.Equal(t, "Insufficient balance.", *tr.RejectedReason)
}

func TestAccountSummary(t *testing.T) {
	a := Account{ID: 7, Email: "a@example.com", AccountNumber: "TR1", PasswordHash: "secret"}
	assert.Equal(t, AccountSummary{ID: 7, Email: "a@example.com", AccountNumber: "TR1"}, a.Summary())
}
