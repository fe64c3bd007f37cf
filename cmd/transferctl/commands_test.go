package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/insider-transfers/internal/auth"
	"github.com/baharkarakas/insider-transfers/internal/models"
)

func TestSeedAccounts(t *testing.T) {
	accounts, err := seedAccounts(3, decimal.RequireFromString("10.456"), "password123", "seed.local")
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	seen := map[string]bool{}
	for i, a := range accounts {
		assert.Equal(t, "user"+string(rune('1'+i))+"@seed.local", a.Email)
		assert.Equal(t, models.RoleUser, a.Role)
		assert.True(t, a.Balance.Equal(decimal.RequireFromString("10.46")), a.Balance.String())
		assert.NoError(t, auth.VerifyPassword("password123", a.PasswordHash))
		assert.False(t, seen[a.AccountNumber], "account numbers must be unique")
		seen[a.AccountNumber] = true
	}

	_, err = seedAccounts(0, decimal.Zero, "password123", "seed.local")
	assert.Error(t, err)

	_, err = seedAccounts(1, decimal.NewFromInt(-1), "password123", "seed.local")
	assert.Error(t, err)
}
