package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/insider-transfers/internal/auth"
	"github.com/baharkarakas/insider-transfers/internal/models"
	"github.com/baharkarakas/insider-transfers/internal/repository/memory"
)

func newAccountService(t *testing.T) (*AccountService, *auth.TokenManager) {
	t.Helper()
	repos := memory.NewRepositories(memory.New())
	tm := auth.NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour, "test")
	return NewAccountService(repos.Accounts, tm), tm
}

func TestAccountService_RegisterAndLogin(t *testing.T) {
	svc, tm := newAccountService(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, "  Alice@Example.com ", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", a.Email)
	assert.Equal(t, models.RoleUser, a.Role)
	assert.True(t, a.Balance.IsZero())
	assert.True(t, strings.HasPrefix(a.AccountNumber, "TR"))
	assert.Len(t, a.AccountNumber, 18)
	assert.NotEqual(t, "correct-horse", a.PasswordHash)

	pair, err := svc.Login(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)
	claims, err := tm.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, a.ID, claims.AccountID)
	assert.Equal(t, models.RoleUser, claims.Role)

	_, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Login(ctx, "bob@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAccountService_RegisterValidation(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "long-enough")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, "a@example.com", "short")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, "a@example.com", "long-enough")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "A@example.com", "long-enough")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAccountService_Provision(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	a, err := svc.Provision(ctx, "ops@example.com", "long-enough", models.RoleAdmin, dec("1234.5"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, a.Role)
	assertMoney(t, "1234.50", a.Balance)

	_, err = svc.Provision(ctx, "neg@example.com", "long-enough", models.RoleUser, dec("-1"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Provision(ctx, "root@example.com", "long-enough", "root", dec("0"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Email, got.Email)

	_, err = svc.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountService_Refresh(t *testing.T) {
	svc, tm := newAccountService(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, "a@example.com", "long-enough")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, a.Email, "long-enough")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	claims, err := tm.ParseAccess(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, a.ID, claims.AccountID)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	orphan, err := tm.GeneratePair(4242, models.RoleUser)
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, orphan.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestKindLabel(t *testing.T) {
	assert.Equal(t, "ok", KindLabel(nil))
	assert.Equal(t, "not_found", KindLabel(fail(ErrNotFound, "x")))
	assert.Equal(t, "invalid_input", KindLabel(fail(ErrInvalidInput, "x")))
	assert.Equal(t, "insufficient_funds", KindLabel(fail(ErrInsufficientFunds, "x")))
	assert.Equal(t, "conflict", KindLabel(fail(ErrConflict, "x")))
	assert.Equal(t, "invalid_state", KindLabel(fail(ErrInvalidState, "x")))
	assert.Equal(t, "internal_error", KindLabel(fail(ErrInternal, "x")))
	assert.Equal(t, "internal_error", KindLabel(assert.AnError))
}
