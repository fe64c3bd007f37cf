package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("a-secret", "r-secret", time.Minute, time.Hour, "insider-transfers")

	pair, err := tm.GeneratePair(42, "admin")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), pair.ExpiresAt, 5*time.Second)

	c, err := tm.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.AccountID)
	assert.Equal(t, "admin", c.Role)
	assert.Equal(t, "42", c.Subject)

	c, err = tm.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.AccountID)

	_, isRefresh, err := tm.ParseAny(pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, isRefresh)
	_, isRefresh, err = tm.ParseAny(pair.AccessToken)
	require.NoError(t, err)
	assert.False(t, isRefresh)
}

func TestTokenManager_RejectsMismatches(t *testing.T) {
	tm := NewTokenManager("a-secret", "r-secret", time.Minute, time.Hour, "insider-transfers")
	pair, err := tm.GeneratePair(1, "user")
	require.NoError(t, err)

	_, err = tm.ParseAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = tm.ParseRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewTokenManager("a-secret", "r-secret", time.Minute, time.Hour, "someone-else")
	_, err = other.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenManager("a-secret", "r-secret", -time.Minute, time.Hour, "insider-transfers")
	old, err := expired.GeneratePair(1, "user")
	require.NoError(t, err)
	_, err = tm.ParseAccess(old.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = tm.ParseAny("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	require.NoError(t, err)
	assert.NoError(t, VerifyPassword("correct-horse", hash))
	assert.Error(t, VerifyPassword("wrong-horse", hash))

	_, err = HashPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestAuthorizer(t *testing.T) {
	az := NewAuthorizer("testdata/model.conf", "testdata/policy.csv")

	assert.NoError(t, az.Authorize("user", ObjectTransfers, ActionCreate))
	assert.ErrorIs(t, az.Authorize("user", ObjectTransfers, ActionApprove), ErrForbidden)
	assert.ErrorIs(t, az.Authorize("user", ObjectTransfers, ActionReject), ErrForbidden)
	assert.ErrorIs(t, az.Authorize("user", ObjectTransfers, ActionListAny), ErrForbidden)

	for _, act := range []string{ActionCreate, ActionApprove, ActionReject, ActionListAny} {
		assert.NoError(t, az.Authorize("admin", ObjectTransfers, act), act)
	}
	assert.ErrorIs(t, az.Authorize("admin", "accounts", ActionApprove), ErrForbidden)
	assert.ErrorIs(t, az.Authorize("", ObjectTransfers, ActionCreate), ErrForbidden)
}
