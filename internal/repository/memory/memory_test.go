package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/baharkarakas/insider-transfers/internal/models"
	"github.com/baharkarakas/insider-transfers/internal/repository"
	"github.com/baharkarakas/insider-transfers/internal/repository/repotest"
)

func TestRepositories(t *testing.T) {
	suite.Run(t, &repotest.Suite{
		NewRepositories: func(t *testing.T) repository.Repositories {
			return NewRepositories(New())
		},
	})
}

func TestSetBalanceRequiresLock(t *testing.T) {
	repos := NewRepositories(New())
	ctx := context.Background()
	a, err := repos.Accounts.Create(ctx, models.Account{Email: "a@example.com", AccountNumber: "TR1"})
	require.NoError(t, err)

	err = repos.Transfers.WithTx(ctx, func(tx repository.Tx) error {
		return tx.SetBalance(ctx, a.ID, decimal.NewFromInt(5))
	})
	assert.Error(t, err)
}

func TestUnitRejectsNegativeBalanceOnCommit(t *testing.T) {
	repos := NewRepositories(New())
	ctx := context.Background()
	a, err := repos.Accounts.Create(ctx, models.Account{Email: "a@example.com", AccountNumber: "TR1", Balance: decimal.NewFromInt(3)})
	require.NoError(t, err)

	err = repos.Transfers.WithTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.LockAccount(ctx, a.ID); err != nil {
			return err
		}
		return tx.SetBalance(ctx, a.ID, decimal.NewFromInt(-1))
	})
	require.Error(t, err)

	got, err := repos.Accounts.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(3)))
}

func TestRowLockBlocksSecondUnit(t *testing.T) {
	repos := NewRepositories(New())
	ctx := context.Background()
	a, err := repos.Accounts.Create(ctx, models.Account{Email: "a@example.com", AccountNumber: "TR1", Balance: decimal.NewFromInt(10)})
	require.NoError(t, err)

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = repos.Transfers.WithTx(ctx, func(tx repository.Tx) error {
			if _, err := tx.LockAccount(ctx, a.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return tx.SetBalance(ctx, a.ID, decimal.NewFromInt(7))
		})
	}()
	<-locked

	go func() {
		defer close(done)
		_ = repos.Transfers.WithTx(ctx, func(tx repository.Tx) error {
			got, err := tx.LockAccount(ctx, a.ID)
			if err != nil {
				return err
			}
			// Must observe the first unit's committed write.
			assert.True(t, got.Balance.Equal(decimal.NewFromInt(7)), "balance %s", got.Balance)
			return nil
		})
	}()

	select {
	case <-done:
		t.Fatal("second unit acquired a held row lock")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second unit never acquired the lock")
	}
}

func TestAuditEntries(t *testing.T) {
	s := New()
	repos := NewRepositories(s)
	require.NoError(t, repos.AuditLogs.Create(context.Background(), models.AuditLog{Action: models.AuditActionCreated}))

	entries := s.AuditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ID)
	assert.False(t, entries[0].CreatedAt.IsZero())
}
