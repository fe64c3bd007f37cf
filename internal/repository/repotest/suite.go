// Package repotest holds the behaviour every repository implementation must
// share. Store packages run it from their own tests.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/baharkarakas/insider-transfers/internal/models"
	"github.com/baharkarakas/insider-transfers/internal/repository"
)

type Suite struct {
	suite.Suite

	// NewRepositories returns repositories over an empty store.
	NewRepositories func(t *testing.T) repository.Repositories

	ctx   context.Context
	repos repository.Repositories
	seq   int
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.repos = s.NewRepositories(s.T())
}

func (s *Suite) account(balance string) models.Account {
	s.seq++
	a, err := s.repos.Accounts.Create(s.ctx, models.Account{
		Email:         fmt.Sprintf("acc%d@example.com", s.seq),
		AccountNumber: fmt.Sprintf("TR%016d", s.seq),
		PasswordHash:  "x",
		Role:          models.RoleUser,
		Balance:       decimal.RequireFromString(balance),
	})
	s.Require().NoError(err)
	return a
}

func (s *Suite) pending(origin, destination int64, amount string) models.TransferRequest {
	var out models.TransferRequest
	err := s.repos.Transfers.WithTx(s.ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.CreateTransfer(s.ctx, newRequest(origin, destination, amount))
		return err
	})
	s.Require().NoError(err)
	return out
}

func newRequest(origin, destination int64, amount string) models.TransferRequest {
	return models.TransferRequest{
		Reference:     uuid.New(),
		OriginID:      origin,
		DestinationID: destination,
		Amount:        decimal.RequireFromString(amount),
		Status:        models.TransferPending,
	}
}

func (s *Suite) balance(id int64) decimal.Decimal {
	a, err := s.repos.Accounts.GetByID(s.ctx, id)
	s.Require().NoError(err)
	return a.Balance
}

func (s *Suite) TestAccountCreateAndLookup() {
	a := s.account("150.25")
	s.NotZero(a.ID)
	s.False(a.CreatedAt.IsZero())

	byID, err := s.repos.Accounts.GetByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.Email, byID.Email)
	s.True(byID.Balance.Equal(decimal.RequireFromString("150.25")))

	byEmail, err := s.repos.Accounts.GetByEmail(s.ctx, a.Email)
	s.Require().NoError(err)
	s.Equal(a.ID, byEmail.ID)

	ok, err := s.repos.Accounts.Exists(s.ctx, a.ID)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *Suite) TestAccountMissing() {
	_, err := s.repos.Accounts.GetByID(s.ctx, 424242)
	s.ErrorIs(err, repository.ErrNotFound)

	_, err = s.repos.Accounts.GetByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, repository.ErrNotFound)

	ok, err := s.repos.Accounts.Exists(s.ctx, 424242)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *Suite) TestAccountDuplicateEmail() {
	a := s.account("0")
	_, err := s.repos.Accounts.Create(s.ctx, models.Account{
		Email:         a.Email,
		AccountNumber: "TR-other",
		PasswordHash:  "x",
		Role:          models.RoleUser,
	})
	s.ErrorIs(err, repository.ErrDuplicate)
}

func (s *Suite) TestBulkCreate() {
	accounts := make([]models.Account, 0, 3)
	for i := 0; i < 3; i++ {
		accounts = append(accounts, models.Account{
			Email:         fmt.Sprintf("bulk%d@example.com", i),
			AccountNumber: fmt.Sprintf("TRBULK%d", i),
			PasswordHash:  "x",
			Role:          models.RoleUser,
			Balance:       decimal.NewFromInt(10),
		})
	}
	n, err := s.repos.Accounts.BulkCreate(s.ctx, accounts)
	s.Require().NoError(err)
	s.EqualValues(3, n)

	got, err := s.repos.Accounts.GetByEmail(s.ctx, "bulk1@example.com")
	s.Require().NoError(err)
	s.True(got.Balance.Equal(decimal.NewFromInt(10)))
}

func (s *Suite) TestUnitCommitsAllWrites() {
	a, b := s.account("100"), s.account("5")

	var created models.TransferRequest
	err := s.repos.Transfers.WithTx(s.ctx, func(tx repository.Tx) error {
		origin, err := tx.LockAccount(s.ctx, a.ID)
		if err != nil {
			return err
		}
		dest, err := tx.LockAccount(s.ctx, b.ID)
		if err != nil {
			return err
		}
		if created, err = tx.CreateTransfer(s.ctx, newRequest(a.ID, b.ID, "40")); err != nil {
			return err
		}
		if err := tx.SetBalance(s.ctx, a.ID, origin.Balance.Sub(decimal.NewFromInt(40))); err != nil {
			return err
		}
		if err := tx.SetBalance(s.ctx, b.ID, dest.Balance.Add(decimal.NewFromInt(40))); err != nil {
			return err
		}
		created, err = tx.UpdateTransferStatus(s.ctx, created.ID, models.TransferConfirmed, nil)
		return err
	})
	s.Require().NoError(err)

	s.True(s.balance(a.ID).Equal(decimal.NewFromInt(60)))
	s.True(s.balance(b.ID).Equal(decimal.NewFromInt(45)))

	got, err := s.repos.Transfers.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(models.TransferConfirmed, got.Status)
	s.Nil(got.RejectedReason)
	s.Require().NotNil(got.Origin)
	s.Require().NotNil(got.Destination)
	s.Equal(a.Email, got.Origin.Email)
	s.Equal(b.AccountNumber, got.Destination.AccountNumber)
}

func (s *Suite) TestUnitRollsBackOnError() {
	a, b := s.account("100"), s.account("0")
	boom := errors.New("boom")

	var created models.TransferRequest
	err := s.repos.Transfers.WithTx(s.ctx, func(tx repository.Tx) error {
		if _, err := tx.LockAccount(s.ctx, a.ID); err != nil {
			return err
		}
		if err := tx.SetBalance(s.ctx, a.ID, decimal.Zero); err != nil {
			return err
		}
		var err error
		if created, err = tx.CreateTransfer(s.ctx, newRequest(a.ID, b.ID, "100")); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	s.True(s.balance(a.ID).Equal(decimal.NewFromInt(100)))
	_, err = s.repos.Transfers.GetByID(s.ctx, created.ID)
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *Suite) TestLockMissingRows() {
	err := s.repos.Transfers.WithTx(s.ctx, func(tx repository.Tx) error {
		_, err := tx.LockAccount(s.ctx, 99999)
		s.ErrorIs(err, repository.ErrNotFound)
		_, err = tx.LockTransfer(s.ctx, 99999)
		s.ErrorIs(err, repository.ErrNotFound)
		return nil
	})
	s.Require().NoError(err)
}

func (s *Suite) TestOnePendingPerOrigin() {
	a, b := s.account("100000"), s.account("0")
	s.pending(a.ID, b.ID, "60000")

	err := s.repos.Transfers.WithTx(s.ctx, func(tx repository.Tx) error {
		has, err := tx.HasPendingFrom(s.ctx, a.ID)
		if err != nil {
			return err
		}
		s.True(has)
		_, err = tx.CreateTransfer(s.ctx, newRequest(a.ID, b.ID, "70000"))
		return err
	})
	s.ErrorIs(err, repository.ErrPendingExists)

	// The destination may still send.
	s.pending(b.ID, a.ID, "1")
}

func (s *Suite) TestResolvedPendingFreesOrigin() {
	a, b := s.account("100000"), s.account("0")
	t := s.pending(a.ID, b.ID, "60000")

	err := s.repos.Transfers.WithTx(s.ctx, func(tx repository.Tx) error {
		locked, err := tx.LockTransfer(s.ctx, t.ID)
		if err != nil {
			return err
		}
		s.Equal(models.TransferPending, locked.Status)
		_, err = tx.UpdateTransferStatus(s.ctx, t.ID, models.TransferRejected, nil)
		return err
	})
	s.Require().NoError(err)

	err = s.repos.Transfers.WithTx(s.ctx, func(tx repository.Tx) error {
		has, err := tx.HasPendingFrom(s.ctx, a.ID)
		if err != nil {
			return err
		}
		s.False(has)
		return nil
	})
	s.Require().NoError(err)
	s.pending(a.ID, b.ID, "60000")
}

func (s *Suite) TestSaveRejectedIsIdempotent() {
	a, b := s.account("10"), s.account("0")
	t := newRequest(a.ID, b.ID, "50")
	t.Reject("Insufficient balance.")

	first, err := s.repos.Transfers.SaveRejected(s.ctx, t)
	s.Require().NoError(err)
	s.NotZero(first.ID)
	s.Equal(models.TransferRejected, first.Status)

	second, err := s.repos.Transfers.SaveRejected(s.ctx, t)
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)

	list, err := s.repos.Transfers.ListByAccount(s.ctx, a.ID, repository.Page{Limit: 10})
	s.Require().NoError(err)
	s.Len(list, 1)
	s.Require().NotNil(list[0].RejectedReason)
	s.Equal("Insufficient balance.", *list[0].RejectedReason)
}

func (s *Suite) TestSaveRejectedAcceptsAuditOnlyRows() {
	a := s.account("10")

	self := newRequest(a.ID, a.ID, "1")
	self.Reject("Cannot send money to the same account.")
	saved, err := s.repos.Transfers.SaveRejected(s.ctx, self)
	s.Require().NoError(err)
	s.Equal(a.ID, saved.DestinationID)

	missing := newRequest(a.ID, 777777, "1")
	missing.Reject("Destination account with ID 777777 not found.")
	_, err = s.repos.Transfers.SaveRejected(s.ctx, missing)
	s.Require().NoError(err)
}

func (s *Suite) TestSaveRejectedKeepsGivenID() {
	a, b := s.account("100"), s.account("0")

	var created models.TransferRequest
	_ = s.repos.Transfers.WithTx(s.ctx, func(tx repository.Tx) error {
		var err error
		created, err = tx.CreateTransfer(s.ctx, newRequest(a.ID, b.ID, "10"))
		s.Require().NoError(err)
		return errors.New("rollback")
	})

	created.Reject("An unexpected internal error occurred: rollback")
	saved, err := s.repos.Transfers.SaveRejected(s.ctx, created)
	s.Require().NoError(err)
	s.Equal(created.ID, saved.ID)
	s.Equal(created.Reference, saved.Reference)
}

func (s *Suite) TestListByAccountNewestFirst() {
	a, b, c := s.account("100"), s.account("100"), s.account("100")

	var ids []int64
	for _, pair := range [][2]int64{{a.ID, b.ID}, {b.ID, a.ID}, {c.ID, b.ID}, {a.ID, c.ID}} {
		t := newRequest(pair[0], pair[1], "1")
		t.Reject("test")
		saved, err := s.repos.Transfers.SaveRejected(s.ctx, t)
		s.Require().NoError(err)
		ids = append(ids, saved.ID)
		time.Sleep(2 * time.Millisecond)
	}

	list, err := s.repos.Transfers.ListByAccount(s.ctx, a.ID, repository.Page{Limit: 50})
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal([]int64{ids[3], ids[1], ids[0]}, []int64{list[0].ID, list[1].ID, list[2].ID})
	for i := 1; i < len(list); i++ {
		s.False(list[i].CreatedAt.After(list[i-1].CreatedAt))
	}
	s.Require().NotNil(list[0].Origin)
	s.Equal(a.ID, list[0].Origin.ID)

	page, err := s.repos.Transfers.ListByAccount(s.ctx, a.ID, repository.Page{Limit: 1, Offset: 1})
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal(ids[1], page[0].ID)

	empty, err := s.repos.Transfers.ListByAccount(s.ctx, a.ID, repository.Page{Limit: 10, Offset: 10})
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *Suite) TestAuditLogCreate() {
	id := "1"
	err := s.repos.AuditLogs.Create(s.ctx, models.AuditLog{
		EntityType: models.AuditEntityTransfer,
		EntityID:   &id,
		Action:     models.AuditActionCreated,
		Details:    map[string]any{"amount": "10.00"},
	})
	s.Require().NoError(err)
}
