package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/insider-transfers/internal/models"
	"github.com/baharkarakas/insider-transfers/internal/repository"
)

var _ repository.Tx = (*unit)(nil)

// unit is one atomic unit of work. Row locks are held until release.
type unit struct {
	s    *Store
	held map[string]*sync.Mutex

	balances  map[int64]decimal.Decimal
	transfers map[int64]models.TransferRequest
}

func (u *unit) lock(key string) {
	if _, ok := u.held[key]; ok {
		return
	}
	m := u.s.rowLock(key)
	m.Lock()
	u.held[key] = m
}

func (u *unit) release() {
	for key, m := range u.held {
		m.Unlock()
		delete(u.held, key)
	}
}

func (u *unit) LockAccount(ctx context.Context, id int64) (models.Account, error) {
	u.lock(accountKey(id))

	u.s.mu.Lock()
	a, ok := u.s.accounts[id]
	u.s.mu.Unlock()
	if !ok {
		return models.Account{}, fmt.Errorf("%w: account %d", repository.ErrNotFound, id)
	}
	if b, ok := u.balances[id]; ok {
		a.Balance = b
	}
	return a, nil
}

func (u *unit) SetBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	if _, ok := u.held[accountKey(id)]; !ok {
		return fmt.Errorf("set balance on account %d without holding its lock", id)
	}
	u.balances[id] = balance
	return nil
}

func (u *unit) HasPendingFrom(ctx context.Context, originID int64) (bool, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	return u.pendingFromLocked(originID), nil
}

// pendingFromLocked expects s.mu to be held.
func (u *unit) pendingFromLocked(originID int64) bool {
	for id, t := range u.s.transfers {
		if staged, ok := u.transfers[id]; ok {
			t = staged
		}
		if t.OriginID == originID && t.Status == models.TransferPending {
			return true
		}
	}
	for id, t := range u.transfers {
		if _, committed := u.s.transfers[id]; committed {
			continue
		}
		if t.OriginID == originID && t.Status == models.TransferPending {
			return true
		}
	}
	return false
}

func (u *unit) CreateTransfer(ctx context.Context, t models.TransferRequest) (models.TransferRequest, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, existing := range u.s.transfers {
		if existing.Reference == t.Reference {
			return models.TransferRequest{}, fmt.Errorf("%w: reference %s", repository.ErrDuplicate, t.Reference)
		}
	}
	if t.Status == models.TransferPending && u.pendingFromLocked(t.OriginID) {
		return models.TransferRequest{}, repository.ErrPendingExists
	}

	u.s.nextTransferID++
	t.ID = u.s.nextTransferID
	t.CreatedAt = now()
	u.transfers[t.ID] = t
	return t, nil
}

func (u *unit) LockTransfer(ctx context.Context, id int64) (models.TransferRequest, error) {
	u.lock(transferKey(id))
	if t, ok := u.transfers[id]; ok {
		return t, nil
	}

	u.s.mu.Lock()
	t, ok := u.s.transfers[id]
	u.s.mu.Unlock()
	if !ok {
		return models.TransferRequest{}, fmt.Errorf("%w: transfer %d", repository.ErrNotFound, id)
	}
	return t, nil
}

func (u *unit) UpdateTransferStatus(ctx context.Context, id int64, status models.TransferStatus, reason *string) (models.TransferRequest, error) {
	t, ok := u.transfers[id]
	if !ok {
		u.s.mu.Lock()
		t, ok = u.s.transfers[id]
		u.s.mu.Unlock()
	}
	if !ok {
		return models.TransferRequest{}, fmt.Errorf("%w: transfer %d", repository.ErrNotFound, id)
	}
	t.Status = status
	if reason != nil {
		t.RejectedReason = reason
	}
	u.transfers[id] = t
	return t, nil
}

func (u *unit) commit() error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, t := range u.transfers {
		if t.Status != models.TransferPending {
			continue
		}
		for id, other := range u.s.transfers {
			if id != t.ID && other.OriginID == t.OriginID && other.Status == models.TransferPending {
				if staged, ok := u.transfers[id]; ok && staged.Status != models.TransferPending {
					continue
				}
				return repository.ErrPendingExists
			}
		}
	}

	for id, b := range u.balances {
		if _, ok := u.s.accounts[id]; !ok {
			return fmt.Errorf("%w: account %d", repository.ErrNotFound, id)
		}
		if b.IsNegative() {
			return fmt.Errorf("account %d: balance would become negative", id)
		}
	}

	for id, b := range u.balances {
		a := u.s.accounts[id]
		a.Balance = b
		u.s.accounts[id] = a
	}
	for id, t := range u.transfers {
		u.s.transfers[id] = t
	}
	return nil
}
