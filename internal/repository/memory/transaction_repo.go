package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/insider-transfers/internal/models"
	"github.com/baharkarakas/insider-transfers/internal/repository"
)

type transfersRepo struct{ s *Store }

func (r *transfersRepo) GetByID(ctx context.Context, id int64) (models.TransferRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.transfers[id]
	if !ok {
		return models.TransferRequest{}, fmt.Errorf("%w: transfer %d", repository.ErrNotFound, id)
	}
	return r.s.withSummaries(t), nil
}

func (r *transfersRepo) ListByAccount(ctx context.Context, accountID int64, p repository.Page) ([]models.TransferRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []models.TransferRequest{}
	for _, t := range r.s.transfers {
		if t.OriginID == accountID || t.DestinationID == accountID {
			out = append(out, r.s.withSummaries(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	if p.Offset >= len(out) {
		return []models.TransferRequest{}, nil
	}
	out = out[p.Offset:]
	if p.Limit > 0 && p.Limit < len(out) {
		out = out[:p.Limit]
	}
	return out, nil
}

func (r *transfersRepo) SaveRejected(ctx context.Context, t models.TransferRequest) (models.TransferRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, existing := range r.s.transfers {
		if existing.Reference == t.Reference {
			existing.Status = models.TransferRejected
			existing.RejectedReason = t.RejectedReason
			r.s.transfers[id] = existing
			return existing, nil
		}
	}

	t.Status = models.TransferRejected
	if t.ID == 0 {
		r.s.nextTransferID++
		t.ID = r.s.nextTransferID
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now()
	}
	t.Origin, t.Destination = nil, nil
	r.s.transfers[t.ID] = t
	return t, nil
}

func (r *transfersRepo) WithTx(ctx context.Context, fn func(repository.Tx) error) error {
	u := &unit{
		s:         r.s,
		held:      make(map[string]*sync.Mutex),
		balances:  make(map[int64]decimal.Decimal),
		transfers: make(map[int64]models.TransferRequest),
	}
	defer u.release()

	if err := fn(u); err != nil {
		return err
	}
	return u.commit()
}

// withSummaries expects s.mu to be held.
func (s *Store) withSummaries(t models.TransferRequest) models.TransferRequest {
	if a, ok := s.accounts[t.OriginID]; ok {
		sum := a.Summary()
		t.Origin = &sum
	}
	if a, ok := s.accounts[t.DestinationID]; ok {
		sum := a.Summary()
		t.Destination = &sum
	}
	return t
}

type auditLogsRepo struct{ s *Store }

func (r *auditLogsRepo) Create(ctx context.Context, l models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextAuditID++
	l.ID = r.s.nextAuditID
	l.CreatedAt = now()
	r.s.audit = append(r.s.audit, l)
	return nil
}
