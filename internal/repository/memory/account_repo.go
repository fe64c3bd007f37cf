package memory

import (
	"context"
	"fmt"

	"github.com/baharkarakas/insider-transfers/internal/models"
	"github.com/baharkarakas/insider-transfers/internal/repository"
)

type accountsRepo struct{ s *Store }

func (r *accountsRepo) Create(ctx context.Context, a models.Account) (models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertAccount(a)
}

func (r *accountsRepo) BulkCreate(ctx context.Context, accounts []models.Account) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range accounts {
		if err := r.s.checkUniqueAccount(a); err != nil {
			return 0, err
		}
	}
	for _, a := range accounts {
		if _, err := r.s.insertAccount(a); err != nil {
			return 0, err
		}
	}
	return int64(len(accounts)), nil
}

func (r *accountsRepo) GetByID(ctx context.Context, id int64) (models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return models.Account{}, fmt.Errorf("%w: account %d", repository.ErrNotFound, id)
	}
	return a, nil
}

func (r *accountsRepo) GetByEmail(ctx context.Context, email string) (models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return models.Account{}, fmt.Errorf("%w: account %s", repository.ErrNotFound, email)
}

func (r *accountsRepo) Exists(ctx context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.accounts[id]
	return ok, nil
}

// insertAccount and checkUniqueAccount expect s.mu to be held.
func (s *Store) insertAccount(a models.Account) (models.Account, error) {
	if err := s.checkUniqueAccount(a); err != nil {
		return models.Account{}, err
	}
	s.nextAccountID++
	a.ID = s.nextAccountID
	a.CreatedAt = now()
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) checkUniqueAccount(a models.Account) error {
	for _, existing := range s.accounts {
		if existing.Email == a.Email {
			return fmt.Errorf("%w: email %s", repository.ErrDuplicate, a.Email)
		}
		if existing.AccountNumber == a.AccountNumber {
			return fmt.Errorf("%w: account number %s", repository.ErrDuplicate, a.AccountNumber)
		}
	}
	return nil
}
