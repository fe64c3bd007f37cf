package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/baharkarakas/insider-transfers/internal/models"
	"github.com/baharkarakas/insider-transfers/internal/repository"
)

// Store is an in-process store with per-row exclusive locks. Writes made in
// a unit of work are staged and only become visible on commit.
//
// Row locks are never evicted, so memory grows with every account and
// transfer touched. STORE_DRIVER=memory is for tests and local demos, not
// long-running deployments.
type Store struct {
	mu        sync.Mutex
	accounts  map[int64]models.Account
	transfers map[int64]models.TransferRequest
	audit     []models.AuditLog

	nextAccountID  int64
	nextTransferID int64
	nextAuditID    int64

	rows map[string]*sync.Mutex
}

func New() *Store {
	return &Store{
		accounts:  make(map[int64]models.Account),
		transfers: make(map[int64]models.TransferRequest),
		rows:      make(map[string]*sync.Mutex),
	}
}

func NewRepositories(s *Store) repository.Repositories {
	return repository.Repositories{
		Accounts:  &accountsRepo{s},
		Transfers: &transfersRepo{s},
		AuditLogs: &auditLogsRepo{s},
	}
}

// AuditEntries returns a copy of every audit log written so far.
func (s *Store) AuditEntries() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AuditLog, len(s.audit))
	copy(out, s.audit)
	return out
}

func (s *Store) rowLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[key]
	if !ok {
		m = &sync.Mutex{}
		s.rows[key] = m
	}
	return m
}

func accountKey(id int64) string  { return fmt.Sprintf("account:%d", id) }
func transferKey(id int64) string { return fmt.Sprintf("transfer:%d", id) }

func now() time.Time { return time.Now().UTC() }
