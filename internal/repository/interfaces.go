package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/insider-transfers/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicate     = errors.New("duplicate entry")
	ErrPendingExists = errors.New("origin already has a pending transfer")
)

type Accounts interface {
	Create(ctx context.Context, a models.Account) (models.Account, error)
	BulkCreate(ctx context.Context, accounts []models.Account) (int64, error)
	GetByID(ctx context.Context, id int64) (models.Account, error)
	GetByEmail(ctx context.Context, email string) (models.Account, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

type Page struct {
	Limit  int
	Offset int
}

type Transfers interface {
	GetByID(ctx context.Context, id int64) (models.TransferRequest, error)
	// ListByAccount returns requests where the account is origin or
	// destination, newest first, with account summaries filled in.
	ListByAccount(ctx context.Context, accountID int64, p Page) ([]models.TransferRequest, error)
	// SaveRejected upserts a rejected record keyed on its Reference. It runs
	// outside any unit of work and may be retried.
	SaveRejected(ctx context.Context, t models.TransferRequest) (models.TransferRequest, error)

	// WithTx runs fn as one atomic unit. Any error returned by fn rolls the
	// unit back; row locks are held until the unit ends.
	WithTx(ctx context.Context, fn func(Tx) error) error
}

// Tx is the view of the store inside one atomic unit.
type Tx interface {
	// LockAccount takes an exclusive lock on the account row.
	LockAccount(ctx context.Context, id int64) (models.Account, error)
	SetBalance(ctx context.Context, id int64, balance decimal.Decimal) error

	HasPendingFrom(ctx context.Context, originID int64) (bool, error)
	CreateTransfer(ctx context.Context, t models.TransferRequest) (models.TransferRequest, error)
	// LockTransfer takes an exclusive lock on the transfer request row.
	LockTransfer(ctx context.Context, id int64) (models.TransferRequest, error)
	UpdateTransferStatus(ctx context.Context, id int64, status models.TransferStatus, reason *string) (models.TransferRequest, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}

// Repositories bundles the store implementations wired into the services.
type Repositories struct {
	Accounts  Accounts
	Transfers Transfers
	AuditLogs AuditLogs
}
