package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baharkarakas/insider-transfers/internal/models"
	"github.com/baharkarakas/insider-transfers/internal/repository"
)

type transfersRepo struct{ pool *pgxpool.Pool }

func NewTransfers(pool *pgxpool.Pool) repository.Transfers {
	return &transfersRepo{pool: pool}
}

const transferColumns = `id, reference, origin_id, destination_id, amount, status, rejected_reason, created_at`

func scanTransfer(row pgx.Row) (models.TransferRequest, error) {
	var t models.TransferRequest
	var status string
	err := row.Scan(&t.ID, &t.Reference, &t.OriginID, &t.DestinationID, &t.Amount, &status, &t.RejectedReason, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.TransferRequest{}, repository.ErrNotFound
	}
	if err != nil {
		return models.TransferRequest{}, err
	}
	t.Status = models.TransferStatus(status)
	return t, nil
}

const listQuery = `
SELECT t.id, t.reference, t.origin_id, t.destination_id, t.amount, t.status, t.rejected_reason, t.created_at,
       o.id, o.email, o.account_number,
       d.id, d.email, d.account_number
  FROM transfer_requests t
  LEFT JOIN accounts o ON o.id = t.origin_id
  LEFT JOIN accounts d ON d.id = t.destination_id
`

func scanTransferWithAccounts(row pgx.Row) (models.TransferRequest, error) {
	var (
		t            models.TransferRequest
		status       string
		oID, dID     *int64
		oEmail, oNum *string
		dEmail, dNum *string
	)
	err := row.Scan(&t.ID, &t.Reference, &t.OriginID, &t.DestinationID, &t.Amount, &status, &t.RejectedReason, &t.CreatedAt,
		&oID, &oEmail, &oNum, &dID, &dEmail, &dNum)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.TransferRequest{}, repository.ErrNotFound
	}
	if err != nil {
		return models.TransferRequest{}, err
	}
	t.Status = models.TransferStatus(status)
	if oID != nil {
		t.Origin = &models.AccountSummary{ID: *oID, Email: *oEmail, AccountNumber: *oNum}
	}
	if dID != nil {
		t.Destination = &models.AccountSummary{ID: *dID, Email: *dEmail, AccountNumber: *dNum}
	}
	return t, nil
}

func (r *transfersRepo) GetByID(ctx context.Context, id int64) (models.TransferRequest, error) {
	return scanTransferWithAccounts(r.pool.QueryRow(ctx, listQuery+` WHERE t.id=$1`, id))
}

func (r *transfersRepo) ListByAccount(ctx context.Context, accountID int64, p repository.Page) ([]models.TransferRequest, error) {
	rows, err := r.pool.Query(ctx,
		listQuery+`
		 WHERE t.origin_id=$1 OR t.destination_id=$1
		 ORDER BY t.created_at DESC, t.id DESC
		 LIMIT $2 OFFSET $3`,
		accountID, p.Limit, p.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.TransferRequest{}
	for rows.Next() {
		t, err := scanTransferWithAccounts(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *transfersRepo) SaveRejected(ctx context.Context, t models.TransferRequest) (models.TransferRequest, error) {
	// A zero id lets the sequence assign one; a rolled-back row keeps its id.
	var id *int64
	if t.ID != 0 {
		id = &t.ID
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO transfer_requests(id, reference, origin_id, destination_id, amount, status, rejected_reason)
		 VALUES(COALESCE($1, nextval('transfer_requests_id_seq')), $2, $3, $4, $5, 'rejected', $6)
		 ON CONFLICT (reference) DO UPDATE
		    SET status = 'rejected', rejected_reason = EXCLUDED.rejected_reason
		 RETURNING `+transferColumns,
		id, t.Reference, t.OriginID, t.DestinationID, t.Amount, t.RejectedReason,
	)
	return scanTransfer(row)
}

// WithTx runs fn in a read-committed transaction. Correctness comes from the
// row locks taken inside fn, so every statement after a lock sees the latest
// committed state.
func (r *transfersRepo) WithTx(ctx context.Context, fn func(repository.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	if err := fn(&unit{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
