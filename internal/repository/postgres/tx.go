package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/insider-transfers/internal/models"
	"github.com/baharkarakas/insider-transfers/internal/repository"
)

var _ repository.Tx = (*unit)(nil)

type unit struct{ tx pgx.Tx }

func (u *unit) LockAccount(ctx context.Context, id int64) (models.Account, error) {
	return scanAccount(u.tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id=$1 FOR UPDATE`, id))
}

func (u *unit) SetBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	tag, err := u.tx.Exec(ctx, `UPDATE accounts SET balance=$2 WHERE id=$1`, id, balance)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (u *unit) HasPendingFrom(ctx context.Context, originID int64) (bool, error) {
	var exists bool
	err := u.tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM transfer_requests WHERE origin_id=$1 AND status='pending')`,
		originID,
	).Scan(&exists)
	return exists, err
}

func (u *unit) CreateTransfer(ctx context.Context, t models.TransferRequest) (models.TransferRequest, error) {
	out, err := scanTransfer(u.tx.QueryRow(ctx,
		`INSERT INTO transfer_requests(reference, origin_id, destination_id, amount, status, rejected_reason)
		 VALUES($1,$2,$3,$4,$5,$6)
		 RETURNING `+transferColumns,
		t.Reference, t.OriginID, t.DestinationID, t.Amount, string(t.Status), t.RejectedReason,
	))
	if err != nil {
		return models.TransferRequest{}, mapError(err)
	}
	return out, nil
}

func (u *unit) LockTransfer(ctx context.Context, id int64) (models.TransferRequest, error) {
	return scanTransfer(u.tx.QueryRow(ctx,
		`SELECT `+transferColumns+` FROM transfer_requests WHERE id=$1 FOR UPDATE`, id))
}

func (u *unit) UpdateTransferStatus(ctx context.Context, id int64, status models.TransferStatus, reason *string) (models.TransferRequest, error) {
	return scanTransfer(u.tx.QueryRow(ctx,
		`UPDATE transfer_requests
		    SET status=$2, rejected_reason=COALESCE($3, rejected_reason)
		  WHERE id=$1
		  RETURNING `+transferColumns,
		id, string(status), reason,
	))
}
