package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/baharkarakas/insider-transfers/internal/repository"
)

const (
	uniqueViolation = "23505"

	onePendingIndex = "transfer_requests_one_pending_per_origin"
)

// mapError translates constraint violations into repository sentinels.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	if pgErr.ConstraintName == onePendingIndex {
		return repository.ErrPendingExists
	}
	return repository.ErrDuplicate
}
