package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baharkarakas/insider-transfers/internal/models"
	"github.com/baharkarakas/insider-transfers/internal/repository"
)

type accountsRepo struct{ pool *pgxpool.Pool }

func NewAccounts(pool *pgxpool.Pool) repository.Accounts {
	return &accountsRepo{pool: pool}
}

const accountColumns = `id, email, account_number, password_hash, role, balance, created_at`

func scanAccount(row pgx.Row) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Email, &a.AccountNumber, &a.PasswordHash, &a.Role, &a.Balance, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Account{}, repository.ErrNotFound
	}
	return a, err
}

func (r *accountsRepo) Create(ctx context.Context, a models.Account) (models.Account, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO accounts(email, account_number, password_hash, role, balance)
		 VALUES($1,$2,$3,$4,$5)
		 RETURNING `+accountColumns,
		a.Email, a.AccountNumber, a.PasswordHash, a.Role, a.Balance,
	)
	out, err := scanAccount(row)
	if err != nil {
		return models.Account{}, mapError(err)
	}
	return out, nil
}

// BulkCreate loads accounts with the COPY protocol.
func (r *accountsRepo) BulkCreate(ctx context.Context, accounts []models.Account) (int64, error) {
	rows := make([][]any, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, []any{a.Email, a.AccountNumber, a.PasswordHash, a.Role, a.Balance})
	}
	n, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"accounts"},
		[]string{"email", "account_number", "password_hash", "role", "balance"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("copy accounts: %w", mapError(err))
	}
	return n, nil
}

func (r *accountsRepo) GetByID(ctx context.Context, id int64) (models.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
}

func (r *accountsRepo) GetByEmail(ctx context.Context, email string) (models.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email=$1`, email))
}

func (r *accountsRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}
