package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	repo "github.com/baharkarakas/insider-transfers/internal/repository"
)

func NewRepositories(pool *pgxpool.Pool) repo.Repositories {
	return repo.Repositories{
		Accounts:  &accountsRepo{pool},
		Transfers: &transfersRepo{pool},
		AuditLogs: &auditLogsRepo{pool},
	}
}
