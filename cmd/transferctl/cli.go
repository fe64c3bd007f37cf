package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/baharkarakas/insider-transfers/internal/db"
	"github.com/baharkarakas/insider-transfers/internal/logger"
	"github.com/baharkarakas/insider-transfers/internal/repository"
	"github.com/baharkarakas/insider-transfers/internal/repository/postgres"
	"github.com/baharkarakas/insider-transfers/internal/services"
)

type cli struct {
	cfg cfg
}

type cfg struct {
	DatabaseURL     string
	DBMaxConns      int32
	AutoSettleLimit decimal.Decimal
	Env             string
}

// setupConfig reads settings from flags, the environment (DATABASE_URL and
// so on), an optional .env file and an optional config file, in that order
// of precedence.
func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if configFile := viper.GetString("config-file"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
				return err
			}
		}
	}

	limit, err := decimal.NewFromString(viper.GetString("auto-settle-limit"))
	if err != nil {
		return fmt.Errorf("auto-settle-limit: %w", err)
	}

	c.cfg = cfg{
		DatabaseURL:     viper.GetString("database-url"),
		DBMaxConns:      viper.GetInt32("db-max-conns"),
		AutoSettleLimit: limit,
		Env:             viper.GetString("app-env"),
	}
	slog.SetDefault(logger.NewWithWriter(c.cfg.Env, cmd.ErrOrStderr()))
	return nil
}

// store opens the Postgres pool. Callers must close the returned pool.
func (c *cli) store(ctx context.Context) (*pgxpool.Pool, repository.Repositories, error) {
	pool, err := db.NewPool(ctx, c.cfg.DatabaseURL, c.cfg.DBMaxConns)
	if err != nil {
		return nil, repository.Repositories{}, fmt.Errorf("connect: %w", err)
	}
	return pool, postgres.NewRepositories(pool), nil
}

// transferService builds an engine with synchronous audit writes, so every
// entry is stored before the command exits.
func (c *cli) transferService(repos repository.Repositories) *services.TransferService {
	return services.NewTransferService(
		repos.Transfers,
		repos.Accounts,
		repos.AuditLogs,
		nil,
		services.WithAutoSettleLimit(c.cfg.AutoSettleLimit),
		services.WithLogger(slog.Default()),
	)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
