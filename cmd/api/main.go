package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baharkarakas/insider-transfers/internal/api"
	"github.com/baharkarakas/insider-transfers/internal/auth"
	"github.com/baharkarakas/insider-transfers/internal/config"
	"github.com/baharkarakas/insider-transfers/internal/db"
	"github.com/baharkarakas/insider-transfers/internal/logger"
	"github.com/baharkarakas/insider-transfers/internal/metrics"
	"github.com/baharkarakas/insider-transfers/internal/repository"
	"github.com/baharkarakas/insider-transfers/internal/repository/memory"
	"github.com/baharkarakas/insider-transfers/internal/repository/postgres"
	"github.com/baharkarakas/insider-transfers/internal/services"
	"github.com/baharkarakas/insider-transfers/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Error("store", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	wp := worker.NewPool(cfg.WorkerCount)
	defer wp.Stop()

	tm := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, cfg.JWTIssuer)
	authz := auth.NewAuthorizer(cfg.ACLModelFile, cfg.ACLPolicyFile)

	accountSvc := services.NewAccountService(repos.Accounts, tm)
	transferSvc := services.NewTransferService(
		repos.Transfers,
		repos.Accounts,
		repos.AuditLogs,
		wp,
		services.WithAutoSettleLimit(cfg.AutoSettleLimit),
		services.WithLogger(log),
	)

	metrics.Init()
	r := api.NewRouter(api.RouterDeps{
		Cfg:         cfg,
		TM:          tm,
		Authz:       authz,
		AccountSvc:  accountSvc,
		TransferSvc: transferSvc,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env, "store", cfg.StoreDriver,
			"auto_settle_limit", cfg.AutoSettleLimit.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (repository.Repositories, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		slog.Warn("using in-memory store; data is lost on exit")
		return memory.NewRepositories(memory.New()), func() {}, nil
	}

	if cfg.Migrate {
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			return repository.Repositories{}, nil, err
		}
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return repository.Repositories{}, nil, err
	}
	return postgres.NewRepositories(pool), pool.Close, nil
}
