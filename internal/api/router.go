package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/insider-transfers/internal/api/handlers"
	"github.com/baharkarakas/insider-transfers/internal/auth"
	"github.com/baharkarakas/insider-transfers/internal/config"
	"github.com/baharkarakas/insider-transfers/internal/metrics"
	"github.com/baharkarakas/insider-transfers/internal/middleware"
	"github.com/baharkarakas/insider-transfers/internal/services"
)

type RouterDeps struct {
	Cfg         config.Config
	TM          *auth.TokenManager
	Authz       middleware.Authorizer
	AccountSvc  *services.AccountService
	TransferSvc *services.TransferService
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(d.Cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	authH := handlers.NewAuthHandler(d.AccountSvc)
	accH := handlers.NewAccountHandler(d.AccountSvc)
	trH := handlers.NewTransferHandler(d.TransferSvc, d.Authz)
	am := middleware.NewAuthMiddleware(d.TM, d.Cfg.Env)

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- auth ----------
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)
		r.Post("/auth/refresh", authH.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(am.Auth)

			// ---------- accounts ----------
			r.Get("/accounts/me", accH.Me)

			// ---------- transfers ----------
			r.With(middleware.Authorize(d.Authz, auth.ObjectTransfers, auth.ActionCreate)).
				Post("/transfers", trH.Create)
			r.Get("/transfers", trH.List)
			r.Get("/transfers/{id}", trH.Get)
			r.With(middleware.Authorize(d.Authz, auth.ObjectTransfers, auth.ActionApprove)).
				Patch("/transfers/{id}/approve", trH.Approve)
			r.With(middleware.Authorize(d.Authz, auth.ObjectTransfers, auth.ActionReject)).
				Patch("/transfers/{id}/reject", trH.Reject)
		})
	})

	return r
}
