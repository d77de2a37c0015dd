package api

import (
	"net/http"

	"github.com/ayo6706/otc-ledger/internal/api/handler"
	"github.com/ayo6706/otc-ledger/internal/api/middleware"
	"github.com/ayo6706/otc-ledger/internal/api/spec"
	"github.com/ayo6706/otc-ledger/internal/config"
	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/ayo6706/otc-ledger/internal/idempotency"
	"github.com/ayo6706/otc-ledger/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// Store is the storage driver the router serves: workflow queries plus a
// readiness ping.
type Store interface {
	service.QueryStore
	handler.Pinger
}

type Router struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     Store
	idemStore *idempotency.Store
	redis     redis.Cmdable
	svc       *service.Services
}

// NewRouter builds the HTTP surface. redis may be nil.
func NewRouter(cfg *config.Config, logger *zap.Logger, store Store, idemStore *idempotency.Store, redisClient redis.Cmdable, svc *service.Services) *Router {
	return &Router{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		idemStore: idemStore,
		redis:     redisClient,
		svc:       svc,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)

	authHandler := handler.NewAuthHandler(api.store.Queries(), api.cfg.TokenTTL)
	healthHandler := handler.NewHealthHandler(api.store, api.redis)
	operatorHandler := handler.NewOperatorHandler(api.svc.Operators)
	rateHandler := handler.NewExchangeRateHandler(api.svc.ExchangeRates)
	rechargeHandler := handler.NewRechargeHandler(api.svc.Recharges)
	loanHandler := handler.NewLoanHandler(api.svc.Loans)
	cutHandler := handler.NewDailyCutHandler(api.svc.Cuts)
	txHandler := handler.NewTransactionHandler(api.svc.Ledger)
	auditHandler := handler.NewAuditHandler(api.svc.Audit)

	idempotent := middleware.IdempotencyMiddleware(api.idemStore, api.logger)

	// Public
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	r.With(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS)).Post("/v1/auth/token", authHandler.Token)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		// Shared; services scope results to the caller.
		r.Get("/v1/operators", operatorHandler.List)
		r.Get("/v1/operators/{id}", operatorHandler.Get)
		r.Get("/v1/operators/{id}/summary", operatorHandler.Summary)
		r.Get("/v1/exchange-rates/current", rateHandler.Current)
		r.Get("/v1/exchange-rates", rateHandler.History)
		r.Get("/v1/recharges", rechargeHandler.List)
		r.Get("/v1/recharges/{id}", rechargeHandler.Get)
		r.Get("/v1/loans", loanHandler.List)
		r.Get("/v1/loans/{id}", loanHandler.Get)
		r.Get("/v1/cuts", cutHandler.List)
		r.Get("/v1/cuts/{id}", cutHandler.Get)
		r.Get("/v1/transactions", txHandler.List)
		r.With(idempotent).Post("/v1/cuts/{id}/transfers", cutHandler.Transfer)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleOperator))
			r.Post("/v1/recharges", rechargeHandler.Create)
			r.Post("/v1/loans", loanHandler.Create)
			r.Put("/v1/cuts", cutHandler.Submit)
			r.Put("/v1/cuts/draft", cutHandler.SaveDraft)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin))
			r.Post("/v1/operators", operatorHandler.Create)
			r.Patch("/v1/operators/{id}", operatorHandler.Update)
			r.Post("/v1/operators/{id}/adjustments", operatorHandler.Adjust)
			r.Post("/v1/exchange-rates", rateHandler.Set)
			r.Get("/v1/recharges/pending", rechargeHandler.ListPending)
			r.Get("/v1/cuts/pending", cutHandler.ListPending)
			r.Get("/v1/audit/{entity}/{id}", auditHandler.History)

			r.Group(func(r chi.Router) {
				r.Use(idempotent)
				r.Post("/v1/recharges/{id}/approve", rechargeHandler.Approve)
				r.Post("/v1/recharges/{id}/reject", rechargeHandler.Reject)
				r.Post("/v1/loans/{id}/approve", loanHandler.Approve)
				r.Post("/v1/loans/{id}/pay", loanHandler.Pay)
				r.Post("/v1/loans/{id}/cancel", loanHandler.Cancel)
				r.Post("/v1/cuts/{id}/approve", cutHandler.Approve)
				r.Post("/v1/cuts/{id}/reject", cutHandler.Reject)
			})
		})

		// Admins read any operator's cut for today with ?operator_id=.
		r.Get("/v1/cuts/today", cutHandler.Today)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handler.RespondError(w, r, http.StatusNotFound, "resource/not-found", "route not found")
	})
	return r
}
