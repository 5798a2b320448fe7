package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/northfarm/sales-backend/api/controllers"
	"github.com/northfarm/sales-backend/api/middleware"
	"github.com/northfarm/sales-backend/internal/audit"
	"github.com/northfarm/sales-backend/internal/auth"
	"github.com/northfarm/sales-backend/internal/ledger"
	"github.com/northfarm/sales-backend/internal/snapshots"
	"github.com/northfarm/sales-backend/internal/summary"
	"github.com/northfarm/sales-backend/pkg/auth/session"
	"github.com/northfarm/sales-backend/pkg/config"
	"github.com/northfarm/sales-backend/pkg/db"
	"github.com/northfarm/sales-backend/pkg/enums"
	"github.com/northfarm/sales-backend/pkg/logger"
	"github.com/northfarm/sales-backend/pkg/redis"
)

// Dependencies carries everything the router wires into handlers.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       redis.Pinger
	Sessions    session.Checker
	AuthService auth.Service
	Ledger      ledger.Service
	Summary     summary.Service
	Audit       audit.Service
	Snapshots   *snapshots.Cache
	Gatherer    prometheus.Gatherer
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.SalesList(deps.Ledger, logg))
			r.Post("/", controllers.SalesRecord(deps.Ledger, logg))
			r.Delete("/{id}", controllers.SalesDelete(deps.Ledger, logg))
		})

		r.Route("/closures", func(r chi.Router) {
			r.Get("/", controllers.ClosuresList(deps.Ledger, logg))
			r.Post("/", controllers.ClosuresClose(deps.Ledger, logg))
			r.With(middleware.RequireRole(enums.ActorRoleAdmin, logg)).
				Post("/reopen", controllers.ClosuresReopen(deps.Ledger, logg))
		})

		r.Route("/summary", func(r chi.Router) {
			r.Get("/", controllers.SummaryReport(deps.Summary, logg))
			r.Get("/years", controllers.SummaryYears(deps.Summary, logg))
		})

		r.With(middleware.RequireRole(enums.ActorRoleAdmin, logg)).
			Get("/audit", controllers.AuditRecent(deps.Audit, logg))

		r.Get("/stream", controllers.SnapshotStream(deps.Snapshots, logg))
	})

	return r
}
