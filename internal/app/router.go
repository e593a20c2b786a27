package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/keystone-erp/keystone-erp/internal/demanddrafts"
	"github.com/keystone-erp/keystone-erp/internal/materials"
	"github.com/keystone-erp/keystone-erp/internal/movements"
	"github.com/keystone-erp/keystone-erp/internal/observability"
	"github.com/keystone-erp/keystone-erp/internal/platform/httpx"
	"github.com/keystone-erp/keystone-erp/internal/projects"
	"github.com/keystone-erp/keystone-erp/internal/vendors"
	"github.com/keystone-erp/keystone-erp/jobs"
)

// RouterParams aggregates handler dependencies for route registration.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Metrics         *observability.Metrics
	Pool            *pgxpool.Pool
	Redis           *redis.Client
	MaterialHandler *materials.Handler
	MovementHandler *movements.Handler
	VendorHandler   *vendors.Handler
	ProjectHandler  *projects.Handler
	DraftHandler    *demanddrafts.Handler
	JobHandler      *jobs.Handler
}

// NewRouter assembles the HTTP routing tree.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: p.Logger, Config: p.Config, Metrics: p.Metrics}) {
		r.Use(mw)
	}

	r.Get("/healthz", healthz(p.Pool, p.Redis))
	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())
	}

	r.Route("/materials", func(r chi.Router) {
		p.MaterialHandler.MountRoutes(r)
		p.MovementHandler.MountMaterialRoutes(r)
	})
	r.Route("/entries", p.MovementHandler.MountEntryRoutes)
	r.Route("/exits", p.MovementHandler.MountExitRoutes)
	r.Route("/vendors", p.VendorHandler.MountRoutes)
	r.Route("/projects", p.ProjectHandler.MountRoutes)
	r.Route("/demand-drafts", p.DraftHandler.MountRoutes)
	if p.JobHandler != nil {
		r.Route("/jobs", p.JobHandler.MountRoutes)
	}

	return r
}

func healthz(pool *pgxpool.Pool, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok", "postgres": "ok", "redis": "ok"}
		code := http.StatusOK
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				status["postgres"] = "down"
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				status["redis"] = "down"
				if status["status"] == "ok" {
					status["status"] = "degraded"
				}
			}
		}
		httpx.JSON(w, code, status)
	}
}
