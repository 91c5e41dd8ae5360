// Package httpapi exposes the dashboard queries over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/swwwjjw/barometer-pulkovo/internal/dashboard"
	"github.com/swwwjjw/barometer-pulkovo/internal/roles"
)

// Dashboard is the query side used by the handlers.
type Dashboard interface {
	Catalog() roles.Catalog
	Snapshot() *dashboard.Snapshot
	Reload(ctx context.Context) error
	QueryRole(ctx context.Context, q dashboard.RoleQuery, opts dashboard.RoleOptions) (*dashboard.StatsPayload, error)
	QueryGlobal(ctx context.Context, opts dashboard.GlobalOptions) (*dashboard.StatsPayload, error)
}

type Handler struct {
	// DefaultFilter applies when a request does not set filter_outliers.
	DefaultFilter bool

	dashboard Dashboard
	metrics   *Metrics
	logger    *zap.Logger
}

func NewHandler(d Dashboard, metrics *Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(func() float64 { return float64(d.Snapshot().Vacancies.Len()) })
	}
	return &Handler{DefaultFilter: true, dashboard: d, metrics: metrics, logger: logger.With(zap.String("component", "http"))}
}

// Routes builds the full router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/health", h.health)
	r.Handle("/metrics", h.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/roles", h.listRoles)
		r.Get("/stats", h.roleStatsByIDs)
		r.Get("/stats/{index}", h.roleStatsByIndex)
		r.Get("/overall-stats", h.overallStats)
		r.Post("/reload", h.reload)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Render(w, r, newAPIError(http.StatusNotFound, "NOT_FOUND", "Resource not found")) //nolint:errcheck
	})

	return r
}
