package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/swwwjjw/barometer-pulkovo/internal/dashboard"
)

type roleEntry struct {
	Index int      `json:"index"`
	Name  string   `json:"name"`
	IDs   []string `json:"ids"`
}

type reloadResponse struct {
	Status    string    `json:"status"`
	Vacancies int       `json:"vacancies"`
	LoadedAt  time.Time `json:"loaded_at"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// listRoles handles GET /api/roles
func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	catalog := h.dashboard.Catalog()
	entries := make([]roleEntry, 0, len(catalog))
	for i, role := range catalog {
		entries = append(entries, roleEntry{Index: i, Name: role.Name, IDs: role.IDs})
	}
	render.JSON(w, r, entries)
}

// roleStatsByIndex handles GET /api/stats/{index}
func (h *Handler) roleStatsByIndex(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		h.fail(w, r, dashboard.KindRole, fmt.Errorf("%w: role index must be an integer, got %q", dashboard.ErrInvalidParameter, raw))
		return
	}

	h.roleStats(w, r, dashboard.RoleQuery{Index: &index})
}

// roleStatsByIDs handles GET /api/stats?ids=31,52
func (h *Handler) roleStatsByIDs(w http.ResponseWriter, r *http.Request) {
	ids := dashboard.ParseIDs(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		h.fail(w, r, dashboard.KindRole, fmt.Errorf("%w: ids are required", dashboard.ErrInvalidParameter))
		return
	}

	h.roleStats(w, r, dashboard.RoleQuery{IDs: ids})
}

func (h *Handler) roleStats(w http.ResponseWriter, r *http.Request, q dashboard.RoleQuery) {
	started := time.Now()
	query := r.URL.Query()

	filter, err := parseBool("filter_outliers", query.Get("filter_outliers"), h.DefaultFilter)
	if err != nil {
		h.fail(w, r, dashboard.KindRole, err)
		return
	}
	multiplier, err := dashboard.ParseFloat("multiplier", query.Get("multiplier"))
	if err != nil {
		h.fail(w, r, dashboard.KindRole, err)
		return
	}

	payload, err := h.dashboard.QueryRole(r.Context(), q, dashboard.RoleOptions{FilterOutliers: filter, Multiplier: multiplier})
	if err != nil {
		h.fail(w, r, dashboard.KindRole, err)
		return
	}

	h.metrics.observe(dashboard.KindRole, result(payload), payload.FilterStats.FilteredOut, started)
	render.JSON(w, r, payload)
}

// overallStats handles GET /api/overall-stats. low_divisor=0 turns the lower
// bound off for the request; without it the configured divisor applies.
func (h *Handler) overallStats(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	query := r.URL.Query()

	filter, err := parseBool("filter_outliers", query.Get("filter_outliers"), h.DefaultFilter)
	if err != nil {
		h.fail(w, r, dashboard.KindGlobal, err)
		return
	}
	high, err := dashboard.ParseFloat("high_multiplier", query.Get("high_multiplier"))
	if err != nil {
		h.fail(w, r, dashboard.KindGlobal, err)
		return
	}
	low, err := dashboard.ParseOptionalFloat("low_divisor", query.Get("low_divisor"))
	if err != nil {
		h.fail(w, r, dashboard.KindGlobal, err)
		return
	}

	payload, err := h.dashboard.QueryGlobal(r.Context(), dashboard.GlobalOptions{
		FilterOutliers: filter,
		HighMultiplier: high,
		LowDivisor:     low,
	})
	if err != nil {
		h.fail(w, r, dashboard.KindGlobal, err)
		return
	}

	h.metrics.observe(dashboard.KindGlobal, result(payload), payload.FilterStats.FilteredOut, started)
	render.JSON(w, r, payload)
}

// reload handles POST /api/reload
func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	if err := h.dashboard.Reload(r.Context()); err != nil {
		h.logger.Error("reload failed", zap.Error(err))
		render.Render(w, r, toAPIError(err)) //nolint:errcheck
		return
	}

	snap := h.dashboard.Snapshot()
	render.JSON(w, r, reloadResponse{Status: "ok", Vacancies: snap.Vacancies.Len(), LoadedAt: snap.LoadedAt})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, kind string, err error) {
	apiErr := toAPIError(err)
	h.metrics.queries.WithLabelValues(kind, strings.ToLower(apiErr.ErrorCode)).Inc()

	if apiErr.StatusCode >= http.StatusInternalServerError {
		h.logger.Error("query failed", zap.String("query", kind), zap.Error(err))
	}

	render.Render(w, r, apiErr) //nolint:errcheck
}

func result(p *dashboard.StatsPayload) string {
	if p.NoData {
		return "no_data"
	}
	return "ok"
}

func parseBool(name, raw string, def bool) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean, got %q", dashboard.ErrInvalidParameter, name, raw)
	}
	return b, nil
}
