package http

import (
	"net/http"
	"time"

	"github.com/atinyakov/ItemKeeper/internal/clock"
	"github.com/atinyakov/ItemKeeper/internal/common"
	"github.com/atinyakov/ItemKeeper/internal/middleware"
	"go.uber.org/zap"
)

// AppInfo is the non-sensitive configuration exposed by /config.
type AppInfo struct {
	Name                     string `json:"app_name"`
	Version                  string `json:"app_version"`
	Environment              string `json:"environment"`
	Debug                    bool   `json:"debug"`
	AccessTokenExpireMinutes int    `json:"access_token_expire_minutes"`
	PasswordHasher           string `json:"password_hasher"`
}

// SystemHandler serves the banner, health, configuration and statistics.
type SystemHandler struct {
	AuthService   AuthService
	RecordService RecordService
	Info          AppInfo
	Clock         clock.Clock
	Started       time.Time
	Log           *zap.Logger
}

// Root handles GET /.
func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to " + h.Info.Name,
		"version": h.Info.Version,
		"endpoints": map[string]string{
			"health":   "/health",
			"config":   "/config",
			"metrics":  "/metrics",
			"register": "POST /auth/register",
			"login":    "POST /auth/login",
			"items":    "/items",
		},
	})
}

// Health handles GET /health.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	users, err := h.AuthService.CountAccounts(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	items, err := h.RecordService.Count(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	now := h.Clock.Now()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"timestamp":      now.Format(time.RFC3339),
		"database":       map[string]int{"users_count": users, "items_count": items},
		"version":        h.Info.Version,
		"environment":    h.Info.Environment,
		"uptime_seconds": int64(now.Sub(h.Started) / time.Second),
	})
}

// Config handles GET /config. The signing secret is never included.
func (h *SystemHandler) Config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Info)
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	TotalUsers   int            `json:"total_users"`
	TotalItems   int            `json:"total_items"`
	YourItems    int            `json:"your_items"`
	Categories   map[string]int `json:"categories"`
	AveragePrice float64        `json:"average_price"`
	Timestamp    string         `json:"timestamp"`
}

// Stats handles GET /stats.
func (h *SystemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		writeError(w, r, h.Log, common.ErrMissingToken)
		return
	}

	users, err := h.AuthService.CountAccounts(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	stats, err := h.RecordService.Stats(r.Context(), caller)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		TotalUsers:   users,
		TotalItems:   stats.TotalItems,
		YourItems:    stats.YourItems,
		Categories:   stats.Categories,
		AveragePrice: stats.AveragePrice,
		Timestamp:    h.Clock.Now().Format(time.RFC3339),
	})
}
