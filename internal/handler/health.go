package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/cache"
	"github.com/jmoiron/sqlx"
)

type HealthHandler struct {
	db    *sqlx.DB
	redis *cache.Redis
}

// NewHealthHandler checks the database and, when configured, Redis.
func NewHealthHandler(db *sqlx.DB, redis *cache.Redis) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok"}
	status := http.StatusOK

	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if h.redis != nil {
		checks["redis"] = "ok"
		if err := h.redis.Ping(ctx); err != nil {
			// Redis only backs caches and rate limits
			checks["redis"] = err.Error()
		}
	}

	writeJSON(w, status, checks)
}
