package apihttp

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

// HealthzHandler serves GET /healthz (spec.md §6), pinging the database
// with a short timeout the way the original inline healthz closure
// in main.go never did — the prior unconditional handler returned 200 regardless;
// here a broken database connection is worth surfacing to an operator.
type HealthzHandler struct {
	DB *sql.DB
}

// NewHealthzHandler constructs a HealthzHandler.
func NewHealthzHandler(db *sql.DB) *HealthzHandler {
	return &HealthzHandler{DB: db}
}

func (h *HealthzHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.DB == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		http.Error(w, "database unreachable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
