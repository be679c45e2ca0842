// Package httptransport is the thin HTTP layer. Handlers delegate to the
// resolution services; transport concerns stay here.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"adresolver/internal/platform/middleware"
	audit "adresolver/pkg/platform/audit"
)

// Registrar mounts a group of endpoints on the router.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires the middleware chain, operational endpoints, and every
// handler group.
func NewRouter(logger *slog.Logger, auditStore audit.Store, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientIP)
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Timeout(55 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if auditStore != nil {
		r.Get("/audit/events", func(w http.ResponseWriter, req *http.Request) {
			events, err := auditStore.List(req.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"events": events})
		})
	}

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}
