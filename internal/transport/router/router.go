package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seolyze/imageaudit/internal/transport/handler"
)

// EntitlementGate is the external authorization collaborator. It decides
// whether the caller's identity and subscription tier qualify; this service
// only consumes the pass/fail answer.
type EntitlementGate interface {
	Allowed(r *http.Request) bool
}

// AllowAll passes every request through; the default wiring until a real
// gate is injected.
type AllowAll struct{}

func (AllowAll) Allowed(*http.Request) bool { return true }

// NewRouter mounts the API behind the entitlement gate. staticDir, when
// non-empty, is served under /static for locally persisted optimized images.
func NewRouter(h *handler.Handler, gate EntitlementGate, staticDir string) chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(entitled(gate))
		r.Post("/audits", h.RunAudit)
		r.Post("/conversions", h.StartConversion)
		r.Get("/jobs/{jobID}", h.JobStatus)
	})

	if staticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}

func entitled(gate EntitlementGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !gate.Allowed(r) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"subscription tier does not include image optimization"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
