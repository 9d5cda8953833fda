package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dstepanov-dev/medslot/internal/http/handlers"
	httpmiddleware "github.com/dstepanov-dev/medslot/internal/http/middleware"
	"github.com/dstepanov-dev/medslot/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	Directory      *handlers.DirectoryHandler
	MetricsHandler http.Handler
}

// New creates the ops and reference-data HTTP router. The booking engine
// itself takes no HTTP input; this surface exists for health probes, metrics
// scraping, and browsing the provider directory.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Directory != nil {
		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/districts", cfg.Directory.Districts)
			r.Get("/facilities", cfg.Directory.Facilities)
			r.Get("/facilities/{lpuID}/specialties", cfg.Directory.Specialties)
		})
	}

	return r
}
