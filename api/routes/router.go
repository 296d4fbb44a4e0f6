package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brandpulse/backend/api/controllers"
	attributioncontrollers "github.com/brandpulse/backend/api/controllers/attribution"
	"github.com/brandpulse/backend/api/middleware"
	attrib "github.com/brandpulse/backend/internal/attribution"
	"github.com/brandpulse/backend/pkg/config"
	"github.com/brandpulse/backend/pkg/logger"
)

// NewRouter wires the HTTP surface: health probes, Prometheus metrics, and the
// authenticated attribution analytics endpoints.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	attributionService attrib.Service,
	dispatcher attributioncontrollers.RunDispatcher,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/analytics/attribution", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Get("/dashboard", attributioncontrollers.Dashboard(attributionService, logg))
		r.Get("/insights", attributioncontrollers.Insights(attributionService, logg))
		r.Post("/runs", attributioncontrollers.EnqueueRun(dispatcher, logg))
	})

	return r
}
