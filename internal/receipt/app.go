package receipt

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ReceiptProcessor/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	// ProcessRatePerMin limits POST /receipts/process per client IP. Zero
	// disables the limit.
	ProcessRatePerMin int
	ProcessRateBurst  int

	// TrustProxy keys the rate limit on X-Forwarded-For. Only set it behind
	// a proxy that overwrites the header.
	TrustProxy bool
}

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	setupMiddleware(r, deps)
	setupMetrics(r, deps)
	setupRoutes(r, s, deps)

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.RouteLabel))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func setupRoutes(r *chi.Mux, s *Server, deps HTTPDeps) {
	r.Get("/healthz", healthz)
	r.Get("/readyz", s.ready)

	r.Route("/receipts", func(rr chi.Router) {
		if deps.ProcessRatePerMin > 0 {
			limiter := kit.NewIPRateLimiter(deps.ProcessRatePerMin, deps.ProcessRateBurst)
			limiter.TrustProxy = deps.TrustProxy
			rr.With(limiter.Middleware).Post("/process", s.ProcessHandler())
		} else {
			rr.Post("/process", s.ProcessHandler())
		}
		rr.Get("/{id}/points", s.PointsHandler())
	})
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
