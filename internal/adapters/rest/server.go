package rest

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/domain"
	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/metrics"
)

// DefaultBasePath is where the measurement routes are mounted when no
// base path is configured.
const DefaultBasePath = "/api/v1/measurements"

// Options configures a Server. Zero values are usable.
type Options struct {
	// BasePath prefixes the measurement routes. "/" mounts them at the root.
	BasePath string
	// Logger is attached to every request context.
	Logger zerolog.Logger
	// Metrics receives per-request observations.
	Metrics *metrics.Metrics
	// Gatherer is exposed on /metrics when set.
	Gatherer prometheus.Gatherer
}

// Server exposes the measurement service over HTTP.
type Server struct {
	router chi.Router
}

// NewServer constructs a chi router with the middleware chain and all routes.
func NewServer(service domain.MeasurementService, opts Options) *Server {
	router := chi.NewRouter()
	router.Use(
		hlog.NewHandler(opts.Logger),
		requestID,
		accessLog(),
		observe(opts.Metrics),
		middleware.Recoverer,
	)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Gatherer != nil {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	h := &handler{service: service}
	basePath := normalizeBasePath(opts.BasePath)
	if basePath == "" {
		registerRoutes(router, h)
	} else {
		router.Route(basePath, func(r chi.Router) {
			registerRoutes(r, h)
		})
	}

	return &Server{router: router}
}

func normalizeBasePath(p string) string {
	if p == "" {
		return DefaultBasePath
	}
	p = strings.TrimRight(p, "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
