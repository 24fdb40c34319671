package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/crash-data-etl/internal/pipeline"
)

// Paths of the crash routes.
const (
	CollectionPath = "/crashes.geojson"
	SummaryPath    = "/runs/latest"
)

// Route mounts an extra handler. Pattern uses http.ServeMux syntax.
type Route struct {
	Pattern string
	Handler http.Handler
}

// CollectionRoute serves the enriched FeatureCollection at CollectionPath.
func CollectionRoute(h http.Handler) Route {
	return Route{Pattern: "GET " + CollectionPath, Handler: h}
}

// SummaryReporter is implemented by *pipeline.Pipeline.
type SummaryReporter interface {
	LastSummary() (pipeline.Summary, bool)
}

type summaryBody struct {
	RowsRead        int     `json:"rows_read"`
	RowsSkipped     int     `json:"rows_skipped"`
	Records         int     `json:"records"`
	Located         int     `json:"located"`
	Unlocated       int     `json:"unlocated"`
	MalformedCauses int     `json:"malformed_causes"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// SummaryRoute reports the last completed run at SummaryPath, or 404 before
// any run has completed.
func SummaryRoute(r SummaryReporter) Route {
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		sum, ok := r.LastSummary()
		if !ok {
			http.Error(w, "no run has completed", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(summaryBody{
			RowsRead:        sum.RowsRead,
			RowsSkipped:     sum.RowsSkipped,
			Records:         sum.Records,
			Located:         sum.Located,
			Unlocated:       sum.Unlocated,
			MalformedCauses: sum.MalformedCauses,
			DurationSeconds: sum.Duration.Seconds(),
		})
	})
	return Route{Pattern: "GET " + SummaryPath, Handler: h}
}

// Server exposes health, readiness and metrics endpoints plus any crash
// routes it is given.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz and /metrics and
// the given routes. Requests other than probes and scrapes are logged.
func NewServer(addr string, ready sharedobs.ReadinessChecker, logger *slog.Logger, routes ...Route) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	for _, r := range routes {
		mux.Handle(r.Pattern, r.Handler)
	}

	s := &Server{logger: logger}
	s.handler = s.logRequests(mux)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz", "/readyz", "/metrics":
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
