package server

import (
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"

	"github.com/adfharrison1/go-blobdb/pkg/api"
	"github.com/adfharrison1/go-blobdb/pkg/domain"
)

// Server holds references to the record provider, router, etc.
type Server struct {
	router  *mux.Router
	handler *api.Handler
	metrics *metrics.Set
	logger  hclog.Logger
}

// NewServer creates a new instance of Server. The metrics set, if not nil,
// is served at /metrics.
func NewServer(provider domain.RecordProvider, set *metrics.Set, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	s := &Server{
		router:  mux.NewRouter(),
		handler: api.NewHandler(provider, logger.Named("api")),
		metrics: set,
		logger:  logger,
	}
	// Define HTTP routes
	s.routes()

	// Use the logging middleware for all routes
	s.router.Use(s.requestLoggerMiddleware)

	// Customize NotFoundHandler to log 404s
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Warn("no route found", "method", r.Method, "path", r.URL.Path)
		api.WriteJSONError(w, http.StatusNotFound, "no route for "+r.Method+" "+r.URL.Path)
	})

	return s
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLoggerMiddleware logs the method, URL path, status, and duration for each request.
func (s *Server) requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		elapsed := time.Since(start)
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "status", recorder.status, "took", elapsed)
	})
}

// Router exposes the internal mux.Router.
func (s *Server) Router() http.Handler {
	return s.router
}

// routes defines all REST endpoints.
func (s *Server) routes() {
	s.handler.RegisterRoutes(s.router)
	s.router.HandleFunc("/metrics", s.handleMetrics).Methods("GET")
}

// handleMetrics writes the provider and process metrics in Prometheus text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	if s.metrics != nil {
		s.metrics.WritePrometheus(w)
	}
	metrics.WriteProcessMetrics(w)
}
