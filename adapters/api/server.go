package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ratewatch/app"
	"ratewatch/domain/core"
	"ratewatch/domain/poisson"
	"ratewatch/domain/series"
	"ratewatch/internal"
	"ratewatch/ports"
)

// Config holds HTTP server configuration
type Config struct {
	Port string
}

// Server exposes rate traces and calibration baselines as a JSON API
type Server struct {
	router      *chi.Mux
	traces      *app.TraceService
	calibration *app.CalibrationService
	logger      *internal.Logger
}

// NewServer wires the services into a routed HTTP server
func NewServer(traces *app.TraceService, calibration *app.CalibrationService, logger *internal.Logger) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		traces:      traces,
		calibration: calibration,
		logger:      logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Get("/api/buckets", s.handleBuckets)
	s.router.Get("/api/buckets/{bucket}/trace", s.handleTrace)
	s.router.Get("/api/buckets/{bucket}/diagnostic", s.handleDiagnostic)
	s.router.Post("/api/calibration/baseline", s.handleBaseline)
}

// Handler returns the underlying http handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server on the configured port
func (s *Server) Start(config Config) error {
	addr := ":" + config.Port
	s.logger.Info("rate API listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBuckets(w http.ResponseWriter, r *http.Request) {
	batch := ports.BatchSpec{
		Salt:  r.URL.Query().Get("salt"),
		Start: queryInt(r, "start", 0),
		Stop:  queryInt(r, "stop", 0),
	}
	buckets, err := s.traces.Buckets(r.Context(), batch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"buckets": buckets})
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	bucket := series.Bucket(chi.URLParam(r, "bucket"))
	result, err := s.traces.TraceBucket(r.Context(), bucket)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDiagnostic(w http.ResponseWriter, r *http.Request) {
	bucket := series.Bucket(chi.URLParam(r, "bucket"))
	bins := queryInt(r, "bins", poisson.DefaultBinCount)

	result, err := s.traces.DiagnoseBucket(r.Context(), bucket, bins, poisson.DefaultEpsilon)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type baselineRequest struct {
	RateOptions []float64 `json:"rate_options"`
	Entropy     *float64  `json:"entropy,omitempty"`
}

type baselineResponse struct {
	Baseline *app.Baseline          `json:"baseline"`
	Verdict  app.CalibrationVerdict `json:"verdict,omitempty"`
}

func (s *Server) handleBaseline(w http.ResponseWriter, r *http.Request) {
	var req baselineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	baseline, err := s.calibration.Baseline(r.Context(), req.RateOptions)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := baselineResponse{Baseline: baseline}
	if req.Entropy != nil {
		resp.Verdict = baseline.Judge(*req.Entropy)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response: %v", err)
	}
}

// writeError maps domain errors onto HTTP statuses
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case core.IsNotFoundError(err):
		status = http.StatusNotFound
	case core.IsShapeMismatchError(err), core.IsValidationError(err):
		status = http.StatusBadRequest
	case core.IsInsufficientDataError(err):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed: %v", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
