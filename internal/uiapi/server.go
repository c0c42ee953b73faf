package uiapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/awaistahir/loadplan/internal/engine"
	"github.com/awaistahir/loadplan/internal/logger"
	"github.com/awaistahir/loadplan/internal/metrics"
	"github.com/awaistahir/loadplan/internal/tables"
)

// TariffSource provides the hourly tariff table of a day
type TariffSource interface {
	Hourly(ctx context.Context, day time.Time, region string) ([]tables.TariffRow, error)
}

type Server struct {
	log      logger.Logger
	sink     metrics.Sink
	gatherer prometheus.Gatherer
	tariffs  TariffSource
	region   string
	defaults engine.Options
}

// Config wires the collaborators of a Server. Nil fields fall back to no-ops.
type Config struct {
	Logger   logger.Logger
	Sink     metrics.Sink
	Gatherer prometheus.Gatherer
	Tariffs  TariffSource
	Region   string
	Defaults engine.Options
}

func NewServer(cfg Config) *Server {
	s := &Server{
		log:      cfg.Logger,
		sink:     cfg.Sink,
		gatherer: cfg.Gatherer,
		tariffs:  cfg.Tariffs,
		region:   cfg.Region,
		defaults: cfg.Defaults,
	}
	if s.log == nil {
		s.log = logger.NopLogger{}
	}
	if s.sink == nil {
		s.sink = metrics.NopSink{}
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	return s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/optimize", s.handleOptimize)
		r.Get("/tariffs", s.handleGetTariffs)
	})

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": "1.0.0",
		"region":  s.region,
		"alpha":   s.defaults.Alpha,
		"beta":    s.defaults.Beta,
	})
}

// OptimizeRequest is the body of POST /api/optimize. Alpha and Beta default
// to the server settings when omitted.
type OptimizeRequest struct {
	Appliances []engine.Appliance `json:"appliances"`
	Tariffs    []tables.TariffRow `json:"tariffs"`
	Alpha      *float64           `json:"alpha,omitempty"`
	Beta       *float64           `json:"beta,omitempty"`
}

type OptimizeResponse struct {
	RunID string `json:"run_id"`
	*engine.Result
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sink.RecordRejected("bad_request")
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	appliances, err := tables.CleanAppliances(req.Appliances)
	if err != nil {
		s.sink.RecordRejected("invalid_appliances")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	tariff, err := tables.BuildTariff(req.Tariffs)
	if err != nil {
		s.sink.RecordRejected("invalid_tariffs")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := s.defaults
	if req.Alpha != nil {
		opts.Alpha = *req.Alpha
	}
	if req.Beta != nil {
		opts.Beta = *req.Beta
	}

	runID := uuid.NewString()
	started := time.Now()
	res := engine.Optimize(appliances, tariff, opts)
	elapsed := time.Since(started)

	s.sink.RecordRun(metrics.Run{
		Appliances: len(appliances),
		Duration:   elapsed,
		PeakKW:     res.Summary.PeakKW,
		ApproxCost: res.Summary.ApproxCost,
	})
	s.log.Debugw("optimized", map[string]any{
		"run_id":     runID,
		"appliances": len(appliances),
		"peak_kw":    res.Summary.PeakKW,
		"elapsed":    elapsed.String(),
	})

	respondJSON(w, http.StatusOK, OptimizeResponse{RunID: runID, Result: res})
}

func (s *Server) handleGetTariffs(w http.ResponseWriter, r *http.Request) {
	if s.tariffs == nil {
		respondError(w, http.StatusNotImplemented, "no tariff source configured")
		return
	}

	day := time.Now().UTC()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
			return
		}
		day = parsed
	}
	region := r.URL.Query().Get("region")
	if region == "" {
		region = s.region
	}

	rows, err := s.tariffs.Hourly(r.Context(), day, region)
	if err != nil {
		s.log.Errorf("fetching tariffs for %s: %v", day.Format("2006-01-02"), err)
		respondError(w, http.StatusBadGateway, "failed to fetch tariffs: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, rows)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
