// Package http exposes the scenario-tree generator as a JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/aretw0/aime/internal/dto"
	"github.com/aretw0/aime/internal/presentation/graph"
	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MaxBodyBytes bounds the size of a generate request.
const MaxBodyBytes = 32 << 20

// Generator is the slice of the facade the server needs.
type Generator interface {
	GenerateWithLane(ctx context.Context, lane domain.TargetLane, sample domain.LocalSample, obs domain.AgentObservation) (*domain.Result, error)
}

// Server serves the API. Store and Gatherer are optional.
type Server struct {
	Generator Generator
	Store     ports.TreeStore
	Gatherer  prometheus.Gatherer
	Logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStore enables the /v1/runs endpoints.
func WithStore(s ports.TreeStore) Option {
	return func(srv *Server) {
		srv.Store = s
	}
}

// WithGatherer serves g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(srv *Server) {
		srv.Gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(srv *Server) {
		srv.Logger = l
	}
}

// NewHandler creates the HTTP handler for gen.
func NewHandler(gen Generator, opts ...Option) http.Handler {
	s := &Server{Generator: gen, Logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.GetHealth)
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/generate", s.Generate)
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.ListRuns)
			r.Get("/{id}", s.GetRun)
			r.Get("/{id}/mermaid", s.GetRunMermaid)
			r.Delete("/{id}", s.DeleteRun)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Generate handles POST /v1/generate.
func (s *Server) Generate(w http.ResponseWriter, r *http.Request) {
	var body dto.GenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	res, err := s.Generator.GenerateWithLane(r.Context(), body.TargetLane, body.Sample, body.Observation)
	if err != nil {
		s.Logger.Warn("generate failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		s.writeError(w, statusFor(err), err)
		return
	}

	s.Logger.Info("generate completed", "run_id", res.RunID, "trees", len(res.Trees), "rounds", res.Stats.Rounds)
	s.writeJSON(w, http.StatusOK, dto.GenerateResponse{RunID: res.RunID, Trees: res.Trees, Stats: res.Stats})
}

// ListRuns handles GET /v1/runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	ids, err := s.Store.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	summaries := make([]domain.RunSummary, 0, len(ids))
	for _, id := range ids {
		run, err := s.Store.Load(r.Context(), id)
		if errors.Is(err, domain.ErrRunNotFound) {
			continue // expired between List and Load
		}
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		summaries = append(summaries, run.Summary())
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	s.writeJSON(w, http.StatusOK, summaries)
}

// GetRun handles GET /v1/runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

// GetRunMermaid handles GET /v1/runs/{id}/mermaid.
func (s *Server) GetRunMermaid(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	overlay := &graph.Overlay{Highlight: graph.MostLikelyPath(run.Trees)}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(run.Trees, overlay))
}

// DeleteRun handles DELETE /v1/runs/{id}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	if err := s.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*domain.Run, bool) {
	if !s.requireStore(w) {
		return nil, false
	}
	run, err := s.Store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return nil, false
	}
	return run, true
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.Store == nil {
		s.writeError(w, http.StatusNotImplemented, errors.New("no run store configured"))
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMalformedObservation),
		errors.Is(err, domain.ErrTargetLaneMissing),
		errors.Is(err, domain.ErrTargetLaneTooShort),
		errors.Is(err, domain.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoValidScenario):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrMalformedPrediction):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "status", status, "error", err)
	}
	s.writeJSON(w, status, dto.ErrorResponse{Error: strings.TrimSpace(err.Error())})
}
