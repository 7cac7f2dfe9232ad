// Package server exposes the model client and the dispatcher over HTTP.
//
// POST /query speaks the same protocol the remote backend consumes, so one
// shellmind instance can serve as another's model backend.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/iishyfishyy/shellmind/internal/agent"
	"github.com/iishyfishyy/shellmind/internal/llm"
)

// Model is the subset of llm.Client the server needs
type Model interface {
	agent.Generator
	Backend() string
}

// Server holds the HTTP handlers
type Server struct {
	model     Model
	processor agent.Processor
	registry  *prometheus.Registry
	logger    *zap.Logger
}

// Option configures a Server
type Option func(*Server)

// WithRegistry exposes registry on GET /metrics
func WithRegistry(r *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = r
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a server. processor may be nil to disable /process.
func New(model Model, processor agent.Processor, opts ...Option) *Server {
	s := &Server{
		model:     model,
		processor: processor,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.health)
	r.Post("/query", s.query)
	if s.processor != nil {
		r.Post("/process", s.process)
	}
	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", addr), zap.String("backend", s.model.Backend()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Backend: s.model.Backend()})
}

// queryRequest mirrors llm.QueryRequest with optional sampling fields
type queryRequest struct {
	Prompt      *string  `json:"prompt"`
	MaxTokens   *int     `json:"max_tokens"`
	Temperature *float64 `json:"temperature"`
	TopP        *float64 `json:"top_p"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON body"})
		return
	}
	if req.Prompt == nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "prompt is required"})
		return
	}

	var opts []llm.GenerateOption
	if req.MaxTokens != nil {
		opts = append(opts, llm.WithMaxTokens(*req.MaxTokens))
	}
	if req.Temperature != nil {
		opts = append(opts, llm.WithTemperature(*req.Temperature))
	}
	if req.TopP != nil {
		opts = append(opts, llm.WithTopP(*req.TopP))
	}

	s.logger.Info("processing query", zap.Int("prompt_chars", len(*req.Prompt)))
	res := s.model.Generate(r.Context(), *req.Prompt, opts...)
	if !res.OK() {
		writeJSON(w, http.StatusBadGateway, errorResponse{Detail: res.Failure.Error()})
		return
	}
	writeJSON(w, http.StatusOK, llm.QueryResponse{Response: &res.Text})
}

type processRequest struct {
	Command string `json:"command"`
}

func (s *Server) process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON body"})
		return
	}
	writeJSON(w, http.StatusOK, s.processor.Process(r.Context(), req.Command))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
