// Package web exposes the dialogue engine over HTTP.
//
// The routes are:
//
//   - POST /api/process: one conversation turn. The body is a
//     [dialogue.Request]; the reply is a [dialogue.Response].
//   - GET /healthz and GET /readyz when a health handler is configured.
//   - GET /metrics when a metrics handler is configured.
//   - GET / serving a static directory (the chat client) when configured.
//
// Every route runs behind [observe.Middleware].
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrWong99/orderbot/internal/dialogue"
	"github.com/MrWong99/orderbot/internal/health"
	"github.com/MrWong99/orderbot/internal/observe"
)

// maxBodyBytes caps a turn request body.
const maxBodyBytes = 64 << 10

// Turner runs one conversation turn. [dialogue.Engine] implements it.
type Turner interface {
	Turn(ctx context.Context, req dialogue.Request) dialogue.Response
}

var _ Turner = (*dialogue.Engine)(nil)

// Option configures a [Server].
type Option func(*Server)

// WithHealth mounts /healthz and /readyz.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithStaticDir serves dir at /.
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// WithMetrics overrides the metrics the middleware records to.
// Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// Server routes HTTP requests to the dialogue engine.
type Server struct {
	turner         Turner
	health         *health.Handler
	metricsHandler http.Handler
	staticDir      string
	metrics        *observe.Metrics

	handler http.Handler
}

// New builds a [Server] around t.
func New(t Turner, opts ...Option) *Server {
	s := &Server{turner: t}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/process", s.handleProcess)
	if s.health != nil {
		s.health.Register(mux)
	}
	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}
	if s.staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
	}
	s.handler = observe.Middleware(s.metrics)(mux)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req dialogue.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		status := http.StatusBadRequest
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			status = http.StatusRequestEntityTooLarge
		}
		observe.Logger(r.Context()).Debug("web: bad turn request", "err", err)
		writeJSON(r.Context(), w, status, errorBody{Error: "invalid request body"})
		return
	}

	writeJSON(r.Context(), w, http.StatusOK, s.turner.Turn(r.Context(), req))
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		observe.Logger(ctx).LogAttrs(ctx, slog.LevelWarn, "web: write response", slog.Any("err", err))
	}
}
