package daemon

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/history"
	"git.home.luguber.info/inful/labrunner/internal/logfields"
	"git.home.luguber.info/inful/labrunner/internal/server/middleware"
)

// Server is the daemon's HTTP surface: health, status, and metrics.
type Server struct {
	addr      string
	boundAddr string
	daemon    *Daemon
	server    *http.Server
	adapter   *errors.HTTPErrorAdapter
}

// NewServer creates the HTTP server for a daemon.
func NewServer(addr string, d *Daemon) *Server {
	return &Server{
		addr:    addr,
		daemon:  d,
		adapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// Start binds the listener before serving so a taken port fails daemon
// startup instead of surfacing later from a goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrap(err, errors.CategoryDaemon, errors.SeverityFatal, "failed to bind http listener").
			WithContext("addr", s.addr)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	if handler := s.daemon.MetricsHandler(); handler != nil {
		mux.Handle("/metrics", handler)
	}

	chain := middleware.Chain(slog.Default(), s.adapter)
	s.server = &http.Server{
		Handler:      chain(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.boundAddr = ln.Addr().String()
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", logfields.Error(err))
		}
	}()

	slog.Info("HTTP server started", slog.String("addr", s.boundAddr))
	return nil
}

// Addr returns the bound listen address, useful when the configured address
// used port 0.
func (s *Server) Addr() string {
	return s.boundAddr
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryDaemon, errors.SeverityError, "http shutdown failed")
	}
	slog.Info("HTTP server stopped")
	return nil
}

// QueueStatus describes queue load in the status payload.
type QueueStatus struct {
	Length   int `json:"length"`
	Capacity int `json:"capacity"`
	Workers  int `json:"workers"`
}

// StatusResponse is the /api/status payload.
type StatusResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version"`
	Uptime     string                `json:"uptime"`
	Queue      QueueStatus           `json:"queue"`
	ActiveJobs []*Job                `json:"active_jobs"`
	RecentRuns []*history.RunSummary `json:"recent_runs"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := s.daemon.Health()
	status := http.StatusOK
	if health.Status == HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, health)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", logfields.Error(err))
	}
}
