// Package server exposes the bridge over a small local HTTP API so host
// processes can pull snapshots without linking the agent in.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/devicefabric/agent/internal/insights"
	"github.com/devicefabric/agent/pkg/models"
	"go.uber.org/zap"
)

// DeviceService is the bridge surface the server serves. Satisfied by
// *bridge.Bridge.
type DeviceService interface {
	CollectSnapshot() (models.DeviceSnapshot, error)
	SystemInfo() (models.SystemInfo, error)
	SupportedFeatures() []string
	IsAvailable() bool
}

// Server wraps an http.Server bound to the device service.
type Server struct {
	httpServer *http.Server
	service    DeviceService
	logger     *zap.Logger
}

// New builds a Server listening on addr.
func New(addr string, service DeviceService, logger *zap.Logger) *Server {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	s := &Server{
		service: service,
		logger:  logger.Named("server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/snapshot", s.handleSnapshot)
	mux.HandleFunc("/v1/systeminfo", s.handleSystemInfo)
	mux.HandleFunc("/v1/insights", s.handleInsights)
	mux.HandleFunc("/v1/features", s.handleFeatures)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.logRequests(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start serves until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.service.IsAvailable() {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap, err := s.service.CollectSnapshot()
	if err != nil {
		s.logger.Error("snapshot collection failed", zap.Error(err))
		http.Error(w, "snapshot collection failed", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, snap)
}

func (s *Server) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	info, err := s.service.SystemInfo()
	if err != nil {
		s.logger.Error("system info failed", zap.Error(err))
		http.Error(w, "system info failed", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, info)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap, err := s.service.CollectSnapshot()
	if err != nil {
		s.logger.Error("snapshot collection failed", zap.Error(err))
		http.Error(w, "snapshot collection failed", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"insights":      insights.Analyze(snap),
		"batteryAdvice": insights.BatteryAdvice(snap),
	})
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string][]string{"features": s.service.SupportedFeatures()})
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}
