package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rickgao/footprint-data/internal/dispatch"
	"github.com/rickgao/footprint-data/internal/model"
)

// Aggregator is the engine surface the HTTP layer needs.
type Aggregator interface {
	History() []model.CandleSnapshot
	Settings() (intervalMinutes int, tickSize float64)
	SetConfig(intervalMinutes int, tickSize float64) error
}

// Config holds HTTP server settings.
type Config struct {
	Port      int
	Heartbeat time.Duration // SSE keepalive interval on idle
}

// Server exposes the viewer-facing HTTP surface: candle history, runtime
// aggregation settings, and the live SSE stream.
type Server struct {
	cfg    Config
	engine Aggregator
	hub    *dispatch.Hub
	logger *slog.Logger

	httpServer *http.Server
}

// New creates a server.
func New(cfg Config, engine Aggregator, hub *dispatch.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 15 * time.Second
	}

	s := &Server{
		cfg:    cfg,
		engine: engine,
		hub:    hub,
		logger: logger,
	}
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.Handler(),
	}
	return s
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/candles", s.handleCandles)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/config", s.handleSetConfig)
	mux.HandleFunc("GET /stream", s.handleStream)
	return mux
}

// Start begins serving. Returns once the listener stops.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "port", s.cfg.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping http server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCandles returns all completed candles in ascending bucket order.
func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	history := s.engine.History()
	if history == nil {
		history = []model.CandleSnapshot{}
	}
	writeJSON(w, http.StatusOK, history)
}

// configPayload is the config endpoint's wire form.
type configPayload struct {
	IntervalMinutes int     `json:"intervalMinutes"`
	TickSize        float64 `json:"tickSize"`
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	interval, tickSize := s.engine.Settings()
	writeJSON(w, http.StatusOK, configPayload{
		IntervalMinutes: interval,
		TickSize:        tickSize,
	})
}

// handleSetConfig applies a new interval and tick size, clearing in-memory
// candle state.
func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var payload configPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}

	if err := s.engine.SetConfig(payload.IntervalMinutes, payload.TickSize); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Info("configuration updated",
		"interval_minutes", payload.IntervalMinutes,
		"tick_size", payload.TickSize,
	)
	writeJSON(w, http.StatusOK, payload)
}

// handleStream serves live candle snapshots as Server-Sent Events. Idle
// connections receive comment frames so intermediaries keep them open.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := s.hub.Subscribe()
	defer sub.Close()

	s.logger.Debug("viewer stream opened", "viewer", sub.ID())
	defer s.logger.Debug("viewer stream closed", "viewer", sub.ID())

	heartbeat := time.NewTicker(s.cfg.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case snapshot := <-sub.Updates():
			data, err := json.Marshal(snapshot)
			if err != nil {
				s.logger.Error("marshal snapshot", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()

		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
