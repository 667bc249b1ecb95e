// Package server expone la API HTTP de polyarb: cola de revisión, modo de
// ejecución, umbrales de riesgo y monitoreo.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/polyarb/internal/server/handler"
	"github.com/alejandrodnm/polyarb/internal/server/middleware"
)

// Config contiene la configuración del servidor HTTP.
type Config struct {
	Addr string
}

// Handlers agrupa los handlers que registra el servidor.
type Handlers struct {
	Health     *handler.HealthHandler
	Queue      *handler.QueueHandler
	Mode       *handler.ModeHandler
	Config     *handler.ConfigHandler
	Monitoring *handler.MonitoringHandler
}

// Server es la API HTTP.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registra las rutas y arma la cadena de middleware.
func NewServer(cfg Config, h Handlers, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.Health.HealthCheck)

	mux.HandleFunc("GET /api/queue", h.Queue.List)
	mux.HandleFunc("POST /api/queue", h.Queue.Act)

	mux.HandleFunc("GET /api/execution-mode", h.Mode.Get)
	mux.HandleFunc("POST /api/execution-mode", h.Mode.Set)

	mux.HandleFunc("GET /api/config/risk", h.Config.GetRisk)
	mux.HandleFunc("PATCH /api/config/risk", h.Config.PatchRisk)
	mux.HandleFunc("GET /api/config/alerts", h.Config.GetAlerts)

	mux.HandleFunc("GET /api/metrics", h.Monitoring.Metrics)
	mux.HandleFunc("GET /api/metrics/history", h.Monitoring.MetricsHistory)
	mux.HandleFunc("GET /api/events", h.Monitoring.Events)
	mux.HandleFunc("GET /api/pipeline-runs", h.Monitoring.PipelineRuns)
	mux.HandleFunc("GET /api/alerts", h.Monitoring.Alerts)
	mux.HandleFunc("GET /api/audit", h.Monitoring.Audit)

	var root http.Handler = mux
	root = middleware.Recover(logger)(root)
	root = middleware.Logging(logger)(root)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      root,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second, // approve en live espera a las dos patas
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Handler devuelve el handler raíz con middleware incluido.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start escucha hasta que el servidor se cierre o falle.
func (s *Server) Start() error {
	s.logger.Info("http server starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown cierra el servidor esperando los requests en curso.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
