// Package ops exposes the harvester's operational surface: health, run
// status, and Prometheus metrics.
package ops

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"GameHarvester/internal/ratelimit"
	"GameHarvester/internal/usecase"
)

// Server is the ops HTTP server.
type Server struct {
	echo   *echo.Echo
	addr   string
	logger *slog.Logger
}

// NewServer wires the routes against the harvester and coordinator snapshots.
func NewServer(addr string, harvester *usecase.Harvester, coordinator *ratelimit.Coordinator, log *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	e.GET("/status", func(c echo.Context) error {
		snap := harvester.Snapshot()
		coord := coordinator.Snapshot()
		return c.JSON(http.StatusOK, map[string]any{
			"harvest": snap,
			"rate_limit": map[string]any{
				"pace_ms":        coord.Pace.Milliseconds(),
				"cooldown_until": coord.CooldownUntil,
				"limit_hits":     coord.LimitHits,
			},
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return &Server{echo: e, addr: addr, logger: log}
}

// Start serves until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("ops server listening", "addr", s.addr)
	if err := s.echo.Start(s.addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
