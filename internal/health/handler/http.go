package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/httpx"
)

// Register mounts /healthz (liveness) and /readyz (readiness) on e. Both are public.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.healthz)
	e.GET("/readyz", s.readyz)
}

type statusJSON struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) healthz(c echo.Context) error {
	return httpx.OK(c, http.StatusOK, "", statusJSON{Status: "ok"})
}

func (s *Server) readyz(c echo.Context) error {
	if err := s.Check(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, httpx.Envelope{
			Success: false,
			Message: "Service not ready",
			Data:    statusJSON{Status: "not_ready", Error: err.Error()},
		})
	}
	return httpx.OK(c, http.StatusOK, "", statusJSON{Status: "ready"})
}
