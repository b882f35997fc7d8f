// Package server assembles the HTTP API and the gRPC health listener.
package server

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/audit"
	healthhandler "github.com/Piyush-Singh-Chauhan/team-board/internal/health/handler"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/httpx"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/idempotency"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/server/interceptors"
)

// RouteRegistrar mounts a handler's routes on the authenticated /api group.
type RouteRegistrar interface {
	Register(g *echo.Group)
}

// HTTPDeps holds the dependencies of the HTTP API.
type HTTPDeps struct {
	Logger log.FieldLogger
	// Tokens validates bearer tokens on /api. Required.
	Tokens interceptors.TokenValidator
	// Deduper records Idempotency-Key headers. If nil, keys are ignored.
	Deduper idempotency.Deduper
	// Audit records successful mutations. If nil, nothing is audited.
	Audit audit.AuditLogger
	// Health serves /healthz and /readyz. If nil, they are not mounted.
	Health *healthhandler.Server
	// RateLimitWindow and RateLimitMax cap /api requests per caller; a zero max disables it.
	RateLimitWindow time.Duration
	RateLimitMax    int
	// CORSOrigins are the allowed origins; empty allows any.
	CORSOrigins []string
	Routes      []RouteRegistrar
}

// NewHTTPServer returns the echo instance serving the API.
//
// Middleware order: request id, panic recovery, request telemetry, CORS; then on /api:
// bearer auth, rate limit, idempotency, audit.
func NewHTTPServer(deps HTTPDeps) *echo.Echo {
	logger := deps.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpx.ErrorHandler(logger)

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(
		middleware.RequestID(),
		middleware.Recover(),
		interceptors.RequestTelemetry(logger, map[string]bool{"/healthz": true, "/readyz": true}),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowHeaders: []string{
				echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
				echo.HeaderAuthorization, interceptors.HeaderIdempotencyKey,
			},
			ExposeHeaders: []string{echo.HeaderXRequestID},
		}),
	)

	if deps.Health != nil {
		deps.Health.Register(e)
	}

	api := e.Group("/api",
		interceptors.BearerAuth(deps.Tokens),
		interceptors.RateLimit(deps.RateLimitWindow, deps.RateLimitMax),
		interceptors.Idempotency(deps.Deduper, logger),
		interceptors.Audit(deps.Audit),
	)
	for _, r := range deps.Routes {
		r.Register(api)
	}
	return e
}
