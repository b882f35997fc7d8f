package interceptors

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/httpx"
)

// RequestTelemetry returns middleware that wraps each request in a server span, records
// its latency, and writes one structured log line with method, route, status, latency,
// request id and user id. skipPaths are route templates to leave out (e.g. /healthz).
func RequestTelemetry(logger log.FieldLogger, skipPaths map[string]bool) echo.MiddlewareFunc {
	if logger == nil {
		logger = log.StandardLogger()
	}
	tracer := otel.Tracer("team-board/http")
	latency, _ := otel.Meter("team-board/http").Float64Histogram("http.server.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of HTTP requests"))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipPaths[c.Path()] {
				return next(c)
			}
			start := time.Now()
			req := c.Request()
			route := c.Path()
			ctx, span := tracer.Start(req.Context(), req.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", req.Method),
					attribute.String("http.route", route),
				))
			defer span.End()
			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status, _ = httpx.Render(err)
			}
			elapsed := time.Since(start)
			span.SetAttributes(attribute.Int("http.response.status_code", status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
			latency.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
				attribute.String("http.request.method", req.Method),
				attribute.String("http.route", route),
				attribute.Int("http.response.status_code", status),
			))

			fields := log.Fields{
				"method":     req.Method,
				"path":       route,
				"status":     status,
				"latency_ms": elapsed.Milliseconds(),
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			}
			// The auth middleware runs inside this one, so read identity from the final request.
			if userID, ok := GetUserID(c.Request().Context()); ok {
				fields["user_id"] = userID
			}
			entry := logger.WithFields(fields)
			switch {
			case status >= http.StatusInternalServerError:
				entry.Warn("http request")
			default:
				entry.Info("http request")
			}
			return err
		}
	}
}
