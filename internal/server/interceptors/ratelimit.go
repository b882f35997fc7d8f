package interceptors

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
)

// RateLimit returns middleware that allows each caller max requests per window,
// refilled evenly, with bursts of up to max. Callers are keyed by user id once
// authenticated and by client IP otherwise. max <= 0 disables it.
func RateLimit(window time.Duration, max int) echo.MiddlewareFunc {
	if max <= 0 || window <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(max) / window.Seconds()),
		Burst:     max,
		ExpiresIn: window,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if userID, ok := GetUserID(c.Request().Context()); ok && userID != "" {
				return "user:" + userID, nil
			}
			return "ip:" + c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return apperrors.Internal("Failed to identify caller", err)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return apperrors.New(apperrors.CodeRateLimited, "Too many attempts, please try again later")
		},
	})
}
