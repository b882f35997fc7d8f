package interceptors

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/httpx"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/idempotency"
)

// HeaderIdempotencyKey is the request header carrying the client's idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

const maxIdempotencyKeyLen = 128

// Idempotency returns middleware that rejects a replayed mutating request carrying an
// Idempotency-Key already seen for the same user. The key is released again when the
// handler returns an error response, since nothing was applied and the client may retry
// (a VERSION_CONFLICT asks it to). A nil deduper disables it.
func Idempotency(deduper idempotency.Deduper, logger log.FieldLogger) echo.MiddlewareFunc {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey))
			if deduper == nil || key == "" || !isMutating(c.Request().Method) {
				return next(c)
			}
			if len(key) > maxIdempotencyKeyLen {
				return apperrors.New(apperrors.CodeInvalidInput, "Idempotency-Key is too long")
			}
			ctx := c.Request().Context()
			userID, _ := GetUserID(ctx)
			fields := log.Fields{"user_id": userID, "idempotency_key": key}

			added, err := deduper.Add(ctx, userID, key)
			if err != nil {
				// Redis being unavailable must not take the API down with it.
				logger.WithFields(fields).WithError(err).Warn("idempotency: record failed, continuing without dedupe")
				return next(c)
			}
			if !added {
				return apperrors.New(apperrors.CodeDuplicateRequest, "Request with this Idempotency-Key was already processed").
					WithMetadata("idempotency_key", key)
			}

			herr := next(c)
			status := c.Response().Status
			if herr != nil {
				status, _ = httpx.Render(herr)
			}
			if status >= http.StatusBadRequest {
				if rerr := deduper.Remove(ctx, userID, key); rerr != nil {
					logger.WithFields(fields).WithError(rerr).Warn("idempotency: release failed")
				}
			}
			return herr
		}
	}
}
