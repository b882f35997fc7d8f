package interceptors

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
)

const bearerPrefix = "bearer "

// TokenValidator verifies an access token and returns the user it was issued to.
type TokenValidator interface {
	ValidateAccess(token string) (userID, jti string, err error)
}

// BearerAuth returns middleware that validates the Bearer access token and sets the
// caller identity and a request scope on the request context. Requests without a valid
// token are rejected with UNAUTHENTICATED.
func BearerAuth(tokens TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractBearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				return apperrors.New(apperrors.CodeUnauthenticated, "Missing or invalid authorization")
			}
			userID, jti, err := tokens.ValidateAccess(token)
			if err != nil {
				return apperrors.New(apperrors.CodeUnauthenticated, "Missing or invalid authorization")
			}
			ctx := WithRequestScope(c.Request().Context(), c.RealIP())
			ctx = WithIdentity(ctx, userID, jti)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// extractBearer returns the token of an Authorization header, or "" if missing or malformed.
func extractBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
