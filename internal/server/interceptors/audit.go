package interceptors

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/audit"
)

// Audit returns middleware that records one audit entry after each successful mutating
// request that resolved a team. Recording is best-effort and never fails the request.
func Audit(logger audit.AuditLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if logger == nil || err != nil || !isMutating(c.Request().Method) || c.Response().Status >= http.StatusBadRequest {
				return err
			}
			ctx := c.Request().Context()
			teamID, ok := GetTeamID(ctx)
			if !ok {
				return nil
			}
			userID, _ := GetUserID(ctx)
			ar := audit.ParseRoute(c.Request().Method, c.Path())
			logger.LogEvent(ctx, teamID, userID, ar.Action, ar.Resource, pathMetadata(c))
			return nil
		}
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// pathMetadata renders the route's path parameters as "name=value" pairs, sorted by name.
func pathMetadata(c echo.Context) string {
	names := c.ParamNames()
	if len(names) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(names))
	for _, n := range names {
		pairs = append(pairs, n+"="+c.Param(n))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, " ")
}
