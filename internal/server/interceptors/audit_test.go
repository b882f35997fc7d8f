package interceptors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/httpx"
)

type auditCall struct {
	teamID, userID, action, resource, metadata string
}

type recordingAuditLogger struct {
	mu    sync.Mutex
	calls []auditCall
}

func (r *recordingAuditLogger) LogEvent(ctx context.Context, teamID, userID, action, resource, metadata string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, auditCall{teamID, userID, action, resource, metadata})
}

// fakeIdentity stands in for BearerAuth in tests.
func fakeIdentity(userID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := WithIdentity(WithRequestScope(c.Request().Context(), c.RealIP()), userID, "")
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func newAuditEcho(rec *recordingAuditLogger) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = httpx.ErrorHandler(nil)
	g := e.Group("/api", fakeIdentity("user-1"), Audit(rec))
	g.POST("/boards/:boardId/cards", func(c echo.Context) error {
		SetTeamID(c.Request().Context(), "team-1")
		return c.NoContent(http.StatusCreated)
	})
	g.PUT("/cards/:cardId", func(c echo.Context) error {
		SetTeamID(c.Request().Context(), "team-1")
		return apperrors.New(apperrors.CodeInvalidColumn, "Invalid column")
	})
	g.GET("/boards/:boardId", func(c echo.Context) error {
		SetTeamID(c.Request().Context(), "team-1")
		return c.NoContent(http.StatusOK)
	})
	g.PATCH("/invitations/:inviteId", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return e
}

func TestAudit_RecordsSuccessfulMutation(t *testing.T) {
	rec := &recordingAuditLogger{}
	e := newAuditEcho(rec)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/boards/b1/cards", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("expected 1 audit call, got %d", len(rec.calls))
	}
	want := auditCall{"team-1", "user-1", "create", "card", "boardId=b1"}
	if rec.calls[0] != want {
		t.Errorf("call = %+v, want %+v", rec.calls[0], want)
	}
}

func TestAudit_Skips(t *testing.T) {
	testCases := []struct {
		name   string
		method string
		path   string
	}{
		{"failed request", http.MethodPut, "/api/cards/c1"},
		{"read request", http.MethodGet, "/api/boards/b1"},
		{"no team context", http.MethodPatch, "/api/invitations/i1"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recordingAuditLogger{}
			e := newAuditEcho(rec)
			e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.path, nil))
			if len(rec.calls) != 0 {
				t.Errorf("expected no audit calls, got %+v", rec.calls)
			}
		})
	}
}

func TestAudit_NilLogger(t *testing.T) {
	e := echo.New()
	e.POST("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, Audit(nil))
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d", w.Code)
	}
}
