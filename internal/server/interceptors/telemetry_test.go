package interceptors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/httpx"
)

func TestRequestTelemetry_LogsRequest(t *testing.T) {
	logger, hook := test.NewNullLogger()
	e := echo.New()
	e.HTTPErrorHandler = httpx.ErrorHandler(logger)
	e.Use(RequestTelemetry(logger, map[string]bool{"/healthz": true}))
	g := e.Group("/api", fakeIdentity("user-1"))
	g.GET("/boards/:boardId", func(c echo.Context) error {
		return apperrors.New(apperrors.CodeBoardNotFound, "Board not found")
	})
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/boards/b1", nil))
	if len(hook.Entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(hook.Entries))
	}
	entry := hook.LastEntry()
	if entry.Level != logrus.InfoLevel {
		t.Errorf("level = %s", entry.Level)
	}
	if entry.Data["status"] != http.StatusNotFound {
		t.Errorf("status = %v, want 404", entry.Data["status"])
	}
	if entry.Data["path"] != "/api/boards/:boardId" {
		t.Errorf("path = %v", entry.Data["path"])
	}
	if entry.Data["user_id"] != "user-1" {
		t.Errorf("user_id = %v", entry.Data["user_id"])
	}

	hook.Reset()
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if len(hook.Entries) != 0 {
		t.Errorf("health checks should not be logged, got %d entries", len(hook.Entries))
	}
}
