package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
)

func TestRender(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"not found", apperrors.New(apperrors.CodeBoardNotFound, "Board not found"), 404, "BOARD_NOT_FOUND", "Board not found"},
		{"invalid", apperrors.New(apperrors.CodeInvalidColumn, "Invalid column"), 400, "INVALID_COLUMN", "Invalid column"},
		{"conflict", apperrors.New(apperrors.CodeVersionConflict, "Board changed"), 409, "VERSION_CONFLICT", "Board changed"},
		{"terminal", apperrors.New(apperrors.CodeAlreadyResponded, "Invite already accepted"), 409, "ALREADY_RESPONDED", "Invite already accepted"},
		{"forbidden", apperrors.New(apperrors.CodeNotInvitee, "no"), 403, "NOT_INVITEE", "no"},
		{"unauthenticated", apperrors.New(apperrors.CodeUnauthenticated, "login"), 401, "UNAUTHENTICATED", "login"},
		{"internal hides cause", apperrors.Internal("Failed to save board", errors.New("pq: secret detail")), 500, "INTERNAL", "Internal server error"},
		{"plain error", errors.New("boom"), 500, "INTERNAL", "Internal server error"},
		{"echo http error", echo.NewHTTPError(http.StatusNotFound, "route not found"), 404, "", "route not found"},
		{"echo 5xx", echo.NewHTTPError(http.StatusBadGateway, "upstream secret"), 502, "", "Bad Gateway"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := Render(tc.err)
			if status != tc.wantStatus {
				t.Errorf("status = %d, want %d", status, tc.wantStatus)
			}
			if env.Success {
				t.Error("Success should be false")
			}
			if env.Code != tc.wantCode {
				t.Errorf("code = %q, want %q", env.Code, tc.wantCode)
			}
			if env.Message != tc.wantMsg {
				t.Errorf("message = %q, want %q", env.Message, tc.wantMsg)
			}
		})
	}
}

func TestErrorHandler_WritesEnvelopeAndLogsInternal(t *testing.T) {
	logger, hook := test.NewNullLogger()
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(logger)
	e.GET("/fail", func(c echo.Context) error {
		return apperrors.Internal("Failed to load board", errors.New("db down"))
	})
	e.GET("/missing", func(c echo.Context) error {
		return apperrors.New(apperrors.CodeCardNotFound, "Card not found").WithMetadata("card_id", "c1")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "db down") {
		t.Error("internal cause leaked to client")
	}
	if len(hook.Entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(hook.Entries))
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if rec.Code != http.StatusNotFound || env.Code != "CARD_NOT_FOUND" || env.Metadata["card_id"] != "c1" {
		t.Errorf("status=%d env=%+v", rec.Code, env)
	}
	if len(hook.Entries) != 1 {
		t.Error("client errors should not be logged at error level")
	}
}

func TestOKAndBind(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(nil)
	type payload struct {
		Name string `json:"name"`
	}
	e.POST("/echo", func(c echo.Context) error {
		var p payload
		if err := Bind(c, &p); err != nil {
			return err
		}
		return OK(c, http.StatusCreated, "Created", p)
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"Sprint"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"success":true,"message":"Created","data":{"name":"Sprint"}}` {
		t.Errorf("body = %s", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "INVALID_INPUT") {
		t.Errorf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}
