package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/httpx"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/server/interceptors"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/user/domain"
)

type fakeDirectory struct {
	users []*domain.User
	err   error
}

func (f fakeDirectory) List(ctx context.Context) ([]*domain.User, error) {
	return f.users, f.err
}

func newServer(dir Directory, userID string) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = httpx.ErrorHandler(nil)
	g := e.Group("/api", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if userID != "" {
				ctx := interceptors.WithIdentity(c.Request().Context(), userID, "")
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	})
	NewHandler(dir).Register(g)
	return e
}

func TestListUsers(t *testing.T) {
	dir := fakeDirectory{users: []*domain.User{
		{ID: "u1", Name: "Ada", Email: "ada@example.com"},
		{ID: "u2", Name: "Bob", Email: "bob@example.com"},
	}}
	rec := httptest.NewRecorder()
	newServer(dir, "u1").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var body struct {
		Success bool       `json:"success"`
		Data    []userJSON `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || len(body.Data) != 2 || body.Data[1].Email != "bob@example.com" {
		t.Errorf("body = %+v", body)
	}
}

func TestListUsers_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		dir    fakeDirectory
		userID string
		status int
	}{
		{"unauthenticated", fakeDirectory{}, "", http.StatusUnauthorized},
		{"store failure", fakeDirectory{err: errors.New("db down")}, "u1", http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newServer(tc.dir, tc.userID).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
		})
	}
}
