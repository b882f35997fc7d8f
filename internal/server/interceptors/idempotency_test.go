package interceptors

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/httpx"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/idempotency"
)

// newIdempotencyEcho serves POST /api/teams, failing with *fail when it is set.
func newIdempotencyEcho(t *testing.T, fail *error) (*echo.Echo, *int) {
	t.Helper()
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	e := echo.New()
	e.HTTPErrorHandler = httpx.ErrorHandler(nil)
	g := e.Group("/api", fakeIdentity("user-1"), Idempotency(idempotency.NewRedisDeduper(client, time.Minute), nil))
	g.POST("/teams", func(c echo.Context) error {
		calls++
		if *fail != nil {
			return *fail
		}
		return c.NoContent(http.StatusCreated)
	})
	g.GET("/teams", func(c echo.Context) error {
		calls++
		return c.NoContent(http.StatusOK)
	})
	return e, &calls
}

func doWithKey(e *echo.Echo, method, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/teams", nil)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_RejectsReplay(t *testing.T) {
	var fail error
	e, calls := newIdempotencyEcho(t, &fail)

	if rec := doWithKey(e, http.MethodPost, "k1"); rec.Code != http.StatusCreated {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec := doWithKey(e, http.MethodPost, "k1")
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), "DUPLICATE_REQUEST") {
		t.Fatalf("replay status = %d body = %s", rec.Code, rec.Body.String())
	}
	if *calls != 1 {
		t.Errorf("handler ran %d times, want 1", *calls)
	}
	if rec := doWithKey(e, http.MethodPost, "k2"); rec.Code != http.StatusCreated {
		t.Errorf("new key status = %d", rec.Code)
	}
}

func TestIdempotency_ReleasesKeyOnError(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
	}{
		{"server error", apperrors.Internal("Failed to create team", errors.New("db down")), http.StatusInternalServerError},
		{"version conflict", apperrors.New(apperrors.CodeVersionConflict, "Board was modified concurrently, please retry"), http.StatusConflict},
		{"invalid input", apperrors.New(apperrors.CodeInvalidInput, "Team name is required"), http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fail := tc.err
			e, calls := newIdempotencyEcho(t, &fail)

			if rec := doWithKey(e, http.MethodPost, "k1"); rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			fail = nil
			if rec := doWithKey(e, http.MethodPost, "k1"); rec.Code != http.StatusCreated {
				t.Fatalf("retry status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if *calls != 2 {
				t.Errorf("handler ran %d times, want 2", *calls)
			}
			if rec := doWithKey(e, http.MethodPost, "k1"); rec.Code != http.StatusConflict {
				t.Errorf("replay after success status = %d, want 409", rec.Code)
			}
		})
	}
}

func TestIdempotency_IgnoresReadsAndMissingKey(t *testing.T) {
	var fail error
	e, calls := newIdempotencyEcho(t, &fail)
	for i := 0; i < 2; i++ {
		if rec := doWithKey(e, http.MethodGet, "k1"); rec.Code != http.StatusOK {
			t.Fatalf("GET status = %d", rec.Code)
		}
		if rec := doWithKey(e, http.MethodPost, ""); rec.Code != http.StatusCreated {
			t.Fatalf("POST without key status = %d", rec.Code)
		}
	}
	if *calls != 4 {
		t.Errorf("handler ran %d times, want 4", *calls)
	}
}

type failingDeduper struct{}

func (failingDeduper) Add(context.Context, string, string) (bool, error) {
	return false, errors.New("redis down")
}
func (failingDeduper) Remove(context.Context, string, string) error { return nil }

func TestIdempotency_FailsOpen(t *testing.T) {
	e := echo.New()
	e.POST("/x", func(c echo.Context) error { return c.NoContent(http.StatusCreated) },
		fakeIdentity("u1"), Idempotency(failingDeduper{}, nil))
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set(HeaderIdempotencyKey, "k1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
}
