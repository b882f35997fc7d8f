package loki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry/domain"
)

func captureServer(t *testing.T, status int) (*httptest.Server, *PushRequest) {
	t.Helper()
	got := &PushRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/push" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestNewClient_EmptyURL(t *testing.T) {
	if NewClient("  ", nil) != nil {
		t.Error("NewClient with empty URL should return nil")
	}
	var c *Client
	if err := c.Emit(context.Background(), domain.NewEvent(domain.EventCardMoved, "u1")); err != nil {
		t.Errorf("nil client Emit: %v", err)
	}
}

func TestPushEventJSON_UsesEventLabels(t *testing.T) {
	srv, got := captureServer(t, http.StatusNoContent)
	c := NewClient(srv.URL+"/", nil)

	ev := domain.NewEvent(domain.EventCardMoved, "u1")
	ev.TeamID = "team 1"
	ev.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	raw, _ := json.Marshal(ev)

	if err := c.PushEventJSON(context.Background(), raw); err != nil {
		t.Fatalf("PushEventJSON: %v", err)
	}
	if len(got.Streams) != 1 {
		t.Fatalf("streams = %d, want 1", len(got.Streams))
	}
	s := got.Streams[0]
	if s.Stream["job"] != JobLabel || s.Stream["event_type"] != "card.moved" || s.Stream["team_id"] != "team_1" {
		t.Errorf("labels = %v", s.Stream)
	}
	if s.Values[0][0] != strconv.FormatInt(ev.CreatedAt.UnixNano(), 10) {
		t.Errorf("timestamp = %s", s.Values[0][0])
	}
	if s.Values[0][1] != string(raw) {
		t.Errorf("line = %s", s.Values[0][1])
	}
}

func TestPushEventJSON_NotJSON(t *testing.T) {
	srv, got := captureServer(t, http.StatusNoContent)
	c := NewClient(srv.URL, nil)
	if err := c.PushEventJSON(context.Background(), []byte("not json")); err != nil {
		t.Fatalf("PushEventJSON: %v", err)
	}
	if len(got.Streams[0].Stream) != 1 {
		t.Errorf("only the job label expected, got %v", got.Streams[0].Stream)
	}
}

func TestPush_Non2xx(t *testing.T) {
	srv, _ := captureServer(t, http.StatusBadRequest)
	c := NewClient(srv.URL, nil)
	if err := c.Emit(context.Background(), domain.NewEvent(domain.EventTeamCreated, "u1")); err == nil {
		t.Error("Emit should fail on 400")
	}
}
