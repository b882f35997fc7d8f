// Package loki pushes activity events to Grafana Loki's push API.
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry/domain"
)

// JobLabel is attached to every stream pushed by this service.
const JobLabel = "team-board"

// PushRequest is the Loki push API request body (v1).
type PushRequest struct {
	Streams []Stream `json:"streams"`
}

// Stream is a single stream with labels and log entries.
type Stream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"` // [timestamp_ns, line]
}

// Loki label values may be anything, but ids and event types only need this set.
var labelSanitize = regexp.MustCompile(`[^a-zA-Z0-9_\-:.]`)

// Client pushes lines to one Loki instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL (e.g. http://localhost:3100). Returns nil when baseURL is empty.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		return nil
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), http: httpClient}
}

// PushEventJSON pushes a Kafka message value as-is. Labels and timestamp come from the
// decoded event; if the value is not an event, the raw line is pushed at the current time.
func (c *Client) PushEventJSON(ctx context.Context, raw []byte) error {
	var ev domain.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return c.Push(ctx, time.Now().UTC(), string(raw), nil)
	}
	return c.Push(ctx, eventTime(ev), string(raw), eventLabels(ev))
}

// Emit implements telemetry.EventEmitter.
func (c *Client) Emit(ctx context.Context, event *domain.Event) error {
	if c == nil || event == nil {
		return nil
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.Push(ctx, eventTime(*event), string(raw), eventLabels(*event))
}

func eventTime(ev domain.Event) time.Time {
	if ev.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return ev.CreatedAt
}

func eventLabels(ev domain.Event) map[string]string {
	labels := map[string]string{}
	if ev.Type != "" {
		labels["event_type"] = string(ev.Type)
	}
	if ev.TeamID != "" {
		labels["team_id"] = ev.TeamID
	}
	return labels
}

// Push sends one line to Loki. Returns an error if the request fails or Loki returns non-2xx.
func (c *Client) Push(ctx context.Context, timestamp time.Time, line string, labels map[string]string) error {
	if c == nil {
		return fmt.Errorf("loki: client is not configured")
	}
	streamLabels := make(map[string]string, len(labels)+1)
	streamLabels["job"] = JobLabel
	for k, v := range labels {
		if sanitized := labelSanitize.ReplaceAllString(strings.TrimSpace(v), "_"); sanitized != "" {
			streamLabels[k] = sanitized
		}
	}
	payload, err := json.Marshal(PushRequest{
		Streams: []Stream{{
			Stream: streamLabels,
			Values: [][]string{{strconv.FormatInt(timestamp.UnixNano(), 10), line}},
		}},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/loki/api/v1/push", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("loki: push returned %s", resp.Status)
	}
	return nil
}
