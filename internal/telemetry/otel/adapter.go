package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry/domain"
)

// recordEmitter is the part of otellog.Logger the adapter needs.
type recordEmitter interface {
	Emit(ctx context.Context, record otellog.Record)
}

// NewEventEmitter returns an EventEmitter that mirrors activity events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("team-board.activity")}
}

// NewEventEmitterWithLogger wraps an arbitrary record emitter. Used by tests.
func NewEventEmitterWithLogger(logger recordEmitter) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *domain.Event) error { return nil }

type otelEmitter struct {
	logger recordEmitter
}

// Emit converts the event to an OTel log record and emits it.
func (e *otelEmitter) Emit(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	rec.SetTimestamp(event.CreatedAt)
	if rec.Timestamp().IsZero() {
		rec.SetTimestamp(time.Now().UTC())
	}
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetEventName(string(event.Type))
	if len(event.Payload) > 0 {
		rec.SetBody(otellog.BytesValue(event.Payload))
	}
	for _, kv := range []struct{ key, val string }{
		{"event_id", event.ID},
		{"event_type", string(event.Type)},
		{"team_id", event.TeamID},
		{"board_id", event.BoardID},
		{"card_id", event.CardID},
		{"invite_id", event.InviteID},
		{"user_id", event.UserID},
	} {
		if kv.val != "" {
			rec.AddAttributes(otellog.String(kv.key, kv.val))
		}
	}
	e.logger.Emit(ctx, rec)
	return nil
}
