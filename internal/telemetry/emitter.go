package telemetry

import (
	"context"
	"errors"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry/domain"
)

// EventEmitter emits activity events (e.g. to Kafka or OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.Event) error
}

// Multi fans one event out to several emitters. Nil entries are skipped.
type Multi []EventEmitter

// Emit calls every emitter and joins their errors.
func (m Multi) Emit(ctx context.Context, event *domain.Event) error {
	var errs []error
	for _, e := range m {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
