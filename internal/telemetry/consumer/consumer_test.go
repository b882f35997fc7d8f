package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	boarddomain "github.com/Piyush-Singh-Chauhan/team-board/internal/board/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry/domain"
)

// fakeReader hands out queued messages, then blocks until the context ends.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	fetchErrs int
	drained   chan struct{}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if r.fetchErrs > 0 {
		r.fetchErrs--
		r.mu.Unlock()
		return kafka.Message{}, errors.New("broker unavailable")
	}
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	if r.drained != nil {
		close(r.drained)
		r.drained = nil
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

type fakeReconciler struct {
	mu     sync.Mutex
	boards []string
	err    error
	result boarddomain.ReconcileResult
}

func (f *fakeReconciler) ReconcileBoard(ctx context.Context, boardID string) (boarddomain.ReconcileResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.boards = append(f.boards, boardID)
	return f.result, f.err
}

type fakeSink struct {
	mu    sync.Mutex
	lines []string
	err   error
}

func (f *fakeSink) PushEventJSON(ctx context.Context, raw []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, string(raw))
	return f.err
}

func eventMessage(t *testing.T, offset int64, typ domain.EventType, boardID string) kafka.Message {
	t.Helper()
	ev := domain.NewEvent(typ, "u1")
	ev.TeamID, ev.BoardID = "t1", boardID
	raw, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return kafka.Message{Offset: offset, Value: raw}
}

func TestHandle_CardEventReconcilesBoard(t *testing.T) {
	rec := &fakeReconciler{result: boarddomain.ReconcileResult{OrphansPlaced: []string{"c9"}}}
	sink := &fakeSink{}
	c := New(&fakeReader{}, rec, sink, nil)

	c.Handle(context.Background(), eventMessage(t, 1, domain.EventCardMoved, "b1"))

	if len(sink.lines) != 1 {
		t.Fatalf("sink lines = %d, want 1", len(sink.lines))
	}
	if len(rec.boards) != 1 || rec.boards[0] != "b1" {
		t.Errorf("reconciled = %v, want [b1]", rec.boards)
	}
}

func TestHandle_SkipsReconcile(t *testing.T) {
	tests := []struct {
		name string
		msg  func(t *testing.T) kafka.Message
	}{
		{"board event", func(t *testing.T) kafka.Message { return eventMessage(t, 1, domain.EventBoardUpdated, "b1") }},
		{"invite event", func(t *testing.T) kafka.Message { return eventMessage(t, 1, domain.EventInviteCreated, "") }},
		{"card event without board", func(t *testing.T) kafka.Message { return eventMessage(t, 1, domain.EventCardCreated, "") }},
		{"not json", func(t *testing.T) kafka.Message { return kafka.Message{Value: []byte("plain line")} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeReconciler{}
			sink := &fakeSink{}
			New(&fakeReader{}, rec, sink, nil).Handle(context.Background(), tt.msg(t))
			if len(rec.boards) != 0 {
				t.Errorf("reconciled = %v, want none", rec.boards)
			}
			if len(sink.lines) != 1 {
				t.Errorf("sink lines = %d, want 1", len(sink.lines))
			}
		})
	}
}

func TestHandle_FailuresAreNotFatal(t *testing.T) {
	rec := &fakeReconciler{err: apperrors.New(apperrors.CodeBoardNotFound, "Board not found")}
	sink := &fakeSink{err: errors.New("loki down")}
	c := New(&fakeReader{}, rec, sink, nil)

	c.Handle(context.Background(), eventMessage(t, 1, domain.EventCardDeleted, "b1"))

	if len(rec.boards) != 1 {
		t.Errorf("reconcile should run even when the sink fails, got %v", rec.boards)
	}
}

func TestHandle_NilSinkAndReconciler(t *testing.T) {
	c := New(&fakeReader{}, nil, nil, nil)
	c.Handle(context.Background(), eventMessage(t, 1, domain.EventCardMoved, "b1"))
}

func TestRun_CommitsEachMessageAndStopsOnCancel(t *testing.T) {
	drained := make(chan struct{})
	reader := &fakeReader{
		queue: []kafka.Message{
			eventMessage(t, 10, domain.EventCardCreated, "b1"),
			eventMessage(t, 11, domain.EventBoardCreated, "b2"),
		},
		fetchErrs: 1,
		drained:   drained,
	}
	rec := &fakeReconciler{}
	c := New(reader, rec, &fakeSink{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	select {
	case <-drained:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not drain the queue")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	reader.mu.Lock()
	defer reader.mu.Unlock()
	if len(reader.committed) != 2 || reader.committed[0] != 10 || reader.committed[1] != 11 {
		t.Errorf("committed = %v, want [10 11]", reader.committed)
	}
	if len(rec.boards) != 1 || rec.boards[0] != "b1" {
		t.Errorf("reconciled = %v, want [b1]", rec.boards)
	}
}
