// Package consumer reads activity events from Kafka, forwards them to Loki and
// reconciles boards whose cards changed.
package consumer

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	boarddomain "github.com/Piyush-Singh-Chauhan/team-board/internal/board/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry/producer"
)

const defaultPushTimeout = 10 * time.Second

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Reconciler repairs a board's card order (e.g. *boardservice.Service).
type Reconciler interface {
	ReconcileBoard(ctx context.Context, boardID string) (boarddomain.ReconcileResult, error)
}

// Sink receives the raw event JSON (e.g. *loki.Client).
type Sink interface {
	PushEventJSON(ctx context.Context, raw []byte) error
}

// Consumer processes one message at a time and commits it once handled. Sink and
// reconcile failures are logged; the message is still committed.
type Consumer struct {
	reader      MessageReader
	reconciler  Reconciler
	sink        Sink
	logger      log.FieldLogger
	pushTimeout time.Duration
}

// New returns a Consumer. reconciler and sink may each be nil to skip that step.
func New(reader MessageReader, reconciler Reconciler, sink Sink, logger log.FieldLogger) *Consumer {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Consumer{
		reader:      reader,
		reconciler:  reconciler,
		sink:        sink,
		logger:      logger.WithField("component", "activity-worker"),
		pushTimeout: defaultPushTimeout,
	}
}

// Run fetches and handles messages until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.WithError(err).Warn("kafka fetch failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		c.Handle(ctx, msg)
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.WithError(err).WithField("offset", msg.Offset).Warn("kafka commit failed")
		}
	}
}

// Handle forwards one message to the sink and, for card events, reconciles the board.
func (c *Consumer) Handle(ctx context.Context, msg kafka.Message) {
	fields := log.Fields{"partition": msg.Partition, "offset": msg.Offset}
	if c.sink != nil {
		pushCtx, cancel := context.WithTimeout(ctx, c.pushTimeout)
		if err := c.sink.PushEventJSON(pushCtx, msg.Value); err != nil {
			c.logger.WithFields(fields).WithError(err).Warn("loki push failed")
		}
		cancel()
	}
	if c.reconciler == nil {
		return
	}
	ev, err := producer.DecodeMessage(msg.Value)
	if err != nil {
		c.logger.WithFields(fields).WithError(err).Debug("skipping undecodable message")
		return
	}
	if !ev.Type.IsCardEvent() || ev.BoardID == "" {
		return
	}
	fields["board_id"] = ev.BoardID
	fields["event_type"] = string(ev.Type)
	res, err := c.reconciler.ReconcileBoard(ctx, ev.BoardID)
	switch {
	case apperrors.IsCode(err, apperrors.CodeBoardNotFound):
		c.logger.WithFields(fields).Debug("board gone; nothing to reconcile")
	case err != nil:
		c.logger.WithFields(fields).WithError(err).Warn("reconcile failed")
	case res.Changed():
		c.logger.WithFields(fields).WithFields(log.Fields{
			"realigned": len(res.CardsRealigned),
			"orphans":   len(res.OrphansPlaced),
			"dangling":  len(res.DanglingRemoved),
			"deduped":   len(res.Deduplicated),
		}).Info("board reconciled")
	}
}
