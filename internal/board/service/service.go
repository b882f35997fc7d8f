package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/board/domain"
	carddomain "github.com/Piyush-Singh-Chauhan/team-board/internal/card/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/db"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry"
	telemetrydomain "github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry/domain"
)

// DefaultMaxRetries is used when NewService is given a non-positive retry count.
const DefaultMaxRetries = 3

// BoardRepo is the board persistence the service needs.
type BoardRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Board, error)
	ListByTeam(ctx context.Context, teamID string) ([]*domain.Board, error)
	Create(ctx context.Context, b *domain.Board) error
	Update(ctx context.Context, b *domain.Board) error
	Delete(ctx context.Context, id string) error
}

// CardRepo is the card persistence the service needs.
type CardRepo interface {
	GetByID(ctx context.Context, id string) (*carddomain.Card, error)
	ListByBoard(ctx context.Context, boardID string) ([]*carddomain.Card, error)
	Create(ctx context.Context, c *carddomain.Card) error
	Update(ctx context.Context, c *carddomain.Card) error
	SetColumn(ctx context.Context, id string, col carddomain.ColumnID, updatedAt time.Time) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByBoard(ctx context.Context, boardID string) error
}

// Service runs board and card operations. Every change to a board's card order
// is a load-mutate-save guarded by the board version and retried on conflict.
type Service struct {
	boards     BoardRepo
	cards      CardRepo
	tx         db.Transactor
	events     telemetry.EventEmitter
	logger     log.FieldLogger
	maxRetries int
	now        func() time.Time
	newID      func() string

	tracer    trace.Tracer
	moves     metric.Int64Counter
	conflicts metric.Int64Counter
}

// NewService returns a Service. tx may be db.NoTx{} and events may be nil.
func NewService(boards BoardRepo, cards CardRepo, tx db.Transactor, events telemetry.EventEmitter, logger log.FieldLogger, maxRetries int) *Service {
	if tx == nil {
		tx = db.NoTx{}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	meter := otel.Meter("team-board/board")
	moves, _ := meter.Int64Counter("board.card_moves", metric.WithDescription("Cards moved between or within columns"))
	conflicts, _ := meter.Int64Counter("board.version_conflicts", metric.WithDescription("Board saves rejected by the version check"))
	return &Service{
		boards:     boards,
		cards:      cards,
		tx:         tx,
		events:     events,
		logger:     logger.WithField("component", "board"),
		maxRetries: maxRetries,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
		tracer:     otel.Tracer("team-board/board"),
		moves:      moves,
		conflicts:  conflicts,
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "board."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.GetCode(err)))
	}
	span.End()
}

func (s *Service) emit(ctx context.Context, ev *telemetrydomain.Event) {
	if s.events == nil {
		return
	}
	telemetry.EmitAsync(s.events, ctx, ev)
}

func boardNotFound(id string) error {
	return apperrors.New(apperrors.CodeBoardNotFound, "Board not found").WithMetadata("board_id", id)
}

func cardNotFound(id string) error {
	return apperrors.New(apperrors.CodeCardNotFound, "Card not found").WithMetadata("card_id", id)
}

func (s *Service) loadBoard(ctx context.Context, id string) (*domain.Board, error) {
	b, err := s.boards.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("Failed to load board", err)
	}
	if b == nil {
		return nil, boardNotFound(id)
	}
	return b, nil
}

func (s *Service) loadCard(ctx context.Context, id string) (*carddomain.Card, error) {
	c, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("Failed to load card", err)
	}
	if c == nil {
		return nil, cardNotFound(id)
	}
	return c, nil
}

// mutateBoard loads the board, applies change and saves it with the version check.
// after runs the secondary card writes in the same transaction, only once the board
// save succeeded. A version conflict reruns the whole attempt on a fresh copy.
func (s *Service) mutateBoard(
	ctx context.Context,
	boardID string,
	change func(ctx context.Context, b *domain.Board) (bool, error),
	after func(ctx context.Context, b *domain.Board) error,
) (*domain.Board, error) {
	for attempt := 0; ; attempt++ {
		var saved *domain.Board
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			b, err := s.loadBoard(ctx, boardID)
			if err != nil {
				return err
			}
			changed, err := change(ctx, b)
			if err != nil {
				return err
			}
			if changed {
				b.UpdatedAt = s.now()
				if err := s.boards.Update(ctx, b); err != nil {
					if errors.Is(err, domain.ErrVersionConflict) {
						return err
					}
					return apperrors.Internal("Failed to save board", err)
				}
			}
			if after != nil {
				if err := after(ctx, b); err != nil {
					return err
				}
			}
			saved = b
			return nil
		})
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		s.conflicts.Add(ctx, 1)
		if attempt >= s.maxRetries {
			s.logger.WithField("board_id", boardID).Error("board: giving up after repeated version conflicts")
			return nil, apperrors.Wrap(apperrors.CodeVersionConflict, "Board was modified concurrently, please retry", err).
				WithMetadata("board_id", boardID)
		}
		s.logger.WithFields(log.Fields{"board_id": boardID, "attempt": attempt + 1}).Warn("board: version conflict, retrying")
	}
}

// CreateBoard creates a board with the three fixed, empty columns.
func (s *Service) CreateBoard(ctx context.Context, teamID, name, description, userID string) (_ *domain.Board, err error) {
	ctx, span := s.startSpan(ctx, "CreateBoard", attribute.String("team_id", teamID))
	defer func() { endSpan(span, err) }()

	b, err := domain.NewBoard(s.newID(), teamID, name, description, userID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.boards.Create(ctx, b); err != nil {
		return nil, apperrors.Internal("Failed to create board", err)
	}
	ev := telemetrydomain.NewEvent(telemetrydomain.EventBoardCreated, userID)
	ev.TeamID, ev.BoardID = b.TeamID, b.ID
	s.emit(ctx, ev.WithPayload(map[string]string{"name": b.Name}))
	return b, nil
}

// ListBoards returns the team's boards.
func (s *Service) ListBoards(ctx context.Context, teamID string) ([]*domain.Board, error) {
	boards, err := s.boards.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, apperrors.Internal("Failed to list boards", err)
	}
	return boards, nil
}

// EditBoardInput holds the optional board fields to change.
type EditBoardInput struct {
	Name        *string
	Description *string
}

// EditBoard renames or re-describes a board.
func (s *Service) EditBoard(ctx context.Context, boardID string, in EditBoardInput, userID string) (_ *domain.Board, err error) {
	ctx, span := s.startSpan(ctx, "EditBoard", attribute.String("board_id", boardID))
	defer func() { endSpan(span, err) }()

	b, err := s.mutateBoard(ctx, boardID, func(_ context.Context, b *domain.Board) (bool, error) {
		if in.Name == nil && in.Description == nil {
			return false, nil
		}
		if in.Name != nil {
			b.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			b.Description = strings.TrimSpace(*in.Description)
		}
		return true, b.Validate()
	}, nil)
	if err != nil {
		return nil, err
	}
	ev := telemetrydomain.NewEvent(telemetrydomain.EventBoardUpdated, userID)
	ev.TeamID, ev.BoardID = b.TeamID, b.ID
	s.emit(ctx, ev)
	return b, nil
}

// DeleteBoard removes the board and all of its cards.
func (s *Service) DeleteBoard(ctx context.Context, boardID, userID string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteBoard", attribute.String("board_id", boardID))
	defer func() { endSpan(span, err) }()

	var teamID string
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.loadBoard(ctx, boardID)
		if err != nil {
			return err
		}
		teamID = b.TeamID
		return s.deleteBoard(ctx, b.ID)
	})
	if err != nil {
		return err
	}
	ev := telemetrydomain.NewEvent(telemetrydomain.EventBoardDeleted, userID)
	ev.TeamID, ev.BoardID = teamID, boardID
	s.emit(ctx, ev)
	return nil
}

func (s *Service) deleteBoard(ctx context.Context, boardID string) error {
	if err := s.cards.DeleteByBoard(ctx, boardID); err != nil {
		return apperrors.Internal("Failed to delete board cards", err)
	}
	if err := s.boards.Delete(ctx, boardID); err != nil {
		return apperrors.Internal("Failed to delete board", err)
	}
	return nil
}

// DeleteBoardsByTeam cascades a team delete to its boards and cards. It joins the caller's transaction.
func (s *Service) DeleteBoardsByTeam(ctx context.Context, teamID string) error {
	boards, err := s.boards.ListByTeam(ctx, teamID)
	if err != nil {
		return apperrors.Internal("Failed to list boards", err)
	}
	for _, b := range boards {
		if err := s.deleteBoard(ctx, b.ID); err != nil {
			return err
		}
	}
	return nil
}

// ResolveBoardTeam returns the team that owns the board. Used by access checks.
func (s *Service) ResolveBoardTeam(ctx context.Context, boardID string) (string, error) {
	b, err := s.loadBoard(ctx, boardID)
	if err != nil {
		return "", err
	}
	return b.TeamID, nil
}

// ResolveCardTeam returns the team that owns the card's board.
func (s *Service) ResolveCardTeam(ctx context.Context, cardID string) (string, error) {
	c, err := s.loadCard(ctx, cardID)
	if err != nil {
		return "", err
	}
	return s.ResolveBoardTeam(ctx, c.BoardID)
}
