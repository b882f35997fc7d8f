package service

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/board/domain"
	carddomain "github.com/Piyush-Singh-Chauhan/team-board/internal/card/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
	telemetrydomain "github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry/domain"
)

// CreateCardInput holds the fields for a new card. ColumnID defaults to todo and Priority to medium.
type CreateCardInput struct {
	BoardID     string
	Title       string
	Description string
	ColumnID    carddomain.ColumnID
	AssigneeID  string
	DueDate     *time.Time
	Priority    carddomain.Priority
	CreatedBy   string
}

// CreateCard creates the card and appends it to the tail of its column.
func (s *Service) CreateCard(ctx context.Context, in CreateCardInput) (_ *carddomain.Card, err error) {
	ctx, span := s.startSpan(ctx, "CreateCard", attribute.String("board_id", in.BoardID))
	defer func() { endSpan(span, err) }()

	now := s.now()
	c := &carddomain.Card{
		ID:          s.newID(),
		BoardID:     in.BoardID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		AssigneeID:  in.AssigneeID,
		DueDate:     in.DueDate,
		Priority:    in.Priority,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	col := in.ColumnID
	if col == "" {
		col = carddomain.ColumnTodo
	}
	c.SetColumn(col)
	if c.Priority == "" {
		c.Priority = carddomain.PriorityMedium
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	b, err := s.mutateBoard(ctx, in.BoardID,
		func(_ context.Context, b *domain.Board) (bool, error) {
			return true, b.Insert(c.ID, c.ColumnID)
		},
		func(ctx context.Context, _ *domain.Board) error {
			// A retried attempt may find the card already written.
			existing, err := s.cards.GetByID(ctx, c.ID)
			if err != nil {
				return apperrors.Internal("Failed to load card", err)
			}
			if existing != nil {
				return nil
			}
			if err := s.cards.Create(ctx, c); err != nil {
				return cardWriteErr("Failed to create card", err, c.AssigneeID)
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	ev := telemetrydomain.NewEvent(telemetrydomain.EventCardCreated, in.CreatedBy)
	ev.TeamID, ev.BoardID, ev.CardID = b.TeamID, b.ID, c.ID
	s.emit(ctx, ev.WithPayload(map[string]string{"columnId": string(c.ColumnID)}))
	return c, nil
}

// EditCardInput holds the optional card fields to change. ColumnID and Status are
// aliases; when both are set they must agree.
type EditCardInput struct {
	Title        *string
	Description  *string
	AssigneeID   *string
	DueDate      *time.Time
	ClearDueDate bool
	Priority     *carddomain.Priority
	ColumnID     *carddomain.ColumnID
	Status       *carddomain.ColumnID
}

func (in EditCardInput) targetColumn() (*carddomain.ColumnID, error) {
	switch {
	case in.ColumnID != nil && in.Status != nil && *in.ColumnID != *in.Status:
		return nil, apperrors.New(apperrors.CodeInvalidInput, "columnId and status must match")
	case in.ColumnID != nil:
		return in.ColumnID, nil
	default:
		return in.Status, nil
	}
}

func (in EditCardInput) hasDetails() bool {
	return in.Title != nil || in.Description != nil || in.AssigneeID != nil ||
		in.DueDate != nil || in.ClearDueDate || in.Priority != nil
}

// EditCard updates card details. A column change relocates the card to the tail of
// the new column, scanning every column for stale references first.
func (s *Service) EditCard(ctx context.Context, cardID string, in EditCardInput, userID string) (_ *carddomain.Card, err error) {
	ctx, span := s.startSpan(ctx, "EditCard", attribute.String("card_id", cardID))
	defer func() { endSpan(span, err) }()

	target, err := in.targetColumn()
	if err != nil {
		return nil, err
	}
	if target != nil && !target.Valid() {
		return nil, apperrors.Newf(apperrors.CodeInvalidColumn, "Invalid column %q", *target)
	}
	current, err := s.loadCard(ctx, cardID)
	if err != nil {
		return nil, err
	}

	updated := current.Clone()
	if in.Title != nil {
		updated.Title = *in.Title
	}
	if in.Description != nil {
		updated.Description = strings.TrimSpace(*in.Description)
	}
	if in.AssigneeID != nil {
		updated.AssigneeID = strings.TrimSpace(*in.AssigneeID)
	}
	if in.ClearDueDate {
		updated.DueDate = nil
	} else if in.DueDate != nil {
		d := *in.DueDate
		updated.DueDate = &d
	}
	if in.Priority != nil {
		updated.Priority = *in.Priority
	}
	if target != nil {
		updated.SetColumn(*target)
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.now()

	saveDetails := func(ctx context.Context) error {
		if !in.hasDetails() {
			return nil
		}
		if err := s.cards.Update(ctx, updated); err != nil {
			return cardWriteErr("Failed to update card", err, updated.AssigneeID)
		}
		return nil
	}

	var (
		moved bool
		b     *domain.Board
	)
	if target == nil {
		if err := saveDetails(ctx); err != nil {
			return nil, err
		}
	} else {
		b, err = s.mutateBoard(ctx, current.BoardID,
			func(ctx context.Context, b *domain.Board) (bool, error) {
				// Relocating a card deleted since it was loaded would leave a dangling id.
				if _, err := s.loadCard(ctx, cardID); err != nil {
					return false, err
				}
				col, ok := b.ColumnOf(cardID)
				if ok && col == *target && countRefs(b, cardID) == 1 {
					moved = false
					return false, nil
				}
				moved = true
				return true, b.Relocate(cardID, *target)
			},
			func(ctx context.Context, _ *domain.Board) error {
				if err := saveDetails(ctx); err != nil {
					return err
				}
				found, err := s.cards.SetColumn(ctx, cardID, *target, updated.UpdatedAt)
				if err != nil {
					return apperrors.Internal("Failed to update card column", err)
				}
				if !found {
					return cardNotFound(cardID)
				}
				return nil
			})
		if err != nil {
			return nil, err
		}
	}

	teamID := ""
	if b != nil {
		teamID = b.TeamID
	}
	ev := telemetrydomain.NewEvent(telemetrydomain.EventCardUpdated, userID)
	ev.TeamID, ev.BoardID, ev.CardID = teamID, current.BoardID, cardID
	s.emit(ctx, ev)
	if moved {
		s.moves.Add(ctx, 1, metric.WithAttributes(attribute.String("source", "edit")))
		mv := telemetrydomain.NewEvent(telemetrydomain.EventCardMoved, userID)
		mv.TeamID, mv.BoardID, mv.CardID = teamID, current.BoardID, cardID
		s.emit(ctx, mv.WithPayload(map[string]string{"to": string(*target)}))
	}
	return updated, nil
}

// cardWriteErr maps a card store write failure; an unknown assignee is the caller's mistake.
func cardWriteErr(msg string, err error, assigneeID string) error {
	if errors.Is(err, carddomain.ErrAssigneeNotFound) {
		return apperrors.New(apperrors.CodeInvalidInput, "Assignee not found").WithMetadata("assignee_id", assigneeID)
	}
	return apperrors.Internal(msg, err)
}

func countRefs(b *domain.Board, cardID string) int {
	n := 0
	for _, id := range b.CardIDs() {
		if id == cardID {
			n++
		}
	}
	return n
}

// MoveCard reorders a card within a column or moves it to another column at the
// clamped destination index. The returned board carries the new card order.
func (s *Service) MoveCard(ctx context.Context, boardID string, in domain.MoveInput, userID string) (_ *domain.Board, err error) {
	ctx, span := s.startSpan(ctx, "MoveCard",
		attribute.String("board_id", boardID),
		attribute.String("card_id", in.CardID),
		attribute.String("destination", string(in.DestinationColumnID)))
	defer func() { endSpan(span, err) }()

	b, err := s.mutateBoard(ctx, boardID,
		func(_ context.Context, b *domain.Board) (bool, error) {
			if _, err := b.Move(in); err != nil {
				return false, err
			}
			return true, nil
		},
		func(ctx context.Context, _ *domain.Board) error {
			if in.SourceColumnID == in.DestinationColumnID {
				return nil
			}
			found, err := s.cards.SetColumn(ctx, in.CardID, in.DestinationColumnID, s.now())
			if err != nil {
				return apperrors.Internal("Failed to update card column", err)
			}
			if !found {
				return cardNotFound(in.CardID)
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	s.moves.Add(ctx, 1, metric.WithAttributes(attribute.String("source", "drag")))
	ev := telemetrydomain.NewEvent(telemetrydomain.EventCardMoved, userID)
	ev.TeamID, ev.BoardID, ev.CardID = b.TeamID, b.ID, in.CardID
	s.emit(ctx, ev.WithPayload(map[string]any{
		"from":  in.SourceColumnID,
		"to":    in.DestinationColumnID,
		"index": in.DestinationIndex,
	}))
	return b, nil
}

// DeleteCard removes the card from the board's card order and deletes the record.
// Deleting an already deleted card returns CARD_NOT_FOUND and changes nothing.
func (s *Service) DeleteCard(ctx context.Context, cardID, userID string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteCard", attribute.String("card_id", cardID))
	defer func() { endSpan(span, err) }()

	c, err := s.loadCard(ctx, cardID)
	if err != nil {
		return err
	}
	deleteRecord := func(ctx context.Context, _ *domain.Board) error {
		found, err := s.cards.Delete(ctx, cardID)
		if err != nil {
			return apperrors.Internal("Failed to delete card", err)
		}
		if !found {
			// A concurrent delete got there first.
			return cardNotFound(cardID)
		}
		return nil
	}
	b, err := s.mutateBoard(ctx, c.BoardID,
		func(_ context.Context, b *domain.Board) (bool, error) {
			return b.Remove(cardID), nil
		},
		deleteRecord)
	if apperrors.IsCode(err, apperrors.CodeBoardNotFound) {
		// The board is gone; the card is an orphan of an interrupted cascade.
		return deleteRecord(ctx, nil)
	}
	if err != nil {
		return err
	}
	ev := telemetrydomain.NewEvent(telemetrydomain.EventCardDeleted, userID)
	ev.TeamID, ev.BoardID, ev.CardID = b.TeamID, b.ID, cardID
	s.emit(ctx, ev)
	return nil
}

// ReconcileBoard repairs drift between the board's card order and the card records:
// duplicate and dangling ids are dropped, card column/status follow the board, and
// cards on no column are appended to their own column.
func (s *Service) ReconcileBoard(ctx context.Context, boardID string) (_ domain.ReconcileResult, err error) {
	ctx, span := s.startSpan(ctx, "ReconcileBoard", attribute.String("board_id", boardID))
	defer func() { endSpan(span, err) }()

	var res domain.ReconcileResult
	b, err := s.mutateBoard(ctx, boardID,
		func(ctx context.Context, b *domain.Board) (bool, error) {
			cards, err := s.cards.ListByBoard(ctx, b.ID)
			if err != nil {
				return false, apperrors.Internal("Failed to list cards", err)
			}
			res = b.Reconcile(cards)
			// Realignments alone still save the board so its version check guards
			// the card writes against a move committed since the board was read.
			return res.Changed(), nil
		},
		func(ctx context.Context, _ *domain.Board) error {
			now := s.now()
			for _, c := range res.CardsRealigned {
				// A card deleted meanwhile has nothing left to realign.
				if _, err := s.cards.SetColumn(ctx, c.ID, c.ColumnID, now); err != nil {
					return apperrors.Internal("Failed to realign card", err)
				}
			}
			return nil
		})
	if err != nil {
		return domain.ReconcileResult{}, err
	}
	if res.Changed() {
		s.logger.WithFields(log.Fields{
			"board_id":  boardID,
			"realigned": len(res.CardsRealigned),
			"orphans":   len(res.OrphansPlaced),
			"dangling":  len(res.DanglingRemoved),
			"duplicate": len(res.Deduplicated),
		}).Info("board: reconciled")
		ev := telemetrydomain.NewEvent(telemetrydomain.EventBoardReconciled, "")
		ev.TeamID, ev.BoardID = b.TeamID, b.ID
		s.emit(ctx, ev.WithPayload(map[string]int{
			"realigned": len(res.CardsRealigned),
			"orphans":   len(res.OrphansPlaced),
			"dangling":  len(res.DanglingRemoved),
			"duplicate": len(res.Deduplicated),
		}))
	}
	return res, nil
}
