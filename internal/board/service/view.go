package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/board/domain"
	carddomain "github.com/Piyush-Singh-Chauhan/team-board/internal/card/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
)

// ColumnView is one column with its cards in display order.
type ColumnView struct {
	ID    carddomain.ColumnID
	Title string
	Cards []*carddomain.Card
}

// BoardView is a board as rendered to clients.
type BoardView struct {
	Board   *domain.Board
	Columns []ColumnView
}

// GetBoard returns the board with its cards grouped per column.
func (s *Service) GetBoard(ctx context.Context, boardID string) (_ *BoardView, err error) {
	ctx, span := s.startSpan(ctx, "GetBoard", attribute.String("board_id", boardID))
	defer func() { endSpan(span, err) }()

	b, err := s.loadBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	cards, err := s.cards.ListByBoard(ctx, b.ID)
	if err != nil {
		return nil, apperrors.Internal("Failed to list cards", err)
	}
	return BuildView(b, cards), nil
}

// BuildView groups cards by the board's card order, which is authoritative: a card
// is shown in the column that lists it, with its column and status reported to
// match, even if its own record lags behind. Dangling ids are skipped and cards on
// no column are shown at the end of their own column. Nothing is persisted.
func BuildView(b *domain.Board, cards []*carddomain.Card) *BoardView {
	byID := make(map[string]*carddomain.Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}
	view := &BoardView{Board: b, Columns: make([]ColumnView, 0, len(b.Columns))}
	shown := make(map[string]bool, len(cards))
	index := make(map[carddomain.ColumnID]int, len(b.Columns))
	for _, col := range b.Columns {
		cv := ColumnView{ID: col.ID, Title: col.Title, Cards: []*carddomain.Card{}}
		for _, id := range col.CardOrder {
			c, ok := byID[id]
			if !ok || shown[id] {
				continue
			}
			shown[id] = true
			if c.ColumnID != col.ID || c.Status != col.ID {
				c = c.Clone()
				c.SetColumn(col.ID)
			}
			cv.Cards = append(cv.Cards, c)
		}
		index[col.ID] = len(view.Columns)
		view.Columns = append(view.Columns, cv)
	}
	for _, c := range cards {
		if shown[c.ID] {
			continue
		}
		i, ok := index[c.ColumnID]
		if !ok {
			i = index[carddomain.ColumnTodo]
			c = c.Clone()
			c.SetColumn(carddomain.ColumnTodo)
		}
		view.Columns[i].Cards = append(view.Columns[i].Cards, c)
	}
	return view
}
