package handler

import (
	"time"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/board/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/board/service"
	carddomain "github.com/Piyush-Singh-Chauhan/team-board/internal/card/domain"
)

type cardJSON struct {
	ID          string     `json:"id"`
	BoardID     string     `json:"boardId"`
	ColumnID    string     `json:"columnId"`
	Status      string     `json:"status"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Priority    string     `json:"priority"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type boardJSON struct {
	ID          string          `json:"id"`
	TeamID      string          `json:"teamId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Columns     []domain.Column `json:"columns"`
	Version     int64           `json:"version"`
	CreatedBy   string          `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type columnViewJSON struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Cards []cardJSON `json:"cards"`
}

type boardViewJSON struct {
	boardJSON
	Columns []columnViewJSON `json:"columns"`
}

type reconcileJSON struct {
	CardsRealigned  []string `json:"cardsRealigned"`
	OrphansPlaced   []string `json:"orphansPlaced"`
	DanglingRemoved []string `json:"danglingRemoved"`
	Deduplicated    []string `json:"deduplicated"`
}

func toCardJSON(c *carddomain.Card) cardJSON {
	return cardJSON{
		ID:          c.ID,
		BoardID:     c.BoardID,
		ColumnID:    string(c.ColumnID),
		Status:      string(c.Status),
		Title:       c.Title,
		Description: c.Description,
		AssignedTo:  c.AssigneeID,
		DueDate:     c.DueDate,
		Priority:    string(c.Priority),
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toBoardJSON(b *domain.Board) boardJSON {
	return boardJSON{
		ID:          b.ID,
		TeamID:      b.TeamID,
		Name:        b.Name,
		Description: b.Description,
		Columns:     b.Columns,
		Version:     b.Version,
		CreatedBy:   b.CreatedBy,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func toBoardViewJSON(v *service.BoardView) boardViewJSON {
	out := boardViewJSON{boardJSON: toBoardJSON(v.Board), Columns: make([]columnViewJSON, 0, len(v.Columns))}
	for _, col := range v.Columns {
		cv := columnViewJSON{ID: string(col.ID), Title: col.Title, Cards: make([]cardJSON, 0, len(col.Cards))}
		for _, c := range col.Cards {
			cv.Cards = append(cv.Cards, toCardJSON(c))
		}
		out.Columns = append(out.Columns, cv)
	}
	return out
}

func toReconcileJSON(r domain.ReconcileResult) reconcileJSON {
	out := reconcileJSON{
		CardsRealigned:  make([]string, 0, len(r.CardsRealigned)),
		OrphansPlaced:   append([]string{}, r.OrphansPlaced...),
		DanglingRemoved: append([]string{}, r.DanglingRemoved...),
		Deduplicated:    append([]string{}, r.Deduplicated...),
	}
	for _, c := range r.CardsRealigned {
		out.CardsRealigned = append(out.CardsRealigned, c.ID)
	}
	return out
}
