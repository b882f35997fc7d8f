// Package domain holds the board aggregate and its ordering engine. All
// operations here are pure: they mutate the in-memory aggregate and leave
// persistence to the caller.
package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	carddomain "github.com/Piyush-Singh-Chauhan/team-board/internal/card/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
)

// ErrVersionConflict is returned by the repository when the stored board
// version no longer matches the one that was loaded.
var ErrVersionConflict = errors.New("board version conflict")

const (
	MinNameLen        = 2
	MaxNameLen        = 100
	MaxDescriptionLen = 150
)

var columnTitles = map[carddomain.ColumnID]string{
	carddomain.ColumnTodo:       "To Do",
	carddomain.ColumnInProgress: "In Progress",
	carddomain.ColumnDone:       "Done",
}

// Column is one lane of a board.
type Column struct {
	ID        carddomain.ColumnID `json:"id"`
	Title     string              `json:"title"`
	CardOrder CardOrder           `json:"cardOrder"`
}

// Board owns its columns and their card order. Version is the optimistic concurrency token.
type Board struct {
	ID          string
	TeamID      string
	Name        string
	Description string
	Columns     []Column
	Version     int64
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewBoard returns a board with the fixed three empty columns.
func NewBoard(id, teamID, name, description, createdBy string, now time.Time) (*Board, error) {
	b := &Board{
		ID:          id,
		TeamID:      teamID,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Version:     1,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, col := range carddomain.Columns {
		b.Columns = append(b.Columns, Column{ID: col, Title: columnTitles[col], CardOrder: CardOrder{}})
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks name and description limits.
func (b *Board) Validate() error {
	if n := utf8.RuneCountInString(b.Name); n < MinNameLen || n > MaxNameLen {
		return apperrors.Newf(apperrors.CodeInvalidInput, "Board name must be between %d and %d characters", MinNameLen, MaxNameLen)
	}
	if utf8.RuneCountInString(b.Description) > MaxDescriptionLen {
		return apperrors.Newf(apperrors.CodeInvalidInput, "Board description must be at most %d characters", MaxDescriptionLen)
	}
	if b.TeamID == "" {
		return apperrors.New(apperrors.CodeInvalidInput, "Board requires a team")
	}
	return nil
}

// Column returns the column with the given id, or nil.
func (b *Board) Column(id carddomain.ColumnID) *Column {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return &b.Columns[i]
		}
	}
	return nil
}

// ColumnOf returns the column whose card order holds cardID.
func (b *Board) ColumnOf(cardID string) (carddomain.ColumnID, bool) {
	for _, col := range b.Columns {
		if col.CardOrder.Contains(cardID) {
			return col.ID, true
		}
	}
	return "", false
}

// CardIDs returns every card id referenced by the board, in column then display order.
func (b *Board) CardIDs() []string {
	var ids []string
	for _, col := range b.Columns {
		ids = append(ids, col.CardOrder...)
	}
	return ids
}

// Clone returns a deep copy.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	cp := *b
	cp.Columns = make([]Column, len(b.Columns))
	for i, col := range b.Columns {
		cp.Columns[i] = Column{ID: col.ID, Title: col.Title, CardOrder: append(CardOrder{}, col.CardOrder...)}
	}
	return &cp
}

func invalidColumn(id carddomain.ColumnID) error {
	return apperrors.Newf(apperrors.CodeInvalidColumn, "Invalid column %q", id).WithMetadata("column", string(id))
}
