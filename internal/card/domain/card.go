// Package domain holds the card entity. Cards know their column but not their
// position; ordering lives on the board.
package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
)

// ErrAssigneeNotFound is returned by the repository when the assignee is not a known user.
var ErrAssigneeNotFound = errors.New("assignee does not exist")

// ColumnID identifies one of the fixed board columns.
type ColumnID string

const (
	ColumnTodo       ColumnID = "todo"
	ColumnInProgress ColumnID = "in-progress"
	ColumnDone       ColumnID = "done"
)

// Columns lists the fixed column set in display order.
var Columns = []ColumnID{ColumnTodo, ColumnInProgress, ColumnDone}

// Valid reports whether c is one of the fixed columns.
func (c ColumnID) Valid() bool {
	switch c {
	case ColumnTodo, ColumnInProgress, ColumnDone:
		return true
	}
	return false
}

// Priority is a card's priority.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 2000
)

// Card is a single task on a board. Status always mirrors ColumnID.
type Card struct {
	ID          string
	BoardID     string
	ColumnID    ColumnID
	Status      ColumnID
	Title       string
	Description string
	AssigneeID  string
	DueDate     *time.Time
	Priority    Priority
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SetColumn moves the card to col, keeping Status in step.
func (c *Card) SetColumn(col ColumnID) {
	c.ColumnID = col
	c.Status = col
}

// Validate checks field limits and the column/status invariant.
func (c *Card) Validate() error {
	c.Title = strings.TrimSpace(c.Title)
	if n := utf8.RuneCountInString(c.Title); n < 1 || n > MaxTitleLen {
		return apperrors.Newf(apperrors.CodeInvalidInput, "Title must be between 1 and %d characters", MaxTitleLen)
	}
	if utf8.RuneCountInString(c.Description) > MaxDescriptionLen {
		return apperrors.Newf(apperrors.CodeInvalidInput, "Description must be at most %d characters", MaxDescriptionLen)
	}
	if !c.ColumnID.Valid() {
		return apperrors.Newf(apperrors.CodeInvalidColumn, "Invalid column %q", c.ColumnID)
	}
	if c.Status != c.ColumnID {
		return apperrors.New(apperrors.CodeInvalidInput, "Status must match column")
	}
	if !c.Priority.Valid() {
		return apperrors.Newf(apperrors.CodeInvalidInput, "Invalid priority %q", c.Priority)
	}
	if c.BoardID == "" || c.CreatedBy == "" {
		return apperrors.New(apperrors.CodeInvalidInput, "Card requires a board and a creator")
	}
	return nil
}

// Clone returns a deep copy.
func (c *Card) Clone() *Card {
	if c == nil {
		return nil
	}
	cp := *c
	if c.DueDate != nil {
		d := *c.DueDate
		cp.DueDate = &d
	}
	return &cp
}
