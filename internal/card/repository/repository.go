package repository

import (
	"context"
	"time"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/card/domain"
)

// Repository defines persistence for cards. Column placement is written only
// through SetColumn so detail edits never overwrite a concurrent move.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Card, error)
	ListByBoard(ctx context.Context, boardID string) ([]*domain.Card, error)
	// Create and Update return domain.ErrAssigneeNotFound for an unknown assignee.
	Create(ctx context.Context, c *domain.Card) error
	// Update writes title, description, assignee, due date and priority.
	Update(ctx context.Context, c *domain.Card) error
	// SetColumn writes column_id and status together and reports whether the card existed.
	SetColumn(ctx context.Context, id string, col domain.ColumnID, updatedAt time.Time) (bool, error)
	// Delete removes the card and reports whether a row existed.
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByBoard(ctx context.Context, boardID string) error
}
