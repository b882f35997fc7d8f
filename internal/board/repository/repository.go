package repository

import (
	"context"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/board/domain"
)

// Repository defines persistence for boards.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Board, error)
	ListByTeam(ctx context.Context, teamID string) ([]*domain.Board, error)
	Create(ctx context.Context, b *domain.Board) error
	// Update saves b if the stored version still equals b.Version, then increments b.Version.
	// Returns domain.ErrVersionConflict when the stored version has moved on or the row is gone.
	Update(ctx context.Context, b *domain.Board) error
	Delete(ctx context.Context, id string) error
}
