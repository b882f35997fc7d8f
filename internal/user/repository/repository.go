package repository

import (
	"context"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/user/domain"
)

// Repository defines read access to the user directory, plus Create for seeding.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}
