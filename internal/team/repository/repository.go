package repository

import (
	"context"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/team/domain"
)

// Repository defines persistence for teams and their members.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Team, error)
	// Create writes the team and its initial members. Run it inside a transaction.
	Create(ctx context.Context, t *domain.Team) error
	Update(ctx context.Context, t *domain.Team) error
	Delete(ctx context.Context, id string) error
	// AddMember inserts m unless the user is already a member, and reports whether it inserted.
	AddMember(ctx context.Context, teamID string, m domain.Member) (bool, error)
	GetMember(ctx context.Context, teamID, userID string) (*domain.Member, error)
}
