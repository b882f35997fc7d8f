package repository

import (
	"context"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/policy/domain"
)

// Repository defines persistence for team policies.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Policy, error)
	ListByTeam(ctx context.Context, teamID string) ([]*domain.Policy, error)
	GetEnabledPoliciesByTeam(ctx context.Context, teamID string) ([]*domain.Policy, error)
	Create(ctx context.Context, p *domain.Policy) error
	Delete(ctx context.Context, id string) (bool, error)
}
