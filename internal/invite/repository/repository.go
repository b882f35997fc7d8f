package repository

import (
	"context"
	"time"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/invite/domain"
)

// Repository defines persistence for team invites.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Invite, error)
	// ListByInvitee returns the user's invites in any of the given statuses, newest first.
	ListByInvitee(ctx context.Context, inviteeID string, statuses ...domain.Status) ([]*domain.Invite, error)
	ListByTeam(ctx context.Context, teamID string) ([]*domain.Invite, error)
	// FindPending returns the stored pending invite for the pair, or nil.
	FindPending(ctx context.Context, teamID, inviteeID string) (*domain.Invite, error)
	// Create returns domain.ErrDuplicatePending when the pair already has a pending invite.
	Create(ctx context.Context, inv *domain.Invite) error
	// Transition moves a pending invite to status. It returns domain.ErrNotPending when the
	// stored invite has already left pending, so only one transition ever wins.
	Transition(ctx context.Context, id string, status domain.Status, respondedAt time.Time) error
	DeleteByTeam(ctx context.Context, teamID string) error
}
