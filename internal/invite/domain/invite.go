// Package domain holds the team invite state machine:
// pending -> accepted | declined | expired, with no way back out of a terminal state.
package domain

import (
	"errors"
	"time"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
	teamdomain "github.com/Piyush-Singh-Chauhan/team-board/internal/team/domain"
)

// DefaultTTL is how long an invite stays actionable.
const DefaultTTL = 7 * 24 * time.Hour

var (
	// ErrDuplicatePending is returned by the repository when the (team, invitee) pair already has a pending invite.
	ErrDuplicatePending = errors.New("pending invite already exists")
	// ErrNotPending is returned by the repository when a transition finds the invite already out of pending.
	ErrNotPending = errors.New("invite is no longer pending")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusExpired  Status = "expired"
)

func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusDeclined || s == StatusExpired
}

// Action is the invitee's response.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
)

// ParseAction accepts exactly "accept" or "decline"; anything else, including other
// casings, fails with INVALID_ACTION.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	switch a {
	case ActionAccept, ActionDecline:
		return a, nil
	}
	return "", apperrors.New(apperrors.CodeInvalidAction, "Invalid action. Allowed values are accept or decline")
}

// Outcome is the status an action leads to.
func (a Action) Outcome() Status {
	if a == ActionAccept {
		return StatusAccepted
	}
	return StatusDeclined
}

// Invite offers a team role to one user. Email is a snapshot taken when the invite was sent.
type Invite struct {
	ID          string
	TeamID      string
	InviterID   string
	InviteeID   string
	Email       string
	Role        teamdomain.Role
	Status      Status
	ExpiresAt   time.Time
	RespondedAt *time.Time
	CreatedAt   time.Time
}

// NewInviteInput holds the fields for a new invite. Role defaults to member.
type NewInviteInput struct {
	TeamID    string
	InviterID string
	InviteeID string
	Email     string
	Role      teamdomain.Role
}

// NewInvite returns a pending invite that expires ttl after now.
func NewInvite(in NewInviteInput, now time.Time, ttl time.Duration, id string) (*Invite, error) {
	role := in.Role
	if role == "" {
		role = teamdomain.RoleMember
	}
	if !role.Valid() || role == teamdomain.RoleOwner {
		return nil, apperrors.Newf(apperrors.CodeInvalidInput, "Invalid role %q", role)
	}
	if in.TeamID == "" || in.InviterID == "" || in.InviteeID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "Invite requires a team, an inviter and an invitee")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Invite{
		ID:        id,
		TeamID:    in.TeamID,
		InviterID: in.InviterID,
		InviteeID: in.InviteeID,
		Email:     in.Email,
		Role:      role,
		Status:    StatusPending,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}

// EnsureNotExpired moves a pending invite past its expiry to expired and reports
// whether it did. The caller persists the change.
func EnsureNotExpired(inv *Invite, now time.Time) bool {
	if inv == nil || inv.Status != StatusPending || !inv.ExpiresAt.Before(now) {
		return false
	}
	inv.Status = StatusExpired
	inv.RespondedAt = &now
	return true
}

// Respond applies the invitee's action to a pending invite.
func (inv *Invite) Respond(action Action, now time.Time) error {
	if inv.Status != StatusPending {
		return AlreadyResponded(inv.Status)
	}
	inv.Status = action.Outcome()
	inv.RespondedAt = &now
	return nil
}

// AlreadyResponded is the error for acting on an invite in a terminal state.
func AlreadyResponded(status Status) error {
	return apperrors.Newf(apperrors.CodeAlreadyResponded, "Invite already %s", status).
		WithMetadata("status", string(status))
}
