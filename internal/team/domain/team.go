// Package domain holds the team aggregate: a named group of users with roles.
package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

const (
	MinNameLen        = 2
	MaxNameLen        = 100
	MaxDescriptionLen = 200
)

// Member links a user to a team with a role.
type Member struct {
	UserID   string
	Role     Role
	JoinedAt time.Time
}

// Team has at least one member, its creator as owner, from creation on.
type Team struct {
	ID          string
	Name        string
	Description string
	CreatedBy   string
	Members     []Member
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTeam returns a team whose only member is the creator, as owner.
func NewTeam(id, name, description, createdBy string, now time.Time) (*Team, error) {
	t := &Team{
		ID:          id,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		CreatedBy:   createdBy,
		Members:     []Member{{UserID: createdBy, Role: RoleOwner, JoinedAt: now}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the name and description limits.
func (t *Team) Validate() error {
	if n := utf8.RuneCountInString(t.Name); n < MinNameLen || n > MaxNameLen {
		return apperrors.Newf(apperrors.CodeInvalidInput, "Team name must be between %d and %d characters", MinNameLen, MaxNameLen)
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLen {
		return apperrors.Newf(apperrors.CodeInvalidInput, "Team description must be at most %d characters", MaxDescriptionLen)
	}
	if t.CreatedBy == "" {
		return apperrors.New(apperrors.CodeInvalidInput, "Team requires a creator")
	}
	return nil
}

// MemberRole returns the user's role on the team.
func (t *Team) MemberRole(userID string) (Role, bool) {
	for _, m := range t.Members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

func (t *Team) HasMember(userID string) bool {
	_, ok := t.MemberRole(userID)
	return ok
}
