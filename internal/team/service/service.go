package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/db"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/team/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry"
	telemetrydomain "github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry/domain"
	userdomain "github.com/Piyush-Singh-Chauhan/team-board/internal/user/domain"
)

// TeamRepo is the team persistence the service needs.
type TeamRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Team, error)
	Create(ctx context.Context, t *domain.Team) error
	Update(ctx context.Context, t *domain.Team) error
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, teamID string, m domain.Member) (bool, error)
	GetMember(ctx context.Context, teamID, userID string) (*domain.Member, error)
}

// UserDirectory resolves users by email.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// BoardCascade deletes a team's boards and their cards.
type BoardCascade interface {
	DeleteBoardsByTeam(ctx context.Context, teamID string) error
}

// InviteCascade deletes a team's invites.
type InviteCascade interface {
	DeleteByTeam(ctx context.Context, teamID string) error
}

// Service manages teams and membership.
type Service struct {
	teams   TeamRepo
	users   UserDirectory
	boards  BoardCascade
	invites InviteCascade
	tx      db.Transactor
	events  telemetry.EventEmitter
	logger  log.FieldLogger
	now     func() time.Time
	newID   func() string
}

// NewService returns a team Service. boards and invites may be nil when nothing cascades.
func NewService(teams TeamRepo, users UserDirectory, boards BoardCascade, invites InviteCascade, tx db.Transactor, events telemetry.EventEmitter, logger log.FieldLogger) *Service {
	if tx == nil {
		tx = db.NoTx{}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{
		teams:   teams,
		users:   users,
		boards:  boards,
		invites: invites,
		tx:      tx,
		events:  events,
		logger:  logger.WithField("component", "team"),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

func teamNotFound(id string) error {
	return apperrors.New(apperrors.CodeTeamNotFound, "Team not found").WithMetadata("team_id", id)
}

func (s *Service) emit(ctx context.Context, typ telemetrydomain.EventType, teamID, userID string, payload any) {
	if s.events == nil {
		return
	}
	ev := telemetrydomain.NewEvent(typ, userID)
	ev.TeamID = teamID
	if payload != nil {
		ev.WithPayload(payload)
	}
	telemetry.EmitAsync(s.events, ctx, ev)
}

// CreateTeam creates a team with the caller as its owner.
func (s *Service) CreateTeam(ctx context.Context, name, description, userID string) (*domain.Team, error) {
	t, err := domain.NewTeam(s.newID(), name, description, userID, s.now())
	if err != nil {
		return nil, err
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.teams.Create(ctx, t)
	})
	if err != nil {
		return nil, apperrors.Internal("Failed to create team", err)
	}
	s.emit(ctx, telemetrydomain.EventTeamCreated, t.ID, userID, map[string]string{"name": t.Name})
	return t, nil
}

// GetTeam returns the team with its members.
func (s *Service) GetTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	t, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load team", err)
	}
	if t == nil {
		return nil, teamNotFound(teamID)
	}
	return t, nil
}

// ListTeams returns the teams the user belongs to.
func (s *Service) ListTeams(ctx context.Context, userID string) ([]*domain.Team, error) {
	teams, err := s.teams.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Failed to list teams", err)
	}
	return teams, nil
}

// GetMember returns the user's membership, or nil when the user is not on the team.
// A team that does not exist is reported as TEAM_NOT_FOUND.
func (s *Service) GetMember(ctx context.Context, teamID, userID string) (*domain.Member, error) {
	m, err := s.teams.GetMember(ctx, teamID, userID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load membership", err)
	}
	if m != nil {
		return m, nil
	}
	if _, err := s.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	return nil, nil
}

// EditTeamInput holds the optional team fields to change.
type EditTeamInput struct {
	Name        *string
	Description *string
}

// EditTeam changes the team name or description.
func (s *Service) EditTeam(ctx context.Context, teamID string, in EditTeamInput, userID string) (*domain.Team, error) {
	t, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		t.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	t.UpdatedAt = s.now()
	if err := s.teams.Update(ctx, t); err != nil {
		return nil, apperrors.Internal("Failed to update team", err)
	}
	s.emit(ctx, telemetrydomain.EventTeamUpdated, t.ID, userID, nil)
	return t, nil
}

// AddMemberByEmail adds an existing user to the team directly, without an invite.
func (s *Service) AddMemberByEmail(ctx context.Context, teamID, email string, role domain.Role, actorID string) (*domain.Member, error) {
	if role == "" {
		role = domain.RoleMember
	}
	if !role.Valid() || role == domain.RoleOwner {
		return nil, apperrors.Newf(apperrors.CodeInvalidInput, "Invalid role %q", role)
	}
	t, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, userdomain.NormalizeEmail(email))
	if err != nil {
		return nil, apperrors.Internal("Failed to look up user", err)
	}
	if u == nil {
		return nil, apperrors.New(apperrors.CodeUserNotFound, "User not found")
	}
	alreadyMember := apperrors.New(apperrors.CodeAlreadyMember, "User is already a team member").WithMetadata("user_id", u.ID)
	if t.HasMember(u.ID) {
		return nil, alreadyMember
	}
	m := domain.Member{UserID: u.ID, Role: role, JoinedAt: s.now()}
	inserted, err := s.teams.AddMember(ctx, teamID, m)
	if err != nil {
		return nil, apperrors.Internal("Failed to add member", err)
	}
	if !inserted {
		return nil, alreadyMember
	}
	s.emit(ctx, telemetrydomain.EventTeamMemberAdded, teamID, actorID, map[string]string{"memberId": u.ID, "role": string(role)})
	return &m, nil
}

// DeleteTeam removes the team with its boards, cards and invites in one transaction.
func (s *Service) DeleteTeam(ctx context.Context, teamID, actorID string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.GetTeam(ctx, teamID); err != nil {
			return err
		}
		if s.boards != nil {
			if err := s.boards.DeleteBoardsByTeam(ctx, teamID); err != nil {
				return err
			}
		}
		if s.invites != nil {
			if err := s.invites.DeleteByTeam(ctx, teamID); err != nil {
				return apperrors.Internal("Failed to delete team invites", err)
			}
		}
		if err := s.teams.Delete(ctx, teamID); err != nil {
			return apperrors.Internal("Failed to delete team", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.WithField("team_id", teamID).Info("team: deleted")
	s.emit(ctx, telemetrydomain.EventTeamDeleted, teamID, actorID, nil)
	return nil
}
