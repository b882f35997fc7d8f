package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/db"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/invite/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
	teamdomain "github.com/Piyush-Singh-Chauhan/team-board/internal/team/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry"
	telemetrydomain "github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry/domain"
	userdomain "github.com/Piyush-Singh-Chauhan/team-board/internal/user/domain"
)

// InviteRepo is the invite persistence the service needs.
type InviteRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Invite, error)
	ListByInvitee(ctx context.Context, inviteeID string, statuses ...domain.Status) ([]*domain.Invite, error)
	ListByTeam(ctx context.Context, teamID string) ([]*domain.Invite, error)
	FindPending(ctx context.Context, teamID, inviteeID string) (*domain.Invite, error)
	Create(ctx context.Context, inv *domain.Invite) error
	Transition(ctx context.Context, id string, status domain.Status, respondedAt time.Time) error
}

// TeamStore is the part of the team repository the invite flow uses.
type TeamStore interface {
	GetByID(ctx context.Context, id string) (*teamdomain.Team, error)
	AddMember(ctx context.Context, teamID string, m teamdomain.Member) (bool, error)
}

// UserDirectory resolves invitees.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// Service runs the invite lifecycle. Expiry is applied lazily whenever an invite is read.
type Service struct {
	invites InviteRepo
	teams   TeamStore
	users   UserDirectory
	tx      db.Transactor
	events  telemetry.EventEmitter
	logger  log.FieldLogger
	ttl     time.Duration
	now     func() time.Time
	newID   func() string

	transitions metric.Int64Counter
}

// NewService returns an invite Service. A non-positive ttl falls back to domain.DefaultTTL.
func NewService(invites InviteRepo, teams TeamStore, users UserDirectory, tx db.Transactor, events telemetry.EventEmitter, logger log.FieldLogger, ttl time.Duration) *Service {
	if tx == nil {
		tx = db.NoTx{}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	if ttl <= 0 {
		ttl = domain.DefaultTTL
	}
	transitions, _ := otel.Meter("team-board/invite").Int64Counter("invite.transitions",
		metric.WithDescription("Invites moved out of pending, by resulting status"))
	return &Service{
		invites:     invites,
		teams:       teams,
		users:       users,
		tx:          tx,
		events:      events,
		logger:      logger.WithField("component", "invite"),
		ttl:         ttl,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
		transitions: transitions,
	}
}

func (s *Service) emit(ctx context.Context, typ telemetrydomain.EventType, inv *domain.Invite, userID string) {
	if s.events == nil {
		return
	}
	ev := telemetrydomain.NewEvent(typ, userID)
	ev.TeamID, ev.InviteID = inv.TeamID, inv.ID
	ev.WithPayload(map[string]string{"inviteeId": inv.InviteeID, "role": string(inv.Role), "status": string(inv.Status)})
	telemetry.EmitAsync(s.events, ctx, ev)
}

func inviteNotFound(id string) error {
	return apperrors.New(apperrors.CodeInviteNotFound, "Invitation not found").WithMetadata("invite_id", id)
}

// expireIfDue persists the lazy expiry of inv. If another request moved the invite
// out of pending first, inv is refreshed from storage instead.
func (s *Service) expireIfDue(ctx context.Context, inv *domain.Invite) error {
	if !domain.EnsureNotExpired(inv, s.now()) {
		return nil
	}
	err := s.invites.Transition(ctx, inv.ID, domain.StatusExpired, *inv.RespondedAt)
	switch {
	case err == nil:
		s.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(domain.StatusExpired))))
		s.emit(ctx, telemetrydomain.EventInviteExpired, inv, "")
		return nil
	case errors.Is(err, domain.ErrNotPending):
		return s.refresh(ctx, inv)
	default:
		return apperrors.Internal("Failed to expire invite", err)
	}
}

func (s *Service) refresh(ctx context.Context, inv *domain.Invite) error {
	stored, err := s.invites.GetByID(ctx, inv.ID)
	if err != nil {
		return apperrors.Internal("Failed to load invite", err)
	}
	if stored == nil {
		return inviteNotFound(inv.ID)
	}
	*inv = *stored
	return nil
}

// CreateInviteInput identifies the invitee by id or, failing that, by email.
type CreateInviteInput struct {
	TeamID    string
	InviterID string
	InviteeID string
	Email     string
	Role      teamdomain.Role
}

// CreateInvite sends a pending invite. A second pending invite for the same
// (team, invitee) is rejected by the store's uniqueness guarantee.
func (s *Service) CreateInvite(ctx context.Context, in CreateInviteInput) (*domain.Invite, error) {
	team, err := s.teams.GetByID(ctx, in.TeamID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load team", err)
	}
	if team == nil {
		return nil, apperrors.New(apperrors.CodeTeamNotFound, "Team not found")
	}

	var invitee *userdomain.User
	switch {
	case in.InviteeID != "":
		invitee, err = s.users.GetByID(ctx, in.InviteeID)
	case in.Email != "":
		invitee, err = s.users.GetByEmail(ctx, userdomain.NormalizeEmail(in.Email))
	default:
		return nil, apperrors.New(apperrors.CodeInvalidInput, "Invitee is required")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to look up invitee", err)
	}
	if invitee == nil {
		return nil, apperrors.New(apperrors.CodeUserNotFound, "User not found")
	}

	now := s.now()
	inv, err := domain.NewInvite(domain.NewInviteInput{
		TeamID:    in.TeamID,
		InviterID: in.InviterID,
		InviteeID: invitee.ID,
		Email:     invitee.Email,
		Role:      in.Role,
	}, now, s.ttl, s.newID())
	if err != nil {
		return nil, err
	}
	if team.HasMember(invitee.ID) {
		return nil, apperrors.New(apperrors.CodeAlreadyMember, "User is already a member of this team").
			WithMetadata("user_id", invitee.ID)
	}

	// An expired invite still stored as pending would otherwise block the new one.
	existing, err := s.invites.FindPending(ctx, in.TeamID, invitee.ID)
	if err != nil {
		return nil, apperrors.Internal("Failed to look up pending invite", err)
	}
	if existing != nil {
		if err := s.expireIfDue(ctx, existing); err != nil {
			return nil, err
		}
	}

	if err := s.invites.Create(ctx, inv); err != nil {
		if errors.Is(err, domain.ErrDuplicatePending) {
			return nil, apperrors.New(apperrors.CodeDuplicatePendingInvite, "An invite is already pending for this user").
				WithMetadata("user_id", invitee.ID)
		}
		return nil, apperrors.Internal("Failed to create invite", err)
	}
	s.emit(ctx, telemetrydomain.EventInviteCreated, inv, in.InviterID)
	return inv, nil
}

// PendingInvite is an actionable invite with the team and inviter the invitee sees.
// Team or Inviter is nil when that record no longer exists.
type PendingInvite struct {
	*domain.Invite
	Team    *teamdomain.Team
	Inviter *userdomain.User
}

// ListMyPendingInvites returns the user's actionable invites. Each pending invite
// past its expiry is persisted as expired and left out.
func (s *Service) ListMyPendingInvites(ctx context.Context, userID string) ([]*PendingInvite, error) {
	invites, err := s.invites.ListByInvitee(ctx, userID, domain.StatusPending, domain.StatusAccepted)
	if err != nil {
		return nil, apperrors.Internal("Failed to list invites", err)
	}
	teams := make(map[string]*teamdomain.Team)
	inviters := make(map[string]*userdomain.User)
	out := make([]*PendingInvite, 0, len(invites))
	for _, inv := range invites {
		if err := s.expireIfDue(ctx, inv); err != nil {
			return nil, err
		}
		if inv.Status != domain.StatusPending {
			continue
		}
		team, ok := teams[inv.TeamID]
		if !ok {
			if team, err = s.teams.GetByID(ctx, inv.TeamID); err != nil {
				return nil, apperrors.Internal("Failed to load team", err)
			}
			teams[inv.TeamID] = team
		}
		inviter, ok := inviters[inv.InviterID]
		if !ok {
			if inviter, err = s.users.GetByID(ctx, inv.InviterID); err != nil {
				return nil, apperrors.Internal("Failed to load inviter", err)
			}
			inviters[inv.InviterID] = inviter
		}
		out = append(out, &PendingInvite{Invite: inv, Team: team, Inviter: inviter})
	}
	return out, nil
}

// ListTeamInvites returns every invite of the team with lazy expiry applied.
func (s *Service) ListTeamInvites(ctx context.Context, teamID string) ([]*domain.Invite, error) {
	invites, err := s.invites.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, apperrors.Internal("Failed to list invites", err)
	}
	for _, inv := range invites {
		if err := s.expireIfDue(ctx, inv); err != nil {
			return nil, err
		}
	}
	return invites, nil
}

// RespondResult is what RespondToInvite reports back.
type RespondResult struct {
	InviteID string
	TeamID   string
	Status   domain.Status
}

// RespondToInvite accepts or declines an invite on behalf of its invitee. Accepting
// adds the invitee to the team with the invited role.
func (s *Service) RespondToInvite(ctx context.Context, inviteID, actorID, action string) (*RespondResult, error) {
	inv, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load invite", err)
	}
	if inv == nil {
		return nil, inviteNotFound(inviteID)
	}
	if inv.InviteeID != actorID {
		return nil, apperrors.New(apperrors.CodeNotInvitee, "You are not authorized to respond to this invite")
	}
	if err := s.expireIfDue(ctx, inv); err != nil {
		return nil, err
	}
	if inv.Status != domain.StatusPending {
		return nil, domain.AlreadyResponded(inv.Status)
	}
	act, err := domain.ParseAction(action)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := inv.Respond(act, now); err != nil {
			return err
		}
		if err := s.invites.Transition(ctx, inv.ID, inv.Status, now); err != nil {
			if errors.Is(err, domain.ErrNotPending) {
				if rerr := s.refresh(ctx, inv); rerr != nil {
					return rerr
				}
				return domain.AlreadyResponded(inv.Status)
			}
			return apperrors.Internal("Failed to save invite", err)
		}
		if act == domain.ActionAccept {
			return s.EnsureMembership(ctx, inv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(inv.Status))))
	typ := telemetrydomain.EventInviteDeclined
	if inv.Status == domain.StatusAccepted {
		typ = telemetrydomain.EventInviteAccepted
	}
	s.emit(ctx, typ, inv, actorID)
	return &RespondResult{InviteID: inv.ID, TeamID: inv.TeamID, Status: inv.Status}, nil
}

// EnsureMembership adds the invitee of an accepted invite to the team unless already
// there. It is safe to run again on its own after a partial failure.
func (s *Service) EnsureMembership(ctx context.Context, inv *domain.Invite) error {
	if inv.Status != domain.StatusAccepted {
		return apperrors.New(apperrors.CodeInvalidInput, "Invite is not accepted")
	}
	team, err := s.teams.GetByID(ctx, inv.TeamID)
	if err != nil {
		return apperrors.Internal("Failed to load team", err)
	}
	if team == nil {
		return apperrors.New(apperrors.CodeTeamNotFound, "Team not found").WithMetadata("team_id", inv.TeamID)
	}
	if team.HasMember(inv.InviteeID) {
		return nil
	}
	inserted, err := s.teams.AddMember(ctx, inv.TeamID, teamdomain.Member{
		UserID:   inv.InviteeID,
		Role:     inv.Role,
		JoinedAt: s.now(),
	})
	if err != nil {
		return apperrors.Internal("Failed to add member", err)
	}
	if !inserted {
		s.logger.WithFields(log.Fields{"team_id": inv.TeamID, "user_id": inv.InviteeID}).
			Debug("invite: member already present")
	}
	return nil
}
