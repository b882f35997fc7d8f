package rbac

import (
	"context"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/policy/engine"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/server/interceptors"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/team/domain"
)

// TeamMemberGetter returns a user's membership in a team, or nil if the user is not a member.
type TeamMemberGetter interface {
	GetMember(ctx context.Context, teamID, userID string) (*domain.Member, error)
}

// RequireUser returns the authenticated caller's id.
func RequireUser(ctx context.Context) (string, error) {
	userID, ok := interceptors.GetUserID(ctx)
	if !ok || userID == "" {
		return "", apperrors.New(apperrors.CodeUnauthenticated, "User context required")
	}
	return userID, nil
}

// RequireTeamMember ensures the caller is authenticated and a member of teamID (any role).
// It records the team on the request scope for auditing. Returns the caller's id and membership.
func RequireTeamMember(ctx context.Context, getter TeamMemberGetter, teamID string) (string, *domain.Member, error) {
	userID, err := RequireUser(ctx)
	if err != nil {
		return "", nil, err
	}
	m, err := getter.GetMember(ctx, teamID, userID)
	if err != nil {
		if apperrors.As(err) != nil {
			return "", nil, err
		}
		return "", nil, apperrors.Internal("Failed to resolve membership", err)
	}
	if m == nil {
		return "", nil, apperrors.New(apperrors.CodeForbidden, "You are not a member of this team").
			WithMetadata("team_id", teamID)
	}
	interceptors.SetTeamID(ctx, teamID)
	return userID, m, nil
}

// RequireTeamAction ensures the caller is a member of teamID and that the access policy
// allows action for their role. Returns the caller's id.
func RequireTeamAction(ctx context.Context, getter TeamMemberGetter, evaluator engine.Evaluator, teamID string, action engine.Action) (string, error) {
	userID, m, err := RequireTeamMember(ctx, getter, teamID)
	if err != nil {
		return "", err
	}
	d, err := evaluator.Allow(ctx, engine.Input{
		UserID: userID,
		TeamID: teamID,
		Role:   m.Role,
		Action: action,
	})
	if err != nil {
		return "", apperrors.Internal("Failed to evaluate access policy", err)
	}
	if !d.Allowed {
		e := apperrors.New(apperrors.CodeForbidden, forbiddenMessage(action)).
			WithMetadata("action", string(action))
		if len(d.Reasons) > 0 {
			e = e.WithMetadata("reason", d.Reasons[0])
		}
		return "", e
	}
	return userID, nil
}

func forbiddenMessage(action engine.Action) string {
	switch action {
	case engine.ActionTeamEdit, engine.ActionTeamDelete, engine.ActionTeamAddMember,
		engine.ActionBoardEdit, engine.ActionBoardDelete, engine.ActionAuditRead, engine.ActionPolicyManage:
		return "Only team owners can perform this action"
	default:
		return "You are not allowed to perform this action"
	}
}
