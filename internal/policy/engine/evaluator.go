package engine

import (
	"context"

	teamdomain "github.com/Piyush-Singh-Chauhan/team-board/internal/team/domain"
)

// Action names an operation guarded by the access policy.
type Action string

const (
	ActionTeamRead      Action = "team.read"
	ActionTeamEdit      Action = "team.edit"
	ActionTeamDelete    Action = "team.delete"
	ActionTeamAddMember Action = "team.add_member"
	ActionAuditRead     Action = "audit.read"
	ActionPolicyManage  Action = "policy.manage"

	ActionBoardCreate    Action = "board.create"
	ActionBoardRead      Action = "board.read"
	ActionBoardEdit      Action = "board.edit"
	ActionBoardDelete    Action = "board.delete"
	ActionBoardReconcile Action = "board.reconcile"
	ActionCardWrite      Action = "card.write"

	ActionInviteCreate Action = "invite.create"
	ActionInviteList   Action = "invite.list"
)

// Input is what a policy decision is made on. Role is empty when the user is not a member.
type Input struct {
	UserID string
	TeamID string
	Role   teamdomain.Role
	Action Action
}

// Decision is the outcome of an evaluation. Reasons lists the messages of team deny rules that fired.
type Decision struct {
	Allowed bool
	Reasons []string
}

// Evaluator decides whether a team member may perform an action.
type Evaluator interface {
	Allow(ctx context.Context, in Input) (Decision, error)
}
