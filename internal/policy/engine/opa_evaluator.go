package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
	log "github.com/sirupsen/logrus"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/policy/domain"
)

const (
	accessQuery      = "data.teamboard.access"
	teamRulesPackage = "data.teamboard.team_rules"
)

// Built-in access policy. Team modules may only add to teamboard.team_rules.deny.
const defaultRegoPolicy = `package teamboard.access

default allow := false

member_actions := {
	"team.read",
	"board.create",
	"board.read",
	"board.reconcile",
	"card.write",
	"invite.create",
	"invite.list",
}

owner_actions := {
	"team.edit",
	"team.delete",
	"team.add_member",
	"audit.read",
	"policy.manage",
	"board.edit",
	"board.delete",
}

is_member if input.member.role in {"owner", "admin", "member"}

allow if {
	is_member
	member_actions[input.action]
	not denied
}

allow if {
	input.member.role == "owner"
	owner_actions[input.action]
	not denied
}

# Owners can always manage policies, so a team rule cannot lock them out.
allow if {
	input.member.role == "owner"
	input.action == "policy.manage"
}

denied if count(data.teamboard.team_rules.deny) > 0

reasons contains msg if {
	some msg in data.teamboard.team_rules.deny
}
`

// PolicySource loads the enabled team policies.
type PolicySource interface {
	GetEnabledPoliciesByTeam(ctx context.Context, teamID string) ([]*domain.Policy, error)
}

// OPAEvaluator evaluates team access using OPA Rego.
type OPAEvaluator struct {
	policies PolicySource
	logger   log.FieldLogger
}

// NewOPAEvaluator returns an OPA-based evaluator. policies may be nil; then only the
// built-in policy applies.
func NewOPAEvaluator(policies PolicySource, logger log.FieldLogger) *OPAEvaluator {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &OPAEvaluator{policies: policies, logger: logger.WithField("component", "policy")}
}

// HealthCheck verifies that the in-process OPA Rego engine can compile and evaluate the default policy.
// Does not call the policy repo or database. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	d, err := e.evaluate(ctx, map[string]string{"access.rego": defaultRegoPolicy}, buildInput(Input{
		UserID: "health",
		TeamID: "health",
		Role:   "member",
		Action: ActionBoardRead,
	}))
	if err != nil {
		return err
	}
	if !d.Allowed {
		return errors.New("default policy denied a member read")
	}
	return nil
}

// Allow evaluates the built-in policy together with the team's enabled policies.
// A failure to load team policies is an error rather than a silent allow.
func (e *OPAEvaluator) Allow(ctx context.Context, in Input) (Decision, error) {
	modules := map[string]string{"access.rego": defaultRegoPolicy}
	if e.policies != nil && in.TeamID != "" {
		enabled, err := e.policies.GetEnabledPoliciesByTeam(ctx, in.TeamID)
		if err != nil {
			return Decision{}, fmt.Errorf("load team policies: %w", err)
		}
		for _, p := range enabled {
			if p.Enabled && p.Rules != "" {
				modules["team_"+p.ID+".rego"] = p.Rules
			}
		}
	}
	d, err := e.evaluate(ctx, modules, buildInput(in))
	if err != nil {
		return Decision{}, err
	}
	if !d.Allowed {
		e.logger.WithFields(log.Fields{
			"team_id": in.TeamID,
			"user_id": in.UserID,
			"action":  string(in.Action),
			"reasons": d.Reasons,
		}).Debug("policy: denied")
	}
	return d, nil
}

func buildInput(in Input) map[string]interface{} {
	return map[string]interface{}{
		"action": string(in.Action),
		"user":   map[string]interface{}{"id": in.UserID},
		"team":   map[string]interface{}{"id": in.TeamID},
		"member": map[string]interface{}{"role": string(in.Role)},
	}
}

func (e *OPAEvaluator) evaluate(ctx context.Context, modules map[string]string, input map[string]interface{}) (Decision, error) {
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return Decision{}, fmt.Errorf("compile policies: %w", err)
	}
	rs, err := rego.New(
		rego.Query(accessQuery),
		rego.Compiler(compiler),
		rego.Input(input),
	).Eval(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("eval policies: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Decision{}, errors.New("policy query returned no result")
	}
	doc, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{}, fmt.Errorf("unexpected policy result %T", rs[0].Expressions[0].Value)
	}
	var d Decision
	d.Allowed, _ = doc["allow"].(bool)
	if reasons, ok := doc["reasons"].([]interface{}); ok {
		for _, r := range reasons {
			if s, ok := r.(string); ok {
				d.Reasons = append(d.Reasons, s)
			}
		}
	}
	return d, nil
}

// ValidateTeamModule checks that rules is a Rego module in package teamboard.team_rules
// whose deny rules build a set, and that it compiles against the built-in policy.
func ValidateTeamModule(rules string) error {
	mod, err := ast.ParseModule("team.rego", rules)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if mod == nil {
		return errors.New("empty module")
	}
	if got := mod.Package.Path.String(); got != teamRulesPackage {
		return fmt.Errorf("package must be teamboard.team_rules, got %s", got)
	}
	for _, r := range mod.Rules {
		ref := r.Head.Ref()
		if len(ref) == 0 {
			continue
		}
		if ref[0].Value.String() == "deny" && r.Head.RuleKind() != ast.MultiValue {
			return errors.New(`deny must be a set rule, e.g. deny contains "reason" if { ... }`)
		}
	}
	if _, err := ast.CompileModules(map[string]string{"access.rego": defaultRegoPolicy, "team.rego": rules}); err != nil {
		return fmt.Errorf("compile: %w", err)
	}
	return nil
}
