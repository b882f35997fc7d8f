// Package handler lets team owners manage their team's Rego policies over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/httpx"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/rbac"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/policy/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/policy/engine"
)

// Store persists team policies.
type Store interface {
	GetByID(ctx context.Context, id string) (*domain.Policy, error)
	ListByTeam(ctx context.Context, teamID string) ([]*domain.Policy, error)
	Create(ctx context.Context, p *domain.Policy) error
	Delete(ctx context.Context, id string) (bool, error)
}

// Handler serves /api/teams/:teamId/policies.
type Handler struct {
	policies Store
	members  rbac.TeamMemberGetter
	access   engine.Evaluator
	now      func() time.Time
	newID    func() string
}

// NewHandler returns a policy handler.
func NewHandler(policies Store, members rbac.TeamMemberGetter, access engine.Evaluator) *Handler {
	return &Handler{
		policies: policies,
		members:  members,
		access:   access,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Register mounts the routes on g, which is expected to sit behind bearer auth.
func (h *Handler) Register(g *echo.Group) {
	g.POST("/teams/:teamId/policies", h.createPolicy)
	g.GET("/teams/:teamId/policies", h.listPolicies)
	g.DELETE("/teams/:teamId/policies/:policyId", h.deletePolicy)
}

type policyJSON struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"teamId"`
	Name      string    `json:"name"`
	Rules     string    `json:"rules"`
	Enabled   bool      `json:"enabled"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

func toPolicyJSON(p *domain.Policy) policyJSON {
	return policyJSON{
		ID:        p.ID,
		TeamID:    p.TeamID,
		Name:      p.Name,
		Rules:     p.Rules,
		Enabled:   p.Enabled,
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt,
	}
}

type createPolicyRequest struct {
	Name  string `json:"name"`
	Rules string `json:"rules"`
}

func (h *Handler) guard(c echo.Context) (string, string, error) {
	teamID := c.Param("teamId")
	userID, err := rbac.RequireTeamAction(c.Request().Context(), h.members, h.access, teamID, engine.ActionPolicyManage)
	return teamID, userID, err
}

func (h *Handler) createPolicy(c echo.Context) error {
	teamID, userID, err := h.guard(c)
	if err != nil {
		return err
	}
	var req createPolicyRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	p := domain.NewPolicy(h.newID(), teamID, req.Name, req.Rules, userID, h.now())
	if p.Name == "" || utf8.RuneCountInString(p.Name) > domain.MaxNameLen {
		return apperrors.Newf(apperrors.CodeInvalidInput, "Policy name must be between 1 and %d characters", domain.MaxNameLen)
	}
	if err := engine.ValidateTeamModule(p.Rules); err != nil {
		return apperrors.New(apperrors.CodeInvalidInput, "Invalid policy rules").WithMetadata("reason", err.Error())
	}
	if err := h.policies.Create(c.Request().Context(), p); err != nil {
		return apperrors.Internal("Failed to save policy", err)
	}
	return httpx.OK(c, http.StatusCreated, "Policy created successfully", toPolicyJSON(p))
}

func (h *Handler) listPolicies(c echo.Context) error {
	teamID, _, err := h.guard(c)
	if err != nil {
		return err
	}
	policies, err := h.policies.ListByTeam(c.Request().Context(), teamID)
	if err != nil {
		return apperrors.Internal("Failed to list policies", err)
	}
	out := make([]policyJSON, 0, len(policies))
	for _, p := range policies {
		out = append(out, toPolicyJSON(p))
	}
	return httpx.OK(c, http.StatusOK, "", out)
}

func (h *Handler) deletePolicy(c echo.Context) error {
	teamID, _, err := h.guard(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	policyID := c.Param("policyId")
	notFound := apperrors.New(apperrors.CodePolicyNotFound, "Policy not found").WithMetadata("policy_id", policyID)
	p, err := h.policies.GetByID(ctx, policyID)
	if err != nil {
		return apperrors.Internal("Failed to load policy", err)
	}
	// A policy of another team is reported as missing.
	if p == nil || p.TeamID != teamID {
		return notFound
	}
	deleted, err := h.policies.Delete(ctx, policyID)
	if err != nil {
		return apperrors.Internal("Failed to delete policy", err)
	}
	if !deleted {
		return notFound
	}
	return httpx.OK(c, http.StatusOK, "Policy deleted successfully", nil)
}
