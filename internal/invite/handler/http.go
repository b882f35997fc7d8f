// Package handler serves team invitations over HTTP.
package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/invite/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/invite/service"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/httpx"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/rbac"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/policy/engine"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/server/interceptors"
	teamdomain "github.com/Piyush-Singh-Chauhan/team-board/internal/team/domain"
)

// InviteService is the invite use-case surface the handler drives.
type InviteService interface {
	CreateInvite(ctx context.Context, in service.CreateInviteInput) (*domain.Invite, error)
	ListMyPendingInvites(ctx context.Context, userID string) ([]*service.PendingInvite, error)
	ListTeamInvites(ctx context.Context, teamID string) ([]*domain.Invite, error)
	RespondToInvite(ctx context.Context, inviteID, actorID, action string) (*service.RespondResult, error)
}

// Handler serves invitation routes.
type Handler struct {
	invites InviteService
	members rbac.TeamMemberGetter
	access  engine.Evaluator
}

// NewHandler returns an invitation handler.
func NewHandler(invites InviteService, members rbac.TeamMemberGetter, access engine.Evaluator) *Handler {
	return &Handler{invites: invites, members: members, access: access}
}

// Register mounts the routes on g, which is expected to sit behind bearer auth.
func (h *Handler) Register(g *echo.Group) {
	g.POST("/teams/:teamId/invitations", h.createInvite)
	g.GET("/teams/:teamId/invitations", h.listTeamInvites)
	g.GET("/invitations", h.listMyInvites)
	g.PATCH("/invitations/:inviteId", h.respond)
}

type inviteJSON struct {
	ID          string     `json:"id"`
	TeamID      string     `json:"teamId"`
	InviterID   string     `json:"inviterId"`
	InviteeID   string     `json:"inviteeId"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toInviteJSON(inv *domain.Invite) inviteJSON {
	return inviteJSON{
		ID:          inv.ID,
		TeamID:      inv.TeamID,
		InviterID:   inv.InviterID,
		InviteeID:   inv.InviteeID,
		Email:       inv.Email,
		Role:        string(inv.Role),
		Status:      string(inv.Status),
		ExpiresAt:   inv.ExpiresAt,
		RespondedAt: inv.RespondedAt,
		CreatedAt:   inv.CreatedAt,
	}
}

func toInviteList(invites []*domain.Invite) []inviteJSON {
	out := make([]inviteJSON, 0, len(invites))
	for _, inv := range invites {
		out = append(out, toInviteJSON(inv))
	}
	return out
}

type teamRefJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type userRefJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// pendingInviteJSON is what the invitee sees: who invited them to which team.
// team and inviter are null when the record is gone.
type pendingInviteJSON struct {
	inviteJSON
	Team    *teamRefJSON `json:"team"`
	Inviter *userRefJSON `json:"inviter"`
}

func toPendingInviteList(invites []*service.PendingInvite) []pendingInviteJSON {
	out := make([]pendingInviteJSON, 0, len(invites))
	for _, p := range invites {
		v := pendingInviteJSON{inviteJSON: toInviteJSON(p.Invite)}
		if p.Team != nil {
			v.Team = &teamRefJSON{ID: p.Team.ID, Name: p.Team.Name, Description: p.Team.Description}
		}
		if p.Inviter != nil {
			v.Inviter = &userRefJSON{ID: p.Inviter.ID, Name: p.Inviter.Name, Email: p.Inviter.Email}
		}
		out = append(out, v)
	}
	return out
}

type createInviteRequest struct {
	InviteeID string `json:"inviteeId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type respondRequest struct {
	Action string `json:"action"`
}

type respondJSON struct {
	InviteID string `json:"inviteId"`
	Status   string `json:"status"`
}

func (h *Handler) createInvite(c echo.Context) error {
	teamID := c.Param("teamId")
	userID, err := rbac.RequireTeamAction(c.Request().Context(), h.members, h.access, teamID, engine.ActionInviteCreate)
	if err != nil {
		return err
	}
	var req createInviteRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	if req.InviteeID == "" && req.Email == "" {
		return apperrors.New(apperrors.CodeInvalidInput, "Invitee is required")
	}
	inv, err := h.invites.CreateInvite(c.Request().Context(), service.CreateInviteInput{
		TeamID:    teamID,
		InviterID: userID,
		InviteeID: req.InviteeID,
		Email:     req.Email,
		Role:      teamdomain.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return httpx.OK(c, http.StatusCreated, "Invitation sent successfully", toInviteJSON(inv))
}

func (h *Handler) listTeamInvites(c echo.Context) error {
	teamID := c.Param("teamId")
	if _, err := rbac.RequireTeamAction(c.Request().Context(), h.members, h.access, teamID, engine.ActionInviteList); err != nil {
		return err
	}
	invites, err := h.invites.ListTeamInvites(c.Request().Context(), teamID)
	if err != nil {
		return err
	}
	return httpx.OK(c, http.StatusOK, "", toInviteList(invites))
}

func (h *Handler) listMyInvites(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return err
	}
	invites, err := h.invites.ListMyPendingInvites(ctx, userID)
	if err != nil {
		return err
	}
	return httpx.OK(c, http.StatusOK, "", toPendingInviteList(invites))
}

// respond skips the team guard: the invitee is not a member yet, and the service
// checks that the caller is the invitee.
func (h *Handler) respond(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return err
	}
	var req respondRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	res, err := h.invites.RespondToInvite(ctx, c.Param("inviteId"), userID, req.Action)
	if err != nil {
		return err
	}
	interceptors.SetTeamID(ctx, res.TeamID)
	return httpx.OK(c, http.StatusOK, fmt.Sprintf("Invite %s successfully", res.Status), respondJSON{
		InviteID: res.InviteID,
		Status:   string(res.Status),
	})
}
