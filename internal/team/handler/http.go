// Package handler serves teams, their members and their audit trail over HTTP.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	auditdomain "github.com/Piyush-Singh-Chauhan/team-board/internal/audit/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/httpx"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/rbac"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/policy/engine"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/server/interceptors"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/team/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/team/service"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// TeamService is the team use-case surface the handler drives.
type TeamService interface {
	CreateTeam(ctx context.Context, name, description, userID string) (*domain.Team, error)
	GetTeam(ctx context.Context, teamID string) (*domain.Team, error)
	ListTeams(ctx context.Context, userID string) ([]*domain.Team, error)
	GetMember(ctx context.Context, teamID, userID string) (*domain.Member, error)
	EditTeam(ctx context.Context, teamID string, in service.EditTeamInput, userID string) (*domain.Team, error)
	AddMemberByEmail(ctx context.Context, teamID, email string, role domain.Role, actorID string) (*domain.Member, error)
	DeleteTeam(ctx context.Context, teamID, actorID string) error
}

// AuditLister reads a team's audit trail, newest first.
type AuditLister interface {
	ListByTeam(ctx context.Context, teamID string, limit, offset int32) ([]*auditdomain.AuditLog, error)
}

// Handler serves /api/teams.
type Handler struct {
	teams  TeamService
	access engine.Evaluator
	audit  AuditLister
}

// NewHandler returns a team handler. audit may be nil, in which case the audit route reports no entries.
func NewHandler(teams TeamService, access engine.Evaluator, audit AuditLister) *Handler {
	return &Handler{teams: teams, access: access, audit: audit}
}

// Register mounts the routes on g, which is expected to sit behind bearer auth.
func (h *Handler) Register(g *echo.Group) {
	g.POST("/teams", h.createTeam)
	g.GET("/teams", h.listTeams)
	g.GET("/teams/:teamId", h.getTeam)
	g.PUT("/teams/:teamId", h.editTeam)
	g.DELETE("/teams/:teamId", h.deleteTeam)
	g.POST("/teams/:teamId/members", h.addMember)
	g.GET("/teams/:teamId/audit", h.listAudit)
}

type memberJSON struct {
	UserID   string    `json:"userId"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

type teamJSON struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	CreatedBy   string       `json:"createdBy"`
	Members     []memberJSON `json:"members"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func toMemberJSON(m domain.Member) memberJSON {
	return memberJSON{UserID: m.UserID, Role: string(m.Role), JoinedAt: m.JoinedAt}
}

func toTeamJSON(t *domain.Team) teamJSON {
	out := teamJSON{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		CreatedBy:   t.CreatedBy,
		Members:     make([]memberJSON, 0, len(t.Members)),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	for _, m := range t.Members {
		out.Members = append(out.Members, toMemberJSON(m))
	}
	return out
}

type auditJSON struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type teamRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type addMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *Handler) guard(c echo.Context, action engine.Action) (string, string, error) {
	teamID := c.Param("teamId")
	userID, err := rbac.RequireTeamAction(c.Request().Context(), h.teams, h.access, teamID, action)
	return teamID, userID, err
}

func (h *Handler) createTeam(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return err
	}
	var req teamRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	if req.Name == nil {
		return apperrors.New(apperrors.CodeInvalidInput, "Team name is required")
	}
	var description string
	if req.Description != nil {
		description = *req.Description
	}
	t, err := h.teams.CreateTeam(ctx, *req.Name, description, userID)
	if err != nil {
		return err
	}
	interceptors.SetTeamID(ctx, t.ID)
	return httpx.OK(c, http.StatusCreated, "Team created successfully", toTeamJSON(t))
}

func (h *Handler) listTeams(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := rbac.RequireUser(ctx)
	if err != nil {
		return err
	}
	teams, err := h.teams.ListTeams(ctx, userID)
	if err != nil {
		return err
	}
	out := make([]teamJSON, 0, len(teams))
	for _, t := range teams {
		out = append(out, toTeamJSON(t))
	}
	return httpx.OK(c, http.StatusOK, "", out)
}

func (h *Handler) getTeam(c echo.Context) error {
	teamID, _, err := h.guard(c, engine.ActionTeamRead)
	if err != nil {
		return err
	}
	t, err := h.teams.GetTeam(c.Request().Context(), teamID)
	if err != nil {
		return err
	}
	return httpx.OK(c, http.StatusOK, "", toTeamJSON(t))
}

func (h *Handler) editTeam(c echo.Context) error {
	teamID, userID, err := h.guard(c, engine.ActionTeamEdit)
	if err != nil {
		return err
	}
	var req teamRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	t, err := h.teams.EditTeam(c.Request().Context(), teamID, service.EditTeamInput{
		Name:        req.Name,
		Description: req.Description,
	}, userID)
	if err != nil {
		return err
	}
	return httpx.OK(c, http.StatusOK, "Team updated successfully", toTeamJSON(t))
}

func (h *Handler) deleteTeam(c echo.Context) error {
	teamID, userID, err := h.guard(c, engine.ActionTeamDelete)
	if err != nil {
		return err
	}
	if err := h.teams.DeleteTeam(c.Request().Context(), teamID, userID); err != nil {
		return err
	}
	return httpx.OK(c, http.StatusOK, "Team deleted successfully", nil)
}

func (h *Handler) addMember(c echo.Context) error {
	teamID, userID, err := h.guard(c, engine.ActionTeamAddMember)
	if err != nil {
		return err
	}
	var req addMemberRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	if req.Email == "" {
		return apperrors.New(apperrors.CodeInvalidInput, "Email is required")
	}
	m, err := h.teams.AddMemberByEmail(c.Request().Context(), teamID, req.Email, domain.Role(req.Role), userID)
	if err != nil {
		return err
	}
	return httpx.OK(c, http.StatusCreated, "Member added successfully", toMemberJSON(*m))
}

func (h *Handler) listAudit(c echo.Context) error {
	teamID, _, err := h.guard(c, engine.ActionAuditRead)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", defaultAuditLimit)
	if err != nil {
		return err
	}
	if limit <= 0 || limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return err
	}
	if offset < 0 {
		offset = 0
	}
	out := []auditJSON{}
	if h.audit != nil {
		logs, err := h.audit.ListByTeam(c.Request().Context(), teamID, int32(limit), int32(offset))
		if err != nil {
			return apperrors.Internal("Failed to list audit logs", err)
		}
		for _, l := range logs {
			out = append(out, auditJSON{
				ID:        l.ID,
				UserID:    l.UserID,
				Action:    l.Action,
				Resource:  l.Resource,
				IP:        l.IP,
				Metadata:  l.Metadata,
				CreatedAt: l.CreatedAt,
			})
		}
	}
	return httpx.OK(c, http.StatusOK, "", out)
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Newf(apperrors.CodeInvalidInput, "Query parameter %s must be an integer", name)
	}
	return n, nil
}
