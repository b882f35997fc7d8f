// Package handler serves boards and cards over HTTP. Every route resolves the owning
// team first and checks the caller's access to it.
package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/board/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/board/service"
	carddomain "github.com/Piyush-Singh-Chauhan/team-board/internal/card/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/httpx"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/rbac"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/policy/engine"
)

// BoardService is the board and card use-case surface the handler drives.
type BoardService interface {
	CreateBoard(ctx context.Context, teamID, name, description, userID string) (*domain.Board, error)
	ListBoards(ctx context.Context, teamID string) ([]*domain.Board, error)
	GetBoard(ctx context.Context, boardID string) (*service.BoardView, error)
	EditBoard(ctx context.Context, boardID string, in service.EditBoardInput, userID string) (*domain.Board, error)
	DeleteBoard(ctx context.Context, boardID, userID string) error
	MoveCard(ctx context.Context, boardID string, in domain.MoveInput, userID string) (*domain.Board, error)
	ReconcileBoard(ctx context.Context, boardID string) (domain.ReconcileResult, error)
	CreateCard(ctx context.Context, in service.CreateCardInput) (*carddomain.Card, error)
	EditCard(ctx context.Context, cardID string, in service.EditCardInput, userID string) (*carddomain.Card, error)
	DeleteCard(ctx context.Context, cardID, userID string) error
	ResolveBoardTeam(ctx context.Context, boardID string) (string, error)
	ResolveCardTeam(ctx context.Context, cardID string) (string, error)
}

// Handler serves board and card routes.
type Handler struct {
	boards  BoardService
	members rbac.TeamMemberGetter
	access  engine.Evaluator
}

// NewHandler returns a board handler.
func NewHandler(boards BoardService, members rbac.TeamMemberGetter, access engine.Evaluator) *Handler {
	return &Handler{boards: boards, members: members, access: access}
}

// Register mounts the routes on g, which is expected to sit behind bearer auth.
func (h *Handler) Register(g *echo.Group) {
	g.POST("/teams/:teamId/boards", h.createBoard)
	g.GET("/teams/:teamId/boards", h.listBoards)
	g.GET("/boards/:boardId", h.getBoard)
	g.PUT("/boards/:boardId", h.editBoard)
	g.DELETE("/boards/:boardId", h.deleteBoard)
	g.POST("/boards/:boardId/cards/order", h.moveCard)
	g.POST("/boards/:boardId/reconcile", h.reconcileBoard)

	g.POST("/boards/:boardId/cards", h.createCard)
	g.PUT("/cards/:cardId", h.editCard)
	g.DELETE("/cards/:cardId", h.deleteCard)
}

func (h *Handler) requireTeam(c echo.Context, teamID string, action engine.Action) (string, error) {
	return rbac.RequireTeamAction(c.Request().Context(), h.members, h.access, teamID, action)
}

// requireBoard resolves the board's team, then checks action against it.
func (h *Handler) requireBoard(c echo.Context, action engine.Action) (boardID, userID string, err error) {
	boardID = c.Param("boardId")
	teamID, err := h.boards.ResolveBoardTeam(c.Request().Context(), boardID)
	if err != nil {
		return "", "", err
	}
	userID, err = h.requireTeam(c, teamID, action)
	return boardID, userID, err
}

func (h *Handler) requireCard(c echo.Context, action engine.Action) (cardID, userID string, err error) {
	cardID = c.Param("cardId")
	teamID, err := h.boards.ResolveCardTeam(c.Request().Context(), cardID)
	if err != nil {
		return "", "", err
	}
	userID, err = h.requireTeam(c, teamID, action)
	return cardID, userID, err
}

type boardRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type moveRequest struct {
	CardID              string `json:"cardId"`
	SourceColumnID      string `json:"sourceColumnId"`
	DestinationColumnID string `json:"destinationColumnId"`
	SourceIndex         *int   `json:"sourceIndex"`
	DestinationIndex    *int   `json:"destinationIndex"`
}

func (h *Handler) createBoard(c echo.Context) error {
	teamID := c.Param("teamId")
	userID, err := h.requireTeam(c, teamID, engine.ActionBoardCreate)
	if err != nil {
		return err
	}
	var req boardRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	if req.Name == nil {
		return apperrors.New(apperrors.CodeInvalidInput, "Board name is required")
	}
	var description string
	if req.Description != nil {
		description = *req.Description
	}
	b, err := h.boards.CreateBoard(c.Request().Context(), teamID, *req.Name, description, userID)
	if err != nil {
		return err
	}
	return httpx.OK(c, http.StatusCreated, "Board created successfully", toBoardJSON(b))
}

func (h *Handler) listBoards(c echo.Context) error {
	teamID := c.Param("teamId")
	if _, err := h.requireTeam(c, teamID, engine.ActionBoardRead); err != nil {
		return err
	}
	boards, err := h.boards.ListBoards(c.Request().Context(), teamID)
	if err != nil {
		return err
	}
	out := make([]boardJSON, 0, len(boards))
	for _, b := range boards {
		out = append(out, toBoardJSON(b))
	}
	return httpx.OK(c, http.StatusOK, "", out)
}

func (h *Handler) getBoard(c echo.Context) error {
	boardID, _, err := h.requireBoard(c, engine.ActionBoardRead)
	if err != nil {
		return err
	}
	view, err := h.boards.GetBoard(c.Request().Context(), boardID)
	if err != nil {
		return err
	}
	return httpx.OK(c, http.StatusOK, "", toBoardViewJSON(view))
}

func (h *Handler) editBoard(c echo.Context) error {
	boardID, userID, err := h.requireBoard(c, engine.ActionBoardEdit)
	if err != nil {
		return err
	}
	var req boardRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	b, err := h.boards.EditBoard(c.Request().Context(), boardID, service.EditBoardInput{
		Name:        req.Name,
		Description: req.Description,
	}, userID)
	if err != nil {
		return err
	}
	return httpx.OK(c, http.StatusOK, "Board updated successfully", toBoardJSON(b))
}

func (h *Handler) deleteBoard(c echo.Context) error {
	boardID, userID, err := h.requireBoard(c, engine.ActionBoardDelete)
	if err != nil {
		return err
	}
	if err := h.boards.DeleteBoard(c.Request().Context(), boardID, userID); err != nil {
		return err
	}
	return httpx.OK(c, http.StatusOK, "Board deleted successfully", nil)
}

func (h *Handler) moveCard(c echo.Context) error {
	boardID, userID, err := h.requireBoard(c, engine.ActionCardWrite)
	if err != nil {
		return err
	}
	var req moveRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	if req.CardID == "" || req.SourceColumnID == "" || req.DestinationColumnID == "" || req.DestinationIndex == nil {
		return apperrors.New(apperrors.CodeInvalidInput, "cardId, sourceColumnId, destinationColumnId and destinationIndex are required")
	}
	in := domain.MoveInput{
		CardID:              req.CardID,
		SourceColumnID:      carddomain.ColumnID(req.SourceColumnID),
		DestinationColumnID: carddomain.ColumnID(req.DestinationColumnID),
		DestinationIndex:    *req.DestinationIndex,
	}
	if req.SourceIndex != nil {
		in.SourceIndex = *req.SourceIndex
	}
	b, err := h.boards.MoveCard(c.Request().Context(), boardID, in, userID)
	if err != nil {
		return err
	}
	return httpx.OK(c, http.StatusOK, "Cards reordered successfully", toBoardJSON(b))
}

func (h *Handler) reconcileBoard(c echo.Context) error {
	boardID, _, err := h.requireBoard(c, engine.ActionBoardReconcile)
	if err != nil {
		return err
	}
	res, err := h.boards.ReconcileBoard(c.Request().Context(), boardID)
	if err != nil {
		return err
	}
	msg := "Board is consistent"
	if res.Changed() {
		msg = "Board reconciled"
	}
	return httpx.OK(c, http.StatusOK, msg, toReconcileJSON(res))
}
