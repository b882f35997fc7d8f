package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/board/service"
	carddomain "github.com/Piyush-Singh-Chauhan/team-board/internal/card/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/httpx"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/policy/engine"
)

type createCardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ColumnID    string `json:"columnId"`
	AssignedTo  string `json:"assignedTo"`
	DueDate     string `json:"dueDate"`
	Priority    string `json:"priority"`
}

// editCardRequest keeps dueDate raw so an explicit null or "" (clear) can be told
// apart from an absent field (keep).
type editCardRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	ColumnID    *string         `json:"columnId"`
	Status      *string         `json:"status"`
	AssignedTo  *string         `json:"assignedTo"`
	DueDate     json.RawMessage `json:"dueDate"`
	Priority    *string         `json:"priority"`
}

// parseDueDate accepts RFC 3339 timestamps and plain dates.
func parseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperrors.Newf(apperrors.CodeInvalidInput, "Invalid due date %q", s)
}

func (h *Handler) createCard(c echo.Context) error {
	boardID, userID, err := h.requireBoard(c, engine.ActionCardWrite)
	if err != nil {
		return err
	}
	var req createCardRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		return err
	}
	col := carddomain.ColumnID(req.ColumnID)
	if col != "" && !col.Valid() {
		return apperrors.Newf(apperrors.CodeInvalidColumn, "Invalid column %q", req.ColumnID)
	}
	card, err := h.boards.CreateCard(c.Request().Context(), service.CreateCardInput{
		BoardID:     boardID,
		Title:       req.Title,
		Description: req.Description,
		ColumnID:    col,
		AssigneeID:  strings.TrimSpace(req.AssignedTo),
		DueDate:     due,
		Priority:    carddomain.Priority(req.Priority),
		CreatedBy:   userID,
	})
	if err != nil {
		return err
	}
	return httpx.OK(c, http.StatusCreated, "Card created successfully", toCardJSON(card))
}

func (h *Handler) editCard(c echo.Context) error {
	cardID, userID, err := h.requireCard(c, engine.ActionCardWrite)
	if err != nil {
		return err
	}
	var req editCardRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	in := service.EditCardInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.AssignedTo != nil {
		a := strings.TrimSpace(*req.AssignedTo)
		in.AssigneeID = &a
	}
	if req.ColumnID != nil {
		col := carddomain.ColumnID(*req.ColumnID)
		in.ColumnID = &col
	}
	if req.Status != nil {
		st := carddomain.ColumnID(*req.Status)
		in.Status = &st
	}
	if req.Priority != nil {
		p := carddomain.Priority(*req.Priority)
		in.Priority = &p
	}
	if raw := bytes.TrimSpace(req.DueDate); len(raw) > 0 {
		var s *string
		if err := json.Unmarshal(raw, &s); err != nil {
			return apperrors.Wrap(apperrors.CodeInvalidInput, "dueDate must be a string or null", err)
		}
		if s == nil || strings.TrimSpace(*s) == "" {
			in.ClearDueDate = true
		} else if in.DueDate, err = parseDueDate(*s); err != nil {
			return err
		}
	}
	card, err := h.boards.EditCard(c.Request().Context(), cardID, in, userID)
	if err != nil {
		return err
	}
	return httpx.OK(c, http.StatusOK, "Card updated successfully", toCardJSON(card))
}

func (h *Handler) deleteCard(c echo.Context) error {
	cardID, userID, err := h.requireCard(c, engine.ActionCardWrite)
	if err != nil {
		return err
	}
	if err := h.boards.DeleteCard(c.Request().Context(), cardID, userID); err != nil {
		return err
	}
	return httpx.OK(c, http.StatusOK, "Card deleted successfully", nil)
}
