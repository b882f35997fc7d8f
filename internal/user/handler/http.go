// Package handler serves the user directory over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/httpx"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/rbac"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/user/domain"
)

// Directory lists known users.
type Directory interface {
	List(ctx context.Context) ([]*domain.User, error)
}

// Handler serves /api/users.
type Handler struct {
	users Directory
}

// NewHandler returns a user directory handler.
func NewHandler(users Directory) *Handler {
	return &Handler{users: users}
}

// Register mounts the routes on g, which is expected to sit behind bearer auth.
func (h *Handler) Register(g *echo.Group) {
	g.GET("/users", h.listUsers)
}

type userJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *Handler) listUsers(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := rbac.RequireUser(ctx); err != nil {
		return err
	}
	users, err := h.users.List(ctx)
	if err != nil {
		return apperrors.Internal("Failed to list users", err)
	}
	out := make([]userJSON, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt})
	}
	return httpx.OK(c, http.StatusOK, "", out)
}
