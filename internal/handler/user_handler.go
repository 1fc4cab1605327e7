package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/repository"
)

// UserHandler bundles admin-only user endpoints.
type UserHandler struct {
	users repository.UserRepository
}

// NewUserHandler creates a handler layer.
func NewUserHandler(users repository.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// ListUsers godoc
// @Summary List users (admin only)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"count":   len(users),
		"data":    users,
	})
}
