package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/service"
	"storefront/internal/token"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	issuer      *token.Issuer
}

// NewAuthHandler creates a new auth handler. The issuer is injected
// separately because registration composes user creation with token issuance.
func NewAuthHandler(authService service.AuthService, issuer *token.Issuer) *AuthHandler {
	return &AuthHandler{authService: authService, issuer: issuer}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LogoutRequest represents a logout request.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// RegisteredUser is the projection of a user returned on registration.
type RegisteredUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return apperr.InvalidInput("name, email, and password are required")
	}

	user, err := h.authService.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	pair, err := h.issuer.Issue(c.Request().Context(), user)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "registration successful",
		"data": echo.Map{
			"user":         RegisteredUser{ID: user.ID.String(), Email: user.Email},
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		},
	})
}

// Login godoc
// @Summary Login and receive an access/refresh token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return apperr.InvalidInput("email and password are required")
	}

	pair, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "login successful",
		"data":    pair,
	})
}

// Profile godoc
// @Summary Get the authenticated user's profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /auth/profile [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		return apperr.Unauthenticated("no token found")
	}

	user, err := h.authService.GetUserByID(c.Request().Context(), ident.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFound("user not found")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"user": user},
	})
}

// Logout godoc
// @Summary Logout by deleting the refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LogoutRequest true "Refresh token"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req LogoutRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return apperr.InvalidInput("refresh token required")
	}

	if err := h.authService.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "logout successful",
	})
}

// Refresh godoc
// @Summary Exchange a refresh token for a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/refresh-token [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return apperr.InvalidInput("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return apperr.InvalidInput("refresh token required")
	}

	pair, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "token refreshed",
		"data":    pair,
	})
}
