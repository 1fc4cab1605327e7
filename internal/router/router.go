package router

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/handler"
	"storefront/internal/token"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	issuer *token.Issuer,
	authHandler *handler.AuthHandler,
	productHandler *handler.ProductHandler,
	userHandler *handler.UserHandler,
) {
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// All failures flow through one responder so the error shape is uniform.
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authn := auth.Middleware(issuer)

	api := e.Group("/api")

	// Public auth routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.POST("/auth/refresh-token", authHandler.Refresh)

	// Profile requires a verified access token
	api.GET("/auth/profile", authHandler.Profile, authn)

	// Product routes: reads are public, writes require authentication
	api.GET("/products", productHandler.List)
	api.GET("/products/:id", productHandler.GetByID)
	api.POST("/products", productHandler.Create, authn)
	api.PUT("/products/:id", productHandler.Update, authn)
	api.DELETE("/products/:id", productHandler.Delete, authn)

	// Admin routes
	admin := api.Group("/admin", authn, auth.RequireAdmin())
	admin.GET("/users", userHandler.ListUsers)
}

// ErrorHandler renders every failure as {"success":false,"error":msg}.
// Unknown errors become a generic 500; their cause is logged, never leaked.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "internal server error"

	var appErr *apperr.Error
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		status = appErr.Status()
		message = appErr.Message
		if appErr.Kind == apperr.KindInternal {
			c.Logger().Errorf("internal error: %v", appErr.Unwrap())
		}
	case errors.As(err, &httpErr):
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
	default:
		c.Logger().Errorf("unhandled error: %v", err)
	}

	var resErr error
	if c.Request().Method == http.MethodHead {
		resErr = c.NoContent(status)
	} else {
		resErr = c.JSON(status, echo.Map{"success": false, "error": message})
	}
	if resErr != nil {
		c.Logger().Errorf("error responder: %v", resErr)
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
