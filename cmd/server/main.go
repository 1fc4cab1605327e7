package main

import (
	"log"
	"net/http"

	"storefront/docs"

	"github.com/labstack/echo/v4"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/handler"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/token"
)

// @title Storefront API
// @version 1.0
// @description Product catalog API with JWT authentication and refresh-token rotation.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Product{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	tokenRepo := repository.NewRefreshTokenRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)

	// Initialize token issuer with the configured signing secret
	issuer := token.NewIssuer(cfg.JWTSecret, tokenRepo)

	// Initialize services
	authService := service.NewAuthService(userRepo, tokenRepo, issuer)
	productService := service.NewProductService(productRepo, cacheClient)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, issuer)
	productHandler := handler.NewProductHandler(productService)
	userHandler := handler.NewUserHandler(userRepo)

	// Register routes
	router.Register(e, issuer, authHandler, productHandler, userHandler)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
		log.Printf("Swagger documentation available at: http://%s/swagger/index.html", cfg.SwaggerHost)
	} else {
		log.Printf("Swagger documentation available at: http://localhost:%s/swagger/index.html", cfg.ServerPort)
	}

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
