package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/model"
	"storefront/internal/repository"
)

const defaultProductsFile = "seed/products.json"

// SeedProductData represents one entry of the seed products file.
type SeedProductData struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
	Category    string `json:"category"`
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.RefreshToken{}, &model.Product{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	tokenRepo := repository.NewRefreshTokenRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)

	admin, err := ensureAdmin(ctx, userRepo)
	if err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}
	log.Printf("Admin user ready: %s", admin.Email)

	purged, err := tokenRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		log.Fatalf("Failed to purge expired refresh tokens: %v", err)
	}
	log.Printf("Purged %d expired refresh tokens", purged)

	productsFile := os.Getenv("SEED_PRODUCTS_FILE")
	if productsFile == "" {
		productsFile = defaultProductsFile
	}
	seeded, skipped, err := seedProducts(ctx, productRepo, admin, productsFile)
	if err != nil {
		log.Fatalf("Failed to seed products: %v", err)
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - Products created: %d", seeded)
	log.Printf("  - Products skipped: %d", skipped)
}

// ensureAdmin creates the admin user from ADMIN_EMAIL/ADMIN_PASSWORD if it
// does not already exist.
func ensureAdmin(ctx context.Context, users repository.UserRepository) (*model.User, error) {
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@storefront.local"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "change-me-now"
		log.Println("ADMIN_PASSWORD not set, using the default; change it before deploying")
	}

	existing, err := users.FindByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check admin existence: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}

	admin := &model.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: string(hashed),
		Role:         model.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return admin, nil
}

// seedProducts loads demo products from a JSON file and inserts the ones that
// parse cleanly, attributing them to the admin user.
func seedProducts(ctx context.Context, products repository.ProductRepository, owner *model.User, path string) (seeded int, skipped int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("No seed products file at %s, skipping product seed", path)
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("read products file: %w", err)
	}

	var entries []SeedProductData
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, 0, fmt.Errorf("parse products file: %w", err)
	}

	for _, entry := range entries {
		price, err := decimal.NewFromString(entry.Price)
		if err != nil || entry.Name == "" {
			log.Printf("Skipping product %q with invalid data", entry.Name)
			skipped++
			continue
		}

		product := &model.Product{
			Name:        entry.Name,
			Description: entry.Description,
			Price:       price,
			Quantity:    entry.Quantity,
			Category:    entry.Category,
			CreatedBy:   owner.ID,
		}
		if err := products.Create(ctx, product); err != nil {
			return seeded, skipped, fmt.Errorf("create product %q: %w", entry.Name, err)
		}
		seeded++
	}

	return seeded, skipped, nil
}
