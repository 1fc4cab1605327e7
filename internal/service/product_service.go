package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"storefront/internal/apperr"
	"storefront/internal/cache"
	"storefront/internal/model"
	"storefront/internal/repository"
)

const (
	productCacheTTL = 5 * time.Minute

	defaultPageSize = 10
	maxPageSize     = 100
)

// ErrProductForbidden is returned when a caller who is neither the product's
// creator nor an admin attempts to modify it.
var ErrProductForbidden = apperr.Forbidden("access denied")

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	Category    string
}

// ProductPage is one page of the product listing.
type ProductPage struct {
	Items []model.Product `json:"data"`
	Count int             `json:"count"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Pages int64           `json:"pages"`
}

// ProductService exposes the product catalog operations.
type ProductService interface {
	Create(ctx context.Context, input ProductInput, createdBy uuid.UUID) (*model.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, page, limit int) (*ProductPage, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput, actorID uuid.UUID, actorRole model.Role) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole model.Role) error
}

type productService struct {
	repo  repository.ProductRepository
	cache *cache.Client
}

// NewProductService builds a ProductService with repository and cache.
func NewProductService(repo repository.ProductRepository, cache *cache.Client) ProductService {
	return &productService{repo: repo, cache: cache}
}

func (s *productService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("product:%s", id)
}

func (s *productService) Create(ctx context.Context, input ProductInput, createdBy uuid.UUID) (*model.Product, error) {
	product := &model.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Quantity:    input.Quantity,
		Category:    input.Category,
		CreatedBy:   createdBy,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, apperr.Internal(fmt.Errorf("create product: %w", err))
	}
	return product, nil
}

func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.Product
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, apperr.Internal(fmt.Errorf("find product: %w", err))
	}

	if payload, err := json.Marshal(product); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, productCacheTTL)
	}
	return product, nil
}

func (s *productService) List(ctx context.Context, page, limit int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("count products: %w", err))
	}
	items, err := s.repo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list products: %w", err))
	}

	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return &ProductPage{
		Items: items,
		Count: len(items),
		Total: total,
		Page:  page,
		Pages: pages,
	}, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, input ProductInput, actorID uuid.UUID, actorRole model.Role) (*model.Product, error) {
	product, err := s.authorizeMutation(ctx, id, actorID, actorRole)
	if err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.Quantity = input.Quantity
	product.Category = input.Category

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, apperr.Internal(fmt.Errorf("update product: %w", err))
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole model.Role) error {
	if _, err := s.authorizeMutation(ctx, id, actorID, actorRole); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Internal(fmt.Errorf("delete product: %w", err))
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}

// authorizeMutation loads the product and enforces the owner-or-admin rule.
func (s *productService) authorizeMutation(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorRole model.Role) (*model.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, apperr.Internal(fmt.Errorf("find product: %w", err))
	}
	if product.CreatedBy != actorID && actorRole != model.RoleAdmin {
		return nil, ErrProductForbidden
	}
	return product, nil
}
