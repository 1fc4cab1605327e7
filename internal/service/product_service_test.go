package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"storefront/internal/apperr"
	"storefront/internal/model"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *model.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, offset, limit int) ([]model.Product, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, product *model.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func sampleInput() ProductInput {
	return ProductInput{
		Name:     "Mechanical Keyboard",
		Price:    decimal.RequireFromString("89.99"),
		Quantity: 5,
		Category: "peripherals",
	}
}

func TestProductService_Create(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Product")).Return(nil)

	owner := uuid.New()
	svc := NewProductService(mockRepo, nil)

	product, err := svc.Create(context.Background(), sampleInput(), owner)
	require.NoError(t, err)
	assert.Equal(t, owner, product.CreatedBy)
	assert.Equal(t, "Mechanical Keyboard", product.Name)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetByID_NotFound(t *testing.T) {
	id := uuid.New()
	mockRepo := new(MockProductRepository)
	mockRepo.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

	svc := NewProductService(mockRepo, nil)
	_, err := svc.GetByID(context.Background(), id)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestProductService_List_Pagination(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockRepo.On("Count", mock.Anything).Return(int64(25), nil)
	// page 2 with limit 10 translates to offset 10
	mockRepo.On("List", mock.Anything, 10, 10).Return(make([]model.Product, 10), nil)

	svc := NewProductService(mockRepo, nil)
	page, err := svc.List(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.Count)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, int64(3), page.Pages)
	mockRepo.AssertExpectations(t)
}

func TestProductService_List_DefaultsAndClamps(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockRepo.On("Count", mock.Anything).Return(int64(0), nil)
	mockRepo.On("List", mock.Anything, 0, defaultPageSize).Return([]model.Product{}, nil)

	svc := NewProductService(mockRepo, nil)
	page, err := svc.List(context.Background(), 0, -3)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, int64(0), page.Pages)
	mockRepo.AssertExpectations(t)
}

func TestProductService_Update_Authorization(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	productID := uuid.New()

	stored := func() *model.Product {
		return &model.Product{
			ID:        productID,
			Name:      "Old Name",
			Price:     decimal.RequireFromString("10.00"),
			CreatedBy: owner,
		}
	}

	tests := []struct {
		name      string
		actorID   uuid.UUID
		actorRole model.Role
		allowed   bool
	}{
		{name: "owner may update", actorID: owner, actorRole: model.RoleUser, allowed: true},
		{name: "admin may update", actorID: stranger, actorRole: model.RoleAdmin, allowed: true},
		{name: "stranger is forbidden", actorID: stranger, actorRole: model.RoleUser, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			mockRepo.On("FindByID", mock.Anything, productID).Return(stored(), nil)
			if tt.allowed {
				mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.Product")).Return(nil)
			}

			svc := NewProductService(mockRepo, nil)
			updated, err := svc.Update(context.Background(), productID, sampleInput(), tt.actorID, tt.actorRole)

			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, "Mechanical Keyboard", updated.Name)
			} else {
				assert.ErrorIs(t, err, ErrProductForbidden)
				mockRepo.AssertNotCalled(t, "Update")
			}
		})
	}
}

func TestProductService_Delete(t *testing.T) {
	owner := uuid.New()
	productID := uuid.New()

	t.Run("owner may delete", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		mockRepo.On("FindByID", mock.Anything, productID).Return(&model.Product{ID: productID, CreatedBy: owner}, nil)
		mockRepo.On("Delete", mock.Anything, productID).Return(nil)

		svc := NewProductService(mockRepo, nil)
		assert.NoError(t, svc.Delete(context.Background(), productID, owner, model.RoleUser))
		mockRepo.AssertExpectations(t)
	})

	t.Run("absent product", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		mockRepo.On("FindByID", mock.Anything, productID).Return(nil, gorm.ErrRecordNotFound)

		svc := NewProductService(mockRepo, nil)
		err := svc.Delete(context.Background(), productID, owner, model.RoleUser)
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	})
}
