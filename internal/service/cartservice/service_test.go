package cartservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
	"goshop/internal/service/cartservice"
)

// MockCartRepository é uma implementação mock da interface CartRepository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.CartItem), args.Error(1)
}

func (m *MockCartRepository) UpsertItem(ctx context.Context, item domain.CartItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockCartRepository) RemoveItem(ctx context.Context, userID, productID, variantID string) error {
	args := m.Called(ctx, userID, productID, variantID)
	return args.Error(0)
}

func (m *MockCartRepository) Clear(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockProductReader resolve produtos do catálogo.
type MockProductReader struct {
	mock.Mock
}

func (m *MockProductReader) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

var customer = domain.Actor{ID: "user-1", Role: domain.RoleUser}

// TestSetItem_Success grava o item no carrinho do ator.
func TestSetItem_Success(t *testing.T) {
	mockRepo := new(MockCartRepository)
	mockProducts := new(MockProductReader)
	svc := cartservice.NewService(mockRepo, mockProducts, logger.NewLogger("debug"))

	mockProducts.On("GetProductByID", mock.Anything, "prod-1").Return(domain.Product{
		ID:     "prod-1",
		Status: domain.ProductStatusActive,
	}, nil)
	mockRepo.On("UpsertItem", mock.Anything, domain.CartItem{
		UserID:    customer.ID,
		ProductID: "prod-1",
		Quantity:  3,
	}).Return(nil)

	err := svc.SetItem(context.Background(), customer, domain.CartItemRequest{
		ProductID: "prod-1",
		Quantity:  3,
	})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestSetItem_InvalidQuantity rejeita quantidade menor que 1.
func TestSetItem_InvalidQuantity(t *testing.T) {
	mockRepo := new(MockCartRepository)
	mockProducts := new(MockProductReader)
	svc := cartservice.NewService(mockRepo, mockProducts, logger.NewLogger("debug"))

	err := svc.SetItem(context.Background(), customer, domain.CartItemRequest{
		ProductID: "prod-1",
		Quantity:  0,
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "UpsertItem")
}

// TestSetItem_UnknownVariant rejeita variante inexistente no produto.
func TestSetItem_UnknownVariant(t *testing.T) {
	mockRepo := new(MockCartRepository)
	mockProducts := new(MockProductReader)
	svc := cartservice.NewService(mockRepo, mockProducts, logger.NewLogger("debug"))

	mockProducts.On("GetProductByID", mock.Anything, "prod-1").Return(domain.Product{
		ID:     "prod-1",
		Status: domain.ProductStatusActive,
		Variants: []domain.Variant{
			{ID: "var-1", SKU: "SKU-1"},
		},
	}, nil)

	err := svc.SetItem(context.Background(), customer, domain.CartItemRequest{
		ProductID: "prod-1",
		VariantID: "var-999",
		Quantity:  1,
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
	mockRepo.AssertNotCalled(t, "UpsertItem")
}

// TestSetItem_InactiveProduct rejeita produto indisponível.
func TestSetItem_InactiveProduct(t *testing.T) {
	mockRepo := new(MockCartRepository)
	mockProducts := new(MockProductReader)
	svc := cartservice.NewService(mockRepo, mockProducts, logger.NewLogger("debug"))

	mockProducts.On("GetProductByID", mock.Anything, "prod-1").Return(domain.Product{
		ID:     "prod-1",
		Status: domain.ProductStatusOutOfStock,
	}, nil)

	err := svc.SetItem(context.Background(), customer, domain.CartItemRequest{
		ProductID: "prod-1",
		Quantity:  1,
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
}

// TestGetCart_Delegates lista os itens do usuário.
func TestGetCart_Delegates(t *testing.T) {
	mockRepo := new(MockCartRepository)
	mockProducts := new(MockProductReader)
	svc := cartservice.NewService(mockRepo, mockProducts, logger.NewLogger("debug"))

	expected := []domain.CartItem{
		{UserID: customer.ID, ProductID: "prod-1", Quantity: 2},
	}
	mockRepo.On("FindByUser", mock.Anything, customer.ID).Return(expected, nil)

	items, err := svc.GetCart(context.Background(), customer)

	assert.NoError(t, err)
	assert.Equal(t, expected, items)
}
