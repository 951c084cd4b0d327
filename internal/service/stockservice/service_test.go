package stockservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
	"goshop/internal/service/stockservice"
)

// MockStockRepository é uma implementação mock da interface StockRepository
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) AdjustStock(ctx context.Context, adjustment domain.StockAdjustment) (domain.StockLevel, error) {
	args := m.Called(ctx, adjustment)
	return args.Get(0).(domain.StockLevel), args.Error(1)
}

func (m *MockStockRepository) AdjustMany(ctx context.Context, adjustments []domain.StockAdjustment) error {
	args := m.Called(ctx, adjustments)
	return args.Error(0)
}

// TestAdjustStock_Success repõe estoque de uma variante.
func TestAdjustStock_Success(t *testing.T) {
	mockRepo := new(MockStockRepository)
	svc := stockservice.NewService(mockRepo, logger.NewLogger("debug"))

	mockRepo.On("AdjustStock", mock.Anything, domain.StockAdjustment{
		ProductID: "prod-1",
		VariantID: "var-1",
		Delta:     10,
	}).Return(domain.StockLevel{ProductID: "prod-1", VariantID: "var-1", Stock: 25}, nil)

	level, err := svc.AdjustStock(context.Background(), domain.StockAdjustmentRequest{
		ProductID: "prod-1",
		VariantID: "var-1",
		Delta:     10,
	})

	assert.NoError(t, err)
	assert.Equal(t, 25, level.Stock)
	mockRepo.AssertExpectations(t)
}

// TestAdjustStock_ZeroDelta rejeita ajuste nulo sem tocar o repositório.
func TestAdjustStock_ZeroDelta(t *testing.T) {
	mockRepo := new(MockStockRepository)
	svc := stockservice.NewService(mockRepo, logger.NewLogger("debug"))

	_, err := svc.AdjustStock(context.Background(), domain.StockAdjustmentRequest{
		ProductID: "prod-1",
		Delta:     0,
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "AdjustStock")
}

// TestAdjustStock_MissingProductID rejeita ajuste sem alvo.
func TestAdjustStock_MissingProductID(t *testing.T) {
	mockRepo := new(MockStockRepository)
	svc := stockservice.NewService(mockRepo, logger.NewLogger("debug"))

	_, err := svc.AdjustStock(context.Background(), domain.StockAdjustmentRequest{Delta: 5})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
}

// TestAdjustStock_InsufficientStock propaga a rejeição do repositório.
func TestAdjustStock_InsufficientStock(t *testing.T) {
	mockRepo := new(MockStockRepository)
	svc := stockservice.NewService(mockRepo, logger.NewLogger("debug"))

	mockRepo.On("AdjustStock", mock.Anything, mock.Anything).
		Return(domain.StockLevel{}, apperror.NewInsufficientStockError("Saldo atual 3 não comporta o ajuste de -5."))

	_, err := svc.AdjustStock(context.Background(), domain.StockAdjustmentRequest{
		ProductID: "prod-1",
		Delta:     -5,
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.InsufficientStockError{}, err)
}
