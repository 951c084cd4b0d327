package couponservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
	"goshop/internal/service/couponservice"
)

// MockCouponRepository é uma implementação mock da interface CouponRepository
type MockCouponRepository struct {
	mock.Mock
}

func (m *MockCouponRepository) Save(ctx context.Context, coupon domain.Coupon) (domain.Coupon, error) {
	args := m.Called(ctx, coupon)
	return args.Get(0).(domain.Coupon), args.Error(1)
}

func (m *MockCouponRepository) FindByID(ctx context.Context, id string) (domain.Coupon, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Coupon), args.Error(1)
}

func (m *MockCouponRepository) FindActiveByCode(ctx context.Context, code string) (domain.Coupon, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(domain.Coupon), args.Error(1)
}

func (m *MockCouponRepository) FindAll(ctx context.Context) ([]domain.Coupon, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Coupon), args.Error(1)
}

func (m *MockCouponRepository) IncrementUsage(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCouponRepository) Update(ctx context.Context, coupon domain.Coupon) (domain.Coupon, error) {
	args := m.Called(ctx, coupon)
	return args.Get(0).(domain.Coupon), args.Error(1)
}

func (m *MockCouponRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func validCoupon() domain.Coupon {
	return domain.Coupon{
		ID:             uuid.New().String(),
		Code:           "PROMO10",
		DiscountType:   domain.DiscountPercentage,
		DiscountAmount: 10,
		StartDate:      time.Now().Add(-time.Hour),
		EndDate:        time.Now().Add(time.Hour),
		IsActive:       true,
	}
}

// TestEvaluate_Percentage verifica o cálculo de desconto percentual.
func TestEvaluate_Percentage(t *testing.T) {
	mockRepo := new(MockCouponRepository)
	svc := couponservice.NewService(mockRepo, logger.NewLogger("debug"))

	mockRepo.On("FindActiveByCode", mock.Anything, "PROMO10").Return(validCoupon(), nil)

	evaluation, err := svc.Evaluate(context.Background(), "promo10", 200)

	assert.NoError(t, err)
	assert.Equal(t, 20.0, evaluation.DiscountAmount)
	mockRepo.AssertExpectations(t)
}

// TestEvaluate_Fixed verifica o desconto de valor fixo.
func TestEvaluate_Fixed(t *testing.T) {
	mockRepo := new(MockCouponRepository)
	svc := couponservice.NewService(mockRepo, logger.NewLogger("debug"))

	coupon := validCoupon()
	coupon.Code = "MENOS15"
	coupon.DiscountType = domain.DiscountFixed
	coupon.DiscountAmount = 15

	mockRepo.On("FindActiveByCode", mock.Anything, "MENOS15").Return(coupon, nil)

	evaluation, err := svc.Evaluate(context.Background(), "  menos15 ", 100)

	assert.NoError(t, err)
	assert.Equal(t, 15.0, evaluation.DiscountAmount)
}

// TestEvaluate_BelowMinimumPurchase rejeita subtotal abaixo da compra mínima.
func TestEvaluate_BelowMinimumPurchase(t *testing.T) {
	mockRepo := new(MockCouponRepository)
	svc := couponservice.NewService(mockRepo, logger.NewLogger("debug"))

	coupon := validCoupon()
	coupon.MinimumPurchase = 50

	mockRepo.On("FindActiveByCode", mock.Anything, "PROMO10").Return(coupon, nil)

	_, err := svc.Evaluate(context.Background(), "PROMO10", 49.99)

	assert.Error(t, err)
	assert.IsType(t, &apperror.BelowMinimumPurchaseError{}, err)
}

// TestEvaluate_UnknownCode propaga o NotFound do repositório.
func TestEvaluate_UnknownCode(t *testing.T) {
	mockRepo := new(MockCouponRepository)
	svc := couponservice.NewService(mockRepo, logger.NewLogger("debug"))

	mockRepo.On("FindActiveByCode", mock.Anything, "NADA").
		Return(domain.Coupon{}, apperror.NewNotFoundError("Cupom inválido ou expirado."))

	_, err := svc.Evaluate(context.Background(), "nada", 100)

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

// TestEvaluate_EmptyCode falha na validação antes de consultar o repositório.
func TestEvaluate_EmptyCode(t *testing.T) {
	mockRepo := new(MockCouponRepository)
	svc := couponservice.NewService(mockRepo, logger.NewLogger("debug"))

	_, err := svc.Evaluate(context.Background(), "   ", 100)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "FindActiveByCode")
}

// TestCreateCoupon_NormalizesCode garante que o código é armazenado em maiúsculas.
func TestCreateCoupon_NormalizesCode(t *testing.T) {
	mockRepo := new(MockCouponRepository)
	svc := couponservice.NewService(mockRepo, logger.NewLogger("debug"))

	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(c domain.Coupon) bool {
		return c.Code == "VERAO25" && c.UsedCount == 0
	})).Return(validCoupon(), nil)

	_, err := svc.CreateCoupon(context.Background(), domain.Coupon{
		Code:           "verao25",
		DiscountType:   domain.DiscountPercentage,
		DiscountAmount: 25,
		StartDate:      time.Now(),
		EndDate:        time.Now().Add(24 * time.Hour),
	})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestCreateCoupon_InvalidDates rejeita janela temporal invertida.
func TestCreateCoupon_InvalidDates(t *testing.T) {
	mockRepo := new(MockCouponRepository)
	svc := couponservice.NewService(mockRepo, logger.NewLogger("debug"))

	_, err := svc.CreateCoupon(context.Background(), domain.Coupon{
		Code:           "RUIM",
		DiscountType:   domain.DiscountFixed,
		DiscountAmount: 5,
		StartDate:      time.Now().Add(24 * time.Hour),
		EndDate:        time.Now(),
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "Save")
}

// TestRegisterUse_Delegates delega ao incremento atômico do repositório.
func TestRegisterUse_Delegates(t *testing.T) {
	mockRepo := new(MockCouponRepository)
	svc := couponservice.NewService(mockRepo, logger.NewLogger("debug"))

	mockRepo.On("IncrementUsage", mock.Anything, "cupom-1").Return(nil)

	err := svc.RegisterUse(context.Background(), "cupom-1")

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
