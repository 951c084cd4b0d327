package productservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
	"goshop/internal/service/productservice"
)

// MockProductRepository é uma implementação mock da interface ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) AddReview(ctx context.Context, review domain.Review) (domain.Review, error) {
	args := m.Called(ctx, review)
	return args.Get(0).(domain.Review), args.Error(1)
}

var admin = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
var customer = domain.Actor{ID: "user-1", Role: domain.RoleUser}

// TestCreateProduct_Success gera IDs para produto e variantes.
func TestCreateProduct_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("debug"))

	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(p domain.Product) bool {
		return p.ID != "" &&
			p.Status == domain.ProductStatusDraft &&
			len(p.Variants) == 1 &&
			p.Variants[0].ID != "" &&
			p.Variants[0].ProductID == p.ID
	})).Return(domain.Product{ID: "prod-1"}, nil)

	_, err := svc.CreateProduct(context.Background(), domain.Product{
		Name:      "Camiseta",
		BasePrice: 49.9,
		Category:  domain.CategoryClothing,
		Variants: []domain.Variant{
			{SKU: "CAM-P-AZUL", Price: 49.9, Stock: 10},
		},
	})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestCreateProduct_InvalidCategory rejeita categoria fora do conjunto aceito.
func TestCreateProduct_InvalidCategory(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("debug"))

	_, err := svc.CreateProduct(context.Background(), domain.Product{
		Name:     "Produto",
		Category: "brinquedos",
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "Save")
}

// TestCreateProduct_DuplicateSKUInPayload rejeita SKUs repetidos no mesmo payload.
func TestCreateProduct_DuplicateSKUInPayload(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("debug"))

	_, err := svc.CreateProduct(context.Background(), domain.Product{
		Name:     "Tênis",
		Category: domain.CategoryClothing,
		Variants: []domain.Variant{
			{SKU: "TEN-40", Price: 100},
			{SKU: "TEN-40", Price: 100},
		},
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
}

// TestGetProducts_GuestSeesOnlyActive força ActiveOnly para não-admins.
func TestGetProducts_GuestSeesOnlyActive(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("debug"))

	mockRepo.On("FindAll", mock.Anything, domain.ProductFilter{Page: 1, Limit: 10, ActiveOnly: true}).
		Return([]domain.Product{}, nil)

	_, err := svc.GetProducts(context.Background(), domain.Actor{Role: domain.RoleGuest}, domain.ProductFilter{
		Page:   1,
		Limit:  10,
		Status: domain.ProductStatusDraft, // visitante tentando ver rascunhos
	})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestGetProducts_AdminFiltersByStatus admins filtram por qualquer status.
func TestGetProducts_AdminFiltersByStatus(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("debug"))

	filter := domain.ProductFilter{Page: 1, Limit: 10, Status: domain.ProductStatusDraft}
	mockRepo.On("FindAll", mock.Anything, filter).Return([]domain.Product{}, nil)

	_, err := svc.GetProducts(context.Background(), admin, filter)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestUpdateProduct_PreservesStockAndRating não deixa o update sobrescrever
// estoque e nota agregada.
func TestUpdateProduct_PreservesStockAndRating(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("debug"))

	current := domain.Product{ID: "prod-1", Name: "Antigo", Category: domain.CategoryBooks, Stock: 42, Rating: 4.5}
	mockRepo.On("FindByID", mock.Anything, "prod-1").Return(current, nil)
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(p domain.Product) bool {
		return p.Stock == 42 && p.Rating == 4.5 && p.Name == "Novo"
	})).Return(domain.Product{ID: "prod-1"}, nil)

	_, err := svc.UpdateProduct(context.Background(), domain.Product{
		ID:       "prod-1",
		Name:     "Novo",
		Category: domain.CategoryBooks,
		Stock:    0, // payload tentando zerar o estoque
	})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestAddReview_RatingBounds valida a faixa de 1 a 5.
func TestAddReview_RatingBounds(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("debug"))

	_, err := svc.AddReview(context.Background(), customer, "prod-1", 0, "")
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = svc.AddReview(context.Background(), customer, "prod-1", 6, "")
	assert.IsType(t, &apperror.ValidationError{}, err)

	mockRepo.AssertNotCalled(t, "AddReview")
}

// TestAddReview_Success registra a avaliação em nome do ator.
func TestAddReview_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewLogger("debug"))

	mockRepo.On("AddReview", mock.Anything, mock.MatchedBy(func(rv domain.Review) bool {
		return rv.ProductID == "prod-1" && rv.UserID == customer.ID && rv.Rating == 5
	})).Return(domain.Review{ID: "rev-1"}, nil)

	review, err := svc.AddReview(context.Background(), customer, "prod-1", 5, "Excelente!")

	assert.NoError(t, err)
	assert.Equal(t, "rev-1", review.ID)
	mockRepo.AssertExpectations(t)
}
