package orderservice_test

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
	"goshop/internal/service/orderservice"
)

// MockOrderRepository é uma implementação mock da interface OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, orderID string, entry domain.StatusHistoryEntry, carrier, trackingNumber string) (domain.Order, error) {
	args := m.Called(ctx, orderID, entry, carrier, trackingNumber)
	return args.Get(0).(domain.Order), args.Error(1)
}

// MockProductReader resolve produtos do catálogo.
type MockProductReader struct {
	mock.Mock
}

func (m *MockProductReader) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

// MockStockAdjuster aplica lotes de ajuste de estoque.
type MockStockAdjuster struct {
	mock.Mock
}

func (m *MockStockAdjuster) AdjustMany(ctx context.Context, adjustments []domain.StockAdjustment) error {
	args := m.Called(ctx, adjustments)
	return args.Error(0)
}

// MockCouponEvaluator avalia e registra uso de cupons.
type MockCouponEvaluator struct {
	mock.Mock
}

func (m *MockCouponEvaluator) Evaluate(ctx context.Context, code string, subtotal float64) (domain.CouponEvaluation, error) {
	args := m.Called(ctx, code, subtotal)
	return args.Get(0).(domain.CouponEvaluation), args.Error(1)
}

func (m *MockCouponEvaluator) RegisterUse(ctx context.Context, couponID string) error {
	args := m.Called(ctx, couponID)
	return args.Error(0)
}

// MockCartClearer limpa o carrinho após a criação do pedido.
type MockCartClearer struct {
	mock.Mock
}

func (m *MockCartClearer) Clear(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockNotifier registra os eventos de pedido emitidos.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) OrderCreated(ctx context.Context, order domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockNotifier) OrderStatusChanged(ctx context.Context, order domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockNotifier) OrderCancelled(ctx context.Context, order domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

type fixture struct {
	repo     *MockOrderRepository
	products *MockProductReader
	stock    *MockStockAdjuster
	coupons  *MockCouponEvaluator
	cart     *MockCartClearer
	notifier *MockNotifier
	svc      *orderservice.Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:     new(MockOrderRepository),
		products: new(MockProductReader),
		stock:    new(MockStockAdjuster),
		coupons:  new(MockCouponEvaluator),
		cart:     new(MockCartClearer),
		notifier: new(MockNotifier),
	}
	f.svc = orderservice.NewService(f.repo, f.products, f.stock, f.coupons, f.cart, f.notifier, logger.NewLogger("debug"))
	return f
}

func activeProduct(id string, price float64) domain.Product {
	return domain.Product{
		ID:        id,
		Name:      "Produto " + id,
		BasePrice: price,
		Category:  domain.CategoryElectronics,
		Status:    domain.ProductStatusActive,
		Stock:     100,
	}
}

var customer = domain.Actor{ID: "user-1", Role: domain.RoleUser}
var admin = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}

// TestCreateOrder_Success cria um pedido com reserva de estoque, totais
// calculados e carrinho limpo.
func TestCreateOrder_Success(t *testing.T) {
	f := newFixture()
	productID := uuid.New().String()

	f.products.On("GetProductByID", mock.Anything, productID).Return(activeProduct(productID, 50), nil)
	f.stock.On("AdjustMany", mock.Anything, []domain.StockAdjustment{
		{ProductID: productID, Delta: -2},
	}).Return(nil)
	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(o domain.Order) bool {
		return o.UserID == customer.ID &&
			o.Status == domain.OrderStatusPending &&
			o.Subtotal == 100 &&
			o.TotalAmount == 110 &&
			len(o.StatusHistory) == 1
	})).Return(domain.Order{ID: "order-1", UserID: customer.ID, TotalAmount: 110}, nil)
	f.cart.On("Clear", mock.Anything, customer.ID).Return(nil)
	f.notifier.On("OrderCreated", mock.Anything, mock.Anything).Return(nil)

	created, err := f.svc.CreateOrder(context.Background(), customer, domain.CreateOrderRequest{
		Items:    []domain.OrderItemRequest{{ProductID: productID, Quantity: 2}},
		Shipping: domain.ShippingInfo{Cost: 10, Method: "standard"},
	})

	assert.NoError(t, err)
	assert.Equal(t, "order-1", created.ID)
	f.stock.AssertExpectations(t)
	f.repo.AssertExpectations(t)
	f.cart.AssertExpectations(t)
}

// TestCreateOrder_WithCoupon aplica o desconto no total e registra o uso.
func TestCreateOrder_WithCoupon(t *testing.T) {
	f := newFixture()
	productID := uuid.New().String()
	couponID := uuid.New().String()

	f.products.On("GetProductByID", mock.Anything, productID).Return(activeProduct(productID, 100), nil)
	f.coupons.On("Evaluate", mock.Anything, "PROMO10", 200.0).Return(domain.CouponEvaluation{
		Coupon:         domain.Coupon{ID: couponID, Code: "PROMO10"},
		DiscountAmount: 20,
	}, nil)
	f.stock.On("AdjustMany", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(o domain.Order) bool {
		// total = 200 - 20 + 5
		return o.TotalAmount == 185 && o.Discount.CouponCode == "PROMO10"
	})).Return(domain.Order{ID: "order-2", Discount: domain.Discount{CouponID: couponID}}, nil)
	f.coupons.On("RegisterUse", mock.Anything, couponID).Return(nil)
	f.cart.On("Clear", mock.Anything, customer.ID).Return(nil)
	f.notifier.On("OrderCreated", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.CreateOrder(context.Background(), customer, domain.CreateOrderRequest{
		Items:      []domain.OrderItemRequest{{ProductID: productID, Quantity: 2}},
		CouponCode: "PROMO10",
		Shipping:   domain.ShippingInfo{Cost: 5},
	})

	assert.NoError(t, err)
	f.coupons.AssertExpectations(t)
}

// TestCreateOrder_InsufficientStock não cria pedido quando a reserva falha.
func TestCreateOrder_InsufficientStock(t *testing.T) {
	f := newFixture()
	productID := uuid.New().String()

	f.products.On("GetProductByID", mock.Anything, productID).Return(activeProduct(productID, 30), nil)
	f.stock.On("AdjustMany", mock.Anything, mock.Anything).
		Return(apperror.NewInsufficientStockError("Saldo atual 1 não comporta o ajuste de -5."))

	_, err := f.svc.CreateOrder(context.Background(), customer, domain.CreateOrderRequest{
		Items: []domain.OrderItemRequest{{ProductID: productID, Quantity: 5}},
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.InsufficientStockError{}, err)
	f.repo.AssertNotCalled(t, "Create")
	f.cart.AssertNotCalled(t, "Clear")
}

// TestCreateOrder_PersistFailureCompensatesStock devolve a reserva quando a
// persistência do pedido falha.
func TestCreateOrder_PersistFailureCompensatesStock(t *testing.T) {
	f := newFixture()
	productID := uuid.New().String()

	f.products.On("GetProductByID", mock.Anything, productID).Return(activeProduct(productID, 10), nil)
	f.stock.On("AdjustMany", mock.Anything, []domain.StockAdjustment{
		{ProductID: productID, Delta: -3},
	}).Return(nil).Once()
	f.repo.On("Create", mock.Anything, mock.Anything).
		Return(domain.Order{}, apperror.NewDBError("Falha ao inserir pedido", assert.AnError))
	// Compensação: o mesmo lote com os deltas invertidos.
	f.stock.On("AdjustMany", mock.Anything, []domain.StockAdjustment{
		{ProductID: productID, Delta: 3},
	}).Return(nil).Once()

	_, err := f.svc.CreateOrder(context.Background(), customer, domain.CreateOrderRequest{
		Items: []domain.OrderItemRequest{{ProductID: productID, Quantity: 3}},
	})

	assert.Error(t, err)
	f.stock.AssertExpectations(t)
	f.cart.AssertNotCalled(t, "Clear")
}

// TestCreateOrder_InactiveProduct rejeita produto fora do catálogo ativo.
func TestCreateOrder_InactiveProduct(t *testing.T) {
	f := newFixture()
	productID := uuid.New().String()

	product := activeProduct(productID, 10)
	product.Status = domain.ProductStatusDraft
	f.products.On("GetProductByID", mock.Anything, productID).Return(product, nil)

	_, err := f.svc.CreateOrder(context.Background(), customer, domain.CreateOrderRequest{
		Items: []domain.OrderItemRequest{{ProductID: productID, Quantity: 1}},
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	f.stock.AssertNotCalled(t, "AdjustMany")
}

// TestCancelOrder_RestoresStock cancela um pedido pendente devolvendo o estoque.
func TestCancelOrder_RestoresStock(t *testing.T) {
	f := newFixture()
	productID := uuid.New().String()

	pending := domain.Order{
		ID:     "order-3",
		UserID: customer.ID,
		Status: domain.OrderStatusPending,
		Items: []domain.OrderItem{
			{ProductID: productID, Quantity: 2},
		},
	}

	f.repo.On("FindByID", mock.Anything, "order-3").Return(pending, nil)
	f.stock.On("AdjustMany", mock.Anything, []domain.StockAdjustment{
		{ProductID: productID, Delta: 2},
	}).Return(nil)
	f.repo.On("UpdateStatus", mock.Anything, "order-3", mock.MatchedBy(func(e domain.StatusHistoryEntry) bool {
		return e.Status == domain.OrderStatusCancelled && e.Note == "Pedido cancelado pelo cliente."
	}), "", "").Return(domain.Order{ID: "order-3", Status: domain.OrderStatusCancelled}, nil)
	f.notifier.On("OrderCancelled", mock.Anything, mock.Anything).Return(nil)

	cancelled, err := f.svc.CancelOrder(context.Background(), customer, "order-3", "")

	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	f.stock.AssertExpectations(t)
}

// TestCancelOrder_DeliveredIsRejected não permite cancelar pedido entregue.
func TestCancelOrder_DeliveredIsRejected(t *testing.T) {
	f := newFixture()

	delivered := domain.Order{ID: "order-4", UserID: customer.ID, Status: domain.OrderStatusDelivered}
	f.repo.On("FindByID", mock.Anything, "order-4").Return(delivered, nil)

	_, err := f.svc.CancelOrder(context.Background(), customer, "order-4", "")

	assert.Error(t, err)
	assert.IsType(t, &apperror.InvalidTransitionError{}, err)
	f.stock.AssertNotCalled(t, "AdjustMany")
}

// TestCancelOrder_OtherUsersOrder rejeita cancelamento de pedido alheio.
func TestCancelOrder_OtherUsersOrder(t *testing.T) {
	f := newFixture()

	other := domain.Order{ID: "order-5", UserID: "user-2", Status: domain.OrderStatusPending}
	f.repo.On("FindByID", mock.Anything, "order-5").Return(other, nil)

	_, err := f.svc.CancelOrder(context.Background(), customer, "order-5", "")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
}

// TestUpdateStatus_ValidTransition avança pending -> processing.
func TestUpdateStatus_ValidTransition(t *testing.T) {
	f := newFixture()

	pending := domain.Order{ID: "order-6", Status: domain.OrderStatusPending}
	f.repo.On("FindByID", mock.Anything, "order-6").Return(pending, nil)
	f.repo.On("UpdateStatus", mock.Anything, "order-6", mock.MatchedBy(func(e domain.StatusHistoryEntry) bool {
		return e.Status == domain.OrderStatusProcessing
	}), "", "").Return(domain.Order{ID: "order-6", Status: domain.OrderStatusProcessing}, nil)
	f.notifier.On("OrderStatusChanged", mock.Anything, mock.Anything).Return(nil)

	updated, err := f.svc.UpdateStatus(context.Background(), admin, "order-6", domain.UpdateStatusRequest{
		Status: domain.OrderStatusProcessing,
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, updated.Status)
}

// TestUpdateStatus_InvalidTransition rejeita pending -> delivered.
func TestUpdateStatus_InvalidTransition(t *testing.T) {
	f := newFixture()

	pending := domain.Order{ID: "order-7", Status: domain.OrderStatusPending}
	f.repo.On("FindByID", mock.Anything, "order-7").Return(pending, nil)

	_, err := f.svc.UpdateStatus(context.Background(), admin, "order-7", domain.UpdateStatusRequest{
		Status: domain.OrderStatusDelivered,
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.InvalidTransitionError{}, err)
	f.repo.AssertNotCalled(t, "UpdateStatus")
}

// TestUpdateStatus_NonAdmin rejeita transições feitas por clientes.
func TestUpdateStatus_NonAdmin(t *testing.T) {
	f := newFixture()

	_, err := f.svc.UpdateStatus(context.Background(), customer, "order-8", domain.UpdateStatusRequest{
		Status: domain.OrderStatusShipped,
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
	f.repo.AssertNotCalled(t, "FindByID")
}

// TestUpdateStatus_ShippedWithTracking repassa transportadora e rastreio.
func TestUpdateStatus_ShippedWithTracking(t *testing.T) {
	f := newFixture()

	processing := domain.Order{ID: "order-9", Status: domain.OrderStatusProcessing}
	f.repo.On("FindByID", mock.Anything, "order-9").Return(processing, nil)
	f.repo.On("UpdateStatus", mock.Anything, "order-9", mock.Anything, "correios", "BR123456789").
		Return(domain.Order{ID: "order-9", Status: domain.OrderStatusShipped}, nil)
	f.notifier.On("OrderStatusChanged", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.UpdateStatus(context.Background(), admin, "order-9", domain.UpdateStatusRequest{
		Status:         domain.OrderStatusShipped,
		Carrier:        "correios",
		TrackingNumber: "BR123456789",
	})

	assert.NoError(t, err)
	f.repo.AssertExpectations(t)
}

// TestGetOrders_CustomerScopedToOwn força o filtro para o próprio usuário.
func TestGetOrders_CustomerScopedToOwn(t *testing.T) {
	f := newFixture()

	f.repo.On("FindAll", mock.Anything, domain.OrderFilter{Page: 1, Limit: 10, UserID: customer.ID}).
		Return([]domain.Order{}, nil)

	_, err := f.svc.GetOrders(context.Background(), customer, domain.OrderFilter{
		Page: 1, Limit: 10, UserID: "user-2", // tentativa de ver pedidos de outro usuário
	})

	assert.NoError(t, err)
	f.repo.AssertExpectations(t)
}

// TestGetOrderByID_OwnershipEnforced esconde pedidos de outros usuários.
func TestGetOrderByID_OwnershipEnforced(t *testing.T) {
	f := newFixture()

	other := domain.Order{ID: "order-10", UserID: "user-2"}
	f.repo.On("FindByID", mock.Anything, "order-10").Return(other, nil)

	_, err := f.svc.GetOrderByID(context.Background(), customer, "order-10")
	assert.IsType(t, &apperror.ForbiddenError{}, err)

	// Admin enxerga qualquer pedido.
	got, err := f.svc.GetOrderByID(context.Background(), admin, "order-10")
	assert.NoError(t, err)
	assert.Equal(t, "order-10", got.ID)
}

// TestOrderStatusTable cobre a tabela estática de transições.
func TestOrderStatusTable(t *testing.T) {
	cases := []struct {
		from    domain.OrderStatus
		to      domain.OrderStatus
		allowed bool
	}{
		{domain.OrderStatusPending, domain.OrderStatusProcessing, true},
		{domain.OrderStatusPending, domain.OrderStatusCancelled, true},
		{domain.OrderStatusPending, domain.OrderStatusDelivered, false},
		{domain.OrderStatusProcessing, domain.OrderStatusShipped, true},
		{domain.OrderStatusProcessing, domain.OrderStatusCancelled, true},
		{domain.OrderStatusShipped, domain.OrderStatusDelivered, true},
		{domain.OrderStatusShipped, domain.OrderStatusCancelled, false},
		{domain.OrderStatusDelivered, domain.OrderStatusRefunded, true},
		{domain.OrderStatusCancelled, domain.OrderStatusRefunded, true},
		{domain.OrderStatusRefunded, domain.OrderStatusPending, false},
		{domain.OrderStatusRefunded, domain.OrderStatusRefunded, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"transição %s -> %s", tc.from, tc.to)
	}
}

// TestCancelOrder_DefaultAdminNote usa a nota padrão de admin.
func TestCancelOrder_DefaultAdminNote(t *testing.T) {
	f := newFixture()

	pending := domain.Order{
		ID: "order-11", UserID: customer.ID, Status: domain.OrderStatusProcessing,
		Items: []domain.OrderItem{{ProductID: "p1", Quantity: 1}},
	}
	f.repo.On("FindByID", mock.Anything, "order-11").Return(pending, nil)
	f.stock.On("AdjustMany", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("UpdateStatus", mock.Anything, "order-11", mock.MatchedBy(func(e domain.StatusHistoryEntry) bool {
		return e.Note == "Pedido cancelado pelo administrador." && e.Date.Before(time.Now().Add(time.Second))
	}), "", "").Return(domain.Order{ID: "order-11", Status: domain.OrderStatusCancelled}, nil)
	f.notifier.On("OrderCancelled", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.CancelOrder(context.Background(), admin, "order-11", "")

	assert.NoError(t, err)
	f.repo.AssertExpectations(t)
}
