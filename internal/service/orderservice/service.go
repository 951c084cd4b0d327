package orderservice

import (
	"context"
	"fmt"
	"time"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
	"goshop/internal/pkg/notifier"
)

// OrderRepository define o contrato que o Serviço de Pedidos espera da camada
// de Persistência.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
	FindByID(ctx context.Context, id string) (domain.Order, error)
	FindAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, entry domain.StatusHistoryEntry, carrier, trackingNumber string) (domain.Order, error)
}

// ProductReader resolve produtos e preços congelados no momento da compra.
type ProductReader interface {
	GetProductByID(ctx context.Context, id string) (domain.Product, error)
}

// StockAdjuster reserva e devolve estoque em lote, tudo-ou-nada.
type StockAdjuster interface {
	AdjustMany(ctx context.Context, adjustments []domain.StockAdjustment) error
}

// CouponEvaluator avalia e registra o uso de cupons.
type CouponEvaluator interface {
	Evaluate(ctx context.Context, code string, subtotal float64) (domain.CouponEvaluation, error)
	RegisterUse(ctx context.Context, couponID string) error
}

// CartClearer esvazia o carrinho do usuário após a criação do pedido.
type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

// Service orquestra o ciclo de vida do pedido: criação com reserva de estoque,
// transições de status pela tabela estática e cancelamento com devolução.
type Service struct {
	repo     OrderRepository
	products ProductReader
	stock    StockAdjuster
	coupons  CouponEvaluator
	cart     CartClearer
	notifier notifier.Notifier
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Pedidos.
func NewService(
	repo OrderRepository,
	products ProductReader,
	stock StockAdjuster,
	coupons CouponEvaluator,
	cart CartClearer,
	n notifier.Notifier,
	logger logger.Logger,
) *Service {
	return &Service{
		repo:     repo,
		products: products,
		stock:    stock,
		coupons:  coupons,
		cart:     cart,
		notifier: n,
		logger:   logger,
	}
}

// CreateOrder cria um pedido de forma tudo-ou-nada:
//  1. valida os itens e congela os preços unitários atuais;
//  2. avalia o cupom (se informado) sobre o subtotal;
//  3. reserva o estoque de todos os itens em uma única transação;
//  4. persiste o pedido; em caso de falha, devolve a reserva (compensação);
//  5. registra o uso do cupom e limpa o carrinho (falhas aqui só geram warn).
//
// Nenhuma das falhas dos passos 1-4 deixa efeito parcial observável.
func (s *Service) CreateOrder(ctx context.Context, actor domain.Actor, req domain.CreateOrderRequest) (domain.Order, error) {
	if len(req.Items) == 0 {
		return domain.Order{}, apperror.NewValidationError("O pedido deve ter pelo menos um item.")
	}
	if req.Shipping.Cost < 0 {
		return domain.Order{}, apperror.NewValidationError("O custo de envio não pode ser negativo.")
	}

	s.logger.Info("Iniciando criação de pedido.", map[string]interface{}{
		"user_id": actor.ID,
		"items":   len(req.Items),
	})

	// Passo 1: resolve cada item contra o catálogo, congelando o preço.
	items := make([]domain.OrderItem, 0, len(req.Items))
	adjustments := make([]domain.StockAdjustment, 0, len(req.Items))
	var subtotal float64

	for _, line := range req.Items {
		if line.Quantity < 1 {
			return domain.Order{}, apperror.NewValidationError(
				fmt.Sprintf("A quantidade do produto %s deve ser pelo menos 1.", line.ProductID),
			)
		}

		product, err := s.products.GetProductByID(ctx, line.ProductID)
		if err != nil {
			return domain.Order{}, err
		}
		if product.Status != domain.ProductStatusActive {
			return domain.Order{}, apperror.NewValidationError(
				fmt.Sprintf("O produto '%s' não está disponível para compra.", product.Name),
			)
		}

		unitPrice, ok := product.UnitPriceFor(line.VariantID)
		if !ok {
			return domain.Order{}, apperror.NewNotFoundError(
				fmt.Sprintf("Variante %s do produto %s não existe.", line.VariantID, line.ProductID),
			)
		}

		items = append(items, domain.OrderItem{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
		})
		adjustments = append(adjustments, domain.StockAdjustment{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Delta:     -line.Quantity,
		})
		subtotal += unitPrice * float64(line.Quantity)
	}

	// Passo 2: cupom (opcional).
	var discount domain.Discount
	if req.CouponCode != "" {
		evaluation, err := s.coupons.Evaluate(ctx, req.CouponCode, subtotal)
		if err != nil {
			return domain.Order{}, err
		}
		discount = domain.Discount{
			CouponID:   evaluation.Coupon.ID,
			CouponCode: evaluation.Coupon.Code,
			Amount:     evaluation.DiscountAmount,
		}
	}

	// Passo 3: reserva de estoque em lote. Qualquer item sem saldo aborta
	// o lote inteiro dentro do repositório, sem efeito parcial.
	if err := s.stock.AdjustMany(ctx, adjustments); err != nil {
		return domain.Order{}, err
	}

	now := time.Now()
	order := domain.Order{
		UserID:          actor.ID,
		Items:           items,
		Subtotal:        subtotal,
		Discount:        discount,
		Shipping:        req.Shipping,
		TotalAmount:     subtotal - discount.Amount + req.Shipping.Cost,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentInfo: domain.PaymentInfo{
			Method: req.PaymentMethod,
			Status: "pending",
		},
		Status:        domain.OrderStatusPending,
		CustomerNotes: req.CustomerNotes,
		StatusHistory: []domain.StatusHistoryEntry{
			{Status: domain.OrderStatusPending, Date: now, Note: "Pedido criado."},
		},
	}
	if order.BillingAddress.SameAsShipping {
		order.BillingAddress.Address = req.ShippingAddress
	}

	// Passo 4: persistência. Se falhar, a reserva de estoque é devolvida.
	created, err := s.repo.Create(ctx, order)
	if err != nil {
		s.logger.Error("Falha ao persistir pedido; devolvendo reserva de estoque.", err)
		if compErr := s.stock.AdjustMany(ctx, invert(adjustments)); compErr != nil {
			// Falha dupla: a reserva ficou órfã. Precisa de reconciliação manual.
			s.logger.Error("Falha ao compensar reserva de estoque após erro de persistência.", compErr)
		}
		return domain.Order{}, err
	}

	// Passo 5: efeitos pós-commit. Falhas aqui não desfazem o pedido.
	if discount.CouponID != "" {
		if err := s.coupons.RegisterUse(ctx, discount.CouponID); err != nil {
			s.logger.Warn("Falha ao registrar uso do cupom após criação do pedido.", map[string]interface{}{
				"order_id":  created.ID,
				"coupon_id": discount.CouponID,
				"error":     err.Error(),
			})
		}
	}
	if err := s.cart.Clear(ctx, actor.ID); err != nil {
		s.logger.Warn("Falha ao limpar carrinho após criação do pedido.", map[string]interface{}{
			"order_id": created.ID,
			"user_id":  actor.ID,
			"error":    err.Error(),
		})
	}
	if err := s.notifier.OrderCreated(ctx, created); err != nil {
		s.logger.Warn("Falha ao notificar criação do pedido.", map[string]interface{}{
			"order_id": created.ID,
			"error":    err.Error(),
		})
	}

	s.logger.Info("Pedido criado com sucesso.", map[string]interface{}{
		"order_id": created.ID,
		"user_id":  created.UserID,
		"subtotal": created.Subtotal,
		"discount": created.Discount.Amount,
		"total":    created.TotalAmount,
	})
	return created, nil
}

// GetOrderByID busca um pedido. Clientes só enxergam os próprios pedidos;
// admins enxergam qualquer um.
func (s *Service) GetOrderByID(ctx context.Context, actor domain.Actor, orderID string) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, apperror.NewValidationError("O ID do pedido é obrigatório.")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if !actor.IsAdmin() && order.UserID != actor.ID {
		return domain.Order{}, apperror.NewForbiddenError("Este pedido pertence a outro usuário.")
	}
	return order, nil
}

// GetOrders lista pedidos paginados. Admins veem todos; clientes veem apenas
// os próprios, independente do filtro enviado.
func (s *Service) GetOrders(ctx context.Context, actor domain.Actor, filter domain.OrderFilter) ([]domain.Order, error) {
	if !actor.IsAdmin() {
		filter.UserID = actor.ID
	}
	return s.repo.FindAll(ctx, filter)
}

// UpdateStatus aplica uma transição de status (operação de admin).
// A transição precisa ser permitida pela tabela estática; caso contrário
// falha com InvalidTransition e o pedido permanece intocado.
func (s *Service) UpdateStatus(ctx context.Context, actor domain.Actor, orderID string, req domain.UpdateStatusRequest) (domain.Order, error) {
	if !actor.IsAdmin() {
		return domain.Order{}, apperror.NewForbiddenError("Apenas administradores alteram o status de pedidos.")
	}
	if !domain.ValidOrderStatus(req.Status) {
		return domain.Order{}, apperror.NewValidationError(fmt.Sprintf("Status '%s' não é reconhecido.", req.Status))
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if !order.Status.CanTransitionTo(req.Status) {
		return domain.Order{}, apperror.NewInvalidTransitionError(
			fmt.Sprintf("Transição de '%s' para '%s' não é permitida.", order.Status, req.Status),
		)
	}

	// Cancelamento via transição genérica passa pelo mesmo caminho do
	// CancelOrder para garantir a devolução de estoque.
	if req.Status == domain.OrderStatusCancelled {
		return s.cancel(ctx, order, req.Note, "Pedido cancelado pelo administrador.")
	}

	entry := domain.StatusHistoryEntry{
		Status: req.Status,
		Date:   time.Now(),
		Note:   req.Note,
	}

	updated, err := s.repo.UpdateStatus(ctx, orderID, entry, req.Carrier, req.TrackingNumber)
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.notifier.OrderStatusChanged(ctx, updated); err != nil {
		s.logger.Warn("Falha ao notificar mudança de status.", map[string]interface{}{
			"order_id": updated.ID,
			"error":    err.Error(),
		})
	}
	return updated, nil
}

// CancelOrder cancela um pedido pendente ou em processamento, devolvendo o
// estoque reservado. Clientes cancelam os próprios pedidos; admins, qualquer um.
func (s *Service) CancelOrder(ctx context.Context, actor domain.Actor, orderID, note string) (domain.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if !actor.IsAdmin() && order.UserID != actor.ID {
		return domain.Order{}, apperror.NewForbiddenError("Este pedido pertence a outro usuário.")
	}

	defaultNote := "Pedido cancelado pelo cliente."
	if actor.IsAdmin() {
		defaultNote = "Pedido cancelado pelo administrador."
	}
	return s.cancel(ctx, order, note, defaultNote)
}

// cancel executa o cancelamento: valida o status, devolve o estoque e grava a
// transição com a nota informada (ou a nota padrão).
func (s *Service) cancel(ctx context.Context, order domain.Order, note, defaultNote string) (domain.Order, error) {
	if !order.Status.Cancellable() {
		return domain.Order{}, apperror.NewInvalidTransitionError(
			fmt.Sprintf("Pedido no status '%s' não pode mais ser cancelado.", order.Status),
		)
	}

	// Devolve o estoque reservado na criação, em lote.
	returns := make([]domain.StockAdjustment, 0, len(order.Items))
	for _, item := range order.Items {
		returns = append(returns, domain.StockAdjustment{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Delta:     item.Quantity,
		})
	}
	if err := s.stock.AdjustMany(ctx, returns); err != nil {
		s.logger.Error("Falha ao devolver estoque no cancelamento.", err)
		return domain.Order{}, err
	}

	if note == "" {
		note = defaultNote
	}
	entry := domain.StatusHistoryEntry{
		Status: domain.OrderStatusCancelled,
		Date:   time.Now(),
		Note:   note,
	}

	cancelled, err := s.repo.UpdateStatus(ctx, order.ID, entry, "", "")
	if err != nil {
		// Persistência falhou depois da devolução: refaz a reserva para não
		// inflar o estoque de um pedido que continua vivo.
		if compErr := s.stock.AdjustMany(ctx, invert(returns)); compErr != nil {
			s.logger.Error("Falha ao reverter devolução de estoque após erro de cancelamento.", compErr)
		}
		return domain.Order{}, err
	}

	if err := s.notifier.OrderCancelled(ctx, cancelled); err != nil {
		s.logger.Warn("Falha ao notificar cancelamento.", map[string]interface{}{
			"order_id": cancelled.ID,
			"error":    err.Error(),
		})
	}

	s.logger.Info("Pedido cancelado com devolução de estoque.", map[string]interface{}{
		"order_id": cancelled.ID,
		"items":    len(order.Items),
	})
	return cancelled, nil
}

// invert nega os deltas de um lote de ajustes (compensação).
func invert(adjustments []domain.StockAdjustment) []domain.StockAdjustment {
	inverted := make([]domain.StockAdjustment, len(adjustments))
	for i, a := range adjustments {
		inverted[i] = domain.StockAdjustment{
			ProductID: a.ProductID,
			VariantID: a.VariantID,
			Delta:     -a.Delta,
		}
	}
	return inverted
}
