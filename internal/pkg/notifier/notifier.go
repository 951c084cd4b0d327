package notifier

import (
	"context"

	"goshop/internal/domain"
	"goshop/internal/pkg/logger"
)

// Notifier define o contrato de notificação de eventos de pedido.
// A entrega em si (email, push, etc.) é um colaborador externo: falhas aqui
// são logadas e nunca bloqueiam a transição já commitada do pedido.
type Notifier interface {
	OrderCreated(ctx context.Context, order domain.Order) error
	OrderStatusChanged(ctx context.Context, order domain.Order) error
	OrderCancelled(ctx context.Context, order domain.Order) error
}

// LogNotifier é a implementação padrão: registra o evento no log estruturado.
// Serve como ponto de integração para um provedor real de email no futuro.
type LogNotifier struct {
	logger logger.Logger
}

// NewLogNotifier cria e retorna um novo LogNotifier.
func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

// OrderCreated registra a confirmação de criação do pedido.
func (n *LogNotifier) OrderCreated(ctx context.Context, order domain.Order) error {
	n.logger.Info("Notificação: pedido criado.", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.TotalAmount,
	})
	return nil
}

// OrderStatusChanged registra a mudança de status do pedido.
func (n *LogNotifier) OrderStatusChanged(ctx context.Context, order domain.Order) error {
	fields := map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
	}
	if order.Shipping.TrackingNumber != "" {
		fields["carrier"] = order.Shipping.Carrier
		fields["tracking_number"] = order.Shipping.TrackingNumber
	}
	n.logger.Info("Notificação: status do pedido alterado.", fields)
	return nil
}

// OrderCancelled registra o cancelamento do pedido.
func (n *LogNotifier) OrderCancelled(ctx context.Context, order domain.Order) error {
	n.logger.Info("Notificação: pedido cancelado.", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
	})
	return nil
}
