package domain

import "time"

// OrderStatus representa o estado de um pedido no seu ciclo de vida.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// ValidOrderStatus verifica se o valor informado é um status reconhecido.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// allowedTransitions é a tabela estática de transições permitidas:
// avanço pending -> processing -> shipped -> delivered, transições laterais
// de cancelamento a partir de pending|processing, e refund a partir de
// qualquer estado não-refunded.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusRefunded},
	OrderStatusDelivered:  {OrderStatusRefunded},
	OrderStatusCancelled:  {OrderStatusRefunded},
	OrderStatusRefunded:   {},
}

// CanTransitionTo consulta a tabela de transições.
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Cancellable indica se um pedido neste status ainda pode ser cancelado.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

// OrderItem é uma linha do pedido: produto/variante + quantidade,
// com o preço unitário congelado no momento da compra.
type OrderItem struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"order_id"`
	ProductID string  `json:"product_id"`
	VariantID string  `json:"variant_id,omitempty"` // vazio quando o item não tem variante
	Quantity  int     `json:"quantity"`             // >= 1
	UnitPrice float64 `json:"unit_price"`
}

// Discount registra o cupom aplicado ao pedido e o valor descontado.
type Discount struct {
	CouponID   string  `json:"coupon_id,omitempty"`
	CouponCode string  `json:"coupon_code,omitempty"`
	Amount     float64 `json:"amount"`
}

// ShippingInfo agrupa custo e rastreio do envio.
type ShippingInfo struct {
	Cost           float64 `json:"cost"`
	Method         string  `json:"method"` // standard | express
	Carrier        string  `json:"carrier,omitempty"`
	TrackingNumber string  `json:"tracking_number,omitempty"`
}

// Address é um endereço postal simples.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// BillingAddress é o endereço de cobrança, possivelmente igual ao de entrega.
type BillingAddress struct {
	SameAsShipping bool `json:"same_as_shipping"`
	Address
}

// PaymentInfo agrupa os dados de pagamento registrados no pedido.
// O processamento em si é responsabilidade de um colaborador externo.
type PaymentInfo struct {
	Method        string `json:"method"` // credit_card | google_pay | paypal
	Status        string `json:"status"` // pending | completed | failed | refunded
	TransactionID string `json:"transaction_id,omitempty"`
	Last4         string `json:"last4,omitempty"`
}

// StatusHistoryEntry é uma entrada do histórico append-only de status.
type StatusHistoryEntry struct {
	Status OrderStatus `json:"status"`
	Date   time.Time   `json:"date"`
	Note   string      `json:"note,omitempty"`
}

// Order representa um pedido. Pedidos são criados uma única vez e depois
// mutados apenas por transição de status ou cancelamento; nunca deletados.
type Order struct {
	ID              string               `json:"id"`
	UserID          string               `json:"user_id"`
	Items           []OrderItem          `json:"items"`
	Subtotal        float64              `json:"subtotal"`
	Discount        Discount             `json:"discount"`
	Shipping        ShippingInfo         `json:"shipping"`
	TotalAmount     float64              `json:"total_amount"`
	ShippingAddress Address              `json:"shipping_address"`
	BillingAddress  BillingAddress       `json:"billing_address"`
	PaymentInfo     PaymentInfo          `json:"payment_info"`
	Status          OrderStatus          `json:"status"`
	StatusHistory   []StatusHistoryEntry `json:"status_history"`
	CustomerNotes   string               `json:"customer_notes,omitempty"`
	AdminNotes      string               `json:"admin_notes,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// OrderItemRequest é uma linha do payload de criação de pedido.
type OrderItemRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest é o payload esperado para a criação de pedido.
type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items"`
	CouponCode      string             `json:"coupon_code,omitempty"`
	Shipping        ShippingInfo       `json:"shipping"`
	ShippingAddress Address            `json:"shipping_address"`
	BillingAddress  BillingAddress     `json:"billing_address"`
	PaymentMethod   string             `json:"payment_method"`
	CustomerNotes   string             `json:"customer_notes,omitempty"`
}

// UpdateStatusRequest é o payload de PATCH /v1/orders/{id}/status.
type UpdateStatusRequest struct {
	Status         OrderStatus `json:"status"`
	Note           string      `json:"note,omitempty"`
	Carrier        string      `json:"carrier,omitempty"`
	TrackingNumber string      `json:"tracking_number,omitempty"`
}

// OrderFilter define paginação e escopo da listagem de pedidos.
// UserID vazio = todos os pedidos (visão de admin).
type OrderFilter struct {
	Page   int
	Limit  int
	UserID string
}
