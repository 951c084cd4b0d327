package domain

import "time"

// DiscountType define a forma de cálculo do desconto de um cupom.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon representa um cupom de desconto.
// Invariantes: DiscountAmount >= 0; UsedCount <= MaxUses quando MaxUses != nil;
// o cupom só é avaliável dentro da janela [StartDate, EndDate].
type Coupon struct {
	ID              string       `json:"id"`
	Code            string       `json:"code"` // Sempre armazenado em maiúsculas
	DiscountType    DiscountType `json:"discount_type"`
	DiscountAmount  float64      `json:"discount_amount"`
	MinimumPurchase float64      `json:"minimum_purchase"`
	StartDate       time.Time    `json:"start_date"`
	EndDate         time.Time    `json:"end_date"`
	MaxUses         *int         `json:"max_uses,omitempty"` // nil = uso ilimitado
	UsedCount       int          `json:"used_count"`
	IsActive        bool         `json:"is_active"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// DiscountFor calcula o valor de desconto para um subtotal.
// Percentual: subtotal * amount / 100. Fixo: o próprio amount.
// O resultado nunca é negativo. O valor NÃO é limitado ao subtotal:
// um cupom fixo maior que o subtotal produz total negativo (comportamento
// herdado do sistema de origem; ver DESIGN.md).
func (c Coupon) DiscountFor(subtotal float64) float64 {
	var discount float64
	if c.DiscountType == DiscountPercentage {
		discount = subtotal * c.DiscountAmount / 100
	} else {
		discount = c.DiscountAmount
	}
	if discount < 0 {
		return 0
	}
	return discount
}

// HasUsesLeft indica se o cupom ainda pode ser utilizado.
func (c Coupon) HasUsesLeft() bool {
	if c.MaxUses == nil {
		return true
	}
	return c.UsedCount < *c.MaxUses
}

// CouponEvaluation é o resultado da avaliação de um cupom contra um subtotal.
type CouponEvaluation struct {
	Coupon         Coupon  `json:"coupon"`
	DiscountAmount float64 `json:"discount_amount"`
}
