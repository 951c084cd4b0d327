package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"goshop/internal/domain"
)

// TestDiscountFor cobre o cálculo percentual e fixo.
func TestDiscountFor(t *testing.T) {
	percentual := domain.Coupon{DiscountType: domain.DiscountPercentage, DiscountAmount: 10}
	assert.Equal(t, 20.0, percentual.DiscountFor(200))
	assert.Equal(t, 0.0, percentual.DiscountFor(0))

	fixo := domain.Coupon{DiscountType: domain.DiscountFixed, DiscountAmount: 15}
	assert.Equal(t, 15.0, fixo.DiscountFor(100))
	// O desconto fixo não é limitado ao subtotal.
	assert.Equal(t, 15.0, fixo.DiscountFor(10))
}

// TestHasUsesLeft cobre o limite de usos, inclusive o caso ilimitado.
func TestHasUsesLeft(t *testing.T) {
	ilimitado := domain.Coupon{UsedCount: 1000}
	assert.True(t, ilimitado.HasUsesLeft())

	max := 3
	limitado := domain.Coupon{MaxUses: &max, UsedCount: 2}
	assert.True(t, limitado.HasUsesLeft())

	limitado.UsedCount = 3
	assert.False(t, limitado.HasUsesLeft())
}

// TestUnitPriceFor resolve o preço da variante ou o preço base.
func TestUnitPriceFor(t *testing.T) {
	product := domain.Product{
		BasePrice: 50,
		Variants: []domain.Variant{
			{ID: "var-1", Price: 60},
		},
	}

	price, ok := product.UnitPriceFor("")
	assert.True(t, ok)
	assert.Equal(t, 50.0, price)

	price, ok = product.UnitPriceFor("var-1")
	assert.True(t, ok)
	assert.Equal(t, 60.0, price)

	_, ok = product.UnitPriceFor("var-999")
	assert.False(t, ok)
}

// TestIsLowStock considera variantes quando existem, senão o produto.
func TestIsLowStock(t *testing.T) {
	semVariantes := domain.Product{Stock: 3, LowStockThreshold: 5}
	assert.True(t, semVariantes.IsLowStock())

	comVariantes := domain.Product{
		Stock:             0, // ignorado quando há variantes
		LowStockThreshold: 5,
		Variants: []domain.Variant{
			{Stock: 100},
			{Stock: 2},
		},
	}
	assert.True(t, comVariantes.IsLowStock())

	comVariantes.Variants[1].Stock = 50
	assert.False(t, comVariantes.IsLowStock())
}
