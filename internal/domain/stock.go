package domain

// StockAdjustment descreve um delta de estoque sobre um alvo:
// a variante quando VariantID for informado, senão o próprio produto.
type StockAdjustment struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Delta     int    `json:"delta"`
}

// StockAdjustmentRequest é o payload esperado para POST /v1/stock/adjust.
type StockAdjustmentRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Delta     int    `json:"delta"` // Quantidade a ser adicionada/removida
}

// StockLevel é a resposta de um ajuste de estoque: o novo saldo do alvo.
type StockLevel struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Stock     int    `json:"stock"`
}
