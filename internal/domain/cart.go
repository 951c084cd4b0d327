package domain

// CartItem é uma entrada do carrinho persistido de um usuário.
// O carrinho vive no servidor e é buscado por requisição; não existe
// estado de carrinho em memória compartilhado entre requisições.
type CartItem struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

// CartItemRequest é o payload de PUT /v1/cart/items.
type CartItemRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}
