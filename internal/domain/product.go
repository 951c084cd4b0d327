package domain

import (
	"time"
)

// ProductStatus representa o estado de publicação do produto no catálogo.
type ProductStatus string

const (
	ProductStatusActive     ProductStatus = "active"
	ProductStatusDraft      ProductStatus = "draft"
	ProductStatusOutOfStock ProductStatus = "out_of_stock"
)

// ProductCategory é o conjunto fechado de categorias do catálogo.
type ProductCategory string

const (
	CategoryElectronics ProductCategory = "electronics"
	CategoryClothing    ProductCategory = "clothing"
	CategoryBooks       ProductCategory = "books"
	CategoryHome        ProductCategory = "home"
)

// ValidCategory verifica se a categoria informada pertence ao conjunto aceito.
func ValidCategory(c ProductCategory) bool {
	switch c {
	case CategoryElectronics, CategoryClothing, CategoryBooks, CategoryHome:
		return true
	}
	return false
}

// Product representa o item principal do catálogo (a Entidade).
// O estoque vive no produto quando ele não possui variantes; caso contrário,
// o controle de estoque é feito a nível de Variant.
// Invariante: Stock >= 0 em repouso (garantido por UPDATE condicional e CHECK no DB).
type Product struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	BasePrice         float64         `json:"base_price"`
	Category          ProductCategory `json:"category"`
	Variants          []Variant       `json:"variants"`
	DefaultImages     []string        `json:"default_images"`
	Tags              []string        `json:"tags"`
	Status            ProductStatus   `json:"status"`
	Rating            float64         `json:"rating"`
	Reviews           []Review        `json:"reviews,omitempty"`
	Stock             int             `json:"stock"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Variant representa uma configuração comprável (SKU) de um Produto,
// com preço e estoque próprios.
type Variant struct {
	ID        string   `json:"id"`
	ProductID string   `json:"product_id"`
	SKU       string   `json:"sku"` // Stock Keeping Unit (código único de produto)
	Size      string   `json:"size,omitempty"`
	Color     string   `json:"color,omitempty"`
	Style     string   `json:"style,omitempty"`
	Price     float64  `json:"price"`
	Stock     int      `json:"stock"`
	Images    []string `json:"images,omitempty"`
}

// Review é uma avaliação de um produto feita por um usuário.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"` // 1 a 5
	Comment   string    `json:"comment,omitempty"`
	Date      time.Time `json:"date"`
}

// IsLowStock indica se alguma variante (ou o próprio produto, quando não há
// variantes) está abaixo do limite de alerta de estoque.
func (p Product) IsLowStock() bool {
	if len(p.Variants) > 0 {
		for _, v := range p.Variants {
			if v.Stock <= p.LowStockThreshold {
				return true
			}
		}
		return false
	}
	return p.Stock <= p.LowStockThreshold
}

// UnitPriceFor resolve o preço unitário de compra: o preço da variante quando
// um variantID é informado, senão o preço base do produto.
// Retorna false quando a variante não existe no produto.
func (p Product) UnitPriceFor(variantID string) (float64, bool) {
	if variantID == "" {
		return p.BasePrice, true
	}
	for _, v := range p.Variants {
		if v.ID == variantID {
			return v.Price, true
		}
	}
	return 0, false
}

// ProductFilter define os parâmetros de busca e paginação do catálogo.
type ProductFilter struct {
	Page       int
	Limit      int
	Name       string
	Category   ProductCategory
	Status     ProductStatus
	ActiveOnly bool
}
