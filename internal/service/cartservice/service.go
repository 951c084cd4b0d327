package cartservice

import (
	"context"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
)

// CartRepository define o contrato que o Serviço de Carrinho espera da camada
// de Persistência.
type CartRepository interface {
	FindByUser(ctx context.Context, userID string) ([]domain.CartItem, error)
	UpsertItem(ctx context.Context, item domain.CartItem) error
	RemoveItem(ctx context.Context, userID, productID, variantID string) error
	Clear(ctx context.Context, userID string) error
}

// ProductReader valida a existência e disponibilidade de produtos do carrinho.
type ProductReader interface {
	GetProductByID(ctx context.Context, id string) (domain.Product, error)
}

// Service implementa as operações do carrinho persistente por usuário.
// Adicionar ao carrinho não reserva estoque: a reserva só acontece na
// criação do pedido.
type Service struct {
	repo     CartRepository
	products ProductReader
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Carrinho.
func NewService(repo CartRepository, products ProductReader, logger logger.Logger) *Service {
	return &Service{repo: repo, products: products, logger: logger}
}

// GetCart lista os itens do carrinho do ator.
func (s *Service) GetCart(ctx context.Context, actor domain.Actor) ([]domain.CartItem, error) {
	return s.repo.FindByUser(ctx, actor.ID)
}

// SetItem insere ou atualiza um item do carrinho com a quantidade informada.
func (s *Service) SetItem(ctx context.Context, actor domain.Actor, req domain.CartItemRequest) error {
	if req.ProductID == "" {
		return apperror.NewValidationError("O ID do produto é obrigatório.")
	}
	if req.Quantity < 1 {
		return apperror.NewValidationError("A quantidade deve ser pelo menos 1.")
	}

	product, err := s.products.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return err
	}
	if product.Status != domain.ProductStatusActive {
		return apperror.NewValidationError("O produto não está disponível para compra.")
	}
	if req.VariantID != "" {
		if _, ok := product.UnitPriceFor(req.VariantID); !ok {
			return apperror.NewNotFoundError("A variante informada não existe no produto.")
		}
	}

	return s.repo.UpsertItem(ctx, domain.CartItem{
		UserID:    actor.ID,
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
}

// RemoveItem remove um item do carrinho do ator.
func (s *Service) RemoveItem(ctx context.Context, actor domain.Actor, productID, variantID string) error {
	if productID == "" {
		return apperror.NewValidationError("O ID do produto é obrigatório.")
	}
	return s.repo.RemoveItem(ctx, actor.ID, productID, variantID)
}

// ClearCart esvazia o carrinho do ator.
func (s *Service) ClearCart(ctx context.Context, actor domain.Actor) error {
	return s.repo.Clear(ctx, actor.ID)
}
