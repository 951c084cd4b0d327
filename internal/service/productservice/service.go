package productservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
)

// ProductRepository define o contrato que o Serviço de Catálogo espera da
// camada de Persistência.
type ProductRepository interface {
	Save(ctx context.Context, product domain.Product) (domain.Product, error)
	FindByID(ctx context.Context, id string) (domain.Product, error)
	FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	Update(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id string) error
	AddReview(ctx context.Context, review domain.Review) (domain.Review, error)
}

// Service implementa as regras de negócio do catálogo de produtos.
type Service struct {
	repo   ProductRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Catálogo.
func NewService(repo ProductRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateProduct valida e persiste um novo produto (operação de admin).
func (s *Service) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if err := validateProduct(product); err != nil {
		return domain.Product{}, err
	}

	now := time.Now()
	product.ID = uuid.NewString()
	product.CreatedAt = now
	product.UpdatedAt = now
	product.Rating = 0
	if product.Status == "" {
		product.Status = domain.ProductStatusDraft
	}

	for i := range product.Variants {
		product.Variants[i].ID = uuid.NewString()
		product.Variants[i].ProductID = product.ID
	}

	created, err := s.repo.Save(ctx, product)
	if err != nil {
		s.logger.Error("Falha ao criar produto no repositório.", err)
		return domain.Product{}, err
	}

	s.logger.Info("Produto criado.", map[string]interface{}{
		"product_id": created.ID,
		"name":       created.Name,
		"variants":   len(created.Variants),
	})
	return created, nil
}

// GetProductByID busca um produto com variantes e avaliações.
func (s *Service) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	if id == "" {
		return domain.Product{}, apperror.NewValidationError("O ID do produto é obrigatório.")
	}
	return s.repo.FindByID(ctx, id)
}

// GetProducts lista produtos com filtros e paginação. Requisições de clientes
// enxergam apenas produtos ativos; admins podem filtrar por qualquer status.
func (s *Service) GetProducts(ctx context.Context, actor domain.Actor, filter domain.ProductFilter) ([]domain.Product, error) {
	if filter.Category != "" && !domain.ValidCategory(filter.Category) {
		return nil, apperror.NewValidationError(fmt.Sprintf("Categoria '%s' não é reconhecida.", filter.Category))
	}
	if !actor.IsAdmin() {
		filter.Status = ""
		filter.ActiveOnly = true
	}
	return s.repo.FindAll(ctx, filter)
}

// UpdateProduct atualiza um produto existente (operação de admin).
// Campos de estoque não são editáveis por aqui: ajustes passam pelo
// Serviço de Estoque, que garante o saldo não-negativo.
func (s *Service) UpdateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if product.ID == "" {
		return domain.Product{}, apperror.NewValidationError("O ID do produto é obrigatório.")
	}
	if err := validateProduct(product); err != nil {
		return domain.Product{}, err
	}

	current, err := s.repo.FindByID(ctx, product.ID)
	if err != nil {
		return domain.Product{}, err
	}

	product.Stock = current.Stock
	product.Rating = current.Rating
	product.CreatedAt = current.CreatedAt

	for i := range product.Variants {
		if product.Variants[i].ID == "" {
			product.Variants[i].ID = uuid.NewString()
		}
		product.Variants[i].ProductID = product.ID
	}

	return s.repo.Update(ctx, product)
}

// DeleteProduct remove um produto do catálogo (operação de admin).
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return apperror.NewValidationError("O ID do produto é obrigatório.")
	}
	return s.repo.Delete(ctx, id)
}

// AddReview registra uma avaliação de 1 a 5 feita pelo ator autenticado.
func (s *Service) AddReview(ctx context.Context, actor domain.Actor, productID string, rating int, comment string) (domain.Review, error) {
	if productID == "" {
		return domain.Review{}, apperror.NewValidationError("O ID do produto é obrigatório.")
	}
	if rating < 1 || rating > 5 {
		return domain.Review{}, apperror.NewValidationError("A nota deve estar entre 1 e 5.")
	}

	return s.repo.AddReview(ctx, domain.Review{
		ProductID: productID,
		UserID:    actor.ID,
		Rating:    rating,
		Comment:   comment,
	})
}

// GetLowStockProducts lista produtos ativos abaixo do limite de alerta de
// estoque (visão de admin para reposição).
func (s *Service) GetLowStockProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	products, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	lowStock := make([]domain.Product, 0)
	for _, p := range products {
		// A listagem não carrega variantes; busca o produto completo
		// apenas para os candidatos pelo estoque do produto.
		full, err := s.repo.FindByID(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if full.IsLowStock() {
			lowStock = append(lowStock, full)
		}
	}
	return lowStock, nil
}

// validateProduct aplica as validações comuns de criação e atualização.
func validateProduct(product domain.Product) error {
	if product.Name == "" {
		return apperror.NewValidationError("O nome do produto é obrigatório.")
	}
	if product.BasePrice < 0 {
		return apperror.NewValidationError("O preço base não pode ser negativo.")
	}
	if !domain.ValidCategory(product.Category) {
		return apperror.NewValidationError(fmt.Sprintf("Categoria '%s' não é reconhecida.", product.Category))
	}
	if product.LowStockThreshold < 0 {
		return apperror.NewValidationError("O limite de alerta de estoque não pode ser negativo.")
	}

	seen := make(map[string]bool, len(product.Variants))
	for _, v := range product.Variants {
		if v.SKU == "" {
			return apperror.NewValidationError("Toda variante precisa de um SKU.")
		}
		if seen[v.SKU] {
			return apperror.NewValidationError(fmt.Sprintf("SKU duplicado no payload: %s.", v.SKU))
		}
		seen[v.SKU] = true
		if v.Price < 0 {
			return apperror.NewValidationError(fmt.Sprintf("O preço da variante %s não pode ser negativo.", v.SKU))
		}
		if v.Stock < 0 {
			return apperror.NewValidationError(fmt.Sprintf("O estoque da variante %s não pode ser negativo.", v.SKU))
		}
	}
	return nil
}
