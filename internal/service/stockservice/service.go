package stockservice

import (
	"context"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
)

// StockRepository define o contrato que o Serviço de Estoque espera da camada
// de Persistência. Os ajustes são condicionais: nenhum caminho pode deixar o
// estoque negativo.
type StockRepository interface {
	AdjustStock(ctx context.Context, adjustment domain.StockAdjustment) (domain.StockLevel, error)
	AdjustMany(ctx context.Context, adjustments []domain.StockAdjustment) error
}

// Service implementa os ajustes manuais de estoque (reposição e baixa de admin).
type Service struct {
	repo   StockRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Estoque.
func NewService(repo StockRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// AdjustStock aplica um delta manual ao estoque de um produto ou variante.
// Delta positivo repõe; delta negativo dá baixa e é rejeitado quando o saldo
// não comporta.
func (s *Service) AdjustStock(ctx context.Context, req domain.StockAdjustmentRequest) (domain.StockLevel, error) {
	if req.ProductID == "" {
		return domain.StockLevel{}, apperror.NewValidationError("O ID do produto é obrigatório.")
	}
	if req.Delta == 0 {
		return domain.StockLevel{}, apperror.NewValidationError("O delta de ajuste não pode ser zero.")
	}

	s.logger.Info("Ajuste manual de estoque solicitado.", map[string]interface{}{
		"product_id": req.ProductID,
		"variant_id": req.VariantID,
		"delta":      req.Delta,
	})

	return s.repo.AdjustStock(ctx, domain.StockAdjustment{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Delta:     req.Delta,
	})
}
