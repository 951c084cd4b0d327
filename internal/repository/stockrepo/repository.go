package stockrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"goshop/internal/domain"
	"goshop/internal/errors"
	"goshop/internal/pkg/logger"
)

// StockRepository aplica ajustes de estoque sobre produtos e variantes.
// Todos os ajustes usam UPDATE condicional em uma única operação:
// a verificação de saldo e a escrita acontecem no mesmo statement, então
// duas reservas concorrentes nunca podem ultrapassar o estoque disponível.
type StockRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewStockRepository cria e retorna uma nova instância do Repositório de Estoque.
func NewStockRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *StockRepository {
	return &StockRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// queryRower é satisfeito por *sql.DB e *sql.Tx, permitindo reusar a mesma
// lógica de ajuste dentro e fora de transação.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const (
	adjustVariantSQL = `
        UPDATE variants
        SET stock = stock + $1
        WHERE id = $2 AND product_id = $3 AND stock + $1 >= 0
        RETURNING stock`

	adjustProductSQL = `
        UPDATE products
        SET stock = stock + $1, updated_at = $2
        WHERE id = $3 AND stock + $1 >= 0
        RETURNING stock`
)

// AdjustStock aplica um delta ao estoque do alvo (variante ou produto).
// Falha com NotFoundError quando o alvo não existe e com
// InsufficientStockError quando o delta deixaria o estoque negativo.
func (r *StockRepository) AdjustStock(ctx context.Context, adjustment domain.StockAdjustment) (domain.StockLevel, error) {
	r.logger.Debug("Iniciando ajuste de estoque no repositório.", map[string]interface{}{
		"product_id": adjustment.ProductID,
		"variant_id": adjustment.VariantID,
		"delta":      adjustment.Delta,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	newStock, err := r.adjust(ctxTimeout, r.DB, adjustment)
	if err != nil {
		return domain.StockLevel{}, err
	}

	r.logger.Info("Estoque ajustado com sucesso.", map[string]interface{}{
		"product_id": adjustment.ProductID,
		"variant_id": adjustment.VariantID,
		"new_stock":  newStock,
	})

	return domain.StockLevel{
		ProductID: adjustment.ProductID,
		VariantID: adjustment.VariantID,
		Stock:     newStock,
	}, nil
}

// AdjustMany aplica todos os ajustes dentro de uma única transação:
// ou todos os itens são aplicados, ou nenhum. Usado pela criação de pedido
// (deltas negativos) e pelo cancelamento (deltas positivos).
func (r *StockRepository) AdjustMany(ctx context.Context, adjustments []domain.StockAdjustment) error {
	r.logger.Debug("Iniciando ajuste de estoque em lote no repositório.", map[string]interface{}{
		"count": len(adjustments),
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação para ajuste de estoque em lote.", err)
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	for _, adjustment := range adjustments {
		if _, err := r.adjust(ctxTimeout, tx, adjustment); err != nil {
			// O primeiro item que falhar aborta o lote inteiro;
			// o rollback desfaz os ajustes já aplicados.
			r.logger.Warn("Item do lote rejeitado, revertendo todos os ajustes.", map[string]interface{}{
				"product_id": adjustment.ProductID,
				"variant_id": adjustment.VariantID,
				"delta":      adjustment.Delta,
			})
			return err
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação de ajuste de estoque em lote.", commitErr)
		return errors.NewDBError("Falha ao commitar transação", commitErr)
	}

	r.logger.Info("Ajuste de estoque em lote aplicado com sucesso.", map[string]interface{}{
		"count": len(adjustments),
	})
	return nil
}

// adjust executa o UPDATE condicional e traduz a ausência de linha afetada
// em NotFound ou InsufficientStock, conforme o alvo exista ou não.
func (r *StockRepository) adjust(ctx context.Context, q queryRower, adjustment domain.StockAdjustment) (int, error) {
	var (
		newStock int
		err      error
	)

	if adjustment.VariantID != "" {
		err = q.QueryRowContext(ctx, adjustVariantSQL,
			adjustment.Delta, adjustment.VariantID, adjustment.ProductID,
		).Scan(&newStock)
	} else {
		err = q.QueryRowContext(ctx, adjustProductSQL,
			adjustment.Delta, time.Now(), adjustment.ProductID,
		).Scan(&newStock)
	}

	if err == sql.ErrNoRows {
		// Nenhuma linha afetada: ou o alvo não existe, ou o saldo é insuficiente.
		return 0, r.classifyRejection(ctx, q, adjustment)
	}
	if err != nil {
		r.logger.Error("Falha ao ajustar estoque no DB.", err)
		return 0, errors.NewDBError("Falha ao ajustar estoque", err)
	}

	return newStock, nil
}

// classifyRejection distingue alvo inexistente de estoque insuficiente.
func (r *StockRepository) classifyRejection(ctx context.Context, q queryRower, adjustment domain.StockAdjustment) error {
	var stock int
	var err error

	if adjustment.VariantID != "" {
		err = q.QueryRowContext(ctx,
			`SELECT stock FROM variants WHERE id = $1 AND product_id = $2`,
			adjustment.VariantID, adjustment.ProductID,
		).Scan(&stock)
	} else {
		err = q.QueryRowContext(ctx,
			`SELECT stock FROM products WHERE id = $1`,
			adjustment.ProductID,
		).Scan(&stock)
	}

	if err == sql.ErrNoRows {
		if adjustment.VariantID != "" {
			return errors.NewNotFoundError(fmt.Sprintf("Variante %s do produto %s não existe.", adjustment.VariantID, adjustment.ProductID))
		}
		return errors.NewNotFoundError(fmt.Sprintf("Produto %s não existe.", adjustment.ProductID))
	}
	if err != nil {
		return errors.NewDBError("Falha ao verificar estoque do alvo", err)
	}

	return errors.NewInsufficientStockError(
		fmt.Sprintf("Saldo atual %d não comporta o ajuste de %d.", stock, adjustment.Delta),
	)
}
