package cartrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
)

// CartRepository persiste o carrinho de cada usuário.
// O carrinho vive no banco e é buscado por requisição: nenhum estado de
// carrinho é mantido em memória entre requisições.
type CartRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewCartRepository cria e retorna uma nova instância do Repositório de Carrinho.
func NewCartRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *CartRepository {
	return &CartRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// FindByUser lista os itens do carrinho do usuário.
func (r *CartRepository) FindByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
        SELECT user_id, product_id, variant_id, quantity
        FROM cart_items
        WHERE user_id = $1`

	rows, err := r.DB.QueryContext(ctxTimeout, query, userID)
	if err != nil {
		r.logger.Error("Falha ao buscar carrinho no DB.", err)
		return nil, apperror.NewDBError("Falha ao buscar carrinho", err)
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.UserID, &item.ProductID, &item.VariantID, &item.Quantity); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear item do carrinho", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpsertItem insere ou atualiza a quantidade de um item do carrinho.
// variant_id usa string vazia (não NULL) para participar da chave primária.
func (r *CartRepository) UpsertItem(ctx context.Context, item domain.CartItem) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const upsertSQL = `
        INSERT INTO cart_items (user_id, product_id, variant_id, quantity)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, product_id, variant_id)
        DO UPDATE SET quantity = EXCLUDED.quantity`

	_, err := r.DB.ExecContext(ctxTimeout, upsertSQL,
		item.UserID, item.ProductID, item.VariantID, item.Quantity,
	)
	if err != nil {
		// 23503 = foreign_key_violation (produto inexistente)
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe.", item.ProductID))
		}
		r.logger.Error("Falha ao gravar item do carrinho no DB.", err)
		return apperror.NewDBError("Falha ao gravar item do carrinho", err)
	}

	r.logger.Debug("Item do carrinho gravado.", map[string]interface{}{
		"user_id":    item.UserID,
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
	})
	return nil
}

// RemoveItem remove um item do carrinho.
func (r *CartRepository) RemoveItem(ctx context.Context, userID, productID, variantID string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const deleteSQL = `
        DELETE FROM cart_items
        WHERE user_id = $1 AND product_id = $2 AND variant_id = $3`

	result, err := r.DB.ExecContext(ctxTimeout, deleteSQL, userID, productID, variantID)
	if err != nil {
		r.logger.Error("Falha ao remover item do carrinho no DB.", err)
		return apperror.NewDBError("Falha ao remover item do carrinho", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFoundError("Item não está no carrinho.")
	}
	return nil
}

// Clear esvazia o carrinho do usuário (chamado após a criação do pedido).
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if _, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		r.logger.Error("Falha ao limpar carrinho no DB.", err)
		return apperror.NewDBError("Falha ao limpar carrinho", err)
	}

	r.logger.Debug("Carrinho limpo.", map[string]interface{}{"user_id": userID})
	return nil
}
