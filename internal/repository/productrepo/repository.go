package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/cache"
	"goshop/internal/pkg/logger"
)

// ProductRepository persiste produtos, variantes e avaliações.
// Leituras por ID usam a estratégia Cache-Aside sobre Redis; toda escrita
// invalida a entrada correspondente do cache.
type ProductRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout time.Duration, logger logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Chave de cache e TTL para produtos.
const (
	productCacheKey = "product:%s"
	productCacheTTL = 5 * time.Minute
)

// Save persiste um novo Produto e suas Variantes em uma transação.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	r.logger.Debug("Iniciando Save de produto no repositório.", map[string]interface{}{"name": product.Name})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Product{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	const productSQL = `
        INSERT INTO products (id, name, description, base_price, category, default_images, tags,
                              status, rating, stock, low_stock_threshold, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = tx.ExecContext(ctxTimeout, productSQL,
		product.ID, product.Name, product.Description, product.BasePrice, product.Category,
		pq.Array(product.DefaultImages), pq.Array(product.Tags),
		product.Status, product.Rating, product.Stock, product.LowStockThreshold,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, apperror.NewDBError("Falha ao inserir produto", err)
	}

	const variantSQL = `
        INSERT INTO variants (id, product_id, sku, size, color, style, price, stock, images)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for _, v := range product.Variants {
		_, err = tx.ExecContext(ctxTimeout, variantSQL,
			v.ID, v.ProductID, v.SKU, v.Size, v.Color, v.Style, v.Price, v.Stock, pq.Array(v.Images),
		)
		if err != nil {
			// 23505 = unique_violation (SKU duplicado)
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return domain.Product{}, apperror.NewConflictError(
					fmt.Sprintf("Já existe uma variante com o SKU %s.", v.SKU),
				)
			}
			return domain.Product{}, apperror.NewDBError("Falha ao inserir variante", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Product{}, apperror.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Produto salvo com sucesso.", map[string]interface{}{"product_id": product.ID})
	return product, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
// O produto retorna com variantes e avaliações carregadas.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)
	var product domain.Product

	// 1. Tentar obter do Cache (Redis)
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		// Cache HIT
		if json.Unmarshal([]byte(cachedData), &product) == nil {
			return product, nil
		}
		// Se a desserialização falhar, seguimos para o DB.
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (conexão perdida, etc.): logamos e seguimos para o DB.
		r.logger.Warn("Falha ao ler produto do cache, usando o DB.", map[string]interface{}{"error": err.Error()})
	}

	// 2. Busca no Banco de Dados (PostgreSQL)
	const productSQL = `
        SELECT id, name, description, base_price, category, default_images, tags,
               status, rating, stock, low_stock_threshold, created_at, updated_at
        FROM products
        WHERE id = $1`

	row := r.DB.QueryRowContext(ctxTimeout, productSQL, id)
	err = row.Scan(
		&product.ID, &product.Name, &product.Description, &product.BasePrice, &product.Category,
		pq.Array(&product.DefaultImages), pq.Array(&product.Tags),
		&product.Status, &product.Rating, &product.Stock, &product.LowStockThreshold,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		return domain.Product{}, apperror.NewDBError("Falha ao buscar produto no DB", err)
	}

	if product.Variants, err = r.findVariants(ctxTimeout, id); err != nil {
		return domain.Product{}, err
	}
	if product.Reviews, err = r.findReviews(ctxTimeout, id); err != nil {
		return domain.Product{}, err
	}

	// 3. Popular o cache para futuras requisições.
	if productJSON, marshalErr := json.Marshal(product); marshalErr == nil {
		r.Cache.Set(ctxTimeout, key, productJSON, productCacheTTL)
	}

	return product, nil
}

// findVariants carrega as variantes de um produto.
func (r *ProductRepository) findVariants(ctx context.Context, productID string) ([]domain.Variant, error) {
	const variantSQL = `
        SELECT id, product_id, sku, size, color, style, price, stock, images
        FROM variants
        WHERE product_id = $1
        ORDER BY sku`

	rows, err := r.DB.QueryContext(ctx, variantSQL, productID)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao buscar variantes", err)
	}
	defer rows.Close()

	variants := make([]domain.Variant, 0)
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Size, &v.Color, &v.Style,
			&v.Price, &v.Stock, pq.Array(&v.Images)); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear variante", err)
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

// findReviews carrega as avaliações de um produto, mais recentes primeiro.
func (r *ProductRepository) findReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	const reviewSQL = `
        SELECT id, product_id, user_id, rating, comment, date
        FROM reviews
        WHERE product_id = $1
        ORDER BY date DESC`

	rows, err := r.DB.QueryContext(ctx, reviewSQL, productID)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao buscar avaliações", err)
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.Date); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear avaliação", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// FindAll lista produtos com filtros e paginação. Variantes e avaliações não
// são carregadas na listagem.
func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, name, description, base_price, category, default_images, tags,
               status, rating, stock, low_stock_threshold, created_at, updated_at
        FROM products
        WHERE 1=1`
	args := []interface{}{}

	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.ActiveOnly {
		args = append(args, domain.ProductStatusActive)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, (page-1)*limit)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar produtos no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar produtos", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.BasePrice, &p.Category,
			pq.Array(&p.DefaultImages), pq.Array(&p.Tags),
			&p.Status, &p.Rating, &p.Stock, &p.LowStockThreshold,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear produto", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Update atualiza os campos editáveis do produto e invalida o cache.
// Variantes são gerenciadas junto com o produto: as existentes são
// substituídas pelas informadas.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Product{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	product.UpdatedAt = time.Now()

	const updateSQL = `
        UPDATE products
        SET name = $1, description = $2, base_price = $3, category = $4,
            default_images = $5, tags = $6, status = $7, stock = $8,
            low_stock_threshold = $9, updated_at = $10
        WHERE id = $11`

	result, err := tx.ExecContext(ctxTimeout, updateSQL,
		product.Name, product.Description, product.BasePrice, product.Category,
		pq.Array(product.DefaultImages), pq.Array(product.Tags), product.Status,
		product.Stock, product.LowStockThreshold, product.UpdatedAt, product.ID,
	)
	if err != nil {
		return domain.Product{}, apperror.NewDBError("Falha ao atualizar produto", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Product{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe.", product.ID))
	}

	if _, err = tx.ExecContext(ctxTimeout, `DELETE FROM variants WHERE product_id = $1`, product.ID); err != nil {
		return domain.Product{}, apperror.NewDBError("Falha ao substituir variantes", err)
	}

	const variantSQL = `
        INSERT INTO variants (id, product_id, sku, size, color, style, price, stock, images)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for _, v := range product.Variants {
		if _, err = tx.ExecContext(ctxTimeout, variantSQL,
			v.ID, v.ProductID, v.SKU, v.Size, v.Color, v.Style, v.Price, v.Stock, pq.Array(v.Images),
		); err != nil {
			return domain.Product{}, apperror.NewDBError("Falha ao inserir variante", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Product{}, apperror.NewDBError("Falha ao commitar transação", err)
	}

	r.invalidate(ctxTimeout, product.ID)
	return product, nil
}

// Delete remove um produto (e, por cascata, variantes e avaliações).
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar produto no DB.", err)
		return apperror.NewDBError("Falha ao deletar produto", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe.", id))
	}

	r.invalidate(ctxTimeout, id)
	r.logger.Info("Produto removido.", map[string]interface{}{"product_id": id})
	return nil
}

// AddReview insere a avaliação e recalcula a nota agregada do produto
// na mesma transação.
func (r *ProductRepository) AddReview(ctx context.Context, review domain.Review) (domain.Review, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Review{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	review.ID = uuid.NewString()
	review.Date = time.Now()

	const insertSQL = `
        INSERT INTO reviews (id, product_id, user_id, rating, comment, date)
        VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = tx.ExecContext(ctxTimeout, insertSQL,
		review.ID, review.ProductID, review.UserID, review.Rating, review.Comment, review.Date,
	)
	if err != nil {
		// 23503 = foreign_key_violation (produto inexistente)
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return domain.Review{}, apperror.NewNotFoundError(
				fmt.Sprintf("Produto com ID %s não existe.", review.ProductID),
			)
		}
		return domain.Review{}, apperror.NewDBError("Falha ao inserir avaliação", err)
	}

	const ratingSQL = `
        UPDATE products
        SET rating = (SELECT AVG(rating) FROM reviews WHERE product_id = $1), updated_at = $2
        WHERE id = $1`

	if _, err = tx.ExecContext(ctxTimeout, ratingSQL, review.ProductID, time.Now()); err != nil {
		return domain.Review{}, apperror.NewDBError("Falha ao recalcular nota do produto", err)
	}

	if err = tx.Commit(); err != nil {
		return domain.Review{}, apperror.NewDBError("Falha ao commitar transação", err)
	}

	r.invalidate(ctxTimeout, review.ProductID)
	r.logger.Info("Avaliação registrada.", map[string]interface{}{
		"product_id": review.ProductID,
		"rating":     review.Rating,
	})
	return review, nil
}

// invalidate remove a entrada do produto no cache após uma escrita.
func (r *ProductRepository) invalidate(ctx context.Context, id string) {
	if err := r.Cache.Delete(ctx, fmt.Sprintf(productCacheKey, id)); err != nil {
		r.logger.Warn("Falha ao invalidar cache do produto.", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
	}
}
