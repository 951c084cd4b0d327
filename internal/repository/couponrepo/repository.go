package couponrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
)

// CouponRepository persiste e consulta cupons de desconto.
type CouponRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewCouponRepository cria e retorna uma nova instância do Repositório de Cupons.
func NewCouponRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *CouponRepository {
	return &CouponRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const couponColumns = `id, code, discount_type, discount_amount, minimum_purchase,
        start_date, end_date, max_uses, used_count, is_active, created_at, updated_at`

// scanCoupon mapeia uma linha para domain.Coupon, tratando max_uses nulo.
func scanCoupon(row interface{ Scan(dest ...interface{}) error }) (domain.Coupon, error) {
	var c domain.Coupon
	var maxUses sql.NullInt64

	err := row.Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.DiscountAmount, &c.MinimumPurchase,
		&c.StartDate, &c.EndDate, &maxUses, &c.UsedCount, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return domain.Coupon{}, err
	}

	if maxUses.Valid {
		v := int(maxUses.Int64)
		c.MaxUses = &v
	}
	return c, nil
}

func maxUsesArg(c domain.Coupon) sql.NullInt64 {
	if c.MaxUses == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*c.MaxUses), Valid: true}
}

// Save insere um novo cupom. Código duplicado é traduzido para ConflictError.
func (r *CouponRepository) Save(ctx context.Context, coupon domain.Coupon) (domain.Coupon, error) {
	r.logger.Debug("Iniciando Save de cupom no repositório.", map[string]interface{}{"code": coupon.Code})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	coupon.ID = uuid.NewString()
	coupon.CreatedAt = time.Now()
	coupon.UpdatedAt = coupon.CreatedAt

	const insertSQL = `
        INSERT INTO coupons (id, code, discount_type, discount_amount, minimum_purchase,
                             start_date, end_date, max_uses, used_count, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.DB.ExecContext(ctxTimeout, insertSQL,
		coupon.ID, coupon.Code, coupon.DiscountType, coupon.DiscountAmount,
		coupon.MinimumPurchase, coupon.StartDate, coupon.EndDate,
		maxUsesArg(coupon), coupon.UsedCount, coupon.IsActive,
		coupon.CreatedAt, coupon.UpdatedAt,
	)
	if err != nil {
		// 23505 = unique_violation (código de cupom duplicado)
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.Coupon{}, apperror.NewConflictError(
				fmt.Sprintf("Já existe um cupom com o código %s.", coupon.Code),
			)
		}
		r.logger.Error("Falha ao inserir cupom no DB.", err)
		return domain.Coupon{}, apperror.NewDBError("Falha ao inserir cupom", err)
	}

	r.logger.Info("Cupom salvo com sucesso.", map[string]interface{}{"coupon_id": coupon.ID, "code": coupon.Code})
	return coupon, nil
}

// FindByID busca um cupom pelo ID.
func (r *CouponRepository) FindByID(ctx context.Context, id string) (domain.Coupon, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM coupons WHERE id = $1`, couponColumns)

	coupon, err := scanCoupon(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.Coupon{}, apperror.NewNotFoundError(fmt.Sprintf("Cupom com ID %s não existe.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar cupom no DB.", err)
		return domain.Coupon{}, apperror.NewDBError("Falha ao buscar cupom", err)
	}
	return coupon, nil
}

// FindActiveByCode busca um cupom utilizável pelo código (já em maiúsculas):
// ativo, dentro da janela de validade e com usos disponíveis.
func (r *CouponRepository) FindActiveByCode(ctx context.Context, code string) (domain.Coupon, error) {
	r.logger.Debug("Buscando cupom ativo por código.", map[string]interface{}{"code": code})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`
        SELECT %s FROM coupons
        WHERE code = $1
          AND is_active = TRUE
          AND start_date <= $2
          AND end_date >= $2
          AND (max_uses IS NULL OR used_count < max_uses)`, couponColumns)

	coupon, err := scanCoupon(r.DB.QueryRowContext(ctxTimeout, query, code, time.Now()))
	if err == sql.ErrNoRows {
		return domain.Coupon{}, apperror.NewNotFoundError("Cupom inválido ou expirado.")
	}
	if err != nil {
		r.logger.Error("Falha ao buscar cupom ativo no DB.", err)
		return domain.Coupon{}, apperror.NewDBError("Falha ao buscar cupom", err)
	}
	return coupon, nil
}

// FindAll lista todos os cupons ordenados por código (visão de admin).
func (r *CouponRepository) FindAll(ctx context.Context) ([]domain.Coupon, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM coupons ORDER BY code`, couponColumns)

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar cupons no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar cupons", err)
	}
	defer rows.Close()

	coupons := make([]domain.Coupon, 0)
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao mapear cupom", err)
		}
		coupons = append(coupons, coupon)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar cupons", err)
	}
	return coupons, nil
}

// IncrementUsage incrementa used_count de forma atômica, guardado pelo limite
// de usos no próprio UPDATE: a checagem e o incremento acontecem em uma única
// operação, então uso concorrente nunca ultrapassa max_uses.
func (r *CouponRepository) IncrementUsage(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `
        UPDATE coupons
        SET used_count = used_count + 1, updated_at = $1
        WHERE id = $2 AND (max_uses IS NULL OR used_count < max_uses)`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL, time.Now(), id)
	if err != nil {
		r.logger.Error("Falha ao incrementar uso do cupom.", err)
		return apperror.NewDBError("Falha ao incrementar uso do cupom", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		// Cupom inexistente ou limite de usos atingido entre a avaliação e o incremento.
		return apperror.NewNotFoundError("Cupom inválido ou expirado.")
	}

	r.logger.Info("Uso de cupom registrado.", map[string]interface{}{"coupon_id": id})
	return nil
}

// Update atualiza os campos editáveis de um cupom existente.
func (r *CouponRepository) Update(ctx context.Context, coupon domain.Coupon) (domain.Coupon, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	coupon.UpdatedAt = time.Now()

	const updateSQL = `
        UPDATE coupons
        SET code = $1, discount_type = $2, discount_amount = $3, minimum_purchase = $4,
            start_date = $5, end_date = $6, max_uses = $7, is_active = $8, updated_at = $9
        WHERE id = $10`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL,
		coupon.Code, coupon.DiscountType, coupon.DiscountAmount, coupon.MinimumPurchase,
		coupon.StartDate, coupon.EndDate, maxUsesArg(coupon), coupon.IsActive,
		coupon.UpdatedAt, coupon.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.Coupon{}, apperror.NewConflictError(
				fmt.Sprintf("Já existe um cupom com o código %s.", coupon.Code),
			)
		}
		r.logger.Error("Falha ao atualizar cupom no DB.", err)
		return domain.Coupon{}, apperror.NewDBError("Falha ao atualizar cupom", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Coupon{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return domain.Coupon{}, apperror.NewNotFoundError(fmt.Sprintf("Cupom com ID %s não existe.", coupon.ID))
	}

	return coupon, nil
}

// Delete remove um cupom.
func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar cupom no DB.", err)
		return apperror.NewDBError("Falha ao deletar cupom", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Cupom com ID %s não existe.", id))
	}

	r.logger.Info("Cupom removido.", map[string]interface{}{"coupon_id": id})
	return nil
}
