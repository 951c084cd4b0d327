package orderrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
)

// OrderRepository persiste pedidos, itens e histórico de status.
// Pedidos nunca são deletados; após a criação, apenas UpdateStatus muta o registro.
type OrderRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewOrderRepository cria e retorna uma nova instância do Repositório de Pedidos.
func NewOrderRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const orderColumns = `id, user_id, subtotal, coupon_id, coupon_code, discount_amount,
        shipping_cost, shipping_method, carrier, tracking_number, total_amount,
        ship_street, ship_city, ship_state, ship_zip, ship_country,
        billing_same_as_shipping, bill_street, bill_city, bill_state, bill_zip, bill_country,
        payment_method, payment_status, payment_transaction_id, payment_last4,
        status, customer_notes, admin_notes, created_at, updated_at`

// Create persiste o pedido, seus itens e a entrada inicial do histórico
// em uma única transação.
func (r *OrderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	r.logger.Debug("Iniciando Create de pedido no repositório.", map[string]interface{}{
		"user_id": order.UserID,
		"items":   len(order.Items),
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Order{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	order.ID = uuid.NewString()
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	const orderSQL = `
        INSERT INTO orders (id, user_id, subtotal, coupon_id, coupon_code, discount_amount,
                            shipping_cost, shipping_method, carrier, tracking_number, total_amount,
                            ship_street, ship_city, ship_state, ship_zip, ship_country,
                            billing_same_as_shipping, bill_street, bill_city, bill_state, bill_zip, bill_country,
                            payment_method, payment_status, payment_transaction_id, payment_last4,
                            status, customer_notes, admin_notes, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
                $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31)`

	var couponID sql.NullString
	if order.Discount.CouponID != "" {
		couponID = sql.NullString{String: order.Discount.CouponID, Valid: true}
	}

	_, err = tx.ExecContext(ctxTimeout, orderSQL,
		order.ID, order.UserID, order.Subtotal,
		couponID, order.Discount.CouponCode, order.Discount.Amount,
		order.Shipping.Cost, order.Shipping.Method, order.Shipping.Carrier, order.Shipping.TrackingNumber,
		order.TotalAmount,
		order.ShippingAddress.Street, order.ShippingAddress.City, order.ShippingAddress.State,
		order.ShippingAddress.Zip, order.ShippingAddress.Country,
		order.BillingAddress.SameAsShipping,
		order.BillingAddress.Street, order.BillingAddress.City, order.BillingAddress.State,
		order.BillingAddress.Zip, order.BillingAddress.Country,
		order.PaymentInfo.Method, order.PaymentInfo.Status,
		order.PaymentInfo.TransactionID, order.PaymentInfo.Last4,
		order.Status, order.CustomerNotes, order.AdminNotes,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, apperror.NewDBError("Falha ao inserir pedido", err)
	}

	const itemSQL = `
        INSERT INTO order_items (id, order_id, product_id, variant_id, quantity, unit_price)
        VALUES ($1, $2, $3, $4, $5, $6)`

	for i := range order.Items {
		order.Items[i].ID = uuid.NewString()
		order.Items[i].OrderID = order.ID

		var variantID sql.NullString
		if order.Items[i].VariantID != "" {
			variantID = sql.NullString{String: order.Items[i].VariantID, Valid: true}
		}

		_, err = tx.ExecContext(ctxTimeout, itemSQL,
			order.Items[i].ID, order.ID, order.Items[i].ProductID, variantID,
			order.Items[i].Quantity, order.Items[i].UnitPrice,
		)
		if err != nil {
			return domain.Order{}, apperror.NewDBError("Falha ao inserir item do pedido", err)
		}
	}

	for _, entry := range order.StatusHistory {
		if err = r.insertHistoryTx(ctxTimeout, tx, order.ID, entry); err != nil {
			return domain.Order{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, apperror.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Pedido criado com sucesso.", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.TotalAmount,
	})
	return order, nil
}

// insertHistoryTx insere uma entrada no histórico append-only do pedido.
func (r *OrderRepository) insertHistoryTx(ctx context.Context, tx *sql.Tx, orderID string, entry domain.StatusHistoryEntry) error {
	const historySQL = `
        INSERT INTO order_status_history (order_id, status, date, note)
        VALUES ($1, $2, $3, $4)`

	if _, err := tx.ExecContext(ctx, historySQL, orderID, entry.Status, entry.Date, entry.Note); err != nil {
		return apperror.NewDBError("Falha ao inserir histórico de status", err)
	}
	return nil
}

// FindByID busca um pedido com itens e histórico carregados.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)

	order, err := r.scanOrder(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.Order{}, apperror.NewNotFoundError(fmt.Sprintf("Pedido com ID %s não existe.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar pedido no DB.", err)
		return domain.Order{}, apperror.NewDBError("Falha ao buscar pedido", err)
	}

	if order.Items, err = r.findItems(ctxTimeout, id); err != nil {
		return domain.Order{}, err
	}
	if order.StatusHistory, err = r.findHistory(ctxTimeout, id); err != nil {
		return domain.Order{}, err
	}

	return order, nil
}

// FindAll lista pedidos paginados, mais recentes primeiro.
// Filter.UserID vazio retorna todos os pedidos (visão de admin).
func (r *OrderRepository) FindAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM orders`, orderColumns)
	args := []interface{}{}

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += fmt.Sprintf(" WHERE user_id = $%d", len(args))
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
		r.logger.Error("Falha ao listar pedidos no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar pedidos", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao mapear pedido", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar pedidos", err)
	}

	// Carrega os itens de cada pedido da página. O volume é limitado pelo
	// limit da paginação, então a consulta por pedido é aceitável aqui.
	for i := range orders {
		if orders[i].Items, err = r.findItems(ctxTimeout, orders[i].ID); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

// UpdateStatus grava o novo status, dados de rastreio quando informados e a
// entrada do histórico em uma única transação. Retorna o pedido atualizado.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, entry domain.StatusHistoryEntry, carrier, trackingNumber string) (domain.Order, error) {
	r.logger.Debug("Iniciando atualização de status no repositório.", map[string]interface{}{
		"order_id": orderID,
		"status":   entry.Status,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Order{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	const updateSQL = `
        UPDATE orders
        SET status = $1,
            carrier = CASE WHEN $2 <> '' THEN $2 ELSE carrier END,
            tracking_number = CASE WHEN $3 <> '' THEN $3 ELSE tracking_number END,
            updated_at = $4
        WHERE id = $5`

	result, err := tx.ExecContext(ctxTimeout, updateSQL, entry.Status, carrier, trackingNumber, time.Now(), orderID)
	if err != nil {
		return domain.Order{}, apperror.NewDBError("Falha ao atualizar status do pedido", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Order{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return domain.Order{}, apperror.NewNotFoundError(fmt.Sprintf("Pedido com ID %s não existe.", orderID))
	}

	if err = r.insertHistoryTx(ctxTimeout, tx, orderID, entry); err != nil {
		return domain.Order{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, apperror.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Status do pedido atualizado.", map[string]interface{}{
		"order_id": orderID,
		"status":   entry.Status,
	})

	return r.FindByID(ctx, orderID)
}

// scanOrder mapeia uma linha para domain.Order.
func (r *OrderRepository) scanOrder(row interface{ Scan(dest ...interface{}) error }) (domain.Order, error) {
	var o domain.Order
	var couponID sql.NullString

	err := row.Scan(
		&o.ID, &o.UserID, &o.Subtotal,
		&couponID, &o.Discount.CouponCode, &o.Discount.Amount,
		&o.Shipping.Cost, &o.Shipping.Method, &o.Shipping.Carrier, &o.Shipping.TrackingNumber,
		&o.TotalAmount,
		&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.State,
		&o.ShippingAddress.Zip, &o.ShippingAddress.Country,
		&o.BillingAddress.SameAsShipping,
		&o.BillingAddress.Street, &o.BillingAddress.City, &o.BillingAddress.State,
		&o.BillingAddress.Zip, &o.BillingAddress.Country,
		&o.PaymentInfo.Method, &o.PaymentInfo.Status,
		&o.PaymentInfo.TransactionID, &o.PaymentInfo.Last4,
		&o.Status, &o.CustomerNotes, &o.AdminNotes,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}

	if couponID.Valid {
		o.Discount.CouponID = couponID.String
	}
	return o, nil
}

// findItems carrega os itens de um pedido.
func (r *OrderRepository) findItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	const itemSQL = `
        SELECT id, order_id, product_id, variant_id, quantity, unit_price
        FROM order_items
        WHERE order_id = $1`

	rows, err := r.DB.QueryContext(ctx, itemSQL, orderID)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao buscar itens do pedido", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		var variantID sql.NullString
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &variantID,
			&item.Quantity, &item.UnitPrice); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear item do pedido", err)
		}
		if variantID.Valid {
			item.VariantID = variantID.String
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// findHistory carrega o histórico de status em ordem cronológica.
func (r *OrderRepository) findHistory(ctx context.Context, orderID string) ([]domain.StatusHistoryEntry, error) {
	const historySQL = `
        SELECT status, date, note
        FROM order_status_history
        WHERE order_id = $1
        ORDER BY date ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, historySQL, orderID)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao buscar histórico do pedido", err)
	}
	defer rows.Close()

	history := make([]domain.StatusHistoryEntry, 0)
	for rows.Next() {
		var entry domain.StatusHistoryEntry
		if err := rows.Scan(&entry.Status, &entry.Date, &entry.Note); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear histórico do pedido", err)
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}
