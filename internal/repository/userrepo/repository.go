package userrepo

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

// UserRepository persiste usuários, endereços e lista de desejos.
type UserRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewUserRepository cria uma nova instância do UserRepository, injetando o DB.
func NewUserRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *UserRepository {
	return &UserRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Save insere um novo usuário no banco de dados.
func (r *UserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	r.logger.Debug("Iniciando Save de usuário no repositório.", map[string]interface{}{"email": user.Email})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	const insertSQL = `
        INSERT INTO users (id, email, password_hash, full_name, role, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.DB.ExecContext(ctxTimeout, insertSQL,
		user.ID, user.Email, user.PasswordHash, user.FullName, user.Role,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		// 23505 = unique_violation (email já cadastrado)
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.User{}, apperror.NewConflictError(
				fmt.Sprintf("O email '%s' já está em uso.", user.Email),
			)
		}
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("Falha ao inserir usuário", err)
	}

	r.logger.Info("Usuário salvo com sucesso no repositório.", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return user, nil
}

// FindByEmail busca um usuário pelo email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
        SELECT id, email, password_hash, full_name, role, created_at, updated_at
        FROM users
        WHERE email = $1`

	var user domain.User
	err := r.DB.QueryRowContext(ctxTimeout, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.Role,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário com email %s não existe.", email))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar usuário por email no DB.", err)
		return domain.User{}, apperror.NewDBError("Falha ao buscar usuário", err)
	}
	return user, nil
}

// FindByID busca um usuário pelo ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
        SELECT id, email, password_hash, full_name, role, created_at, updated_at
        FROM users
        WHERE id = $1`

	var user domain.User
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.Role,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário com ID %s não existe.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar usuário por ID no DB.", err)
		return domain.User{}, apperror.NewDBError("Falha ao buscar usuário", err)
	}
	return user, nil
}

// SaveAddress adiciona um endereço ao perfil do usuário.
func (r *UserRepository) SaveAddress(ctx context.Context, address domain.UserAddress) (domain.UserAddress, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	address.ID = uuid.NewString()

	const insertSQL = `
        INSERT INTO addresses (id, user_id, label, street, city, state, zip, country)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.DB.ExecContext(ctxTimeout, insertSQL,
		address.ID, address.UserID, address.Label,
		address.Street, address.City, address.State, address.Zip, address.Country,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir endereço no DB.", err)
		return domain.UserAddress{}, apperror.NewDBError("Falha ao inserir endereço", err)
	}

	return address, nil
}

// FindAddressesByUser lista os endereços salvos do usuário.
func (r *UserRepository) FindAddressesByUser(ctx context.Context, userID string) ([]domain.UserAddress, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
        SELECT id, user_id, label, street, city, state, zip, country
        FROM addresses
        WHERE user_id = $1
        ORDER BY label`

	rows, err := r.DB.QueryContext(ctxTimeout, query, userID)
	if err != nil {
		r.logger.Error("Falha ao listar endereços no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar endereços", err)
	}
	defer rows.Close()

	addresses := make([]domain.UserAddress, 0)
	for rows.Next() {
		var a domain.UserAddress
		if err := rows.Scan(&a.ID, &a.UserID, &a.Label, &a.Street, &a.City, &a.State, &a.Zip, &a.Country); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear endereço", err)
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

// AddWishlistItem adiciona um produto à lista de desejos (idempotente).
func (r *UserRepository) AddWishlistItem(ctx context.Context, userID, productID string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const insertSQL = `
        INSERT INTO wishlist_items (user_id, product_id)
        VALUES ($1, $2)
        ON CONFLICT (user_id, product_id) DO NOTHING`

	if _, err := r.DB.ExecContext(ctxTimeout, insertSQL, userID, productID); err != nil {
		// 23503 = foreign_key_violation (produto inexistente)
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe.", productID))
		}
		r.logger.Error("Falha ao adicionar item à lista de desejos.", err)
		return apperror.NewDBError("Falha ao adicionar à lista de desejos", err)
	}
	return nil
}

// RemoveWishlistItem remove um produto da lista de desejos.
func (r *UserRepository) RemoveWishlistItem(ctx context.Context, userID, productID string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const deleteSQL = `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`

	if _, err := r.DB.ExecContext(ctxTimeout, deleteSQL, userID, productID); err != nil {
		r.logger.Error("Falha ao remover item da lista de desejos.", err)
		return apperror.NewDBError("Falha ao remover da lista de desejos", err)
	}
	return nil
}

// FindWishlistByUser lista os IDs de produto na lista de desejos do usuário.
func (r *UserRepository) FindWishlistByUser(ctx context.Context, userID string) ([]string, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `SELECT product_id FROM wishlist_items WHERE user_id = $1`

	rows, err := r.DB.QueryContext(ctxTimeout, query, userID)
	if err != nil {
		r.logger.Error("Falha ao listar lista de desejos no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar lista de desejos", err)
	}
	defer rows.Close()

	productIDs := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear lista de desejos", err)
		}
		productIDs = append(productIDs, id)
	}
	return productIDs, rows.Err()
}
