package userservice

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
	"goshop/internal/pkg/token"
)

// UserRepository define o contrato que o Serviço de Usuários espera da camada
// de Persistência.
type UserRepository interface {
	Save(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
	SaveAddress(ctx context.Context, address domain.UserAddress) (domain.UserAddress, error)
	FindAddressesByUser(ctx context.Context, userID string) ([]domain.UserAddress, error)
	AddWishlistItem(ctx context.Context, userID, productID string) error
	RemoveWishlistItem(ctx context.Context, userID, productID string) error
	FindWishlistByUser(ctx context.Context, userID string) ([]string, error)
}

// Service implementa registro, autenticação e perfil de usuários.
type Service struct {
	repo   UserRepository
	tokens token.TokenService
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Usuários.
func NewService(repo UserRepository, tokens token.TokenService, logger logger.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, logger: logger}
}

// Register cria um novo usuário com papel "user" e senha hasheada com bcrypt.
func (s *Service) Register(ctx context.Context, reg domain.UserRegistration) (domain.User, error) {
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))

	if reg.Email == "" || !strings.Contains(reg.Email, "@") {
		return domain.User{}, apperror.NewValidationError("O email informado é inválido.")
	}
	if len(reg.Password) < 8 {
		return domain.User{}, apperror.NewValidationError("A senha deve ter pelo menos 8 caracteres.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Falha ao gerar hash da senha.", err)
		return domain.User{}, apperror.NewInternalError("Falha interna ao registrar usuário.", err)
	}

	user := domain.User{
		Email:        reg.Email,
		PasswordHash: string(hash),
		FullName:     reg.FullName,
		Role:         domain.RoleUser,
	}

	created, err := s.repo.Save(ctx, user)
	if err != nil {
		return domain.User{}, err
	}

	s.logger.Info("Usuário registrado.", map[string]interface{}{
		"user_id": created.ID,
		"email":   created.Email,
	})
	return created, nil
}

// Login autentica o usuário e retorna um JWT assinado.
// Credenciais erradas e email inexistente produzem o mesmo erro genérico.
func (s *Service) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		// Não vazamos se o email existe ou não.
		return "", domain.User{}, apperror.NewUnauthorizedError("Email ou senha incorretos.")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.User{}, apperror.NewUnauthorizedError("Email ou senha incorretos.")
	}

	tokenString, err := s.tokens.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		s.logger.Error("Falha ao gerar token JWT.", err)
		return "", domain.User{}, apperror.NewInternalError("Falha interna ao autenticar.", err)
	}

	s.logger.Info("Login realizado.", map[string]interface{}{"user_id": user.ID})
	return tokenString, user, nil
}

// GetProfile retorna o perfil do ator autenticado.
func (s *Service) GetProfile(ctx context.Context, actor domain.Actor) (domain.User, error) {
	return s.repo.FindByID(ctx, actor.ID)
}

// AddAddress salva um endereço no perfil do ator.
func (s *Service) AddAddress(ctx context.Context, actor domain.Actor, address domain.UserAddress) (domain.UserAddress, error) {
	if address.Street == "" || address.City == "" || address.Country == "" {
		return domain.UserAddress{}, apperror.NewValidationError("Rua, cidade e país são obrigatórios.")
	}
	address.UserID = actor.ID
	return s.repo.SaveAddress(ctx, address)
}

// GetAddresses lista os endereços salvos do ator.
func (s *Service) GetAddresses(ctx context.Context, actor domain.Actor) ([]domain.UserAddress, error) {
	return s.repo.FindAddressesByUser(ctx, actor.ID)
}

// AddToWishlist adiciona um produto à lista de desejos do ator (idempotente).
func (s *Service) AddToWishlist(ctx context.Context, actor domain.Actor, productID string) error {
	if productID == "" {
		return apperror.NewValidationError("O ID do produto é obrigatório.")
	}
	return s.repo.AddWishlistItem(ctx, actor.ID, productID)
}

// RemoveFromWishlist remove um produto da lista de desejos do ator.
func (s *Service) RemoveFromWishlist(ctx context.Context, actor domain.Actor, productID string) error {
	if productID == "" {
		return apperror.NewValidationError("O ID do produto é obrigatório.")
	}
	return s.repo.RemoveWishlistItem(ctx, actor.ID, productID)
}

// GetWishlist lista os IDs de produto na lista de desejos do ator.
func (s *Service) GetWishlist(ctx context.Context, actor domain.Actor) ([]string, error) {
	return s.repo.FindWishlistByUser(ctx, actor.ID)
}
