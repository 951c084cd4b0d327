package user

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
	"goshop/internal/pkg/middleware"
)

// UserService define o contrato para registro, login e perfil.
type UserService interface {
	Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error)
	Login(ctx context.Context, email string, password string) (string, domain.User, error)
	GetProfile(ctx context.Context, actor domain.Actor) (domain.User, error)
	AddAddress(ctx context.Context, actor domain.Actor, address domain.UserAddress) (domain.UserAddress, error)
	GetAddresses(ctx context.Context, actor domain.Actor) ([]domain.UserAddress, error)
	AddToWishlist(ctx context.Context, actor domain.Actor, productID string) error
	RemoveFromWishlist(ctx context.Context, actor domain.Actor, productID string) error
	GetWishlist(ctx context.Context, actor domain.Actor) ([]string, error)
}

// LoginRequest representa o payload de entrada para o login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse é a resposta do login: token e dados públicos do usuário.
type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// WishlistRequest é o payload de POST /v1/me/wishlist.
type WishlistRequest struct {
	ProductID string `json:"product_id"`
}

// Handler agrupa todos os métodos de Handler do usuário.
type Handler struct {
	Service UserService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UserService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse padroniza o tratamento de erros e respostas HTTP.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			json.NewEncoder(w).Encode(data)
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error("Erro interno no serviço de usuário:", err)
	}

	errorResponse := map[string]interface{}{
		"code":     status,
		"category": category,
		"message":  message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

// requireActor extrai o ator autenticado ou responde 401.
func (h *Handler) requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autenticação necessária."), http.StatusOK)
		return domain.Actor{}, false
	}
	return claims.Actor(), true
}

// RegisterUserHandler lida com a requisição POST /v1/register.
// @Summary Registra um novo usuário
// @Description Cria um novo usuário, hasheia a senha e salva no banco de dados.
// @Tags users
// @Accept json
// @Produce json
// @Param registration body domain.UserRegistration true "Credenciais de registro (email e senha)"
// @Success 201 {object} domain.User "Usuário criado com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 409 {object} domain.ErrorResponse "Email já cadastrado"
// @Router /register [post]
func (h *Handler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var reg domain.UserRegistration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusCreated)
		return
	}

	// O objeto retornado já omite o hash da senha via tag `json:"-"`.
	newUser, err := h.Service.Register(r.Context(), reg)
	h.handleServiceResponse(w, r, newUser, err, http.StatusCreated)
}

// LoginUserHandler lida com a requisição POST /v1/login.
// @Summary Autentica um usuário e retorna um JWT
// @Tags users
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Email e senha"
// @Success 200 {object} LoginResponse "Token JWT e dados do usuário"
// @Failure 401 {object} domain.ErrorResponse "Email ou senha incorretos"
// @Router /login [post]
func (h *Handler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	tokenString, loggedUser, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, LoginResponse{Token: tokenString, User: loggedUser}, nil, http.StatusOK)
}

// ProfileHandler lida com GET /v1/me.
func (h *Handler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	profile, err := h.Service.GetProfile(r.Context(), actor)
	h.handleServiceResponse(w, r, profile, err, http.StatusOK)
}

// AddressesHandler lida com /v1/me/addresses: GET lista, POST adiciona.
func (h *Handler) AddressesHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		addresses, err := h.Service.GetAddresses(r.Context(), actor)
		h.handleServiceResponse(w, r, addresses, err, http.StatusOK)
	case http.MethodPost:
		var address domain.UserAddress
		if err := json.NewDecoder(r.Body).Decode(&address); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusCreated)
			return
		}
		saved, err := h.Service.AddAddress(r.Context(), actor, address)
		h.handleServiceResponse(w, r, saved, err, http.StatusCreated)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// WishlistHandler lida com /v1/me/wishlist:
//
//	GET    /v1/me/wishlist              lista
//	POST   /v1/me/wishlist              adiciona produto
//	DELETE /v1/me/wishlist/{productID}  remove produto
func (h *Handler) WishlistHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		wishlist, err := h.Service.GetWishlist(r.Context(), actor)
		h.handleServiceResponse(w, r, wishlist, err, http.StatusOK)
	case http.MethodPost:
		var req WishlistRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusNoContent)
			return
		}
		err := h.Service.AddToWishlist(r.Context(), actor, req.ProductID)
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
	case http.MethodDelete:
		segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		// segments: ["v1", "me", "wishlist", "{productID}"]
		if len(segments) != 4 || segments[3] == "" {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID do produto ausente na URL."), http.StatusNoContent)
			return
		}
		err := h.Service.RemoveFromWishlist(r.Context(), actor, segments[3])
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}
