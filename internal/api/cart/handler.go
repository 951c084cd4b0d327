package cart

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

// CartService define o contrato que o Handler espera da camada de Serviço.
type CartService interface {
	GetCart(ctx context.Context, actor domain.Actor) ([]domain.CartItem, error)
	SetItem(ctx context.Context, actor domain.Actor, req domain.CartItemRequest) error
	RemoveItem(ctx context.Context, actor domain.Actor, productID, variantID string) error
	ClearCart(ctx context.Context, actor domain.Actor) error
}

// Handler agrupa todos os métodos de Handler do carrinho.
type Handler struct {
	Service CartService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc CartService, log logger.Logger) *Handler {
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
		h.Logger.Error("Erro interno no serviço de carrinho:", err)
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

// CartHandler lida com /v1/cart: GET lista os itens, DELETE esvazia.
func (h *Handler) CartHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		items, err := h.Service.GetCart(r.Context(), actor)
		h.handleServiceResponse(w, r, items, err, http.StatusOK)
	case http.MethodDelete:
		err := h.Service.ClearCart(r.Context(), actor)
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// ItemsHandler lida com /v1/cart/items:
//
//	PUT    /v1/cart/items                          insere/atualiza item
//	DELETE /v1/cart/items/{productID}              remove item sem variante
//	DELETE /v1/cart/items/{productID}/{variantID}  remove item com variante
func (h *Handler) ItemsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req domain.CartItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusNoContent)
			return
		}
		err := h.Service.SetItem(r.Context(), actor, req)
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
	case http.MethodDelete:
		segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		// segments: ["v1", "cart", "items", "{productID}"(, "{variantID}")]
		if len(segments) < 4 || segments[3] == "" {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID do produto ausente na URL."), http.StatusNoContent)
			return
		}
		variantID := ""
		if len(segments) == 5 {
			variantID = segments[4]
		}
		err := h.Service.RemoveItem(r.Context(), actor, segments[3], variantID)
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}
