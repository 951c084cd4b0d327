package order

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
	"goshop/internal/pkg/middleware"
)

// OrderService define o contrato que o Handler espera da camada de Serviço.
type OrderService interface {
	CreateOrder(ctx context.Context, actor domain.Actor, req domain.CreateOrderRequest) (domain.Order, error)
	GetOrderByID(ctx context.Context, actor domain.Actor, orderID string) (domain.Order, error)
	GetOrders(ctx context.Context, actor domain.Actor, filter domain.OrderFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, orderID string, req domain.UpdateStatusRequest) (domain.Order, error)
	CancelOrder(ctx context.Context, actor domain.Actor, orderID, note string) (domain.Order, error)
}

// CancelRequest é o payload opcional de POST /v1/orders/{id}/cancel.
type CancelRequest struct {
	Note string `json:"note,omitempty"`
}

// Handler agrupa todos os métodos de Handler de pedidos.
type Handler struct {
	Service OrderService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc OrderService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
				http.Error(w, "Erro ao codificar resposta", http.StatusInternalServerError)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
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

// CollectionHandler lida com /v1/orders: GET lista, POST cria.
func (h *Handler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listOrders(w, r)
	case http.MethodPost:
		h.createOrder(w, r)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// ItemHandler lida com /v1/orders/{id} e subrecursos:
//
//	GET   /v1/orders/{id}
//	PATCH /v1/orders/{id}/status
//	POST  /v1/orders/{id}/cancel
func (h *Handler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(segments) < 3 || segments[2] == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID ausente."), http.StatusOK)
		return
	}
	orderID := segments[2]

	if len(segments) == 4 {
		switch {
		case segments[3] == "status" && r.Method == http.MethodPatch:
			h.updateStatus(w, r, orderID)
		case segments[3] == "cancel" && r.Method == http.MethodPost:
			h.cancelOrder(w, r, orderID)
		default:
			http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		}
		return
	}

	if len(segments) != 3 || r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	h.getOrderByID(w, r, orderID)
}

// createOrder lida com POST /v1/orders.
// @Summary Cria um novo pedido
// @Description Cria o pedido de forma tudo-ou-nada: valida itens, avalia o cupom,
// @Description reserva o estoque e persiste. Qualquer falha não deixa efeito parcial.
// @Tags orders
// @Accept json
// @Produce json
// @Param order body domain.CreateOrderRequest true "Itens, cupom, envio e pagamento"
// @Success 201 {object} domain.Order "Pedido criado com status pending"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido ou compra mínima não atingida"
// @Failure 404 {object} domain.ErrorResponse "Produto, variante ou cupom inexistente"
// @Failure 409 {object} domain.ErrorResponse "Estoque insuficiente"
// @Router /orders [post]
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req domain.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	created, err := h.Service.CreateOrder(r.Context(), actor, req)
	h.handleServiceResponse(w, r, created, err, http.StatusCreated)
}

// listOrders lida com GET /v1/orders. Clientes veem os próprios pedidos;
// admins veem todos (opcionalmente filtrados por user_id).
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	orders, err := h.Service.GetOrders(r.Context(), actor, domain.OrderFilter{
		Page:   page,
		Limit:  limit,
		UserID: query.Get("user_id"),
	})
	h.handleServiceResponse(w, r, orders, err, http.StatusOK)
}

// getOrderByID lida com GET /v1/orders/{id}.
func (h *Handler) getOrderByID(w http.ResponseWriter, r *http.Request, orderID string) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	order, err := h.Service.GetOrderByID(r.Context(), actor, orderID)
	h.handleServiceResponse(w, r, order, err, http.StatusOK)
}

// updateStatus lida com PATCH /v1/orders/{id}/status (admin).
// @Summary Atualiza o status de um pedido
// @Description Aplica uma transição do ciclo de vida do pedido. Transições fora
// @Description da tabela estática são rejeitadas com 409 e o pedido fica intocado.
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "ID do pedido"
// @Param status body domain.UpdateStatusRequest true "Novo status, nota e rastreio"
// @Success 200 {object} domain.Order "Pedido atualizado com histórico"
// @Failure 409 {object} domain.ErrorResponse "Transição não permitida"
// @Router /orders/{id}/status [patch]
func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request, orderID string) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req domain.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	updated, err := h.Service.UpdateStatus(r.Context(), actor, orderID, req)
	h.handleServiceResponse(w, r, updated, err, http.StatusOK)
}

// cancelOrder lida com POST /v1/orders/{id}/cancel.
func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request, orderID string) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	// Corpo é opcional: cancelamento sem nota usa a nota padrão.
	var req CancelRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	cancelled, err := h.Service.CancelOrder(r.Context(), actor, orderID, req.Note)
	h.handleServiceResponse(w, r, cancelled, err, http.StatusOK)
}
