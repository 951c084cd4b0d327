package coupon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
)

// CouponService define o contrato que o Handler espera da camada de Serviço.
type CouponService interface {
	Evaluate(ctx context.Context, code string, subtotal float64) (domain.CouponEvaluation, error)
	CreateCoupon(ctx context.Context, coupon domain.Coupon) (domain.Coupon, error)
	GetCoupons(ctx context.Context) ([]domain.Coupon, error)
	UpdateCoupon(ctx context.Context, coupon domain.Coupon) (domain.Coupon, error)
	DeleteCoupon(ctx context.Context, id string) error
}

// EvaluateRequest é o payload de POST /v1/coupons/evaluate.
type EvaluateRequest struct {
	Code     string  `json:"code"`
	Subtotal float64 `json:"subtotal"`
}

// Handler agrupa todos os métodos de Handler de cupons.
type Handler struct {
	Service CouponService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc CouponService, log logger.Logger) *Handler {
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

// CollectionHandler lida com /v1/coupons: GET lista, POST cria (admin).
func (h *Handler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		coupons, err := h.Service.GetCoupons(r.Context())
		h.handleServiceResponse(w, r, coupons, err, http.StatusOK)
	case http.MethodPost:
		var coupon domain.Coupon
		if err := json.NewDecoder(r.Body).Decode(&coupon); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
			return
		}
		created, err := h.Service.CreateCoupon(r.Context(), coupon)
		h.handleServiceResponse(w, r, created, err, http.StatusCreated)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// ItemHandler lida com /v1/coupons/{id} (PUT, DELETE) e /v1/coupons/evaluate (POST).
func (h *Handler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(segments) != 3 || segments[2] == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID ausente."), http.StatusOK)
		return
	}

	if segments[2] == "evaluate" {
		if r.Method != http.MethodPost {
			http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
			return
		}
		h.evaluateCoupon(w, r)
		return
	}

	couponID := segments[2]
	switch r.Method {
	case http.MethodPut:
		var coupon domain.Coupon
		if err := json.NewDecoder(r.Body).Decode(&coupon); err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
			return
		}
		coupon.ID = couponID
		updated, err := h.Service.UpdateCoupon(r.Context(), coupon)
		h.handleServiceResponse(w, r, updated, err, http.StatusOK)
	case http.MethodDelete:
		err := h.Service.DeleteCoupon(r.Context(), couponID)
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// evaluateCoupon lida com POST /v1/coupons/evaluate: pré-visualização do
// desconto no carrinho, sem registrar uso.
// @Summary Avalia um cupom contra um subtotal
// @Tags coupons
// @Accept json
// @Produce json
// @Param evaluation body EvaluateRequest true "Código e subtotal"
// @Success 200 {object} domain.CouponEvaluation "Cupom e valor do desconto"
// @Failure 400 {object} domain.ErrorResponse "Compra mínima não atingida"
// @Failure 404 {object} domain.ErrorResponse "Cupom inválido ou expirado"
// @Router /coupons/evaluate [post]
func (h *Handler) evaluateCoupon(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	evaluation, err := h.Service.Evaluate(r.Context(), req.Code, req.Subtotal)
	h.handleServiceResponse(w, r, evaluation, err, http.StatusOK)
}
