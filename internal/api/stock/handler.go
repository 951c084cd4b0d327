package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"goshop/internal/domain"
	apperror "goshop/internal/errors"
	"goshop/internal/pkg/logger"
)

// StockService define o contrato que o Handler espera da camada de Serviço.
type StockService interface {
	AdjustStock(ctx context.Context, adjustment domain.StockAdjustmentRequest) (domain.StockLevel, error)
}

// Handler agrupa todos os métodos de Handler de estoque.
type Handler struct {
	Service StockService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc StockService, log logger.Logger) *Handler {
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

// AdjustStockHandler lida com a requisição POST /v1/stock/adjust (admin).
// @Summary Ajusta o estoque de um produto ou variante
// @Description Aplica um delta ao estoque. O ajuste é condicional: um delta
// @Description negativo que deixaria o saldo abaixo de zero é rejeitado com 409.
// @Tags stock
// @Accept json
// @Produce json
// @Param adjustment body domain.StockAdjustmentRequest true "Alvo e delta"
// @Success 200 {object} domain.StockLevel "Novo saldo do alvo"
// @Failure 404 {object} domain.ErrorResponse "Produto ou variante inexistente"
// @Failure 409 {object} domain.ErrorResponse "Estoque insuficiente"
// @Router /stock/adjust [post]
func (h *Handler) AdjustStockHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var adjustmentRequest domain.StockAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&adjustmentRequest); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	stockLevel, err := h.Service.AdjustStock(r.Context(), adjustmentRequest)
	h.handleServiceResponse(w, r, stockLevel, err, http.StatusOK)
}
