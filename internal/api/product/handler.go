package product

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

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	GetProductByID(ctx context.Context, id string) (domain.Product, error)
	GetProducts(ctx context.Context, actor domain.Actor, filter domain.ProductFilter) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	AddReview(ctx context.Context, actor domain.Actor, productID string, rating int, comment string) (domain.Review, error)
	GetLowStockProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
}

// ReviewRequest é o payload de POST /v1/products/{id}/reviews.
type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// Handler agrupa todos os métodos de Handler do catálogo.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
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

// actorFromRequest extrai o ator autenticado; requisições sem claims são
// tratadas como visitante (catálogo público).
func actorFromRequest(r *http.Request) domain.Actor {
	if claims, ok := middleware.GetUserClaimsFromContext(r.Context()); ok {
		return claims.Actor()
	}
	return domain.Actor{Role: domain.RoleGuest}
}

// CollectionHandler lida com /v1/products: GET lista, POST cria.
func (h *Handler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listProducts(w, r)
	case http.MethodPost:
		h.createProduct(w, r)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// ItemHandler lida com /v1/products/{id} e subrecursos:
//
//	GET/PUT/DELETE /v1/products/{id}
//	POST           /v1/products/{id}/reviews
//	GET            /v1/products/low-stock
func (h *Handler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// segments: ["v1", "products", "{id}", ...]
	if len(segments) < 3 || segments[2] == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido ou ID ausente."), http.StatusOK)
		return
	}

	if segments[2] == "low-stock" && r.Method == http.MethodGet {
		h.lowStockProducts(w, r)
		return
	}

	productID := segments[2]

	if len(segments) == 4 && segments[3] == "reviews" {
		if r.Method != http.MethodPost {
			http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
			return
		}
		h.addReview(w, r, productID)
		return
	}

	if len(segments) != 3 {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Formato de URL inválido."), http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getProductByID(w, r, productID)
	case http.MethodPut:
		h.updateProduct(w, r, productID)
	case http.MethodDelete:
		h.deleteProduct(w, r, productID)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// createProduct lida com POST /v1/products.
// @Summary Cria um novo produto
// @Description Cria um produto com variantes no catálogo. Apenas administradores.
// @Tags products
// @Accept json
// @Produce json
// @Param product body domain.Product true "Dados do produto"
// @Success 201 {object} domain.Product "Produto criado"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 409 {object} domain.ErrorResponse "SKU duplicado"
// @Router /products [post]
func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	created, err := h.Service.CreateProduct(r.Context(), product)
	h.handleServiceResponse(w, r, created, err, http.StatusCreated)
}

// listProducts lida com GET /v1/products com filtros via query string.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	filter := domain.ProductFilter{
		Page:     page,
		Limit:    limit,
		Name:     query.Get("name"),
		Category: domain.ProductCategory(query.Get("category")),
		Status:   domain.ProductStatus(query.Get("status")),
	}

	products, err := h.Service.GetProducts(r.Context(), actorFromRequest(r), filter)
	h.handleServiceResponse(w, r, products, err, http.StatusOK)
}

// getProductByID lida com GET /v1/products/{id}.
// @Summary Busca um produto pelo ID
// @Tags products
// @Produce json
// @Param id path string true "ID do produto"
// @Success 200 {object} domain.Product "Produto com variantes e avaliações"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /products/{id} [get]
func (h *Handler) getProductByID(w http.ResponseWriter, r *http.Request, productID string) {
	product, err := h.Service.GetProductByID(r.Context(), productID)
	h.handleServiceResponse(w, r, product, err, http.StatusOK)
}

// updateProduct lida com PUT /v1/products/{id}.
func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request, productID string) {
	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}
	product.ID = productID

	updated, err := h.Service.UpdateProduct(r.Context(), product)
	h.handleServiceResponse(w, r, updated, err, http.StatusOK)
}

// deleteProduct lida com DELETE /v1/products/{id}.
func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request, productID string) {
	err := h.Service.DeleteProduct(r.Context(), productID)
	h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
}

// addReview lida com POST /v1/products/{id}/reviews.
func (h *Handler) addReview(w http.ResponseWriter, r *http.Request, productID string) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autenticação necessária para avaliar."), http.StatusCreated)
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	review, err := h.Service.AddReview(r.Context(), claims.Actor(), productID, req.Rating, req.Comment)
	h.handleServiceResponse(w, r, review, err, http.StatusCreated)
}

// lowStockProducts lida com GET /v1/products/low-stock (visão de admin).
func (h *Handler) lowStockProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	products, err := h.Service.GetLowStockProducts(r.Context(), domain.ProductFilter{
		Page:       page,
		Limit:      limit,
		ActiveOnly: true,
	})
	h.handleServiceResponse(w, r, products, err, http.StatusOK)
}
