package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"goshop/internal/api/cart"
	"goshop/internal/api/coupon"
	"goshop/internal/api/order"
	"goshop/internal/api/product"
	"goshop/internal/api/stock"
	"goshop/internal/api/user"
	"goshop/internal/domain"
	"goshop/internal/pkg/cache"
	"goshop/internal/pkg/middleware"
)

// Handlers agrupa os handlers injetados pelo main.go.
type Handlers struct {
	Product *product.Handler
	Order   *order.Handler
	Coupon  *coupon.Handler
	User    *user.Handler
	Cart    *cart.Handler
	Stock   *stock.Handler
}

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
func NewRouter(
	h Handlers,
	tokenSvc middleware.TokenService,
	cacheClient cache.Client,
	rateLimit int,
	ratePeriod time.Duration,
) http.Handler {
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(tokenSvc)
	adminOnly := func(next http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.PermissionMiddleware(domain.RoleAdmin)(next))
	}

	// --- 1. Health Check e Documentação ---
	mux.HandleFunc("/ping", PingHandler)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// --- 2. Contas (público) ---
	mux.HandleFunc("/v1/register", h.User.RegisterUserHandler)
	mux.HandleFunc("/v1/login", h.User.LoginUserHandler)

	// --- 3. Perfil, endereços e lista de desejos (autenticado) ---
	mux.HandleFunc("/v1/me", auth(h.User.ProfileHandler))
	mux.HandleFunc("/v1/me/addresses", auth(h.User.AddressesHandler))
	mux.HandleFunc("/v1/me/wishlist", auth(h.User.WishlistHandler))
	mux.HandleFunc("/v1/me/wishlist/", auth(h.User.WishlistHandler))

	// --- 4. Catálogo ---
	// Listagem é pública; criação exige admin.
	mux.HandleFunc("/v1/products", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			adminOnly(h.Product.CollectionHandler)(w, r)
			return
		}
		h.Product.CollectionHandler(w, r)
	})
	// Leitura por ID é pública; escrita exige admin; avaliação exige login.
	mux.HandleFunc("/v1/products/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if r.URL.Path == "/v1/products/low-stock" {
				adminOnly(h.Product.ItemHandler)(w, r)
				return
			}
			h.Product.ItemHandler(w, r)
		case http.MethodPost:
			auth(h.Product.ItemHandler)(w, r)
		default:
			adminOnly(h.Product.ItemHandler)(w, r)
		}
	})

	// --- 5. Carrinho (autenticado) ---
	mux.HandleFunc("/v1/cart", auth(h.Cart.CartHandler))
	mux.HandleFunc("/v1/cart/items", auth(h.Cart.ItemsHandler))
	mux.HandleFunc("/v1/cart/items/", auth(h.Cart.ItemsHandler))

	// --- 6. Pedidos (autenticado) ---
	mux.HandleFunc("/v1/orders", auth(h.Order.CollectionHandler))
	mux.HandleFunc("/v1/orders/", func(w http.ResponseWriter, r *http.Request) {
		// PATCH .../status é restrito a admin; GET e cancel são do dono do pedido.
		if r.Method == http.MethodPatch {
			adminOnly(h.Order.ItemHandler)(w, r)
			return
		}
		auth(h.Order.ItemHandler)(w, r)
	})

	// --- 7. Cupons ---
	// Avaliação é autenticada (pré-visualização no carrinho); CRUD é de admin.
	mux.HandleFunc("/v1/coupons", adminOnly(h.Coupon.CollectionHandler))
	mux.HandleFunc("/v1/coupons/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/coupons/evaluate" {
			auth(h.Coupon.ItemHandler)(w, r)
			return
		}
		adminOnly(h.Coupon.ItemHandler)(w, r)
	})

	// --- 8. Estoque (admin) ---
	mux.HandleFunc("/v1/stock/adjust", adminOnly(h.Stock.AdjustStockHandler))

	// --- 9. Middlewares globais ---
	return middleware.RateLimiter(cacheClient, rateLimit, ratePeriod)(mux)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
