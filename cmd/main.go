package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Infraestrutura e utilitários
	"goshop/config"
	"goshop/internal/pkg/cache"
	"goshop/internal/pkg/database"
	"goshop/internal/pkg/logger"
	"goshop/internal/pkg/notifier"
	"goshop/internal/pkg/token"

	// Camada de apresentação
	"goshop/internal/api/cart"
	"goshop/internal/api/coupon"
	"goshop/internal/api/order"
	"goshop/internal/api/product"
	"goshop/internal/api/router"
	"goshop/internal/api/stock"
	"goshop/internal/api/user"

	// Acesso a dados
	"goshop/internal/repository/cartrepo"
	"goshop/internal/repository/couponrepo"
	"goshop/internal/repository/orderrepo"
	"goshop/internal/repository/productrepo"
	"goshop/internal/repository/stockrepo"
	"goshop/internal/repository/userrepo"

	// Lógica de negócio
	"goshop/internal/service/cartservice"
	"goshop/internal/service/couponservice"
	"goshop/internal/service/orderservice"
	"goshop/internal/service/productservice"
	"goshop/internal/service/stockservice"
	"goshop/internal/service/userservice"
)

func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço GoShop...")

	// Carrega variáveis do .env; em produção elas vêm do ambiente (ex: Docker).
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	appLog := logger.NewLogger(cfg.LogLevel)
	appLog.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	appLog.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	appLog.Info("Conexão Redis estabelecida.", nil)

	// C. Serviço de Tokens (JWT)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	appLog.Debug("Serviço de Tokens JWT inicializado.", nil)

	// D. Notificador de eventos de pedido
	orderNotifier := notifier.NewLogNotifier(appLog)

	// 3. INJEÇÃO DE DEPENDÊNCIAS (Repository -> Service -> Handler)

	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, appLog)
	stockRepo := stockrepo.NewStockRepository(db, cfg.DBTimeout, appLog)
	couponRepo := couponrepo.NewCouponRepository(db, cfg.DBTimeout, appLog)
	orderRepo := orderrepo.NewOrderRepository(db, cfg.DBTimeout, appLog)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, appLog)
	cartRepo := cartrepo.NewCartRepository(db, cfg.DBTimeout, appLog)
	appLog.Debug("Repositórios inicializados.", nil)

	productSvc := productservice.NewService(productRepo, appLog)
	stockSvc := stockservice.NewService(stockRepo, appLog)
	couponSvc := couponservice.NewService(couponRepo, appLog)
	cartSvc := cartservice.NewService(cartRepo, productSvc, appLog)
	orderSvc := orderservice.NewService(orderRepo, productSvc, stockRepo, couponSvc, cartRepo, orderNotifier, appLog)
	userSvc := userservice.NewService(userRepo, tokenSvc, appLog)
	appLog.Debug("Serviços inicializados.", nil)

	handlers := router.Handlers{
		Product: product.NewHandler(productSvc, appLog),
		Order:   order.NewHandler(orderSvc, appLog),
		Coupon:  coupon.NewHandler(couponSvc, appLog),
		User:    user.NewHandler(userSvc, appLog),
		Cart:    cart.NewHandler(cartSvc, appLog),
		Stock:   stock.NewHandler(stockSvc, appLog),
	}
	appLog.Debug("Handlers inicializados.", nil)

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(handlers, tokenSvc, cacheClient, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Servidor GoShop ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}
