package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "salesledger/api/swagger" // swagger docs
	"salesledger/internal/config"
	"salesledger/internal/database"
	"salesledger/internal/handler"
	"salesledger/internal/lock"
	"salesledger/internal/logger"
	"salesledger/internal/middleware"
	"salesledger/internal/notify"
	"salesledger/internal/repository"
	"salesledger/internal/repository/memory"
	"salesledger/internal/service"
	"salesledger/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Sales Ledger API
// @version         1.0
// @description     Credit sales orders, invoicing, customer ledger and payment allocation.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log := logger.New(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Store initialization failed")
	}

	// Customer lock: redis when configured so several API instances serialize together
	var locker lock.Locker = lock.NewLocalLocker(cfg.DBLockTimeout)
	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Fatal("Redis connection failed")
		}
		locker = lock.NewRedisLocker(rdb, cfg.LockTTL, cfg.DBLockTimeout, log)
		log.WithField("addr", cfg.RedisAddress).Info("Using redis customer locks")
	}

	auth := middleware.NewAuthenticator(cfg.JWTSecret, cfg.PrivilegedRoles)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(auth, log)
	go wsHub.Run(ctx)

	publishers := service.MultiPublisher{wsHub}
	if cfg.PubSubProjectID != "" {
		ps, err := notify.NewPubSubPublisher(ctx, notify.PubSubConfig{
			ProjectID:       cfg.PubSubProjectID,
			Topic:           cfg.PubSubTopic,
			CredentialsJSON: cfg.PubSubCredentialsJSON,
		}, log)
		if err != nil {
			log.WithError(err).Fatal("Pub/Sub initialization failed")
		}
		defer ps.Close()
		publishers = append(publishers, ps)
	}

	deps := service.Deps{
		Repos:     repos,
		Locker:    locker,
		Publisher: publishers,
		Credit:    service.NewCreditEvaluator(cfg.CreditEscalationBPS),
		Logger:    log,
	}

	// Set up dependencies (Repository -> Service -> Handler)
	customerService := service.NewCustomerService(deps)
	orderService := service.NewOrderService(deps)
	productionService := service.NewProductionService(deps)
	shippingService := service.NewShippingService(deps)
	paymentService := service.NewPaymentService(deps)
	accountingService := service.NewAccountingService(deps)
	productService := service.NewProductService(deps)
	auditService := service.NewAuditService(deps)

	if cfg.SeedAccounts {
		n, err := accountingService.SeedDefaults(ctx)
		if err != nil {
			log.WithError(err).Fatal("Seeding chart of accounts failed")
		}
		log.WithField("created", n).Info("Chart of accounts seeded")
	}

	// Set up Gin Router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "ws_clients": wsHub.ClientCount()})
	})

	// WebSocket endpoint authenticates with ?token=
	router.GET("/ws", wsHub.ServeWs)

	// API Routing
	api := router.Group("")
	api.Use(auth.RequireActor())
	handler.NewCustomerHandler(customerService, paymentService, accountingService).RegisterRoutes(api)
	handler.NewOrderHandler(orderService).RegisterRoutes(api)
	handler.NewProductionHandler(productionService).RegisterRoutes(api)
	handler.NewShippingHandler(shippingService).RegisterRoutes(api)
	handler.NewPaymentHandler(paymentService).RegisterRoutes(api)
	handler.NewAccountingHandler(accountingService).RegisterRoutes(api)
	handler.NewProductHandler(productService).RegisterRoutes(api)
	handler.NewAuditHandler(auditService).RegisterRoutes(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
	log.Info("Server stopped")
}

func openStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*repository.Repositories, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("Using in-memory store; data is lost on restart")
		return memory.New().Repositories(), nil
	}
	db, err := database.NewConnection(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	log.Info("Connected to PostgreSQL successfully.")
	return repository.NewGormRepositories(db, cfg.DBLockTimeout), nil
}
