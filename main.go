package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apperrors "pos-service/common/errors"
	applogger "pos-service/common/logger"
	commonmw "pos-service/common/middleware"
	"pos-service/controllers"
	"pos-service/database"
	awspkg "pos-service/pkg/aws"
	"pos-service/repository"
	"pos-service/routes"
	"pos-service/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceName = "pos-service"

// syncLogger flushes the logger *l points to at call time, so a logger
// replaced after the defer (the CloudWatch tee) is the one synced.
func syncLogger(l **zap.Logger) func() {
	return func() { _ = (*l).Sync() }
}

func main() {
	_ = godotenv.Load()

	logger := applogger.Initialize(getEnv("APP_ENV", "development"))
	defer syncLogger(&logger)()

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal("Config load failed", zap.Error(err))
	}

	// --- AWS setup (non-fatal) ---
	var (
		metrics   awspkg.MetricsRecorder
		publisher awspkg.SNSPublisher
	)
	awsCfg, err := awspkg.LoadAWSConfig(context.Background())
	if err != nil {
		logger.Warn("AWS config unavailable, metrics and event relay disabled", zap.Error(err))
	} else {
		if cfg.CloudWatchEnabled {
			cwLogs, err := awspkg.NewCloudWatchLogsClient(context.Background(), awsCfg, cfg.CloudWatchLogGroup, serviceName, true)
			if err != nil {
				logger.Warn("CloudWatch Logs init failed (non-fatal)", zap.Error(err))
			} else {
				logger = applogger.InitializeWithWriter(cfg.Env, cwLogs)
			}
		}
		metrics = awspkg.NewMetricsClient(awsCfg, cfg.CloudWatchNamespace, cfg.CloudWatchEnabled)
		if cfg.EventsSNSTopicARN != "" {
			publisher = awspkg.NewSNSClient(awsCfg, logger)
		}
	}

	// --- Storage ---
	var (
		store repository.Store
		db    *gorm.DB
	)
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		logger.Warn("Using in-memory storage; data is lost on restart")
		store = repository.NewMemoryStore()
	default:
		db, err = database.ConnectPostgres(cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("DB connection failed", zap.Error(err))
		}
		store = repository.NewGormStore(db)
	}

	var productCache repository.ProductCache
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis unavailable, product cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			productCache = repository.NewRedisProductCache(redisClient, cfg.ProductCacheTTL)
		}
	}

	// --- Dependency injection ---
	orderService := services.NewOrderService(store, productCache, metrics, cfg.DefaultCurrency, logger, nil)
	discountService := services.NewDiscountService(store, logger, nil)
	catalogService := services.NewCatalogService(store, productCache, logger, nil)
	inventoryService := services.NewInventoryService(store, logger, nil)
	cashSessionService := services.NewCashSessionService(store, logger, nil)

	// --- Outbox relay ---
	relayCtx, stopRelay := context.WithCancel(context.Background())
	relayDone := make(chan struct{})
	if publisher != nil {
		relay := services.NewEventRelay(store, publisher, cfg.EventsSNSTopicARN, metrics, logger, nil)
		go func() {
			defer close(relayDone)
			relay.Start(relayCtx, cfg.EventRelayInterval)
		}()
	} else {
		logger.Info("POS_EVENTS_SNS_TOPIC_ARN not set, outbox events stay unpublished")
		close(relayDone)
	}

	// --- HTTP router ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(applogger.RequestID())
	r.Use(commonmw.RequestLogger(logger))
	r.Use(commonmw.SecurityHeaders())
	r.Use(commonmw.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(commonmw.Timeout(30 * time.Second))
	r.Use(commonmw.MetricsMiddleware(metrics, serviceName))
	r.Use(apperrors.ErrorMiddleware())

	routes.RegisterOrderRoutes(r, controllers.NewOrderController(orderService))
	routes.RegisterDiscountRoutes(r, controllers.NewDiscountController(discountService))
	routes.RegisterCatalogRoutes(r, controllers.NewCatalogController(catalogService))
	routes.RegisterInventoryRoutes(r, controllers.NewInventoryController(inventoryService))
	routes.RegisterCashSessionRoutes(r, controllers.NewCashSessionController(cashSessionService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName, "storage": cfg.StorageDriver})
	})

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("POS Service started", zap.String("port", cfg.Port), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Initiating graceful shutdown...")
	httpShutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(httpShutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	stopRelay()
	<-relayDone

	if err := database.Close(db); err != nil {
		logger.Error("Database close error", zap.Error(err))
	}

	log.Println("POS Service stopped gracefully")
}
