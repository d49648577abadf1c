package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"food-order-service/awsclient"
	"food-order-service/controllers"
	"food-order-service/database"
	"food-order-service/logger"
	"food-order-service/middleware"
	"food-order-service/repository"
	"food-order-service/routes"
	"food-order-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	l := logger.Initialize(os.Getenv("APP_ENV"))
	defer logger.Sync()

	cfg, err := LoadConfig(l)
	if err != nil {
		l.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.ConnectPostgres(cfg.Postgres, l, database.Models...)
	if err != nil {
		l.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db) //nolint:errcheck

	redisClient, err := database.NewRedisClient(context.Background(), cfg.RedisURL, l)
	if err != nil {
		l.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close() //nolint:errcheck

	var snsClient awsclient.SNSPublisher
	if cfg.OrderEventsTopicARN != "" {
		awsCfg, awsErr := awsclient.LoadAWSConfig(context.Background())
		if awsErr != nil {
			l.Warn("AWS config unavailable, order events disabled", zap.Error(awsErr))
		} else {
			snsClient = awsclient.NewSNSClient(awsCfg)
		}
	}

	// Repositories and DI chain
	cartRepo := repository.NewRedisCartRepository(redisClient, cfg.CartTTL)
	orderRepo := repository.NewGormOrderRepository(db)
	catalogRepo := repository.NewGormCatalogRepository(db)
	addressRepo := repository.NewGormAddressRepository(db)

	cartService := services.NewCartService(cartRepo, catalogRepo, cfg.CatalogTimeout, l)
	orderService := services.NewOrderService(services.OrderDeps{
		Orders:    orderRepo,
		Carts:     cartRepo,
		Catalog:   catalogRepo,
		Addresses: addressRepo,
		Guard:     services.NewGuard(catalogRepo),
	}, snsClient, cfg.OrderEventsTopicARN, cfg.CatalogTimeout, l)
	paymentService := services.NewPaymentService(orderRepo, snsClient, cfg.OrderEventsTopicARN, l)
	addressService := services.NewAddressService(addressRepo, l)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst, 5*time.Minute)
	go limiter.Cleanup(ctx)

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(l),
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.RateLimit(limiter),
		middleware.Timeout(cfg.RequestTimeout),
		middleware.ErrorMiddleware(),
	)

	routes.Register(r, routes.Controllers{
		Cart:    controllers.NewCartController(cartService),
		Order:   controllers.NewOrderController(orderService, paymentService),
		Address: controllers.NewAddressController(addressService),
	}, middleware.AuthConfig{
		JWTSecret:           []byte(cfg.JWTSecret),
		TrustGatewayHeaders: cfg.TrustGatewayHeaders,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal("Server failed", zap.Error(err))
		}
	}()

	l.Info("Order service started", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	<-quit
	l.Info("Shutting down order service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("Server forced to shutdown", zap.Error(err))
	}
	l.Info("Server exited cleanly")
}
