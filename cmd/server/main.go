package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/router"
	"github.com/ikkim/storefront-backend/internal/scheduler"
	"github.com/ikkim/storefront-backend/internal/storage"
	ws "github.com/ikkim/storefront-backend/internal/websocket"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/redis"
	"github.com/ikkim/storefront-backend/pkg/shopapi"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.Log.Level
	if logLevel == "" {
		logLevel = "info"
		if cfg.Server.Environment == "development" {
			logLevel = "debug"
		}
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Log.Format,
		EnableColor: true,
	})

	logger.Info("Starting Storefront Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"storage":     cfg.Storage.Backend,
		"shop_api":    cfg.ShopAPI.BaseURL,
		"log_level":   logLevel,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Collection storage backend
	collections, closeStorage, err := openCollectionRepository(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize collection storage", err, map[string]interface{}{
			"backend": cfg.Storage.Backend,
		})
	}
	defer closeStorage()

	// Shop API client
	api, err := shopapi.NewClient(shopapi.Config{
		BaseURL: cfg.ShopAPI.BaseURL,
		Timeout: cfg.ShopAPI.Timeout,
	})
	if err != nil {
		logger.Fatal("Failed to create shop API client", err)
	}

	// WebSocket hub delivers toasts
	hub := ws.NewHub()
	go hub.Run(ctx)

	// Initialize services
	carts := service.NewUserCollection[model.LineItem](collections, service.CollectionUserCarts)
	wishlists := service.NewUserCollection[model.WishlistEntry](collections, service.CollectionUserWishlists)
	sessionService := service.NewSessionService(api, carts, wishlists, hub, cfg.JWT.Secret, cfg.JWT.SessionExpiry)
	catalogService := service.NewCatalogService(api)
	checkoutService := service.NewCheckoutService(api, hub)

	var presigner service.ImagePresigner
	if cfg.S3.Bucket != "" {
		presigner = storage.NewS3Storage(cfg.S3)
	} else {
		logger.Warn("AWS_S3_BUCKET not set, image uploads disabled", nil)
	}
	sellerService := service.NewSellerService(api, presigner, hub)

	// Idle session sweeper
	sweeper := scheduler.NewSessionSweeper(sessionService, cfg.Session.SweepSchedule, cfg.Session.MaxIdle)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start session sweeper", err)
	}
	defer sweeper.Stop()

	// Initialize controllers
	authController := controller.NewAuthController(sessionService, hub)
	productController := controller.NewProductController(catalogService)
	cartController := controller.NewCartController(hub)
	wishlistController := controller.NewWishlistController(hub)
	serverCartController := controller.NewServerCartController()
	storeController := controller.NewStoreController()
	checkoutController := controller.NewCheckoutController(checkoutService)
	sellerController := controller.NewSellerController(sellerService)
	wsController := controller.NewWSController(hub, cfg.CORS.AllowedOrigins)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, sessionService)

	// Setup router
	r := router.NewRouter(
		authController,
		productController,
		cartController,
		wishlistController,
		serverCartController,
		storeController,
		checkoutController,
		sellerController,
		wsController,
		authMiddleware,
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	cancel()

	logger.Info("Server stopped successfully", map[string]interface{}{
		"open_sessions": sessionService.Count(),
	})
}

// openCollectionRepository selects the blob store for user carts and wishlists.
// The returned func releases the backend's connection.
func openCollectionRepository(ctx context.Context, cfg *config.Config) (repository.CollectionRepository, func(), error) {
	switch cfg.Storage.Backend {
	case "", "memory":
		return repository.NewMemoryCollectionRepository(), func() {}, nil

	case "redis":
		if err := redis.Init(&cfg.Redis); err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}
		return repository.NewRedisCollectionRepository(redis.GetClient(), cfg.Redis.KeyPrefix), closeFn, nil

	case "postgres":
		if err := db.Initialize(&cfg.Database); err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close database connection", err)
			}
		}
		return repository.NewCollectionRepository(db.GetDB()), closeFn, nil

	case "dynamodb":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.DynamoDB.Region))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoDB.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoDB.Endpoint)
			}
		})
		logger.Info("Using DynamoDB collection storage", map[string]interface{}{
			"table":    cfg.DynamoDB.Table,
			"region":   cfg.DynamoDB.Region,
			"endpoint": cfg.DynamoDB.Endpoint,
		})
		return repository.NewDynamoCollectionRepository(client, cfg.DynamoDB.Table), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
