package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shopnest/shopnest-backend-go/config"
	"github.com/shopnest/shopnest-backend-go/database"
	"github.com/shopnest/shopnest-backend-go/handlers"
	"github.com/shopnest/shopnest-backend-go/identity"
	"github.com/shopnest/shopnest-backend-go/media"
	"github.com/shopnest/shopnest-backend-go/metrics"
	customMiddleware "github.com/shopnest/shopnest-backend-go/middleware"
	"github.com/shopnest/shopnest-backend-go/routes"
	"github.com/shopnest/shopnest-backend-go/services"
	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/store/memstore"
	"github.com/shopnest/shopnest-backend-go/utils"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// Load environment variables
	config.LoadEnv()
	cfg := config.Load()

	logger := setupLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	slog.Info("starting shopnest", "environment", cfg.Environment, "store", cfg.StoreDriver)

	s, client, err := openStore(cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	verifier, err := utils.NewTokenVerifier(cfg.ClerkJWTKey, cfg.ClerkAuthorizedParties)
	if err != nil {
		slog.Error("failed to configure session verification", "error", err)
		os.Exit(1)
	}

	var uploader media.Uploader = media.Unavailable{}
	if cfg.CloudinaryURL != "" {
		cld, err := media.NewCloudinary(cfg.CloudinaryURL, cfg.CloudinaryFolder)
		if err != nil {
			slog.Error("failed to configure image hosting", "error", err)
			os.Exit(1)
		}
		uploader = cld
	} else {
		slog.Warn("CLOUDINARY_URL not set, image uploads are disabled")
	}

	h := handlers.New(handlers.Options{
		Store:     s,
		Orders:    services.NewOrderService(s, metrics.Prometheus{}, logger),
		Dashboard: services.NewDashboard(s),
		Catalog:   services.NewCatalog(s),
		Identity:  identity.NewClerk(cfg.ClerkSecretKey),
		Uploader:  uploader,
		Logger:    logger,
		Timeout:   cfg.RequestTimeout,
	})
	auth := customMiddleware.NewAuthenticator(verifier, s.Users)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = utils.NewRequestValidator()
	e.HTTPErrorHandler = customMiddleware.ErrorHandler(logger)

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(customMiddleware.RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, "Idempotency-Key",
		},
	}))
	e.Use(middleware.SecureWithConfig(middleware.DefaultSecureConfig))
	e.Use(middleware.BodyLimit(bodyLimit(cfg.MaxUploadBytes)))
	e.Use(metrics.Middleware())
	e.Use(customMiddleware.GuestSession(cfg.Environment == "production"))

	routes.SetupRoutes(e, h, auth)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	if client != nil {
		if err := client.Disconnect(ctx); err != nil {
			slog.Error("mongo disconnect failed", "error", err)
		}
	}
	slog.Info("server exited")
}

// openStore returns the configured store; the client is nil for the memory driver.
func openStore(cfg *config.Config) (*store.Store, *mongo.Client, error) {
	if cfg.StoreDriver == "memory" {
		slog.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	db := client.Database(cfg.MongoDatabase)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return database.New(client, db, cfg.MongoTransactions), client, nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// bodyLimit renders a byte count in the size notation BodyLimit expects.
func bodyLimit(n int64) string {
	return strconv.FormatInt(max(n/1024, 1), 10) + "K"
}
