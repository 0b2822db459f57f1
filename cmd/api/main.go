// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rental-admin-console/config"
	"rental-admin-console/internal/api/handlers"
	"rental-admin-console/internal/api/routes"
	"rental-admin-console/internal/apiclient"
	"rental-admin-console/internal/database"
	"rental-admin-console/internal/formstore"
	"rental-admin-console/internal/s3"
	"rental-admin-console/internal/session"
	"rental-admin-console/internal/socket"
	"rental-admin-console/internal/upload"
	"rental-admin-console/internal/wizard"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env vars")
	}

	// 1. Load configuration
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	// 2. Logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Could not build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// 3. Admin credentials: MongoDB when configured, otherwise process memory.
	var credentials apiclient.CredentialStore
	if cfg.Mongo.URI != "" {
		mongoClient, db, err := database.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.DBName)
		if err != nil {
			logger.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		defer mongoClient.Disconnect(context.Background())
		credentials = database.NewCredentialStore(db)
	} else {
		logger.Warn("mongo.uri not set, admin credentials are kept in memory")
		credentials = apiclient.NewMemoryCredentialStore(nil)
	}
	if err := database.SeedAdminCredentials(ctx, credentials, cfg.Admin, logger); err != nil {
		logger.Error("failed to seed admin credentials", zap.Error(err))
	}

	// 4. Form session persistence
	var sessions session.Store
	switch cfg.Session.Driver {
	case "memory":
		sessions = session.NewMemoryStore()
	default:
		redisClient, err := session.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		sessions = session.NewRedisStore(redisClient, cfg.Session.KeyPrefix, cfg.Session.TTL)
	}

	// 5. Backend client and upload pipeline
	backend := apiclient.New(cfg.Backend.BaseURL, &http.Client{Timeout: cfg.Backend.Timeout}, credentials, logger)
	pipeline := upload.NewPipeline(backend, &http.Client{Timeout: cfg.Backend.Timeout}, upload.Options{
		MaxDimension: cfg.Upload.MaxDimension,
		MaxBytes:     cfg.Upload.MaxBytes,
		MaxPixels:    cfg.Upload.MaxPixels,
	}, logger)

	deps := formstore.Deps{Sessions: sessions, Uploader: pipeline, Backend: backend, Logger: logger}
	if cfg.S3.CleanupReplaced {
		cleaner, err := s3.NewCleaner(cfg.S3, logger)
		if err != nil {
			logger.Fatal("failed to initialize S3 cleaner", zap.Error(err))
		}
		deps.Remover = cleaner
	}

	// 6. Wizard sessions, live feed and router
	wsHub := socket.NewHub(logger)
	registry := wizard.NewRegistry(formstore.NewManager(deps), handlers.Broadcast(wsHub, logger), logger)

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.SetupRouter(cfg, registry, backend, credentials, wsHub, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 7. Start server
	go func() {
		logger.Info("starting API server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to run server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
