package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"university-chat/backend/internal/models"
	"university-chat/backend/pkg/config"
	"university-chat/backend/pkg/di"
	"university-chat/backend/pkg/health"
	"university-chat/backend/pkg/logger"
	"university-chat/backend/pkg/observability"
	"university-chat/backend/pkg/router"
	"university-chat/backend/pkg/secrets"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found")
	}

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		logConfig.Level = level
	}
	logConfig.JSON = os.Getenv("LOG_FORMAT") != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application", "version", os.Getenv("APP_VERSION"))

	cfg := config.New()

	// Resolve secrets through Vault when configured, environment otherwise
	secretsManager, err := secrets.NewManager(log)
	if err != nil {
		log.LogError(err, "Failed to initialize secrets manager")
		os.Exit(1)
	}
	jwtSecret := secretsManager.GetSecretWithDefault(context.Background(), "jwt-secret", cfg.JWT.Secret)
	if jwtSecret == "" {
		log.Error("JWT secret is not configured")
		os.Exit(1)
	}

	// Initialize database
	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	// Auto-migrate the schema
	if err := db.AutoMigrate(&models.User{}, &models.Message{}); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	// Conversation queries filter on both participants
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_messages_participants ON messages(sender_id, receiver_id)").Error; err != nil {
		log.LogError(err, "Failed to create message index", "index", "idx_messages_participants")
	}

	// Tracing and metrics
	shutdownTracing, err := observability.SetupTracing("university-chat-backend")
	if err != nil {
		log.LogError(err, "Failed to set up tracing")
	} else {
		defer shutdownTracing()
	}
	if _, err := observability.SetupMetrics(); err != nil {
		log.LogError(err, "Failed to set up metrics")
	}

	// Initialize dependency injection container
	diConfig := di.DefaultConfig()
	diConfig.LoggerConfig = logConfig
	diConfig.JWTSecret = jwtSecret
	diConfig.JWTExpiry = cfg.JWT.Expiry
	diConfig.RedisAddr = cfg.Redis.Addr
	diConfig.RedisPassword = cfg.Redis.Password
	diConfig.RedisDB = cfg.Redis.DB
	diConfig.PresenceTTL = cfg.Redis.PresenceTTL

	container, err := di.New(db, diConfig)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}

	// Periodic health checks, exposed over HTTP and gRPC
	checker := health.NewChecker(log, 30*time.Second)
	checker.RegisterPingCheck("database", true, func() error {
		return config.TestConnection(db)
	})
	if container.Presence != nil {
		checker.RegisterPingCheck("presence", false, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return container.Presence.Ping(ctx)
		})
	}
	checker.Start()

	grpcHealth := health.NewGRPCServer(checker, log)
	if grpcAddr := os.Getenv("GRPC_HEALTH_ADDR"); grpcAddr != "" {
		go func() {
			if err := grpcHealth.Serve(grpcAddr); err != nil {
				log.LogError(err, "gRPC health server stopped")
			}
		}()
	}

	// Initialize and setup router
	r := router.New(container)
	r.SetupRoutes()
	r.AddHealthChecker(checker)

	// Add OpenAPI validation if schema file is available
	if cfg.OpenAPISchemaPath != "" {
		r.AddOpenAPIValidation(cfg.OpenAPISchemaPath)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	// Start the server in a goroutine
	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal
	<-quit
	log.Info("Shutting down server...")

	// Create a deadline to wait for
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server
	if err := srv.Shutdown(ctx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	grpcHealth.Stop()

	log.Info("Server exited gracefully")
}
