package di

import (
	"time"

	"university-chat/backend/internal/presence"
	"university-chat/backend/internal/repository"
	"university-chat/backend/internal/service"
	"university-chat/backend/internal/ws"
	"university-chat/backend/pkg/jwt"
	"university-chat/backend/pkg/logger"
	"university-chat/backend/pkg/observability"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB             *gorm.DB
	Logger         *logger.Logger
	JWTService     *jwt.Service
	UserService    *service.UserService
	MessageService *service.MessageService
	Registry       *ws.Registry
	Relay          *ws.Relay
	Presence       *presence.Tracker
	RelayMetrics   *observability.RelayMetrics
}

// Config holds the configuration for the container
type Config struct {
	LoggerConfig  logger.Config
	JWTSecret     string
	JWTExpiry     time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PresenceTTL   time.Duration
	EnableMetrics bool
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		LoggerConfig:  logger.DefaultConfig(),
		JWTSecret:     "",
		JWTExpiry:     0, // Use the service default
		RedisAddr:     "",
		PresenceTTL:   90 * time.Second,
		EnableMetrics: true,
	}
}

// New creates a new dependency injection container
func New(db *gorm.DB, config *Config) (*Container, error) {
	if config == nil {
		config = DefaultConfig()
	}

	log := logger.New(config.LoggerConfig)

	jwtService := jwt.NewService(config.JWTSecret, config.JWTExpiry)

	userRepo := repository.NewGormUserRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	userService := service.NewUserService(userRepo, jwtService)
	messageService := service.NewMessageService(messageRepo)

	// Presence is optional: without Redis the relay still works, clients
	// just cannot query who is online.
	var tracker *presence.Tracker
	if config.RedisAddr != "" {
		client := presence.NewRedisClient(config.RedisAddr, config.RedisPassword, config.RedisDB)
		tracker = presence.NewTracker(client, config.PresenceTTL, log)
	}

	var metrics *observability.RelayMetrics
	if config.EnableMetrics {
		m, err := observability.NewRelayMetrics()
		if err != nil {
			log.Warn("Failed to initialize relay metrics, continuing without them", "error", err)
		} else {
			metrics = m
		}
	}

	registry := ws.NewRegistry(log)

	// Tracker and metrics satisfy the relay interfaces; a nil tracker must
	// stay a nil interface value, so only assign when it exists.
	var relayPresence ws.Presence
	if tracker != nil {
		relayPresence = tracker
	}
	relay := ws.NewRelay(registry, messageService, jwtService, relayPresence, metrics, log)

	return &Container{
		DB:             db,
		Logger:         log,
		JWTService:     jwtService,
		UserService:    userService,
		MessageService: messageService,
		Registry:       registry,
		Relay:          relay,
		Presence:       tracker,
		RelayMetrics:   metrics,
	}, nil
}
