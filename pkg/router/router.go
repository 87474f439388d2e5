package router

import (
	"net/http"
	"os"
	"time"

	"university-chat/backend/internal/api"
	"university-chat/backend/pkg/config"
	"university-chat/backend/pkg/di"
	"university-chat/backend/pkg/errors"
	"university-chat/backend/pkg/jwt"
	"university-chat/backend/pkg/logger"
	"university-chat/backend/pkg/middleware"
	"university-chat/backend/pkg/observability"

	"github.com/gin-gonic/gin"
)

// Track server start time for uptime calculations
var startTime = time.Now()

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	// Use the container's logger
	logger.SetGlobal(container.Logger)

	// Load configuration
	cfg := config.New()

	// Configure Gin mode based on environment
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	engine := gin.New()

	// Use the logger middleware first to capture all requests
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(middleware.RequestIDMiddleware())

	// Add custom error handler middleware
	engine.Use(errors.ErrorHandler())

	// Add custom recovery middleware with structured logging instead of default
	engine.Use(errors.RecoveryWithLogger())

	// Create rate limiter with default options
	rateLimiter := middleware.NewRateLimiter(container.Logger)

	// Apply rate limiting to all routes
	engine.Use(rateLimiter.Middleware())

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	// Add CORS middleware
	r.Engine.Use(corsMiddleware())

	// Create JWT auth middleware
	jwtAuth := middleware.JWTAuthMiddleware(r.Container.JWTService, r.Logger)

	authHandler := api.NewAuthHandler(r.Container.UserService, r.Logger)
	userHandler := api.NewUserHandler(r.Container.UserService, r.Logger)
	messageHandler := api.NewMessageHandler(r.Container.MessageService, r.Container.Registry, r.Logger)

	// Root welcome payload
	r.Engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to University Chat Backend API!"})
	})

	// Static assets
	if r.Config.StaticDir != "" {
		if info, err := os.Stat(r.Config.StaticDir); err == nil && info.IsDir() {
			r.Engine.Static("/static", r.Config.StaticDir)
			r.Engine.StaticFile("/favicon.ico", r.Config.StaticDir+"/favicon.ico")
		}
	}

	// Health and metrics endpoints
	r.setupHealthRoutes()
	r.Engine.GET("/metrics", gin.WrapH(observability.MetricsHandler()))

	// Auth routes (no auth required)
	authRoutes := r.Engine.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
	}

	// User routes: signup is public, the rest require a token
	userRoutes := r.Engine.Group("/user")
	{
		userRoutes.POST("", userHandler.CreateUser)
		userRoutes.GET("", jwtAuth, userHandler.ListUsers)
		userRoutes.GET("/:id", jwtAuth, userHandler.GetUser)
		userRoutes.PUT("/:id", jwtAuth, userHandler.UpdateUser)
		userRoutes.DELETE("/:id", jwtAuth, middleware.RequireRole(jwt.RoleAdmin), userHandler.DeleteUser)
	}

	// Message routes (require authentication)
	messageRoutes := r.Engine.Group("/messages")
	messageRoutes.Use(jwtAuth)
	{
		messageRoutes.POST("", messageHandler.SendMessage)
		messageRoutes.GET("/:id", messageHandler.GetMessage)
		messageRoutes.GET("/conversation/:user_id", messageHandler.GetConversation)
	}

	// WebSocket route. Authentication happens inside ServeWs before the
	// upgrade, so the JWT middleware is not applied here.
	r.Engine.GET("/ws", r.Container.Relay.ServeWs)
}

// Enhance CORS middleware to explicitly allow WebSocket-specific headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		if origin != "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, X-CSRF-Token, Authorization, Origin, Upgrade, Connection, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Upgrade, Connection")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
