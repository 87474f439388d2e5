package router

import (
	"os"
	"runtime"
	"time"

	"university-chat/backend/pkg/health"

	"github.com/gin-gonic/gin"
)

// AddHealthChecker exposes the periodic checker's component view
func (r *Router) AddHealthChecker(checker *health.Checker) {
	r.Engine.GET("/api/v1/health", gin.WrapF(checker.HTTPHandler()))
}

// setupHealthRoutes registers health check endpoints
func (r *Router) setupHealthRoutes() {
	healthHandler := func(c *gin.Context) {
		// Check database connection
		dbStatus := "ok"
		if err := r.Container.DB.Exec("SELECT 1").Error; err != nil {
			dbStatus = err.Error()
			r.Logger.Error("Database health check failed", "error", err)
		}

		// Presence is optional, report it only when configured
		presenceStatus := "disabled"
		if r.Container.Presence != nil {
			presenceStatus = "ok"
			if err := r.Container.Presence.Ping(c.Request.Context()); err != nil {
				presenceStatus = err.Error()
			}
		}

		// Get memory stats
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		c.JSON(200, gin.H{
			"status":    "ok",
			"version":   os.Getenv("APP_VERSION"),
			"timestamp": time.Now().Format(time.RFC3339),
			"uptime":    time.Since(startTime).String(),
			"components": gin.H{
				"database": dbStatus,
				"presence": presenceStatus,
				"websocket": gin.H{
					"status":             "ok",
					"active_connections": r.Container.Registry.Len(),
				},
			},
			"memory": gin.H{
				"alloc_mb":  memStats.Alloc / 1024 / 1024,
				"sys_mb":    memStats.Sys / 1024 / 1024,
				"gc_cycles": memStats.NumGC,
			},
		})
	}

	// Register both health endpoint paths for compatibility
	r.Engine.GET("/health", healthHandler)
	r.Engine.GET("/api/health", healthHandler)
}
