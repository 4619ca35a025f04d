// internal/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"serial-terminal/internal/config"
	"serial-terminal/internal/handler"
	"serial-terminal/internal/middleware"
	"serial-terminal/internal/service"
	"serial-terminal/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config   *config.Config
	prefs    *config.Preferences
	logger   *zap.Logger
	terminal *service.TerminalService
	bus      *service.EventBus
}

// NewRouter creates a new router instance
func NewRouter(
	config *config.Config,
	prefs *config.Preferences,
	logger *zap.Logger,
	terminal *service.TerminalService,
	bus *service.EventBus,
) *Router {
	return &Router{
		config:   config,
		prefs:    prefs,
		logger:   logger,
		terminal: terminal,
		bus:      bus,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	// Set Gin mode
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Create Gin engine
	router := gin.New()

	// Add middleware
	r.addMiddleware(router)

	// Add routes
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	// Recovery middleware
	router.Use(middleware.RecoveryMiddleware(r.logger))

	// Request ID middleware
	router.Use(middleware.RequestIDMiddleware())

	// Logging middleware
	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	// CORS middleware
	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	// Create handlers
	healthHandler := handler.NewHealthHandler(r.terminal, r.config, r.logger)
	terminalHandler := handler.NewTerminalHandler(r.terminal, r.config, r.prefs, r.logger)
	wsHandler := handler.NewWebSocketHandler(r.terminal, r.bus, r.logger)

	// Health check routes
	r.addHealthRoutes(router, healthHandler)

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	terminalHandler.RegisterRoutes(apiV1)

	// WebSocket routes
	ws := router.Group("/ws")
	wsHandler.RegisterRoutes(ws)

	r.logger.Info("All routes configured successfully")
}

// addHealthRoutes sets up health check routes
func (r *Router) addHealthRoutes(router *gin.Engine, handler *handler.HealthHandler) {
	health := router.Group("")
	{
		health.GET("/health", handler.HealthCheck)
		health.GET("/ready", handler.ReadinessCheck)
		health.GET("/live", handler.LivenessCheck)
	}
}
