// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"salesdocs/internal/domain/documents"
	"salesdocs/internal/infrastructure/http/v1/handlers"
	"salesdocs/internal/infrastructure/http/v1/middleware"
	"salesdocs/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	Documents handlers.DocumentService
	Numbers   handlers.NumberingService

	// HealthChecks are pinged by /health/ready
	HealthChecks map[string]handlers.Pinger

	// JWTValidator validates bearer tokens; nil disables authentication.
	JWTValidator middleware.JWTValidator
	// AuthRequired rejects requests without a token.
	AuthRequired bool

	AllowedOrigins []string
	Development    bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(corsMiddleware(cfg.AllowedOrigins))

	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	api := router.Group("/api/v1")
	if cfg.JWTValidator != nil {
		if cfg.AuthRequired {
			api.Use(middleware.Auth(cfg.JWTValidator))
		} else {
			api.Use(middleware.OptionalAuth(cfg.JWTValidator))
		}
	}

	base := handlers.NewBaseHandler()
	registerDocumentRoutes(api, base, cfg.Documents)
	registerNumberRoutes(api, base, cfg.Numbers)

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", handlers.HeaderIdempotencyKey, middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID, middleware.HeaderTraceID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return cors.New(c)
}

// registerDocumentRoutes registers create, get, linked and audit routes for every kind plus /links.
func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, service handlers.DocumentService) {
	if service == nil {
		return
	}
	for _, def := range documents.Definitions() {
		h := handlers.NewDocumentHandler(base, service, def)
		group := rg.Group("/" + def.Collection)
		group.POST("", h.Create)
		group.GET("/:number", h.Get)
		group.GET("/:number/linked", h.Linked)
		group.GET("/:number/audit", h.Audit)
	}

	links := handlers.NewLinkHandler(base, service)
	rg.POST("/links", links.Link)
}

func registerNumberRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, service handlers.NumberingService) {
	if service == nil {
		return
	}
	h := handlers.NewNumberHandler(base, service)
	numbers := rg.Group("/numbers")
	{
		numbers.GET("/stats", h.Stats)
		numbers.GET("/parse/:number", h.Parse)
		numbers.GET("/:prefix/preview", h.Preview)
	}
}
