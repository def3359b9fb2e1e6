package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"recipehub/api/internal/config"
	"recipehub/api/internal/handler/middleware"
	"recipehub/api/internal/repository"
	"recipehub/api/pkg/response"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	recipeHandler *RecipeHandler,
	healthHandler *HealthHandler,
	stateStore repository.StateStore,
) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
	}
	r.Use(middleware.CORS(cfg.CORS))

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c, "method not allowed")
	})

	// Probes
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	recipes := r.Group("/recipes")
	if cfg.RateLimit.Enabled {
		recipes.Use(middleware.RateLimit(cfg.RateLimit))
	}
	recipes.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	if cfg.Idempotency.Enabled && stateStore != nil {
		recipes.Use(middleware.Idempotency(stateStore, cfg.Idempotency.TTL, logger))
	}
	{
		recipes.GET("", recipeHandler.List)
		recipes.POST("", recipeHandler.Create)
		recipes.GET("/:id", recipeHandler.Get)
		recipes.PUT("/:id", recipeHandler.Replace)
		recipes.DELETE("/:id", recipeHandler.Delete)
	}

	return r
}
