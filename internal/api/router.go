package api

import (
	"net/http"
	"time"

	"github.com/Ayash-Bera/nearby/internal/api/handlers"
	"github.com/Ayash-Bera/nearby/internal/config"
	"github.com/Ayash-Bera/nearby/internal/middleware"
	"github.com/Ayash-Bera/nearby/web"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	Search *handlers.SearchHandler
	Map    *handlers.MapHandler
	Health *handlers.HealthHandler
}

// NewRouter wires middleware and routes. The rate limiter only guards /api.
func NewRouter(cfg *config.Config, h Handlers, limiter *middleware.RateLimiter, logger *logrus.Logger) *gin.Engine {
	r := gin.New()

	// ClientIP keys the rate limiter, so forwarded headers count only from known proxies.
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.WithError(err).Error("Invalid trusted proxies, ignoring forwarded headers")
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.New(corsConfig(cfg.Server.CORSOrigins)))

	r.GET("/health", h.Health.Liveness)
	r.GET("/health/ready", h.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(limiter.RateLimit())
	api.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	{
		api.POST("/llm/search", h.Search.HandleSearch)
	}

	r.GET("/map", h.Map.HandleMap)

	static := http.FS(web.Static())
	r.GET("/", func(c *gin.Context) {
		c.FileFromFS("/", static)
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
