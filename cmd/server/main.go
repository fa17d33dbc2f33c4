package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ayash-Bera/nearby/internal/api"
	"github.com/Ayash-Bera/nearby/internal/api/handlers"
	"github.com/Ayash-Bera/nearby/internal/cache"
	"github.com/Ayash-Bera/nearby/internal/config"
	"github.com/Ayash-Bera/nearby/internal/health"
	"github.com/Ayash-Bera/nearby/internal/links"
	"github.com/Ayash-Bera/nearby/internal/llm"
	"github.com/Ayash-Bera/nearby/internal/middleware"
	"github.com/Ayash-Bera/nearby/internal/places"
	"github.com/Ayash-Bera/nearby/internal/services"
	"github.com/Ayash-Bera/nearby/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		utils.GetLogger().WithError(err).Fatal("Failed to load configuration")
	}

	logger := utils.NewLogger(cfg.LogLevel, os.Stdout)
	utils.Logger = logger
	if envErr != nil {
		logger.Debug("No .env file found, using environment only")
	}
	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, redisClient := newPlacesStore(cfg, logger)
	cacheBackend := config.CacheMemory
	if redisClient != nil {
		cacheBackend = config.CacheRedis
		defer redisClient.Close()
	}

	placesClient := places.NewClient(
		cfg.Maps.PlacesBaseURL,
		cfg.Maps.ServerKey,
		cfg.Maps.PlacesTimeout,
		store,
		logger,
		places.WithRateLimit(cfg.Maps.PlacesQPS),
	)
	linkBuilder := links.NewBuilder(cfg.Maps.EmbedKey)
	extractor := llm.New(cfg, logger)
	searchService := services.NewSearchService(extractor, placesClient, linkBuilder, logger)

	var pinger health.Pinger
	if redisClient != nil {
		pinger = health.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	checker := health.NewHealthChecker(health.Features{
		LLMProvider:     extractor.Provider(),
		PlacesKeyLoaded: cfg.Maps.ServerKey != "",
		EmbedKeyLoaded:  cfg.Maps.EmbedKey != "",
		CacheBackend:    cacheBackend,
	}, pinger, logger)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	defer limiter.Stop()

	router := api.NewRouter(cfg, api.Handlers{
		Search: handlers.NewSearchHandler(searchService, logger),
		Map:    handlers.NewMapHandler(linkBuilder, logger),
		Health: handlers.NewHealthHandler(checker),
	}, limiter, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// extraction and places lookup are each bounded separately
		WriteTimeout: cfg.LLM.Timeout + cfg.Maps.PlacesTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":         cfg.Server.Port,
			"llm_provider": extractor.Provider(),
			"cache":        cacheBackend,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	logger.Info("Server exited")
}

// newPlacesStore picks the cache backend. An unreachable Redis falls back to
// the in-memory LRU so search keeps working.
func newPlacesStore(cfg *config.Config, logger *logrus.Logger) (cache.Store[*places.TextSearchResponse], *redis.Client) {
	memory := cache.NewMemory[*places.TextSearchResponse](cfg.Cache.Size, cfg.Cache.TTL)
	if cfg.Cache.Backend != config.CacheRedis {
		return memory, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := cache.Connect(ctx, cfg.Cache.RedisURL, logger)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, using in-memory cache")
		return memory, nil
	}
	return cache.NewRedis[*places.TextSearchResponse](client, places.CachePrefix, cfg.Cache.TTL, logger), client
}
