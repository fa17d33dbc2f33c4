// Command seed warms the shared Redis places cache from a list of searches.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ayash-Bera/nearby/internal/cache"
	"github.com/Ayash-Bera/nearby/internal/config"
	"github.com/Ayash-Bera/nearby/internal/places"
	"github.com/Ayash-Bera/nearby/internal/seeder"
	"github.com/Ayash-Bera/nearby/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	file    = flag.String("file", "seed.json", "JSON array of {query, location?, radiusMeters?, priority}")
	dryRun  = flag.Bool("dry-run", false, "List the entries without calling the places API")
	verbose = flag.Bool("verbose", false, "Enable verbose logging")
	limit   = flag.Int("limit", 0, "Limit number of entries to warm (0 = all)")
	delay   = flag.Duration("delay", 200*time.Millisecond, "Delay between requests")
)

func main() {
	flag.Parse()

	// Load environment variables
	_ = godotenv.Load()

	logger := utils.GetLogger()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	f, err := os.Open(*file)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open seed file")
	}
	entries, err := seeder.ParseEntries(f)
	f.Close()
	if err != nil {
		logger.WithError(err).Fatal("Failed to parse seed file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var searcher seeder.Searcher
	if !*dryRun {
		// an in-memory cache would die with this process
		if cfg.Cache.Backend != config.CacheRedis {
			logger.Fatal("Cache warming needs CACHE_BACKEND=redis")
		}
		if cfg.Maps.ServerKey == "" {
			logger.Fatal("GOOGLE_MAPS_SERVER_KEY is required")
		}

		client, err := cache.Connect(ctx, cfg.Cache.RedisURL, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer client.Close()

		store := cache.NewRedis[*places.TextSearchResponse](client, places.CachePrefix, cfg.Cache.TTL, logger)
		searcher = places.NewClient(
			cfg.Maps.PlacesBaseURL,
			cfg.Maps.ServerKey,
			cfg.Maps.PlacesTimeout,
			store,
			logger,
			places.WithRateLimit(cfg.Maps.PlacesQPS),
		)
	}

	logger.WithField("entries", len(entries)).Info("Starting cache warming...")
	report := seeder.NewWarmer(searcher, logger, *delay, *dryRun).Warm(ctx, entries, *limit)

	for _, err := range report.Errors {
		logger.WithError(err).Warn("Warming error")
	}
	if len(report.Errors) > 0 && report.Warmed == 0 {
		os.Exit(1)
	}
}
