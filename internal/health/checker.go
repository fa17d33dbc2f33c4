package health

import (
	"context"
	"time"

	"github.com/Ayash-Bera/nearby/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	StatusOK        = "ok"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Pinger is satisfied by *redis.Client via a small adapter.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Features describes what the running configuration can serve.
type Features struct {
	LLMProvider     string
	PlacesKeyLoaded bool
	EmbedKeyLoaded  bool
	CacheBackend    string
}

// HealthChecker reports liveness and readiness.
type HealthChecker struct {
	features  Features
	cache     Pinger
	timeout   time.Duration
	startTime time.Time
	now       func() time.Time
	logger    *logrus.Logger
}

// NewHealthChecker builds a checker. cache may be nil for the in-memory backend.
func NewHealthChecker(features Features, cache Pinger, logger *logrus.Logger) *HealthChecker {
	return &HealthChecker{
		features:  features,
		cache:     cache,
		timeout:   2 * time.Second,
		startTime: time.Now(),
		now:       time.Now,
		logger:    logger,
	}
}

func (h *HealthChecker) Liveness() models.HealthResponse {
	return models.HealthResponse{
		Status:    StatusOK,
		Timestamp: h.now().UnixMilli(),
	}
}

// Readiness is unhealthy when a configured cache backend is unreachable
// and degraded when a feature is missing its key.
func (h *HealthChecker) Readiness(ctx context.Context) models.ReadinessResponse {
	services := map[string]string{
		"llm": h.features.LLMProvider,
	}
	status := StatusOK

	services["places"] = "configured"
	if !h.features.PlacesKeyLoaded {
		services["places"] = "missing key"
		status = StatusDegraded
	}
	services["embed"] = "configured"
	if !h.features.EmbedKeyLoaded {
		services["embed"] = "missing key"
		status = StatusDegraded
	}

	services["cache"] = h.features.CacheBackend
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(ctx, h.timeout)
		defer cancel()

		start := time.Now()
		if err := h.cache.Ping(ctx); err != nil {
			h.logger.WithError(err).Error("Cache health check failed")
			services["cache"] = h.features.CacheBackend + ": " + StatusUnhealthy
			status = StatusUnhealthy
		} else {
			h.logger.WithField("response_time_ms", time.Since(start).Milliseconds()).Debug("Cache health check passed")
		}
	}

	return models.ReadinessResponse{
		Status:   status,
		Uptime:   h.now().Sub(h.startTime).Round(time.Second).String(),
		Services: services,
	}
}
