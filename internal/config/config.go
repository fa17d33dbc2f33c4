package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderOpenAI   = "openai"
	ProviderLocal    = "local"
	ProviderDisabled = "disabled"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Server struct {
		Port           string
		MaxBodyBytes   int64
		CORSOrigins    []string
		// TrustedProxies may set X-Forwarded-For; empty means only RemoteAddr counts.
		TrustedProxies []string
	}
	Maps struct {
		// EmbedKey is the browser-restricted key; it ends up in URLs sent to clients.
		EmbedKey string
		// ServerKey is the server-restricted key used for places search only.
		ServerKey     string
		PlacesBaseURL string
		PlacesTimeout time.Duration
		PlacesQPS     float64
	}
	LLM struct {
		Provider      string
		Timeout       time.Duration
		OpenAIBaseURL string
		OpenAIAPIKey  string
		OpenAIModel   string
		LocalURL      string
		LocalModel    string
	}
	Cache struct {
		Backend  string
		TTL      time.Duration
		Size     int
		RedisURL string
	}
	RateLimit struct {
		Requests int
		Window   time.Duration
	}
	LogLevel string
}

// env names for keys that don't follow the dotted-key convention
var envBindings = map[string]string{
	"server.port":            "PORT",
	"server.max_body":        "MAX_BODY_BYTES",
	"server.cors_origins":    "CORS_ORIGINS",
	"server.trusted_proxies": "TRUSTED_PROXIES",
	"maps.embed_key":         "GOOGLE_MAPS_EMBED_KEY",
	"maps.server_key":        "GOOGLE_MAPS_SERVER_KEY",
	"maps.places_base_url":   "PLACES_BASE_URL",
	"maps.places_timeout":    "PLACES_TIMEOUT",
	"maps.places_qps":        "PLACES_QPS",
	"llm.provider":           "LLM_PROVIDER",
	"llm.timeout":            "LLM_TIMEOUT",
	"llm.openai.base_url":    "OPENAI_BASE_URL",
	"llm.openai.api_key":     "OPENAI_API_KEY",
	"llm.openai.model":       "OPENAI_MODEL",
	"llm.local.url":          "LOCAL_LLM_URL",
	"llm.local.model":        "LOCAL_LLM_MODEL",
	"cache.backend":          "CACHE_BACKEND",
	"cache.ttl":              "CACHE_TTL",
	"cache.size":             "CACHE_SIZE",
	"redis.url":              "REDIS_URL",
	"ratelimit.requests":     "RATE_LIMIT_REQUESTS",
	"ratelimit.window":       "RATE_LIMIT_WINDOW",
	"log.level":              "LOG_LEVEL",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	// Set defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.max_body", 1<<20)
	v.SetDefault("server.cors_origins", "*")
	v.SetDefault("server.trusted_proxies", "")
	v.SetDefault("maps.places_base_url", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("maps.places_timeout", 10*time.Second)
	v.SetDefault("maps.places_qps", 10.0)
	v.SetDefault("llm.provider", ProviderDisabled)
	v.SetDefault("llm.timeout", 10*time.Second)
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.local.url", "http://localhost:11434")
	v.SetDefault("llm.local.model", "llama3.2")
	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.size", 500)
	v.SetDefault("redis.url", "redis://localhost:6379")
	v.SetDefault("ratelimit.requests", 60)
	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config

	config.Server.Port = v.GetString("server.port")
	config.Server.MaxBodyBytes = v.GetInt64("server.max_body")
	config.Server.CORSOrigins = splitList(v.GetString("server.cors_origins"))
	config.Server.TrustedProxies = splitList(v.GetString("server.trusted_proxies"))
	config.Maps.EmbedKey = strings.TrimSpace(v.GetString("maps.embed_key"))
	config.Maps.ServerKey = strings.TrimSpace(v.GetString("maps.server_key"))
	config.Maps.PlacesBaseURL = strings.TrimRight(v.GetString("maps.places_base_url"), "/")
	config.Maps.PlacesTimeout = v.GetDuration("maps.places_timeout")
	config.Maps.PlacesQPS = v.GetFloat64("maps.places_qps")
	config.LLM.Provider = strings.ToLower(strings.TrimSpace(v.GetString("llm.provider")))
	config.LLM.Timeout = v.GetDuration("llm.timeout")
	config.LLM.OpenAIBaseURL = v.GetString("llm.openai.base_url")
	config.LLM.OpenAIAPIKey = v.GetString("llm.openai.api_key")
	config.LLM.OpenAIModel = v.GetString("llm.openai.model")
	config.LLM.LocalURL = v.GetString("llm.local.url")
	config.LLM.LocalModel = v.GetString("llm.local.model")
	config.Cache.Backend = strings.ToLower(v.GetString("cache.backend"))
	config.Cache.TTL = v.GetDuration("cache.ttl")
	config.Cache.Size = v.GetInt("cache.size")
	config.Cache.RedisURL = v.GetString("redis.url")
	config.RateLimit.Requests = v.GetInt("ratelimit.requests")
	config.RateLimit.Window = v.GetDuration("ratelimit.window")
	config.LogLevel = v.GetString("log.level")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects values that would make the server misbehave rather than degrade.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderLocal, ProviderDisabled:
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of openai, local, disabled; got %q", c.LLM.Provider)
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("CACHE_BACKEND must be memory or redis; got %q", c.Cache.Backend)
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("CACHE_SIZE must be positive")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	for _, proxy := range c.Server.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP or CIDR", proxy)
			}
		}
	}
	return nil
}

// Warnings lists features that will run degraded with the current configuration.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Maps.ServerKey == "" {
		warnings = append(warnings, "GOOGLE_MAPS_SERVER_KEY is not set; place search disabled, results fall back to text links")
	}
	if c.Maps.EmbedKey == "" {
		warnings = append(warnings, "GOOGLE_MAPS_EMBED_KEY is not set; map embeds will not render")
	}
	if c.LLM.Provider == ProviderOpenAI && c.LLM.OpenAIAPIKey == "" {
		warnings = append(warnings, "OPENAI_API_KEY is not set; query extraction uses the raw prompt")
	}
	return warnings
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
