package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, ProviderDisabled, cfg.LLM.Provider)
	assert.Equal(t, 10*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Maps.PlacesTimeout)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 500, cfg.Cache.Size)
	assert.Equal(t, 60, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Empty(t, cfg.Server.TrustedProxies)
}

func TestLoad_FromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("GOOGLE_MAPS_EMBED_KEY", "embed-key")
	t.Setenv("GOOGLE_MAPS_SERVER_KEY", "server-key")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-test")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "embed-key", cfg.Maps.EmbedKey)
	assert.Equal(t, "server-key", cfg.Maps.ServerKey)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAIAPIKey)
	assert.Equal(t, "gpt-test", cfg.LLM.OpenAIModel)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 5, cfg.RateLimit.Requests)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Empty(t, cfg.Warnings())
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LLM_PROVIDER", "gemini")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_PROVIDER")
}

func TestWarnings_MissingKeys(t *testing.T) {
	cfg := &Config{}
	cfg.LLM.Provider = ProviderOpenAI

	warnings := cfg.Warnings()
	assert.Len(t, warnings, 3)
	assert.Contains(t, warnings[0], "GOOGLE_MAPS_SERVER_KEY")
	assert.Contains(t, warnings[1], "GOOGLE_MAPS_EMBED_KEY")
	assert.Contains(t, warnings[2], "OPENAI_API_KEY")
}

func TestLoad_TrustedProxies(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 172.16.0.0/12")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1", "172.16.0.0/12"}, cfg.Server.TrustedProxies)

	t.Setenv("TRUSTED_PROXIES", "proxy.internal")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRUSTED_PROXIES")
}

// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
