package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Ayash-Bera/nearby/internal/api/handlers"
	"github.com/Ayash-Bera/nearby/internal/cache"
	"github.com/Ayash-Bera/nearby/internal/config"
	"github.com/Ayash-Bera/nearby/internal/health"
	"github.com/Ayash-Bera/nearby/internal/links"
	"github.com/Ayash-Bera/nearby/internal/llm"
	"github.com/Ayash-Bera/nearby/internal/middleware"
	"github.com/Ayash-Bera/nearby/internal/models"
	"github.com/Ayash-Bera/nearby/internal/places"
	"github.com/Ayash-Bera/nearby/internal/services"
	"github.com/Ayash-Bera/nearby/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, placesStatus string, trustedProxies ...string) *gin.Engine {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if placesStatus != places.StatusOK {
			w.Write([]byte(`{"status":"` + placesStatus + `","results":[]}`))
			return
		}
		w.Write([]byte(`{"status":"OK","results":[{"place_id":"ChIJ-ichiran","name":"Ichiran Shibuya","formatted_address":"Jinnan 1-22-7","rating":4.4,"user_ratings_total":12000}]}`))
	}))
	t.Cleanup(upstream.Close)

	cfg := &config.Config{}
	cfg.Server.MaxBodyBytes = 1 << 20
	cfg.Server.CORSOrigins = []string{"*"}
	cfg.Server.TrustedProxies = trustedProxies

	logger := utils.DiscardLogger()
	store := cache.NewMemory[*places.TextSearchResponse](500, 5*time.Minute)
	placesClient := places.NewClient(upstream.URL, "server-key", 2*time.Second, store, logger)
	linkBuilder := links.NewBuilder("embed-key")
	svc := services.NewSearchService(llm.Passthrough{}, placesClient, linkBuilder, logger)

	limiter := middleware.NewRateLimiter(60, time.Minute)
	t.Cleanup(limiter.Stop)

	checker := health.NewHealthChecker(health.Features{LLMProvider: "disabled", PlacesKeyLoaded: true, EmbedKeyLoaded: true, CacheBackend: "memory"}, nil, logger)

	return NewRouter(cfg, Handlers{
		Search: handlers.NewSearchHandler(svc, logger),
		Map:    handlers.NewMapHandler(linkBuilder, logger),
		Health: handlers.NewHealthHandler(checker),
	}, limiter, logger)
}

func search(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/llm/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.9:4000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_RamenExample(t *testing.T) {
	r := newTestRouter(t, places.StatusOK)

	w := search(r, `{"prompt":"best ramen near Shibuya station","location":{"lat":35.6595,"lng":139.7005},"radiusMeters":2000}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "best ramen near Shibuya station", resp.Query)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "ChIJ-ichiran", resp.Results[0].PlaceID)
	assert.Contains(t, resp.Results[0].EmbedURL, "key=embed-key")
	assert.NotContains(t, w.Body.String(), "server-key")

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_UpstreamDeniedStill200(t *testing.T) {
	r := newTestRouter(t, "REQUEST_DENIED")

	w := search(r, `{"prompt":"best ramen near Shibuya station"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "REQUEST_DENIED")

	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "best ramen near Shibuya station", resp.Results[0].Name)
	assert.Empty(t, resp.Results[0].PlaceID)
}

func TestRouter_RateLimitAppliesToAPI(t *testing.T) {
	r := newTestRouter(t, places.StatusZeroResults)

	for i := 0; i < 60; i++ {
		require.Equal(t, http.StatusOK, search(r, `{"prompt":"ramen"}`).Code, "request %d", i+1)
	}
	w := search(r, `{"prompt":"ramen"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// health is outside the limited group
	h := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	r.ServeHTTP(h, req)
	assert.Equal(t, http.StatusOK, h.Code)
}

func searchForwardedFor(r *gin.Engine, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/llm/search", strings.NewReader(`{"prompt":"ramen"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	req.RemoteAddr = "203.0.113.9:4000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRouter_ForwardedForIgnoredFromUntrustedPeer(t *testing.T) {
	r := newTestRouter(t, places.StatusZeroResults)

	for i := 0; i < 60; i++ {
		require.Equal(t, http.StatusOK, searchForwardedFor(r, fmt.Sprintf("10.0.0.%d", i)), "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, searchForwardedFor(r, "10.0.1.1"))
}

func TestRouter_ForwardedForHonouredFromTrustedProxy(t *testing.T) {
	r := newTestRouter(t, places.StatusZeroResults, "203.0.113.0/24")

	for i := 0; i < 61; i++ {
		require.Equal(t, http.StatusOK, searchForwardedFor(r, fmt.Sprintf("10.0.0.%d", i)), "request %d", i+1)
	}
	for i := 0; i < 60; i++ {
		searchForwardedFor(r, "198.51.100.7")
	}
	assert.Equal(t, http.StatusTooManyRequests, searchForwardedFor(r, "198.51.100.7"))
}

func TestRouter_StaticMetricsAndNotFound(t *testing.T) {
	r := newTestRouter(t, places.StatusOK)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/llm/search")

	search(r, `{"prompt":"ramen"}`)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nearby_http_requests_total")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := newTestRouter(t, places.StatusOK)

	req := httptest.NewRequest(http.MethodOptions, "/api/llm/search", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
