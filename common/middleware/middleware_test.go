package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/payments/intent/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": c.GetString(RequestIDKey)})
	})
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	t.Run("propagates incoming request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/payments/intent/pi_1", nil)
		req.Header.Set(RequestIDHeader, "req-abc")
		w := serve(r, req)

		assert.Equal(t, "req-abc", w.Header().Get(RequestIDHeader))
		assert.Contains(t, w.Body.String(), "req-abc")
	})

	t.Run("generates a uuid when missing", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/payments/intent/pi_1", nil))

		_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
		assert.NoError(t, err)
	})

	t.Run("level follows status class", func(t *testing.T) {
		serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
		serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil))

		entries := logs.FilterMessage("http_request").All()
		require.GreaterOrEqual(t, len(entries), 2)
		last := entries[len(entries)-1]
		prev := entries[len(entries)-2]
		assert.Equal(t, zapcore.ErrorLevel, prev.Level)
		assert.Equal(t, zapcore.WarnLevel, last.Level)
		assert.Equal(t, "/missing", last.ContextMap()["path"])
	})
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(rate.Every(time.Hour), 2, time.Minute)
	r := gin.New()
	r.Use(RateLimitMiddleware(limiter))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(r, req).Code
	}

	assert.Equal(t, http.StatusOK, get("10.0.0.1"))
	assert.Equal(t, http.StatusOK, get("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, get("10.0.0.1"))
	assert.Equal(t, http.StatusOK, get("10.0.0.2"))
}

func TestRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(rate.Every(time.Second), 1, time.Minute)
	rl.now = func() time.Time { return now }

	rl.GetLimiter("a")
	now = now.Add(45 * time.Second)
	rl.GetLimiter("b")
	now = now.Add(30 * time.Second)

	assert.Equal(t, 1, rl.Sweep())
}

func TestNewPerMinuteLimiter(t *testing.T) {
	rl := NewPerMinuteLimiter(120)
	assert.Equal(t, 60, rl.burst)
	assert.InDelta(t, 2.0, float64(rl.rate), 1e-9)

	tiny := NewPerMinuteLimiter(0)
	assert.Equal(t, 1, tiny.burst)
}

func TestCORS(t *testing.T) {
	t.Run("wildcard", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS([]string{"*"}))
		r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://shop.example.com")
		w := serve(r, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allow list preflight", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS([]string{"https://shop.example.com"}))
		r.POST("/payments/intent", func(c *gin.Context) { c.Status(http.StatusCreated) })

		req := httptest.NewRequest(http.MethodOptions, "/payments/intent", nil)
		req.Header.Set("Origin", "https://shop.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := serve(r, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin is refused", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS([]string{"https://shop.example.com"}))
		r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := serve(r, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(30 * time.Second))
	var hasDeadline bool
	r.GET("/health", func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
		c.Status(http.StatusOK)
	})

	serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.True(t, hasDeadline)
}

func TestMetricsMiddleware_DisabledPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(MetricsMiddleware(nil, "payment-api"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusCodeToRange(t *testing.T) {
	assert.Equal(t, "2xx", statusCodeToRange(201))
	assert.Equal(t, "3xx", statusCodeToRange(304))
	assert.Equal(t, "4xx", statusCodeToRange(429))
	assert.Equal(t, "5xx", statusCodeToRange(502))
	assert.Equal(t, "unknown", statusCodeToRange(100))
}

func TestRequestMetrics(t *testing.T) {
	names := func(status int) []string {
		var out []string
		for _, d := range requestMetrics(status, 20*time.Millisecond) {
			out = append(out, d.Name)
		}
		return out
	}

	assert.Equal(t, []string{"HTTPRequests", "HTTPLatency"}, names(http.StatusCreated))
	assert.Equal(t, []string{"HTTPRequests", "HTTPLatency", "HTTPErrors", "HTTP4xxErrors"}, names(http.StatusBadRequest))
	assert.Equal(t, []string{"HTTPRequests", "HTTPLatency", "HTTPErrors", "HTTP5xxErrors"}, names(http.StatusInternalServerError))
}
