package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(rpm, burst int) *RateLimiter {
	rl := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: rpm,
		BurstSize:         burst,
		CleanupInterval:   time.Minute,
	})
	return rl
}

func TestAllow_BurstThenDeny(t *testing.T) {
	rl := newTestLimiter(60, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("client-1"), "request %d should pass within burst", i+1)
	}
	assert.False(t, rl.Allow("client-1"), "request beyond burst should be denied")
}

func TestAllow_IndependentClients(t *testing.T) {
	rl := newTestLimiter(60, 1)
	defer rl.Stop()

	assert.True(t, rl.Allow("client-a"))
	assert.False(t, rl.Allow("client-a"))
	assert.True(t, rl.Allow("client-b"))
}

func TestRemainingTokens_NewClient(t *testing.T) {
	rl := newTestLimiter(60, 10)
	defer rl.Stop()

	assert.Equal(t, 10, rl.RemainingTokens("unseen"))
}

func TestRateLimitMiddleware_Denies429(t *testing.T) {
	rl := newTestLimiter(60, 1)
	defer rl.Stop()

	r := gin.New()
	r.Use(RateLimitMiddleware(rl))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_SetsHeaders(t *testing.T) {
	rl := newTestLimiter(120, 20)
	defer rl.Stop()

	r := gin.New()
	r.Use(RateLimitMiddleware(rl))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, "120", w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
}

func TestGetRateLimitKey_PrefersUserID(t *testing.T) {
	r := gin.New()
	var key string
	r.GET("/k", func(c *gin.Context) {
		c.Set(UserIDKey, "user-42")
		key = getRateLimitKey(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/k", nil))
	assert.Equal(t, "user:user-42", key)
}
