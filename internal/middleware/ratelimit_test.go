package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPRateLimiterAllow(t *testing.T) {
	l := NewIPRateLimiter(2*time.Second, 5)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("10.0.0.1", now), "attempt %d", i+1)
	}
	assert.False(t, l.Allow("10.0.0.1", now))
	assert.True(t, l.Allow("10.0.0.2", now), "other clients have their own bucket")

	assert.True(t, l.Allow("10.0.0.1", now.Add(2*time.Second)))
	assert.False(t, l.Allow("10.0.0.1", now.Add(2*time.Second)))
}

func TestIPRateLimiterForgetsIdleClients(t *testing.T) {
	l := NewIPRateLimiter(time.Hour, 1)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, l.Allow("10.0.0.1", now))
	assert.False(t, l.Allow("10.0.0.1", now))

	later := now.Add(11 * time.Minute)
	assert.True(t, l.Allow("10.0.0.2", later))
	assert.NotContains(t, l.visitors, "10.0.0.1")
	assert.True(t, l.Allow("10.0.0.1", later))
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", RateLimit(NewIPRateLimiter(time.Hour, 2)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "192.0.2.7:4000"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitIgnoresForwardedForFromUntrustedPeers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies(nil))
	r.POST("/login", RateLimit(NewIPRateLimiter(time.Hour, 5)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 6)
	for i := 1; i <= 6; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "203.0.113.9:5000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, http.StatusTooManyRequests, codes[5])
}

func TestRateLimitHonoursForwardedForFromTrustedProxy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies([]string{"203.0.113.9"}))
	r.POST("/login", RateLimit(NewIPRateLimiter(time.Hour, 1)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 1; i <= 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "203.0.113.9:5000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "client %d has its own bucket", i)
	}
}
