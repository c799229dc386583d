// Package middleware provides security middleware for the API.
package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AImitSK/skamp-monitoring/internal/logger"
)

// TimeProvider is an interface for getting the current time.
type TimeProvider interface {
	Now() time.Time
}

// realTimeProvider is the default implementation of TimeProvider.
type realTimeProvider struct{}

func (r *realTimeProvider) Now() time.Time {
	return time.Now()
}

const (
	// DefaultRateLimitWindow is the default window for rate limiting.
	DefaultRateLimitWindow = time.Minute

	// DefaultRateLimit is the default number of requests allowed per
	// window.
	DefaultRateLimit = 60

	// SecretHeader carries the shared monitoring secret.
	SecretHeader = "X-Monitoring-Secret"

	// AdminKeyHeader carries the admin key for crawler control routes.
	AdminKeyHeader = "X-Admin-Key"
)

// Config holds the middleware's credentials and limits.
type Config struct {
	MonitoringSecret string
	AdminKey         string
	RateLimit        int
	RateLimitWindow  time.Duration
}

// SecurityMiddleware implements authentication and rate limiting for
// the monitoring API.
type SecurityMiddleware struct {
	config       Config
	log          logger.Interface
	rateLimiter  map[string]rateLimitInfo
	mu           sync.Mutex
	timeProvider TimeProvider
}

// rateLimitInfo holds rate limiting state for one client.
type rateLimitInfo struct {
	count      int
	lastAccess time.Time
}

// NewSecurityMiddleware creates a new security middleware instance.
func NewSecurityMiddleware(cfg Config, log logger.Interface) *SecurityMiddleware {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}

	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = DefaultRateLimitWindow
	}

	return &SecurityMiddleware{
		config:       cfg,
		log:          log,
		rateLimiter:  make(map[string]rateLimitInfo),
		timeProvider: &realTimeProvider{},
	}
}

// SetTimeProvider sets a custom time provider for testing.
func (m *SecurityMiddleware) SetTimeProvider(provider TimeProvider) {
	m.timeProvider = provider
}

// Secret authenticates requests with the shared monitoring secret,
// accepted either as the ?secret= query parameter or the
// X-Monitoring-Secret header.
func (m *SecurityMiddleware) Secret() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.checkSecret(c); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		if !m.checkRateLimit(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		addSecurityHeaders(c)
		c.Next()
	}
}

// Admin authenticates crawler control requests: the shared secret plus
// the admin key header.
func (m *SecurityMiddleware) Admin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.checkSecret(c); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		if !m.checkAdminKey(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid admin key"})
			return
		}

		addSecurityHeaders(c)
		c.Next()
	}
}

// checkSecret validates the shared secret from query or header.
func (m *SecurityMiddleware) checkSecret(c *gin.Context) error {
	provided := c.Query("secret")
	if provided == "" {
		provided = c.GetHeader(SecretHeader)
	}

	if provided == "" {
		return errors.New("missing monitoring secret")
	}

	if subtle.ConstantTimeCompare([]byte(provided), []byte(m.config.MonitoringSecret)) != 1 {
		return errors.New("invalid monitoring secret")
	}

	return nil
}

// checkAdminKey validates the admin key header.
func (m *SecurityMiddleware) checkAdminKey(c *gin.Context) bool {
	if m.config.AdminKey == "" {
		return false
	}

	provided := c.GetHeader(AdminKeyHeader)
	return subtle.ConstantTimeCompare([]byte(provided), []byte(m.config.AdminKey)) == 1
}

// checkRateLimit checks if the client has exceeded the rate limit.
func (m *SecurityMiddleware) checkRateLimit(clientIP string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.timeProvider.Now()
	info, exists := m.rateLimiter[clientIP]

	if !exists || now.Sub(info.lastAccess) > m.config.RateLimitWindow {
		m.rateLimiter[clientIP] = rateLimitInfo{count: 1, lastAccess: now}
		return true
	}

	if info.count >= m.config.RateLimit {
		return false
	}

	info.count++
	info.lastAccess = now
	m.rateLimiter[clientIP] = info
	return true
}

// addSecurityHeaders adds security headers to the response.
func addSecurityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
}

// Cleanup periodically removes expired rate limit entries.
func (m *SecurityMiddleware) Cleanup(ctx context.Context) {
	ticker := time.NewTicker(m.config.RateLimitWindow)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expiry := m.timeProvider.Now().Add(-m.config.RateLimitWindow)

			m.mu.Lock()
			for ip, info := range m.rateLimiter {
				if info.lastAccess.Before(expiry) {
					delete(m.rateLimiter, ip)
				}
			}
			m.mu.Unlock()
		}
	}
}
