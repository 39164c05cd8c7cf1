package handlers

import (
	"crypto/subtle"
	"net/http"

	"demand-forecast-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// APIKeyHeader APIキーを受け取るヘッダー
const APIKeyHeader = "X-API-KEY"

// AuthMiddleware APIキーが設定されている場合のみ X-API-KEY を検証する
func AuthMiddleware(apiKey string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		providedKey := c.GetHeader(APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiKey)) != 1 {
			logger.FromContext(c.Request.Context(), log).Warn("❌ [認証] 無効なAPI Key",
				zap.String("path", c.Request.URL.Path),
				zap.Bool("provided", providedKey != ""),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// RateLimiter provides rate limiting for the forecast routes
type RateLimiter struct {
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewRateLimiter creates a new rate limiter with logging
func NewRateLimiter(rps float64, burst int, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  log,
	}
}

// Middleware rejects requests over the limit with 429
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter.Allow() {
			logger.FromContext(c.Request.Context(), rl.logger).Warn("⚠️ rate limit exceeded",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("remote_addr", c.ClientIP()),
			)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Rate limit exceeded. Please retry shortly.",
			})
			return
		}
		c.Next()
	}
}

// MaintenanceMiddleware メンテナンス中は予測APIを503で拒否する
func MaintenanceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isMaintenanceMode.Load() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"error":   "Server is in maintenance mode",
			})
			return
		}
		c.Next()
	}
}
