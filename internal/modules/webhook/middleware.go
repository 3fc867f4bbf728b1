package webhook

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mt5_bridge/internal/modules/webhook/service"
)

const requestIDHeader = "X-Request-ID"

// RequestID берёт X-Request-ID из запроса или генерирует новый.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(service.RequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// AccessLog — одна строка на запрос.
func AccessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			zap.String("request_id", c.GetString(service.RequestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("code", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("remote", c.ClientIP()),
		)
	}
}

// RateLimit отвечает 429, если лимитер не пропустил запрос. nil — без лимита.
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			resp := service.TooManyRequests()
			c.AbortWithStatusJSON(resp.HTTPCode, resp)
			return
		}
		c.Next()
	}
}

// Recovery возвращает JSON 500 вместо обрыва соединения.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic in http handler",
			zap.String("request_id", c.GetString(service.RequestIDKey)),
			zap.Any("panic", recovered),
		)
		resp := service.Internal()
		c.AbortWithStatusJSON(resp.HTTPCode, resp)
	})
}
