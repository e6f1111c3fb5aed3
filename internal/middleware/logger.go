package middleware

import (
	"net/http"
	"time"

	"forum/internal/utils"

	"github.com/gin-gonic/gin"
)

// slowRequestThreshold 超过该耗时的请求额外记录一条告警
const slowRequestThreshold = 500 * time.Millisecond

// LoggerMiddleware 访问日志中间件
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		logger := utils.GetLogger()

		fields := []interface{}{
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"query", utils.TruncateText(raw, 256),
			"ip", c.ClientIP(),
			"userAgent", utils.TruncateText(c.Request.UserAgent(), 128),
			"latencyMs", latency.Milliseconds(),
			"responseBodySize", c.Writer.Size(),
		}
		if requestID := utils.GetRequestID(c); requestID != "" {
			fields = append(fields, "requestID", requestID)
		}
		if userID, exists := c.Get(utils.ContextUserID); exists {
			fields = append(fields, "userID", userID)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("HTTP请求完成", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("HTTP请求完成", fields...)
		default:
			logger.Info("HTTP请求完成", fields...)
		}
		if latency > slowRequestThreshold {
			logger.Warn("慢请求检测", "method", c.Request.Method, "path", path, "latencyMs", latency.Milliseconds())
		}
	}
}

// RecoveryMiddleware 捕获 panic 并返回统一错误响应
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		utils.GetLogger().Error("请求处理发生panic",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"requestID", utils.GetRequestID(c))
		utils.InternalServerErrorResponse(c, "服务器内部错误，请稍后重试")
		c.Abort()
	})
}
