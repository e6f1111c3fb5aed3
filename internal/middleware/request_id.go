package middleware

import (
	"forum/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader 请求ID头
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength 客户端传入的请求ID超过该长度时重新生成
const maxRequestIDLength = 64

// RequestIDMiddleware 请求ID中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}

		c.Set(utils.ContextRequestID, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}
