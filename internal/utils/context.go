package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

// 上下文键
const (
	ContextUserID    = "userID"
	ContextRequestID = "requestID"
)

// GetUserIDFromContext 从gin上下文中读取认证中间件写入的用户ID
func GetUserIDFromContext(c *gin.Context) (uint, error) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return 0, NewAuthenticationError("用户未认证")
	}
	id, ok := v.(uint)
	if !ok || id == 0 {
		return 0, NewAuthenticationError("无效的用户ID")
	}
	return id, nil
}

// GetRequestID 读取请求ID
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(ContextRequestID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ParseUintParam 解析路径参数为正整数
func ParseUintParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	if raw == "" {
		return 0, errors.New("缺少参数: " + name)
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, errors.New("无效的参数: " + name)
	}
	return uint(v), nil
}
