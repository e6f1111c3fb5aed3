package middleware

import (
	"strings"

	"forum/internal/utils"

	"github.com/gin-gonic/gin"
)

// TokenVerifier 校验访问令牌并返回用户ID
type TokenVerifier interface {
	VerifyToken(token string) (uint, error)
}

// bearerToken 读取 Authorization: Bearer <token>
// 浏览器无法为 WebSocket 握手设置请求头，握手请求允许用 ?token= 传递
func bearerToken(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if c.IsWebsocket() {
			if token := strings.TrimSpace(c.Query("token")); token != "" {
				return token, ""
			}
		}
		return "", "缺少Authorization头"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "Authorization格式错误"
	}
	token := strings.TrimSpace(authHeader[7:])
	if token == "" {
		return "", "Authorization格式错误"
	}
	return token, ""
}

// AuthMiddleware JWT认证中间件，成功后把用户ID写入上下文
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, problem := bearerToken(c)
		if problem != "" {
			utils.UnauthorizedResponse(c, problem)
			c.Abort()
			return
		}

		userID, err := verifier.VerifyToken(token)
		if err != nil {
			utils.GetLogger().Debug("token校验失败",
				"path", c.Request.URL.Path,
				"ip", c.ClientIP(),
				"authorization", utils.SanitizeAuthHeader(c.GetHeader("Authorization")))
			utils.UnauthorizedResponse(c, "无效的token")
			c.Abort()
			return
		}

		c.Set(utils.ContextUserID, userID)
		c.Next()
	}
}

// OptionalAuthMiddleware 携带合法token时写入用户ID，否则按匿名请求继续
func OptionalAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, problem := bearerToken(c); problem == "" {
			if userID, err := verifier.VerifyToken(token); err == nil {
				c.Set(utils.ContextUserID, userID)
			}
		}
		c.Next()
	}
}
