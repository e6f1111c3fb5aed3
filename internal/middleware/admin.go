package middleware

import (
	"context"

	"forum/internal/utils"

	"github.com/gin-gonic/gin"
)

// RoleChecker 判断用户是否拥有任一角色
type RoleChecker interface {
	HasAnyRole(ctx context.Context, userID uint, codes ...string) (bool, error)
}

// RequireRoles 角色校验中间件，必须放在 AuthMiddleware 之后
func RequireRoles(checker RoleChecker, codes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := utils.GetLogger()

		userID, err := utils.GetUserIDFromContext(c)
		if err != nil {
			utils.UnauthorizedResponse(c, "需要认证")
			c.Abort()
			return
		}

		ok, err := checker.HasAnyRole(c.Request.Context(), userID, codes...)
		if err != nil {
			logger.Error("角色校验失败",
				"userID", userID,
				"path", c.Request.URL.Path,
				"error", err.Error())
			utils.InternalServerErrorResponse(c, "服务器内部错误，请稍后重试")
			c.Abort()
			return
		}
		if !ok {
			logger.Warn("权限不足",
				"userID", userID,
				"required", codes,
				"path", c.Request.URL.Path,
				"ip", c.ClientIP())
			utils.ForbiddenResponse(c, "权限不足")
			c.Abort()
			return
		}

		c.Next()
	}
}
