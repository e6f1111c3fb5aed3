package handlers

import (
	"net/http"

	"forum/internal/utils"

	"github.com/gin-gonic/gin"
)

// handleServiceError 把服务层错误写成响应
//
// 领域错误（校验、不存在、冲突、权限）原样返回消息并记 Warn；
// 其他错误只返回通用消息，详细信息写入 Error 日志，避免泄露数据库细节。
func handleServiceError(c *gin.Context, err error, logger utils.Logger, operation string, logFields ...interface{}) {
	fields := []interface{}{
		"operation", operation,
		"error", err.Error(),
		"endpoint", c.Request.URL.Path,
		"method", c.Request.Method,
		"requestID", utils.GetRequestID(c),
	}
	fields = append(fields, logFields...)
	c.Header("X-Error-Code", utils.GetErrorCode(err))

	if utils.KindOf(err) != 0 {
		logger.Warn(operation+"失败", fields...)
		utils.DomainErrorResponse(c, err)
		return
	}

	status := utils.GetHTTPStatusCode(err)
	if status < http.StatusInternalServerError {
		logger.Warn(operation+"失败", fields...)
	} else {
		logger.Error(operation+"失败 - 内部错误", fields...)
	}
	utils.DomainErrorResponse(c, err)
}

// logNonBlockingError 记录不影响主流程的错误
func logNonBlockingError(logger utils.Logger, operation string, err error, logFields ...interface{}) {
	fields := []interface{}{
		"operation", operation,
		"error", err.Error(),
	}
	fields = append(fields, logFields...)
	logger.Warn("非关键操作失败", fields...)
}
