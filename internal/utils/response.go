package utils

import (
	"net/http"

	"forum/internal/models"

	"github.com/gin-gonic/gin"
)

// SuccessCode 成功响应的业务码
const SuccessCode = 0

// SuccessResponse 成功响应，业务码固定为 0
func SuccessResponse(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, models.CommonResponse{
		Code:    SuccessCode,
		Message: message,
		Data:    data,
	})
}

// OKResponse 200 成功响应
func OKResponse(c *gin.Context, data interface{}) {
	SuccessResponse(c, http.StatusOK, "OK", data)
}

// CreatedResponse 201 成功响应
func CreatedResponse(c *gin.Context, data interface{}) {
	SuccessResponse(c, http.StatusCreated, "OK", data)
}

// ErrorResponse 错误响应，业务码与 HTTP 状态码一致
func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, models.CommonResponse{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// BadRequestResponse 400错误响应
func BadRequestResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, message)
}

// ValidationErrorResponse 参数校验失败响应
func ValidationErrorResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, message)
}

// UnauthorizedResponse 401错误响应
func UnauthorizedResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, message)
}

// ForbiddenResponse 403错误响应
func ForbiddenResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, message)
}

// NotFoundResponse 404错误响应
func NotFoundResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, message)
}

// ConflictResponse 409错误响应
func ConflictResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusConflict, message)
}

// TooManyRequestsResponse 429错误响应
func TooManyRequestsResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusTooManyRequests, message)
}

// InternalServerErrorResponse 500错误响应
func InternalServerErrorResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, message)
}

// DomainErrorResponse 把服务层错误映射为响应
//
// 领域错误直接返回其消息；其他错误统一返回通用消息，细节只写日志。
func DomainErrorResponse(c *gin.Context, err error) {
	status := GetHTTPStatusCode(err)
	if KindOf(err) != 0 {
		ErrorResponse(c, status, err.Error())
		return
	}
	if status >= http.StatusInternalServerError {
		ErrorResponse(c, status, "服务器内部错误，请稍后重试")
		return
	}
	ErrorResponse(c, status, err.Error())
}
