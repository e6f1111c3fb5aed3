package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind 领域错误类别
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindConflict
	KindAuthorization
	KindAuthentication
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindAuthorization:
		return "AUTHORIZATION"
	case KindAuthentication:
		return "AUTHENTICATION"
	default:
		return "UNKNOWN"
	}
}

// DomainError 领域错误，Message 可直接返回给调用方
type DomainError struct {
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is 同类别的领域错误视为相等，便于 errors.Is(err, ErrNotFound) 判断
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// 各类别的哨兵值，只比较类别
var (
	ErrValidation     = &DomainError{Kind: KindValidation}
	ErrNotFound       = &DomainError{Kind: KindNotFound}
	ErrConflict       = &DomainError{Kind: KindConflict}
	ErrAuthorization  = &DomainError{Kind: KindAuthorization}
	ErrAuthentication = &DomainError{Kind: KindAuthentication}
)

// NewValidationError 输入不合法
func NewValidationError(format string, args ...interface{}) error {
	return &DomainError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError 引用的实体不存在
func NewNotFoundError(format string, args ...interface{}) error {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewConflictError 状态机或不变量冲突
func NewConflictError(format string, args ...interface{}) error {
	return &DomainError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// NewAuthorizationError 没有操作权限
func NewAuthorizationError(format string, args ...interface{}) error {
	return &DomainError{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// NewAuthenticationError 未登录或凭证无效
func NewAuthenticationError(format string, args ...interface{}) error {
	return &DomainError{Kind: KindAuthentication, Message: fmt.Sprintf(format, args...)}
}

// KindOf 返回错误的领域类别，非领域错误返回 0
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// 基础设施错误
var (
	ErrDatabaseConnection = errors.New("数据库连接失败")
	ErrDatabaseQuery      = errors.New("数据库查询失败")
	ErrDatabaseInsert     = errors.New("数据库插入失败")
	ErrDatabaseUpdate     = errors.New("数据库更新失败")
	ErrDatabaseDelete     = errors.New("数据库删除失败")
	// ErrDuplicateEntry 唯一约束冲突，调用方可据此重试查询
	ErrDuplicateEntry = errors.New("唯一约束冲突")

	ErrInvalidToken        = errors.New("无效的token")
	ErrRateLimitExceeded   = errors.New("请求频率过高")
	ErrInternalServerError = errors.New("内部服务器错误")
	ErrServiceUnavailable  = errors.New("服务不可用")
)

// 标准错误码（用于日志与响应头）
const (
	ErrCodeValidation        = "VALIDATION_FAILED"
	ErrCodeNotFound          = "RECORD_NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodePermissionDenied  = "PERMISSION_DENIED"
	ErrCodeAuthRequired      = "AUTH_REQUIRED"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeDatabaseError     = "DATABASE_ERROR"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// AppError 应用错误，携带 HTTP 状态码
type AppError struct {
	Err     error
	Message string
	Code    int
	Context map[string]interface{}
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "未知错误"
}

// Unwrap 支持errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError 创建应用错误
func NewAppError(err error, message string, code int) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
		Context: make(map[string]interface{}),
	}
}

// WithContext 添加上下文信息
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	e.Context[key] = value
	return e
}

// WrapError 包装错误并添加上下文
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// GetHTTPStatusCode 返回错误对应的HTTP状态码
func GetHTTPStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	switch {
	case errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCode 返回错误码字符串
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}

	switch KindOf(err) {
	case KindValidation:
		return ErrCodeValidation
	case KindAuthentication:
		return ErrCodeAuthRequired
	case KindAuthorization:
		return ErrCodePermissionDenied
	case KindNotFound:
		return ErrCodeNotFound
	case KindConflict:
		return ErrCodeConflict
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if errCode, ok := appErr.Context["error_code"].(string); ok {
			return errCode
		}
	}

	switch {
	case errors.Is(err, ErrInvalidToken):
		return ErrCodeAuthRequired
	case errors.Is(err, ErrRateLimitExceeded):
		return ErrCodeRateLimitExceeded
	case errors.Is(err, ErrDatabaseQuery), errors.Is(err, ErrDatabaseInsert),
		errors.Is(err, ErrDatabaseUpdate), errors.Is(err, ErrDatabaseConnection),
		errors.Is(err, ErrDuplicateEntry):
		return ErrCodeDatabaseError
	default:
		return ErrCodeInternalError
	}
}
