package handlers

import (
	"net/http"
	"time"

	"forum/internal/models"
	"forum/internal/services"
	"forum/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService *services.AuthService
	logger      utils.Logger
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      utils.GetLogger(),
	}
}

// Login 处理登录请求
func (h *AuthHandler) Login(c *gin.Context) {
	reqCtx := extractRequestContext(c)

	var req models.LoginRequest
	if !bindJSONOrFail(c, &req, h.logger, "Login") {
		return
	}

	response, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(c, err, h.logger, "登录", "username", req.Username, "ip", reqCtx.ClientIP)
		return
	}

	h.logger.Info("登录成功",
		"userID", response.User.ID,
		"ip", reqCtx.ClientIP,
		"duration", time.Since(reqCtx.StartTime))
	utils.SuccessResponse(c, http.StatusOK, "登录成功", response)
}

// Register 处理用户注册请求
func (h *AuthHandler) Register(c *gin.Context) {
	reqCtx := extractRequestContext(c)

	var req models.RegisterRequest
	if !bindJSONOrFail(c, &req, h.logger, "Register") {
		return
	}

	response, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err, h.logger, "注册",
			"username", req.Username,
			"email", utils.SanitizeEmail(req.Email),
			"ip", reqCtx.ClientIP)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "注册成功", response)
}

// Me 获取当前登录用户
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := getUserIDOrFail(c)
	if !ok {
		return
	}

	user, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err, h.logger, "获取当前用户", "userID", userID)
		return
	}
	utils.OKResponse(c, user)
}
