package handlers

import (
	"context"
	"net/http"
	"time"

	"forum/internal/models"
	"forum/internal/utils"

	"github.com/gin-gonic/gin"
)

// Pinger 可探活的外部依赖
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// PingerFunc 函数形式的 Pinger
type PingerFunc func(ctx context.Context) error

// HealthCheck 实现 Pinger
func (f PingerFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	db     Pinger
	redis  Pinger
	logger utils.Logger
}

// NewHealthHandler 创建健康检查处理器，redis 为 nil 表示未启用
func NewHealthHandler(db Pinger, redis Pinger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redis,
		logger: utils.GetLogger(),
	}
}

// Check 存活探针，固定返回 {"code":0,"message":"OK","data":null}
func (h *HealthHandler) Check(c *gin.Context) {
	utils.OKResponse(c, nil)
}

// Ready 就绪检查，探测 MySQL 与 Redis
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	services := map[string]string{}
	ready := true

	check := func(name string, p Pinger) {
		if p == nil {
			services[name] = "disabled"
			return
		}
		if err := p.HealthCheck(ctx); err != nil {
			h.logger.Error("依赖健康检查失败", "service", name, "error", err.Error())
			services[name] = "down"
			ready = false
			return
		}
		services[name] = "up"
	}
	check("database", h.db)
	check("redis", h.redis)

	if !ready {
		c.JSON(http.StatusServiceUnavailable, models.CommonResponse{
			Code:    http.StatusServiceUnavailable,
			Message: "服务未就绪",
			Data:    services,
		})
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "服务已就绪", services)
}

// Live 存活检查，不依赖外部服务
func (h *HealthHandler) Live(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "服务存活", gin.H{
		"timestamp": time.Now().Unix(),
	})
}
