package handlers

import (
	"strconv"
	"time"

	"forum/internal/models"
	"forum/internal/services"
	"forum/internal/utils"

	"github.com/gin-gonic/gin"
)

// RequestContext 请求上下文信息
type RequestContext struct {
	ClientIP  string
	UserAgent string
	StartTime time.Time
}

// extractRequestContext 提取请求上下文信息，同一请求内只计算一次
func extractRequestContext(c *gin.Context) RequestContext {
	if ctx, exists := c.Get("_request_context"); exists {
		if reqCtx, ok := ctx.(RequestContext); ok {
			return reqCtx
		}
	}

	reqCtx := RequestContext{
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		StartTime: time.Now(),
	}
	c.Set("_request_context", reqCtx)
	return reqCtx
}

// getUserIDOrFail 获取用户ID，失败时自动返回错误响应
func getUserIDOrFail(c *gin.Context) (uint, bool) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.UnauthorizedResponse(c, err.Error())
		return 0, false
	}
	return userID, true
}

// currentViewer 读取可选认证写入的用户并判断是否为审核员，匿名请求返回零值
func currentViewer(c *gin.Context, moderators services.ModeratorChecker) (models.Viewer, error) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		return models.Viewer{}, nil
	}
	viewer := models.Viewer{UserID: userID}
	if moderators == nil {
		return viewer, nil
	}
	privileged, err := moderators.IsModerator(c.Request.Context(), userID)
	if err != nil {
		return viewer, err
	}
	viewer.Privileged = privileged
	return viewer, nil
}

// bindJSONOrFail 绑定JSON请求体，失败时自动返回错误响应
func bindJSONOrFail(c *gin.Context, req interface{}, logger utils.Logger, funcName string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if logger != nil && funcName != "" {
			logger.Warn(funcName+"请求参数错误", "error", err.Error())
		}
		utils.ValidationErrorResponse(c, "请求参数错误: "+err.Error())
		return false
	}
	return true
}

// bindQueryOrFail 绑定查询参数，失败时自动返回错误响应
func bindQueryOrFail(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		utils.ValidationErrorResponse(c, "查询参数错误: "+err.Error())
		return false
	}
	return true
}

// parseUintParam 解析URL参数为uint，失败时自动返回错误响应
func parseUintParam(c *gin.Context, paramName string, errorMsg string) (uint, bool) {
	value, err := utils.ParseUintParam(c, paramName)
	if err != nil {
		utils.BadRequestResponse(c, errorMsg)
		return 0, false
	}
	return value, true
}

// pageDefaults 只在查询参数缺省时填充分页默认值，显式传入的非法值交给服务层校验
func pageDefaults(c *gin.Context, page, pageSize *int, defaultPageSize int) {
	if _, ok := c.GetQuery("page"); !ok {
		*page = 1
	}
	if _, ok := c.GetQuery("page_size"); !ok {
		*pageSize = defaultPageSize
	}
}

// parsePageQuery 解析 page / page_size，格式错误时返回 400
func parsePageQuery(c *gin.Context, defaultPageSize int) (int, int, bool) {
	page, pageSize := 1, defaultPageSize
	if raw, ok := c.GetQuery("page"); ok {
		v, err := strconv.Atoi(raw)
		if err != nil {
			utils.ValidationErrorResponse(c, "无效的page参数")
			return 0, 0, false
		}
		page = v
	}
	if raw, ok := c.GetQuery("page_size"); ok {
		v, err := strconv.Atoi(raw)
		if err != nil {
			utils.ValidationErrorResponse(c, "无效的page_size参数")
			return 0, 0, false
		}
		pageSize = v
	}
	return page, pageSize, true
}
