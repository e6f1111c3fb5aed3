package handlers

import (
	"forum/internal/models"
	"forum/internal/services"
	"forum/internal/utils"

	"github.com/gin-gonic/gin"
)

// DailyProblemHandler 每日一题处理器
type DailyProblemHandler struct {
	daily  *services.DailyProblemService
	logger utils.Logger
}

// NewDailyProblemHandler 创建每日一题处理器
func NewDailyProblemHandler(daily *services.DailyProblemService) *DailyProblemHandler {
	return &DailyProblemHandler{
		daily:  daily,
		logger: utils.GetLogger(),
	}
}

// Today GET /api/daily-problems/today
func (h *DailyProblemHandler) Today(c *gin.Context) {
	dp, err := h.daily.Today(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, h.logger, "获取今日一题")
		return
	}
	utils.OKResponse(c, dp)
}

// GetByDay GET /api/daily-problems/:day
func (h *DailyProblemHandler) GetByDay(c *gin.Context) {
	day := c.Param("day")
	dp, err := h.daily.GetByDay(c.Request.Context(), day)
	if err != nil {
		handleServiceError(c, err, h.logger, "获取每日一题", "day", day)
		return
	}
	utils.OKResponse(c, dp)
}

// ListRange GET /api/daily-problems?from=&to=
func (h *DailyProblemHandler) ListRange(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	list, err := h.daily.ListRange(c.Request.Context(), from, to)
	if err != nil {
		handleServiceError(c, err, h.logger, "查询每日一题", "from", from, "to", to)
		return
	}
	utils.OKResponse(c, list)
}

// Publish POST /api/daily-problems，同一天重复发布会覆盖
func (h *DailyProblemHandler) Publish(c *gin.Context) {
	operatorID, ok := getUserIDOrFail(c)
	if !ok {
		return
	}
	var req models.PublishDailyProblemRequest
	if !bindJSONOrFail(c, &req, h.logger, "PublishDailyProblem") {
		return
	}

	dp, err := h.daily.Publish(c.Request.Context(), operatorID, req)
	if err != nil {
		handleServiceError(c, err, h.logger, "发布每日一题", "day", req.Day, "problemID", req.ProblemID)
		return
	}
	utils.OKResponse(c, dp)
}
