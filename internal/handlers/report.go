package handlers

import (
	"forum/internal/models"
	"forum/internal/services"
	"forum/internal/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler 举报处理器
type ReportHandler struct {
	reports         *services.ReportService
	defaultPageSize int
	logger          utils.Logger
}

// NewReportHandler 创建举报处理器
func NewReportHandler(reports *services.ReportService, defaultPageSize int) *ReportHandler {
	return &ReportHandler{
		reports:         reports,
		defaultPageSize: defaultPageSize,
		logger:          utils.GetLogger(),
	}
}

// Create POST /api/reports
func (h *ReportHandler) Create(c *gin.Context) {
	userID, ok := getUserIDOrFail(c)
	if !ok {
		return
	}
	var req models.CreateReportRequest
	if !bindJSONOrFail(c, &req, h.logger, "CreateReport") {
		return
	}

	report, err := h.reports.Create(c.Request.Context(), userID, req)
	if err != nil {
		handleServiceError(c, err, h.logger, "提交举报", "userID", userID, "targetType", req.TargetType)
		return
	}
	utils.CreatedResponse(c, report)
}

// List GET /api/reports?target_type=&status=
func (h *ReportHandler) List(c *gin.Context) {
	var query models.ReportQuery
	if !bindQueryOrFail(c, &query) {
		return
	}
	pageDefaults(c, &query.Page, &query.PageSize, h.defaultPageSize)

	page, err := h.reports.List(c.Request.Context(), query)
	if err != nil {
		handleServiceError(c, err, h.logger, "查询举报")
		return
	}
	utils.OKResponse(c, page)
}

// Get GET /api/reports/:id
func (h *ReportHandler) Get(c *gin.Context) {
	id, ok := parseUintParam(c, "id", "无效的举报ID")
	if !ok {
		return
	}
	report, err := h.reports.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, h.logger, "获取举报", "reportID", id)
		return
	}
	utils.OKResponse(c, report)
}

// Handle POST /api/reports/:id/handle
func (h *ReportHandler) Handle(c *gin.Context) {
	handlerID, ok := getUserIDOrFail(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c, "id", "无效的举报ID")
	if !ok {
		return
	}
	var req models.HandleReportRequest
	if !bindJSONOrFail(c, &req, h.logger, "HandleReport") {
		return
	}

	report, err := h.reports.Handle(c.Request.Context(), id, handlerID, req)
	if err != nil {
		handleServiceError(c, err, h.logger, "处理举报", "reportID", id, "handlerID", handlerID, "status", req.Status)
		return
	}
	utils.OKResponse(c, report)
}
