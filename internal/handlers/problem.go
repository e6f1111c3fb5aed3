package handlers

import (
	"context"

	"forum/internal/models"
	"forum/internal/services"
	"forum/internal/utils"

	"github.com/gin-gonic/gin"
)

// ProblemHandler 题目处理器
type ProblemHandler struct {
	problems        *services.ProblemService
	moderators      services.ModeratorChecker
	defaultPageSize int
	logger          utils.Logger
}

// NewProblemHandler 创建题目处理器
func NewProblemHandler(problems *services.ProblemService, moderators services.ModeratorChecker, defaultPageSize int) *ProblemHandler {
	return &ProblemHandler{
		problems:        problems,
		moderators:      moderators,
		defaultPageSize: defaultPageSize,
		logger:          utils.GetLogger(),
	}
}

// List GET /api/problems
func (h *ProblemHandler) List(c *gin.Context) {
	var query models.ProblemQuery
	if !bindQueryOrFail(c, &query) {
		return
	}
	pageDefaults(c, &query.Page, &query.PageSize, h.defaultPageSize)

	viewer, err := currentViewer(c, h.moderators)
	if err != nil {
		handleServiceError(c, err, h.logger, "查询用户权限", "userID", viewer.UserID)
		return
	}
	query.Viewer = &viewer

	page, err := h.problems.List(c.Request.Context(), query)
	if err != nil {
		handleServiceError(c, err, h.logger, "查询题目", "subject", query.Subject)
		return
	}
	utils.OKResponse(c, page)
}

// Get GET /api/problems/:id，草稿与私有题目只对作者和审核员可见
func (h *ProblemHandler) Get(c *gin.Context) {
	id, ok := parseUintParam(c, "id", "无效的题目ID")
	if !ok {
		return
	}
	viewer, err := currentViewer(c, h.moderators)
	if err != nil {
		handleServiceError(c, err, h.logger, "查询用户权限", "userID", viewer.UserID)
		return
	}
	detail, err := h.problems.GetDetail(c.Request.Context(), id, viewer)
	if err != nil {
		handleServiceError(c, err, h.logger, "获取题目", "problemID", id)
		return
	}
	utils.OKResponse(c, detail)
}

// Create POST /api/problems
func (h *ProblemHandler) Create(c *gin.Context) {
	userID, ok := getUserIDOrFail(c)
	if !ok {
		return
	}
	var req models.CreateProblemRequest
	if !bindJSONOrFail(c, &req, h.logger, "CreateProblem") {
		return
	}

	problem, err := h.problems.Create(c.Request.Context(), userID, req)
	if err != nil {
		handleServiceError(c, err, h.logger, "创建题目", "userID", userID, "subject", req.Subject)
		return
	}
	utils.CreatedResponse(c, problem)
}

// Update PUT /api/problems/:id，仅作者或审核员
func (h *ProblemHandler) Update(c *gin.Context) {
	id, userID, ok := h.authorizeEdit(c)
	if !ok {
		return
	}
	var req models.UpdateProblemRequest
	if !bindJSONOrFail(c, &req, h.logger, "UpdateProblem") {
		return
	}

	problem, err := h.problems.Update(c.Request.Context(), id, req)
	if err != nil {
		handleServiceError(c, err, h.logger, "更新题目", "problemID", id, "userID", userID)
		return
	}
	utils.OKResponse(c, problem)
}

// ChangeStatus POST /api/problems/:id/status
func (h *ProblemHandler) ChangeStatus(c *gin.Context) {
	id, userID, ok := h.authorizeEdit(c)
	if !ok {
		return
	}
	var req models.ChangeStatusRequest
	if !bindJSONOrFail(c, &req, h.logger, "ChangeProblemStatus") {
		return
	}

	problem, err := h.problems.ChangeStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		handleServiceError(c, err, h.logger, "修改题目状态", "problemID", id, "userID", userID, "target", req.Status)
		return
	}
	utils.OKResponse(c, problem)
}

// AttachTags PUT /api/problems/:id/tags
func (h *ProblemHandler) AttachTags(c *gin.Context) {
	id, userID, ok := h.authorizeEdit(c)
	if !ok {
		return
	}
	var req models.AttachTagsRequest
	if !bindJSONOrFail(c, &req, h.logger, "AttachTags") {
		return
	}

	problem, err := h.problems.AttachTags(c.Request.Context(), id, req.Subject, req.Names)
	if err != nil {
		handleServiceError(c, err, h.logger, "设置题目标签", "problemID", id, "userID", userID)
		return
	}
	utils.OKResponse(c, problem)
}

// authorizeEdit 解析题目ID并确认当前用户是作者或审核员
func (h *ProblemHandler) authorizeEdit(c *gin.Context) (uint, uint, bool) {
	userID, ok := getUserIDOrFail(c)
	if !ok {
		return 0, 0, false
	}
	id, ok := parseUintParam(c, "id", "无效的题目ID")
	if !ok {
		return 0, 0, false
	}

	problem, err := h.problems.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, h.logger, "获取题目", "problemID", id)
		return 0, 0, false
	}
	if err := h.checkAuthorOrModerator(c.Request.Context(), problem.AuthorID, userID); err != nil {
		handleServiceError(c, err, h.logger, "题目权限校验", "problemID", id, "userID", userID)
		return 0, 0, false
	}
	return id, userID, true
}

func (h *ProblemHandler) checkAuthorOrModerator(ctx context.Context, authorID, userID uint) error {
	if authorID == userID {
		return nil
	}
	if h.moderators != nil {
		ok, err := h.moderators.IsModerator(ctx, userID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return utils.NewAuthorizationError("只有作者或审核员可以修改题目")
}
