package handlers

import (
	"forum/internal/models"
	"forum/internal/services"
	"forum/internal/utils"

	"github.com/gin-gonic/gin"
)

// CommentHandler 题目评论处理器
type CommentHandler struct {
	comments        *services.CommentService
	problems        *services.ProblemService
	moderators      services.ModeratorChecker
	defaultPageSize int
	logger          utils.Logger
}

// NewCommentHandler 创建评论处理器
func NewCommentHandler(
	comments *services.CommentService,
	problems *services.ProblemService,
	moderators services.ModeratorChecker,
	defaultPageSize int,
) *CommentHandler {
	return &CommentHandler{
		comments:        comments,
		problems:        problems,
		moderators:      moderators,
		defaultPageSize: defaultPageSize,
		logger:          utils.GetLogger(),
	}
}

// requireVisibleProblem 题目对调用者不可见时按不存在处理
func (h *CommentHandler) requireVisibleProblem(c *gin.Context, problemID uint) bool {
	viewer, err := currentViewer(c, h.moderators)
	if err == nil {
		_, err = h.problems.GetVisible(c.Request.Context(), problemID, viewer)
	}
	if err != nil {
		handleServiceError(c, err, h.logger, "获取题目", "problemID", problemID, "userID", viewer.UserID)
		return false
	}
	return true
}

// ListByProblem GET /api/problems/:id/comments
func (h *CommentHandler) ListByProblem(c *gin.Context) {
	problemID, ok := parseUintParam(c, "id", "无效的题目ID")
	if !ok {
		return
	}
	page, pageSize, ok := parsePageQuery(c, h.defaultPageSize)
	if !ok {
		return
	}
	if !h.requireVisibleProblem(c, problemID) {
		return
	}

	threads, err := h.comments.ListByProblem(c.Request.Context(), problemID, page, pageSize)
	if err != nil {
		handleServiceError(c, err, h.logger, "获取评论列表", "problemID", problemID)
		return
	}
	utils.OKResponse(c, threads)
}

// Create POST /api/problems/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	userID, ok := getUserIDOrFail(c)
	if !ok {
		return
	}
	problemID, ok := parseUintParam(c, "id", "无效的题目ID")
	if !ok {
		return
	}
	var req models.CreateCommentRequest
	if !bindJSONOrFail(c, &req, h.logger, "CreateComment") {
		return
	}
	if !h.requireVisibleProblem(c, problemID) {
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), problemID, userID, req)
	if err != nil {
		handleServiceError(c, err, h.logger, "发表评论", "problemID", problemID, "userID", userID)
		return
	}
	utils.CreatedResponse(c, comment)
}

// Delete DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	userID, ok := getUserIDOrFail(c)
	if !ok {
		return
	}
	commentID, ok := parseUintParam(c, "id", "无效的评论ID")
	if !ok {
		return
	}

	comment, err := h.comments.SoftDelete(c.Request.Context(), commentID, userID)
	if err != nil {
		handleServiceError(c, err, h.logger, "删除评论", "commentID", commentID, "userID", userID)
		return
	}
	utils.OKResponse(c, comment)
}

// Like POST /api/comments/:id/like
func (h *CommentHandler) Like(c *gin.Context) {
	commentID, ok := parseUintParam(c, "id", "无效的评论ID")
	if !ok {
		return
	}

	comment, err := h.comments.Like(c.Request.Context(), commentID)
	if err != nil {
		handleServiceError(c, err, h.logger, "点赞评论", "commentID", commentID)
		return
	}
	utils.OKResponse(c, comment)
}
