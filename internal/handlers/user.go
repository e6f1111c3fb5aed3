package handlers

import (
	"forum/internal/models"
	"forum/internal/services"
	"forum/internal/utils"

	"github.com/gin-gonic/gin"
)

// UserHandler 角色与用户管理处理器
type UserHandler struct {
	users  *services.UserService
	roles  *services.RoleService
	logger utils.Logger
}

// NewUserHandler 创建用户处理器
func NewUserHandler(users *services.UserService, roles *services.RoleService) *UserHandler {
	return &UserHandler{
		users:  users,
		roles:  roles,
		logger: utils.GetLogger(),
	}
}

// ListRoles GET /api/roles
func (h *UserHandler) ListRoles(c *gin.Context) {
	roles, err := h.roles.List(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, h.logger, "获取角色列表")
		return
	}
	utils.OKResponse(c, roles)
}

// CreateRole POST /api/roles
func (h *UserHandler) CreateRole(c *gin.Context) {
	var req models.CreateRoleRequest
	if !bindJSONOrFail(c, &req, h.logger, "CreateRole") {
		return
	}
	role, err := h.roles.Create(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err, h.logger, "创建角色", "code", req.Code)
		return
	}
	utils.CreatedResponse(c, role)
}

// AssignRoles PUT /api/users/:id/roles，整体替换用户角色
func (h *UserHandler) AssignRoles(c *gin.Context) {
	operatorID, ok := getUserIDOrFail(c)
	if !ok {
		return
	}
	userID, ok := parseUintParam(c, "id", "无效的用户ID")
	if !ok {
		return
	}
	var req models.AssignRolesRequest
	if !bindJSONOrFail(c, &req, h.logger, "AssignRoles") {
		return
	}

	user, err := h.users.AssignRoles(c.Request.Context(), userID, req.Codes)
	if err != nil {
		handleServiceError(c, err, h.logger, "设置用户角色", "userID", userID, "operatorID", operatorID)
		return
	}

	h.logger.Info("用户角色已更新",
		"userID", userID,
		"operatorID", operatorID,
		"roles", user.RoleCodes())
	utils.OKResponse(c, user)
}

// GetUser GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := parseUintParam(c, "id", "无效的用户ID")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err, h.logger, "获取用户", "userID", userID)
		return
	}
	utils.OKResponse(c, user)
}
