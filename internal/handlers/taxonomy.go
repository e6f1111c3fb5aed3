package handlers

import (
	"forum/internal/models"
	"forum/internal/services"
	"forum/internal/utils"

	"github.com/gin-gonic/gin"
)

// TaxonomyHandler 标签、分类、题型处理器
type TaxonomyHandler struct {
	tags       *services.TagService
	categories *services.CategoryService
	types      *services.ProblemTypeService
	logger     utils.Logger
}

// NewTaxonomyHandler 创建分类体系处理器
func NewTaxonomyHandler(tags *services.TagService, categories *services.CategoryService, types *services.ProblemTypeService) *TaxonomyHandler {
	return &TaxonomyHandler{
		tags:       tags,
		categories: categories,
		types:      types,
		logger:     utils.GetLogger(),
	}
}

// ========== 标签 ==========

// ListTags GET /api/tags?subject=
func (h *TaxonomyHandler) ListTags(c *gin.Context) {
	tags, err := h.tags.List(c.Request.Context(), c.Query("subject"))
	if err != nil {
		handleServiceError(c, err, h.logger, "获取标签列表")
		return
	}
	utils.OKResponse(c, tags)
}

// CreateTag POST /api/tags，同名标签已存在时直接返回
func (h *TaxonomyHandler) CreateTag(c *gin.Context) {
	var req models.CreateTagRequest
	if !bindJSONOrFail(c, &req, h.logger, "CreateTag") {
		return
	}
	tag, err := h.tags.CreateOrGet(c.Request.Context(), req.Subject, req.Name)
	if err != nil {
		handleServiceError(c, err, h.logger, "创建标签", "subject", req.Subject)
		return
	}
	utils.OKResponse(c, tag)
}

// ========== 分类 ==========

// ListCategories GET /api/categories?subject=
func (h *TaxonomyHandler) ListCategories(c *gin.Context) {
	list, err := h.categories.List(c.Request.Context(), c.Query("subject"))
	if err != nil {
		handleServiceError(c, err, h.logger, "获取分类列表")
		return
	}
	utils.OKResponse(c, list)
}

// CategoryTree GET /api/categories/tree?subject=
func (h *TaxonomyHandler) CategoryTree(c *gin.Context) {
	tree, err := h.categories.Tree(c.Request.Context(), c.Query("subject"))
	if err != nil {
		handleServiceError(c, err, h.logger, "获取分类树")
		return
	}
	utils.OKResponse(c, tree)
}

// GetCategory GET /api/categories/:id
func (h *TaxonomyHandler) GetCategory(c *gin.Context) {
	id, ok := parseUintParam(c, "id", "无效的分类ID")
	if !ok {
		return
	}
	category, err := h.categories.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, h.logger, "获取分类", "categoryID", id)
		return
	}
	utils.OKResponse(c, category)
}

// CreateCategory POST /api/categories
func (h *TaxonomyHandler) CreateCategory(c *gin.Context) {
	var req models.CreateCategoryRequest
	if !bindJSONOrFail(c, &req, h.logger, "CreateCategory") {
		return
	}
	category, err := h.categories.Create(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err, h.logger, "创建分类", "subject", req.Subject)
		return
	}
	utils.CreatedResponse(c, category)
}

// UpdateCategory PUT /api/categories/:id
func (h *TaxonomyHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseUintParam(c, "id", "无效的分类ID")
	if !ok {
		return
	}
	var req models.UpdateCategoryRequest
	if !bindJSONOrFail(c, &req, h.logger, "UpdateCategory") {
		return
	}
	category, err := h.categories.Update(c.Request.Context(), id, req)
	if err != nil {
		handleServiceError(c, err, h.logger, "更新分类", "categoryID", id)
		return
	}
	utils.OKResponse(c, category)
}

// SetCategoryEnabled PATCH /api/categories/:id/enabled
func (h *TaxonomyHandler) SetCategoryEnabled(c *gin.Context) {
	id, ok := parseUintParam(c, "id", "无效的分类ID")
	if !ok {
		return
	}
	var req models.SetEnabledRequest
	if !bindJSONOrFail(c, &req, h.logger, "SetCategoryEnabled") {
		return
	}
	category, err := h.categories.SetEnabled(c.Request.Context(), id, *req.Enabled)
	if err != nil {
		handleServiceError(c, err, h.logger, "修改分类状态", "categoryID", id)
		return
	}
	utils.OKResponse(c, category)
}

// ========== 题型 ==========

// ListProblemTypes GET /api/problem-types?subject=
func (h *TaxonomyHandler) ListProblemTypes(c *gin.Context) {
	list, err := h.types.List(c.Request.Context(), c.Query("subject"))
	if err != nil {
		handleServiceError(c, err, h.logger, "获取题型列表")
		return
	}
	utils.OKResponse(c, list)
}

// GetProblemType GET /api/problem-types/:id
func (h *TaxonomyHandler) GetProblemType(c *gin.Context) {
	id, ok := parseUintParam(c, "id", "无效的题型ID")
	if !ok {
		return
	}
	pt, err := h.types.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, h.logger, "获取题型", "typeID", id)
		return
	}
	utils.OKResponse(c, pt)
}

// CreateProblemType POST /api/problem-types
func (h *TaxonomyHandler) CreateProblemType(c *gin.Context) {
	var req models.CreateProblemTypeRequest
	if !bindJSONOrFail(c, &req, h.logger, "CreateProblemType") {
		return
	}
	pt, err := h.types.Create(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err, h.logger, "创建题型", "subject", req.Subject)
		return
	}
	utils.CreatedResponse(c, pt)
}

// UpdateProblemType PUT /api/problem-types/:id
func (h *TaxonomyHandler) UpdateProblemType(c *gin.Context) {
	id, ok := parseUintParam(c, "id", "无效的题型ID")
	if !ok {
		return
	}
	var req models.UpdateProblemTypeRequest
	if !bindJSONOrFail(c, &req, h.logger, "UpdateProblemType") {
		return
	}
	pt, err := h.types.Update(c.Request.Context(), id, req)
	if err != nil {
		handleServiceError(c, err, h.logger, "更新题型", "typeID", id)
		return
	}
	utils.OKResponse(c, pt)
}

// SetProblemTypeEnabled PATCH /api/problem-types/:id/enabled
func (h *TaxonomyHandler) SetProblemTypeEnabled(c *gin.Context) {
	id, ok := parseUintParam(c, "id", "无效的题型ID")
	if !ok {
		return
	}
	var req models.SetEnabledRequest
	if !bindJSONOrFail(c, &req, h.logger, "SetProblemTypeEnabled") {
		return
	}
	pt, err := h.types.SetEnabled(c.Request.Context(), id, *req.Enabled)
	if err != nil {
		handleServiceError(c, err, h.logger, "修改题型状态", "typeID", id)
		return
	}
	utils.OKResponse(c, pt)
}
