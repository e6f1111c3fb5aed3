package services

import (
	"context"
	"strings"
	"time"

	"forum/internal/models"
	"forum/internal/utils"
)

// 分类与题型的字段限制
const (
	MaxTaxonomyNameLength        = 64
	MaxTaxonomyDescriptionLength = 500
)

// CategoryService 分类服务
type CategoryService struct {
	categoryRepo CategoryRepositoryInterface
	logger       utils.Logger
	now          func() time.Time
}

// NewCategoryService 创建分类服务
func NewCategoryService(categoryRepo CategoryRepositoryInterface) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		logger:       utils.GetLogger(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create 创建分类，父分类必须在同一学科内
func (s *CategoryService) Create(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error) {
	subject := utils.NormalizeSubject(req.Subject)
	if !utils.ValidateSubject(subject) {
		return nil, utils.NewValidationError("无效的学科标识")
	}
	name, err := validateTaxonomyName(req.Name)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(req.Description)
	if !utils.RuneLengthBetween(description, 0, MaxTaxonomyDescriptionLength) {
		return nil, utils.NewValidationError("描述不能超过%d个字符", MaxTaxonomyDescriptionLength)
	}

	if req.ParentID != nil {
		if _, err := s.findInSubject(ctx, *req.ParentID, subject); err != nil {
			return nil, err
		}
	}

	now := s.now()
	category := &models.Category{
		Subject:     subject,
		ParentID:    req.ParentID,
		Name:        name,
		Slug:        makeSlug(name),
		Description: description,
		SortOrder:   req.SortOrder,
		Enabled:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.categoryRepo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info("分类创建成功", "categoryID", category.ID, "subject", subject, "name", name)
	return category, nil
}

// Update 更新分类，父分类变化时重新校验学科与环
func (s *CategoryService) Update(ctx context.Context, id uint, req models.UpdateCategoryRequest) (*models.Category, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name, err := validateTaxonomyName(*req.Name)
		if err != nil {
			return nil, err
		}
		category.Name = name
		category.Slug = makeSlug(name)
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if !utils.RuneLengthBetween(description, 0, MaxTaxonomyDescriptionLength) {
			return nil, utils.NewValidationError("描述不能超过%d个字符", MaxTaxonomyDescriptionLength)
		}
		category.Description = description
	}
	if req.SortOrder != nil {
		category.SortOrder = *req.SortOrder
	}

	switch {
	case req.ClearParent:
		category.ParentID = nil
	case req.ParentID != nil && !sameParent(category.ParentID, *req.ParentID):
		if err := s.checkParent(ctx, category, *req.ParentID); err != nil {
			return nil, err
		}
		parentID := *req.ParentID
		category.ParentID = &parentID
	}

	category.UpdatedAt = s.now()
	updated, err := s.categoryRepo.UpdateCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, utils.NewNotFoundError("分类不存在")
	}

	s.logger.Info("分类更新成功", "categoryID", id)
	return updated, nil
}

// checkParent 新父分类必须在同一学科，且从它向上走到根的路径上不能出现自己
func (s *CategoryService) checkParent(ctx context.Context, category *models.Category, parentID uint) error {
	if parentID == category.ID {
		return utils.NewConflictError("分类不能以自身为父分类")
	}
	parent, err := s.findInSubject(ctx, parentID, category.Subject)
	if err != nil {
		return err
	}

	visited := map[uint]struct{}{}
	for cur := parent; cur != nil; {
		if cur.ID == category.ID {
			return utils.NewConflictError("不能把分类移动到自己的子分类下")
		}
		if _, seen := visited[cur.ID]; seen {
			return utils.NewConflictError("分类层级中存在环")
		}
		visited[cur.ID] = struct{}{}
		if cur.ParentID == nil {
			return nil
		}
		next, err := s.categoryRepo.FindCategoryByID(ctx, *cur.ParentID)
		if err != nil {
			return err
		}
		cur = next
	}
	return nil
}

// Get 获取分类
func (s *CategoryService) Get(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.categoryRepo.FindCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, utils.NewNotFoundError("分类不存在")
	}
	return category, nil
}

// List 获取学科下的分类，按 sort_order、id 升序
func (s *CategoryService) List(ctx context.Context, subject string) ([]models.Category, error) {
	subject = utils.NormalizeSubject(subject)
	if !utils.ValidateSubject(subject) {
		return nil, utils.NewValidationError("无效的学科标识")
	}
	return s.categoryRepo.ListCategories(ctx, subject)
}

// SetEnabled 启用或禁用分类，分类不会被物理删除
func (s *CategoryService) SetEnabled(ctx context.Context, id uint, enabled bool) (*models.Category, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if category.Enabled == enabled {
		return category, nil
	}

	updated, err := s.categoryRepo.SetCategoryEnabled(ctx, id, enabled, s.now())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, utils.NewNotFoundError("分类不存在")
	}
	s.logger.Info("分类状态已变更", "categoryID", id, "enabled", enabled)
	return updated, nil
}

// Tree 把分类列表组装成树，兄弟节点保持列表顺序
//
// 父分类不在列表中的节点作为根节点返回。
func (s *CategoryService) Tree(ctx context.Context, subject string) ([]*models.CategoryNode, error) {
	categories, err := s.List(ctx, subject)
	if err != nil {
		return nil, err
	}

	nodes := make(map[uint]*models.CategoryNode, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &models.CategoryNode{Category: c, Children: []*models.CategoryNode{}}
	}

	roots := []*models.CategoryNode{}
	for _, c := range categories {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok && *c.ParentID != c.ID {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots, nil
}

// findInSubject 查询分类并要求属于指定学科，否则视为不存在
func (s *CategoryService) findInSubject(ctx context.Context, id uint, subject string) (*models.Category, error) {
	category, err := s.categoryRepo.FindCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil || category.Subject != subject {
		return nil, utils.NewNotFoundError("父分类不存在: %d", id)
	}
	return category, nil
}

func sameParent(current *uint, next uint) bool {
	return current != nil && *current == next
}

func validateTaxonomyName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", utils.NewValidationError("名称不能为空")
	}
	if !utils.RuneLengthBetween(name, 1, MaxTaxonomyNameLength) {
		return "", utils.NewValidationError("名称不能超过%d个字符", MaxTaxonomyNameLength)
	}
	return name, nil
}
