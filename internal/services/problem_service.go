package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"forum/internal/models"
	"forum/internal/utils"
)

// MaxProblemTitleLength 题目标题最大字符数
const MaxProblemTitleLength = 200

// problemTransitions 允许的状态迁移，其余一律视为冲突
var problemTransitions = map[models.ProblemStatus]models.ProblemStatus{
	models.ProblemStatusDraft:     models.ProblemStatusPublished,
	models.ProblemStatusPublished: models.ProblemStatusArchived,
}

// ProblemService 题目服务
type ProblemService struct {
	problemRepo  ProblemRepositoryInterface
	categoryRepo CategoryRepositoryInterface
	typeRepo     ProblemTypeRepositoryInterface
	tags         *TagService
	maxPageSize  int
	logger       utils.Logger
	now          func() time.Time
}

// NewProblemService 创建题目服务
func NewProblemService(
	problemRepo ProblemRepositoryInterface,
	categoryRepo CategoryRepositoryInterface,
	typeRepo ProblemTypeRepositoryInterface,
	tags *TagService,
	maxPageSize int,
) *ProblemService {
	return &ProblemService{
		problemRepo:  problemRepo,
		categoryRepo: categoryRepo,
		typeRepo:     typeRepo,
		tags:         tags,
		maxPageSize:  maxPageSize,
		logger:       utils.GetLogger(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create 创建题目，初始状态为草稿
func (s *ProblemService) Create(ctx context.Context, authorID uint, req models.CreateProblemRequest) (*models.Problem, error) {
	subject := utils.NormalizeSubject(req.Subject)
	if !utils.ValidateSubject(subject) {
		return nil, utils.NewValidationError("无效的学科标识")
	}
	title, err := validateProblemTitle(req.Title)
	if err != nil {
		return nil, err
	}
	if err := validateDifficulty(req.Difficulty); err != nil {
		return nil, err
	}
	visibility := req.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	if !visibility.Valid() {
		return nil, utils.NewValidationError("无效的可见性: %s", visibility)
	}
	if err := s.checkCategory(ctx, req.CategoryID, subject); err != nil {
		return nil, err
	}
	if err := s.checkType(ctx, req.TypeID, subject); err != nil {
		return nil, err
	}

	tagIDs, err := s.collectTagIDs(ctx, subject, req.TagIDs, req.TagNames)
	if err != nil {
		return nil, err
	}

	now := s.now()
	problem := &models.Problem{
		Title:      title,
		Subject:    subject,
		Content:    req.Content,
		Difficulty: req.Difficulty,
		Status:     models.ProblemStatusDraft,
		Visibility: visibility,
		CategoryID: req.CategoryID,
		TypeID:     req.TypeID,
		AuthorID:   authorID,
		TagIDs:     tagIDs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.problemRepo.CreateProblem(ctx, problem); err != nil {
		return nil, err
	}
	return problem, nil
}

// Update 更新题目基本信息，不涉及状态与标签
func (s *ProblemService) Update(ctx context.Context, id uint, req models.UpdateProblemRequest) (*models.Problem, error) {
	problem, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title, err := validateProblemTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		problem.Title = title
	}
	if req.Content != nil {
		problem.Content = *req.Content
	}
	if req.Difficulty != nil {
		if err := validateDifficulty(*req.Difficulty); err != nil {
			return nil, err
		}
		problem.Difficulty = *req.Difficulty
	}
	if req.Visibility != nil {
		if !req.Visibility.Valid() {
			return nil, utils.NewValidationError("无效的可见性: %s", *req.Visibility)
		}
		problem.Visibility = *req.Visibility
	}
	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, req.CategoryID, problem.Subject); err != nil {
			return nil, err
		}
		problem.CategoryID = req.CategoryID
	}
	if req.TypeID != nil {
		if err := s.checkType(ctx, req.TypeID, problem.Subject); err != nil {
			return nil, err
		}
		problem.TypeID = req.TypeID
	}

	problem.UpdatedAt = s.now()
	updated, err := s.problemRepo.UpdateProblem(ctx, problem)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, utils.NewNotFoundError("题目不存在")
	}
	return updated, nil
}

// ChangeStatus 状态迁移：DRAFT -> PUBLISHED -> ARCHIVED
func (s *ProblemService) ChangeStatus(ctx context.Context, id uint, target models.ProblemStatus) (*models.Problem, error) {
	if !target.Valid() {
		return nil, utils.NewValidationError("无效的题目状态: %s", target)
	}
	problem, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if next, ok := problemTransitions[problem.Status]; !ok || next != target {
		return nil, utils.NewConflictError("题目状态不能从 %s 变更为 %s", problem.Status, target)
	}

	now := s.now()
	change := models.ProblemStatusChange{From: problem.Status, To: target, UpdatedAt: now}
	if target == models.ProblemStatusPublished {
		change.PublishedAt = &now
	}

	ok, err := s.problemRepo.UpdateProblemStatus(ctx, id, change)
	if err != nil {
		return nil, err
	}
	if !ok {
		// 读取之后状态已被其他请求改掉
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, utils.NewConflictError("题目状态已变更为 %s", current.Status)
	}

	s.logger.Info("题目状态已变更", "problemID", id, "from", change.From, "status", target)
	return s.Get(ctx, id)
}

// Publish 发布草稿
func (s *ProblemService) Publish(ctx context.Context, id uint) (*models.Problem, error) {
	return s.ChangeStatus(ctx, id, models.ProblemStatusPublished)
}

// Archive 归档已发布的题目
func (s *ProblemService) Archive(ctx context.Context, id uint) (*models.Problem, error) {
	return s.ChangeStatus(ctx, id, models.ProblemStatusArchived)
}

// AttachTags 用一组标签名整体替换题目的标签，不存在的标签会被创建
func (s *ProblemService) AttachTags(ctx context.Context, problemID uint, subject string, names []string) (*models.Problem, error) {
	problem, err := s.Get(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if utils.NormalizeSubject(subject) != problem.Subject {
		return nil, utils.NewValidationError("标签学科与题目学科不一致")
	}

	tagIDs, err := s.collectTagIDs(ctx, problem.Subject, nil, names)
	if err != nil {
		return nil, err
	}
	if err := s.problemRepo.ReplaceProblemTags(ctx, problemID, tagIDs); err != nil {
		return nil, err
	}
	return s.Get(ctx, problemID)
}

// List 按条件分页查询题目
func (s *ProblemService) List(ctx context.Context, query models.ProblemQuery) (models.Page[models.Problem], error) {
	var empty models.Page[models.Problem]

	query.Subject = utils.NormalizeSubject(query.Subject)
	if !utils.ValidateSubject(query.Subject) {
		return empty, utils.NewValidationError("无效的学科标识")
	}
	if err := validatePage(query.Page, query.PageSize, s.maxPageSize); err != nil {
		return empty, err
	}
	switch query.Sort {
	case "":
		query.Sort = models.SortLatest
	case models.SortLatest, models.SortPublishedAt, models.SortDifficulty:
	default:
		return empty, utils.NewValidationError("无效的排序方式: %s", query.Sort)
	}
	if query.MinDifficulty != nil && query.MaxDifficulty != nil && *query.MinDifficulty > *query.MaxDifficulty {
		return empty, utils.NewValidationError("最小难度不能大于最大难度")
	}
	if query.Status != nil && !query.Status.Valid() {
		return empty, utils.NewValidationError("无效的题目状态: %s", *query.Status)
	}
	if query.Visibility != nil && !query.Visibility.Valid() {
		return empty, utils.NewValidationError("无效的可见性: %s", *query.Visibility)
	}
	query.Keyword = strings.TrimSpace(query.Keyword)
	query.TagIDs = utils.UniqueUints(query.TagIDs)

	problems, total, err := s.problemRepo.ListProblems(ctx, query)
	if err != nil {
		return empty, err
	}
	return models.NewPage(problems, total, query.Page, query.PageSize), nil
}

// Get 获取题目
func (s *ProblemService) Get(ctx context.Context, id uint) (*models.Problem, error) {
	problem, err := s.problemRepo.FindProblemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if problem == nil {
		return nil, utils.NewNotFoundError("题目不存在")
	}
	return problem, nil
}

// GetVisible 获取调用者可见的题目，不可见时与不存在一样返回 NotFound
func (s *ProblemService) GetVisible(ctx context.Context, id uint, viewer models.Viewer) (*models.Problem, error) {
	problem, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !problem.VisibleTo(viewer) {
		return nil, utils.NewNotFoundError("题目不存在")
	}
	return problem, nil
}

// GetDetail 获取题目详情，附带标签与渲染后的 HTML
func (s *ProblemService) GetDetail(ctx context.Context, id uint, viewer models.Viewer) (*models.ProblemDetail, error) {
	problem, err := s.GetVisible(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.ResolveIDs(ctx, problem.Subject, problem.TagIDs)
	if err != nil {
		return nil, err
	}
	contentHTML, err := utils.RenderMarkdown(problem.Content)
	if err != nil {
		s.logger.Warn("渲染题目正文失败", "problemID", id, "error", err.Error())
		contentHTML = utils.SanitizeHTML(problem.Content)
	}
	return &models.ProblemDetail{
		Problem:     *problem,
		Tags:        tags,
		ContentHTML: contentHTML,
	}, nil
}

// collectTagIDs 合并按ID和按名称指定的标签，返回去重后升序的ID
func (s *ProblemService) collectTagIDs(ctx context.Context, subject string, ids []uint, names []string) ([]uint, error) {
	tagIDs := []uint{}
	if len(ids) > 0 {
		tags, err := s.tags.ResolveIDs(ctx, subject, ids)
		if err != nil {
			return nil, err
		}
		for _, t := range tags {
			tagIDs = append(tagIDs, t.ID)
		}
	}
	for _, name := range names {
		tag, err := s.tags.CreateOrGet(ctx, subject, name)
		if err != nil {
			return nil, err
		}
		tagIDs = append(tagIDs, tag.ID)
	}
	tagIDs = utils.UniqueUints(tagIDs)
	sort.Slice(tagIDs, func(i, j int) bool { return tagIDs[i] < tagIDs[j] })
	return tagIDs, nil
}

func (s *ProblemService) checkCategory(ctx context.Context, id *uint, subject string) error {
	if id == nil {
		return nil
	}
	category, err := s.categoryRepo.FindCategoryByID(ctx, *id)
	if err != nil {
		return err
	}
	if category == nil || category.Subject != subject {
		return utils.NewNotFoundError("分类不存在: %d", *id)
	}
	return nil
}

func (s *ProblemService) checkType(ctx context.Context, id *uint, subject string) error {
	if id == nil {
		return nil
	}
	pt, err := s.typeRepo.FindProblemTypeByID(ctx, *id)
	if err != nil {
		return err
	}
	if pt == nil || pt.Subject != subject {
		return utils.NewNotFoundError("题型不存在: %d", *id)
	}
	return nil
}

func validateProblemTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if !utils.RuneLengthBetween(title, 1, MaxProblemTitleLength) {
		return "", utils.NewValidationError("标题长度必须在1到%d个字符之间", MaxProblemTitleLength)
	}
	return title, nil
}

func validateDifficulty(d int) error {
	if d < models.MinDifficulty || d > models.MaxDifficulty {
		return utils.NewValidationError("难度必须在%d到%d之间", models.MinDifficulty, models.MaxDifficulty)
	}
	return nil
}
