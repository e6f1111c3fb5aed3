package services

import (
	"context"
	"strings"
	"time"

	"forum/internal/models"
	"forum/internal/utils"
)

// ProblemTypeService 题型服务
type ProblemTypeService struct {
	typeRepo ProblemTypeRepositoryInterface
	logger   utils.Logger
	now      func() time.Time
}

// NewProblemTypeService 创建题型服务
func NewProblemTypeService(typeRepo ProblemTypeRepositoryInterface) *ProblemTypeService {
	return &ProblemTypeService{
		typeRepo: typeRepo,
		logger:   utils.GetLogger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create 创建题型
func (s *ProblemTypeService) Create(ctx context.Context, req models.CreateProblemTypeRequest) (*models.ProblemType, error) {
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

	now := s.now()
	pt := &models.ProblemType{
		Subject:     subject,
		Name:        name,
		Description: description,
		SortOrder:   req.SortOrder,
		Enabled:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.typeRepo.CreateProblemType(ctx, pt); err != nil {
		return nil, err
	}
	s.logger.Info("题型创建成功", "typeID", pt.ID, "subject", subject, "name", name)
	return pt, nil
}

// Update 更新题型
func (s *ProblemTypeService) Update(ctx context.Context, id uint, req models.UpdateProblemTypeRequest) (*models.ProblemType, error) {
	pt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name, err := validateTaxonomyName(*req.Name)
		if err != nil {
			return nil, err
		}
		pt.Name = name
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if !utils.RuneLengthBetween(description, 0, MaxTaxonomyDescriptionLength) {
			return nil, utils.NewValidationError("描述不能超过%d个字符", MaxTaxonomyDescriptionLength)
		}
		pt.Description = description
	}
	if req.SortOrder != nil {
		pt.SortOrder = *req.SortOrder
	}
	pt.UpdatedAt = s.now()

	updated, err := s.typeRepo.UpdateProblemType(ctx, pt)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, utils.NewNotFoundError("题型不存在")
	}
	return updated, nil
}

// Get 获取题型
func (s *ProblemTypeService) Get(ctx context.Context, id uint) (*models.ProblemType, error) {
	pt, err := s.typeRepo.FindProblemTypeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pt == nil {
		return nil, utils.NewNotFoundError("题型不存在")
	}
	return pt, nil
}

// List 获取学科下的题型
func (s *ProblemTypeService) List(ctx context.Context, subject string) ([]models.ProblemType, error) {
	subject = utils.NormalizeSubject(subject)
	if !utils.ValidateSubject(subject) {
		return nil, utils.NewValidationError("无效的学科标识")
	}
	return s.typeRepo.ListProblemTypes(ctx, subject)
}

// SetEnabled 启用或禁用题型
func (s *ProblemTypeService) SetEnabled(ctx context.Context, id uint, enabled bool) (*models.ProblemType, error) {
	pt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if pt.Enabled == enabled {
		return pt, nil
	}

	updated, err := s.typeRepo.SetProblemTypeEnabled(ctx, id, enabled, s.now())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, utils.NewNotFoundError("题型不存在")
	}
	s.logger.Info("题型状态已变更", "typeID", id, "enabled", enabled)
	return updated, nil
}
