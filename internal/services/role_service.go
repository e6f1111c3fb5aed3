package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"forum/internal/models"
	"forum/internal/utils"
)

// RoleService 角色服务
type RoleService struct {
	roleRepo RoleRepositoryInterface
	logger   utils.Logger
	now      func() time.Time
}

// NewRoleService 创建角色服务
func NewRoleService(roleRepo RoleRepositoryInterface) *RoleService {
	return &RoleService{
		roleRepo: roleRepo,
		logger:   utils.GetLogger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create 创建角色，编码统一转为大写
func (s *RoleService) Create(ctx context.Context, req models.CreateRoleRequest) (*models.Role, error) {
	code := utils.NormalizeRoleCode(req.Code)
	if !utils.ValidateRoleCode(code) {
		return nil, utils.NewValidationError("角色编码必须以大写字母开头，只包含大写字母、数字和下划线，且不超过%d个字符", utils.MaxRoleCodeLength)
	}
	name := strings.TrimSpace(req.Name)
	if !utils.RuneLengthBetween(name, 1, MaxTaxonomyNameLength) {
		return nil, utils.NewValidationError("角色名称长度必须在1到%d个字符之间", MaxTaxonomyNameLength)
	}

	existing, err := s.roleRepo.FindRoleByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, utils.NewConflictError("角色已存在: %s", code)
	}

	role := &models.Role{Code: code, Name: name, CreatedAt: s.now()}
	if err := s.roleRepo.CreateRole(ctx, role); err != nil {
		if errors.Is(err, utils.ErrDuplicateEntry) {
			return nil, utils.NewConflictError("角色已存在: %s", code)
		}
		return nil, err
	}
	return role, nil
}

// List 获取全部角色
func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	return s.roleRepo.ListRoles(ctx)
}

// GetByCode 根据编码获取角色
func (s *RoleService) GetByCode(ctx context.Context, code string) (*models.Role, error) {
	code = utils.NormalizeRoleCode(code)
	role, err := s.roleRepo.FindRoleByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, utils.NewNotFoundError("角色不存在: %s", code)
	}
	return role, nil
}

// ensure 角色不存在时创建，已存在时直接返回
func (s *RoleService) ensure(ctx context.Context, code, name string) (*models.Role, error) {
	role, err := s.roleRepo.FindRoleByCode(ctx, code)
	if err != nil || role != nil {
		return role, err
	}
	role = &models.Role{Code: code, Name: name, CreatedAt: s.now()}
	if err := s.roleRepo.CreateRole(ctx, role); err != nil {
		if errors.Is(err, utils.ErrDuplicateEntry) {
			return s.roleRepo.FindRoleByCode(ctx, code)
		}
		return nil, err
	}
	s.logger.Info("内置角色已创建", "code", code)
	return role, nil
}
