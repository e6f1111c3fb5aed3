package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"forum/internal/models"
	"forum/internal/utils"
)

// defaultRoles 启动时保证存在的内置角色
var defaultRoles = []models.Role{
	{Code: models.RoleAdmin, Name: "管理员"},
	{Code: models.RoleModerator, Name: "审核员"},
	{Code: models.RoleUser, Name: "普通用户"},
}

// UserService 用户服务
type UserService struct {
	userRepo       UserRepositoryInterface
	roles          *RoleService
	hasher         PasswordHasher
	moderatorRoles []string
	logger         utils.Logger
	now            func() time.Time
}

// NewUserService 创建用户服务
func NewUserService(userRepo UserRepositoryInterface, roles *RoleService, hasher PasswordHasher, moderatorRoles []string) *UserService {
	if len(moderatorRoles) == 0 {
		moderatorRoles = []string{models.RoleAdmin, models.RoleModerator}
	}
	return &UserService{
		userRepo:       userRepo,
		roles:          roles,
		hasher:         hasher,
		moderatorRoles: moderatorRoles,
		logger:         utils.GetLogger(),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Register 注册新用户，默认授予 USER 角色
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !utils.ValidateUsername(username) {
		return nil, utils.NewValidationError("用户名只能包含字母、数字和下划线，长度3-20位，且不能以数字开头")
	}
	if !utils.ValidateEmail(email) {
		return nil, utils.NewValidationError("邮箱格式不正确")
	}
	if !utils.ValidatePassword(req.Password) {
		return nil, utils.NewValidationError("密码长度6-50位，且必须同时包含字母和数字")
	}

	if existing, err := s.userRepo.FindUserByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, utils.NewConflictError("用户名已存在")
	}
	if existing, err := s.userRepo.FindUserByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, utils.NewConflictError("邮箱已被注册")
	}

	user, err := s.createUser(ctx, username, email, req.Password)
	if err != nil {
		return nil, err
	}

	s.logger.Info("用户注册成功", "userID", user.ID, "username", username, "email", utils.SanitizeEmail(email))
	return s.AssignRoles(ctx, user.ID, []string{models.RoleUser})
}

// Get 获取用户（含角色）
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, utils.NewNotFoundError("用户不存在")
	}
	return user, nil
}

// AssignRoles 整体替换用户的角色
func (s *UserService) AssignRoles(ctx context.Context, userID uint, codes []string) (*models.User, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	normalized := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = utils.NormalizeRoleCode(code)
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		normalized = append(normalized, code)
	}

	roles, err := s.roles.roleRepo.FindRolesByCodes(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if len(roles) != len(normalized) {
		found := make(map[string]struct{}, len(roles))
		for _, r := range roles {
			found[r.Code] = struct{}{}
		}
		for _, code := range normalized {
			if _, ok := found[code]; !ok {
				return nil, utils.NewNotFoundError("角色不存在: %s", code)
			}
		}
	}

	roleIDs := make([]uint, 0, len(roles))
	for _, r := range roles {
		roleIDs = append(roleIDs, r.ID)
	}
	if err := s.userRepo.ReplaceUserRoles(ctx, userID, roleIDs); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// IsModerator 用户是否拥有审核权限
func (s *UserService) IsModerator(ctx context.Context, userID uint) (bool, error) {
	return s.HasAnyRole(ctx, userID, s.moderatorRoles...)
}

// HasAnyRole 用户是否拥有任一指定角色，用户不存在时返回 false
func (s *UserService) HasAnyRole(ctx context.Context, userID uint, codes ...string) (bool, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	for _, have := range user.RoleCodes() {
		if utils.ContainsFold(codes, have) {
			return true, nil
		}
	}
	return false, nil
}

// EnsureDefaults 创建内置角色，并保证配置中的管理员账号存在且拥有 ADMIN 角色
func (s *UserService) EnsureDefaults(ctx context.Context, adminUsernames []string, defaultPassword string) error {
	for _, r := range defaultRoles {
		if _, err := s.roles.ensure(ctx, r.Code, r.Name); err != nil {
			return err
		}
	}

	created, granted := 0, 0
	for _, username := range adminUsernames {
		username = strings.TrimSpace(username)
		if username == "" {
			continue
		}
		user, err := s.userRepo.FindUserByUsername(ctx, username)
		if err != nil {
			return err
		}
		if user == nil {
			if defaultPassword == "" {
				s.logger.Warn("未配置管理员默认密码，跳过创建", "username", username)
				continue
			}
			user, err = s.createUser(ctx, username, username+"@admin.local", defaultPassword)
			if err != nil {
				s.logger.Error("创建管理员账号失败", "username", username, "error", err.Error())
				continue
			}
			created++
		}

		codes := user.RoleCodes()
		if utils.ContainsFold(codes, models.RoleAdmin) {
			continue
		}
		if _, err := s.AssignRoles(ctx, user.ID, append(codes, models.RoleAdmin)); err != nil {
			return err
		}
		granted++
	}

	s.logger.Info("内置角色与管理员账号初始化完成",
		"admins", len(adminUsernames),
		"created", created,
		"granted", granted)
	return nil
}

func (s *UserService) createUser(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Roles:        []models.Role{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, utils.ErrDuplicateEntry) {
			return nil, utils.NewConflictError("用户名或邮箱已存在")
		}
		return nil, err
	}
	return user, nil
}
