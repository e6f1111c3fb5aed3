package services

import (
	"context"

	"forum/internal/utils"
)

// UserCredentialService 基于用户表与密码哈希的凭证校验
type UserCredentialService struct {
	userRepo UserRepositoryInterface
	hasher   PasswordHasher
	logger   utils.Logger
}

// NewUserCredentialService 创建凭证校验服务
func NewUserCredentialService(userRepo UserRepositoryInterface, hasher PasswordHasher) *UserCredentialService {
	return &UserCredentialService{
		userRepo: userRepo,
		hasher:   hasher,
		logger:   utils.GetLogger(),
	}
}

// VerifyAndGetUserID 用户名密码正确时返回用户ID，否则返回 nil
func (s *UserCredentialService) VerifyAndGetUserID(ctx context.Context, username, password string) (*uint, error) {
	user, err := s.userRepo.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.logger.Debug("登录用户不存在", "username", username)
		return nil, nil
	}
	if !s.hasher.Matches(password, user.PasswordHash) {
		s.logger.Debug("登录密码错误", "userID", user.ID)
		return nil, nil
	}
	id := user.ID
	return &id, nil
}
