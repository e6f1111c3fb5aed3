package services

import (
	"context"
	"strconv"
	"strings"

	"forum/internal/models"
	"forum/internal/utils"
)

// AuthService 认证服务
type AuthService struct {
	credentials CredentialPort
	tokens      TokenPort
	users       *UserService
	logger      utils.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(credentials CredentialPort, tokens TokenPort, users *UserService) *AuthService {
	return &AuthService{
		credentials: credentials,
		tokens:      tokens,
		users:       users,
		logger:      utils.GetLogger(),
	}
}

// Login 用户登录
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	userID, err := s.credentials.VerifyAndGetUserID(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return nil, err
	}
	if userID == nil {
		return nil, utils.NewAuthenticationError("用户名或密码错误")
	}

	token, err := s.tokens.Generate(strconv.FormatUint(uint64(*userID), 10))
	if err != nil {
		return nil, utils.ErrInternalServerError
	}

	user, err := s.users.Get(ctx, *userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("用户登录成功", "userID", user.ID, "username", user.Username)
	return &models.LoginResponse{Token: token, User: user}, nil
}

// Register 注册并直接登录
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	user, err := s.users.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Generate(strconv.FormatUint(uint64(user.ID), 10))
	if err != nil {
		return nil, utils.ErrInternalServerError
	}
	return &models.LoginResponse{Token: token, User: user}, nil
}

// VerifyToken 校验令牌并返回用户ID
func (s *AuthService) VerifyToken(token string) (uint, error) {
	subject, ok := s.tokens.VerifyAndGetSubject(token)
	if !ok {
		return 0, utils.NewAuthenticationError("无效或过期的token")
	}
	id, err := strconv.ParseUint(subject, 10, 64)
	if err != nil || id == 0 {
		return 0, utils.NewAuthenticationError("无效的token")
	}
	return uint(id), nil
}

// Me 当前登录用户
func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.Get(ctx, userID)
}
