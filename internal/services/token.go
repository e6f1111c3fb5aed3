package services

import (
	"fmt"

	"forum/internal/config"
	"forum/internal/models"
	"forum/internal/utils"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// JWTTokenService 使用 HS256 签发和校验访问令牌
type JWTTokenService struct {
	secret      []byte
	issuer      string
	expireHours int
	logger      utils.Logger
}

// NewJWTTokenService 创建令牌服务
func NewJWTTokenService(cfg config.JWTConfig) *JWTTokenService {
	expireHours := cfg.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	return &JWTTokenService{
		secret:      []byte(cfg.SecretKey),
		issuer:      cfg.Issuer,
		expireHours: expireHours,
		logger:      utils.GetLogger(),
	}
}

// Generate 为 subject（用户ID）签发令牌
func (s *JWTTokenService) Generate(subject string) (string, error) {
	claims := models.CreateClaims(subject, s.issuer, s.expireHours, uuid.NewString())
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		s.logger.Error("签发令牌失败", "subject", subject, "error", err.Error())
		return "", err
	}
	return signed, nil
}

// VerifyAndGetSubject 校验令牌签名、有效期与签发者
func (s *JWTTokenService) VerifyAndGetSubject(tokenString string) (string, bool) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", false
	}
	if s.issuer != "" && !claims.VerifyIssuer(s.issuer, true) {
		return "", false
	}
	if claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
