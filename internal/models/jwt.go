package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims JWT声明结构体，Subject 为用户ID
type Claims struct {
	jwt.RegisteredClaims
}

// CreateClaims 创建JWT声明
func CreateClaims(subject string, issuer string, expireHours int, tokenID string) *Claims {
	now := time.Now()
	expirationTime := now.Add(time.Duration(expireHours) * time.Hour)

	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			Audience:  []string{"forum-api"},
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	}
}
