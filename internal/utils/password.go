package utils

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost 默认 bcrypt 强度
const DefaultBcryptCost = 12

// maxPasswordBytes bcrypt 只处理前72字节，更长的密码直接拒绝
const maxPasswordBytes = 72

// BcryptHasher 基于 bcrypt 的密码哈希器
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher 创建密码哈希器，cost 非法时使用默认值
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{Cost: cost}
}

// Hash 生成密码哈希
func (h *BcryptHasher) Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", NewValidationError("密码过长")
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	return string(bytes), err
}

// Matches 验证密码哈希
// bcrypt.CompareHashAndPassword 内部已使用常量时间比较
func (h *BcryptHasher) Matches(password, hash string) bool {
	if len(password) > maxPasswordBytes || len(hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// SecureCompare 常量时间字符串比较，防止时序攻击
func SecureCompare(a, b string) bool {
	if len(a) != len(b) {
		subtle.ConstantTimeCompare([]byte(a), []byte(a))
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
