package utils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	roleCodeRegex = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	subjectRegex  = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// MaxRoleCodeLength 角色编码最大长度
const MaxRoleCodeLength = 32

// ValidateEmail 验证邮箱格式
func ValidateEmail(email string) bool {
	if email == "" {
		return false
	}
	return emailRegex.MatchString(email)
}

// ValidateUsername 验证用户名格式
func ValidateUsername(username string) bool {
	// 用户名长度3-20位，只能包含字母、数字、下划线
	if len(username) < 3 || len(username) > 20 {
		return false
	}
	// 不能以数字开头
	if unicode.IsDigit(rune(username[0])) {
		return false
	}
	return usernameRegex.MatchString(username)
}

// ValidatePassword 验证密码强度
func ValidatePassword(password string) bool {
	// 密码长度至少6位，最多50位
	if len(password) < 6 || len(password) > 50 {
		return false
	}

	hasLetter := false
	hasDigit := false

	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}

	// 至少包含字母和数字
	return hasLetter && hasDigit
}

// NormalizeRoleCode 角色编码统一为大写
func NormalizeRoleCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateRoleCode 验证角色编码：大写字母开头，1-32位
func ValidateRoleCode(code string) bool {
	if code == "" || len(code) > MaxRoleCodeLength {
		return false
	}
	return roleCodeRegex.MatchString(code)
}

// NormalizeSubject 学科标识统一为小写
func NormalizeSubject(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}

// ValidateSubject 验证学科标识，例如 math、physics
func ValidateSubject(subject string) bool {
	if subject == "" || len(subject) > 32 {
		return false
	}
	return subjectRegex.MatchString(subject)
}

// RuneLengthBetween 按字符数判断长度是否在 [min, max] 内
func RuneLengthBetween(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

// SanitizeString 清理字符串
func SanitizeString(input string) string {
	// 去除首尾空格
	input = strings.TrimSpace(input)
	// 去除控制字符
	input = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, input)
	return input
}
