package models

import "time"

// Role 角色
type Role struct {
	ID        uint      `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// 内置角色编码
const (
	RoleAdmin     = "ADMIN"
	RoleModerator = "MODERATOR"
	RoleUser      = "USER"
)

// User 用户结构体
type User struct {
	ID           uint      `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // 不序列化密码字段
	Roles        []Role    `json:"roles"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// RoleCodes 返回用户的角色编码
func (u *User) RoleCodes() []string {
	codes := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		codes = append(codes, r.Code)
	}
	return codes
}

// LoginRequest 登录请求结构体
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest 注册请求结构体
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=20"`
	Password string `json:"password" binding:"required,min=6,max=50"`
	Email    string `json:"email" binding:"required,email"`
}

// LoginResponse 登录响应数据
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// CreateRoleRequest 创建角色请求
type CreateRoleRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required,max=64"`
}

// AssignRolesRequest 设置用户角色请求
type AssignRolesRequest struct {
	Codes []string `json:"codes"`
}
