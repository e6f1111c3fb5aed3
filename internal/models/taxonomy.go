package models

import "time"

// Category 分类（同一学科内的树形结构，只禁用不删除）
type Category struct {
	ID          uint      `json:"id" db:"id"`
	Subject     string    `json:"subject" db:"subject"`
	ParentID    *uint     `json:"parent_id" db:"parent_id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	SortOrder   int       `json:"sort_order" db:"sort_order"`
	Enabled     bool      `json:"enabled" db:"enabled"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CategoryNode 分类树节点
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}

// ProblemType 题型（同一学科内的扁平列表）
type ProblemType struct {
	ID          uint      `json:"id" db:"id"`
	Subject     string    `json:"subject" db:"subject"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	SortOrder   int       `json:"sort_order" db:"sort_order"`
	Enabled     bool      `json:"enabled" db:"enabled"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Tag 标签，(subject, name) 唯一
type Tag struct {
	ID        uint      `json:"id" db:"id"`
	Subject   string    `json:"subject" db:"subject"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ========== 请求 DTO ==========

// CreateCategoryRequest 创建分类请求
type CreateCategoryRequest struct {
	Subject     string `json:"subject" binding:"required,max=32"`
	ParentID    *uint  `json:"parent_id"`
	Name        string `json:"name" binding:"required,max=64"`
	Description string `json:"description" binding:"max=500"`
	SortOrder   int    `json:"sort_order"`
}

// UpdateCategoryRequest 更新分类请求，nil 字段保持不变
//
// ClearParent 为 true 时把分类移动到根节点，此时忽略 ParentID。
type UpdateCategoryRequest struct {
	ParentID    *uint   `json:"parent_id"`
	ClearParent bool    `json:"clear_parent"`
	Name        *string `json:"name" binding:"omitempty,max=64"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	SortOrder   *int    `json:"sort_order"`
}

// CreateProblemTypeRequest 创建题型请求
type CreateProblemTypeRequest struct {
	Subject     string `json:"subject" binding:"required,max=32"`
	Name        string `json:"name" binding:"required,max=64"`
	Description string `json:"description" binding:"max=500"`
	SortOrder   int    `json:"sort_order"`
}

// UpdateProblemTypeRequest 更新题型请求
type UpdateProblemTypeRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=64"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	SortOrder   *int    `json:"sort_order"`
}

// SetEnabledRequest 启用/禁用请求
type SetEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// CreateTagRequest 创建（或复用）标签请求
type CreateTagRequest struct {
	Subject string `json:"subject" binding:"required,max=32"`
	Name    string `json:"name" binding:"required,max=64"`
}
