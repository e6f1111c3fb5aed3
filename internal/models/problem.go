package models

import "time"

// ProblemStatus 题目状态
type ProblemStatus string

const (
	ProblemStatusDraft     ProblemStatus = "DRAFT"
	ProblemStatusPublished ProblemStatus = "PUBLISHED"
	ProblemStatusArchived  ProblemStatus = "ARCHIVED"
)

// Valid 是否为已知状态
func (s ProblemStatus) Valid() bool {
	switch s {
	case ProblemStatusDraft, ProblemStatusPublished, ProblemStatusArchived:
		return true
	}
	return false
}

// Visibility 题目可见性
type Visibility string

const (
	VisibilityPublic   Visibility = "PUBLIC"
	VisibilityPrivate  Visibility = "PRIVATE"
	VisibilityUnlisted Visibility = "UNLISTED"
)

// Valid 是否为已知可见性
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityUnlisted:
		return true
	}
	return false
}

// ProblemSort 题目列表排序方式
type ProblemSort string

const (
	SortLatest      ProblemSort = "LATEST"
	SortPublishedAt ProblemSort = "PUBLISHED_AT"
	SortDifficulty  ProblemSort = "DIFFICULTY"
)

// 难度范围
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Problem 题目
type Problem struct {
	ID          uint          `json:"id" db:"id"`
	Title       string        `json:"title" db:"title"`
	Subject     string        `json:"subject" db:"subject"`
	Content     string        `json:"content" db:"content"`
	Difficulty  int           `json:"difficulty" db:"difficulty"`
	Status      ProblemStatus `json:"status" db:"status"`
	Visibility  Visibility    `json:"visibility" db:"visibility"`
	CategoryID  *uint         `json:"category_id" db:"category_id"`
	TypeID      *uint         `json:"type_id" db:"type_id"`
	AuthorID    uint          `json:"author_id" db:"author_id"`
	PublishedAt *time.Time    `json:"published_at" db:"published_at"`
	TagIDs      []uint        `json:"tag_ids"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// VisibleTo 作者与审核员不受限，其他人读不到草稿和私有题目
func (p *Problem) VisibleTo(viewer Viewer) bool {
	if viewer.Privileged || (viewer.UserID != 0 && viewer.UserID == p.AuthorID) {
		return true
	}
	return p.Status != ProblemStatusDraft && p.Visibility != VisibilityPrivate
}

// Viewer 读取题目的调用者，UserID 为 0 表示匿名
type Viewer struct {
	UserID     uint
	Privileged bool
}

// ProblemStatusChange 状态迁移，仅当当前状态仍为 From 时写入
type ProblemStatusChange struct {
	From        ProblemStatus
	To          ProblemStatus
	PublishedAt *time.Time
	UpdatedAt   time.Time
}

// ProblemDetail 题目详情，附带标签与渲染后的正文
type ProblemDetail struct {
	Problem
	Tags        []Tag  `json:"tags"`
	ContentHTML string `json:"content_html"`
}

// ProblemQuery 题目列表查询
type ProblemQuery struct {
	Subject       string         `form:"subject"`
	TagIDs        []uint         `form:"tag_ids"`
	MinDifficulty *int           `form:"min_difficulty"`
	MaxDifficulty *int           `form:"max_difficulty"`
	Keyword       string         `form:"keyword"`
	Status        *ProblemStatus `form:"status"`
	Visibility    *Visibility    `form:"visibility"`
	Sort          ProblemSort    `form:"sort"`
	Page          int            `form:"page"`
	PageSize      int            `form:"page_size"`

	// Viewer 非 nil 且无特权时，只列出已发布的公开题目和调用者自己的题目
	Viewer *Viewer `form:"-"`
}

// ========== 请求 DTO ==========

// CreateProblemRequest 创建题目请求
type CreateProblemRequest struct {
	Title      string     `json:"title" binding:"required,max=200"`
	Subject    string     `json:"subject" binding:"required,max=32"`
	Content    string     `json:"content" binding:"max=65535"`
	Difficulty int        `json:"difficulty" binding:"required"`
	Visibility Visibility `json:"visibility"`
	CategoryID *uint      `json:"category_id"`
	TypeID     *uint      `json:"type_id"`
	TagIDs     []uint     `json:"tag_ids"`
	TagNames   []string   `json:"tag_names"`
}

// UpdateProblemRequest 更新题目请求，nil 字段保持不变
type UpdateProblemRequest struct {
	Title      *string     `json:"title" binding:"omitempty,max=200"`
	Content    *string     `json:"content" binding:"omitempty,max=65535"`
	Difficulty *int        `json:"difficulty"`
	Visibility *Visibility `json:"visibility"`
	CategoryID *uint       `json:"category_id"`
	TypeID     *uint       `json:"type_id"`
}

// ChangeStatusRequest 状态变更请求
type ChangeStatusRequest struct {
	Status ProblemStatus `json:"status" binding:"required"`
}

// AttachTagsRequest 替换题目标签请求
type AttachTagsRequest struct {
	Subject string   `json:"subject" binding:"required"`
	Names   []string `json:"names"`
}
