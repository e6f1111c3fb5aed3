package services

import (
	"context"
	"time"

	"forum/internal/models"
)

// =============================================================================
// Capability Ports - 认证与权限能力
// =============================================================================

// CredentialPort 校验用户名密码，失败时返回 nil
type CredentialPort interface {
	VerifyAndGetUserID(ctx context.Context, username, password string) (*uint, error)
}

// TokenPort 签发与校验访问令牌
type TokenPort interface {
	Generate(subject string) (string, error)
	VerifyAndGetSubject(token string) (string, bool)
}

// PasswordHasher 密码哈希能力
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Matches(plain, hash string) bool
}

// ModeratorChecker 判断用户是否拥有审核权限
type ModeratorChecker interface {
	IsModerator(ctx context.Context, userID uint) (bool, error)
}

// ReportNotifier 举报事件推送，可为 nil
type ReportNotifier interface {
	Publish(event models.ModerationEvent)
}

// =============================================================================
// Repository Interfaces - Repository层接口定义
//
// Find* 方法在记录不存在时返回 (nil, nil)，不会返回错误。
// Create* 在违反唯一约束时返回 utils.ErrDuplicateEntry。
// =============================================================================

// TagRepositoryInterface 标签存储
type TagRepositoryInterface interface {
	CreateTag(ctx context.Context, tag *models.Tag) error
	FindTagByName(ctx context.Context, subject, name string) (*models.Tag, error)
	FindTagsByIDs(ctx context.Context, ids []uint) ([]models.Tag, error)
	ListTags(ctx context.Context, subject string) ([]models.Tag, error)
}

// CategoryRepositoryInterface 分类存储
type CategoryRepositoryInterface interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	// UpdateCategory 更新名称、描述、排序与父分类，不改 enabled
	UpdateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	SetCategoryEnabled(ctx context.Context, id uint, enabled bool, updatedAt time.Time) (*models.Category, error)
	FindCategoryByID(ctx context.Context, id uint) (*models.Category, error)
	// ListCategories 按 sort_order, id 升序返回
	ListCategories(ctx context.Context, subject string) ([]models.Category, error)
}

// ProblemTypeRepositoryInterface 题型存储
type ProblemTypeRepositoryInterface interface {
	CreateProblemType(ctx context.Context, pt *models.ProblemType) error
	// UpdateProblemType 不改 enabled
	UpdateProblemType(ctx context.Context, pt *models.ProblemType) (*models.ProblemType, error)
	SetProblemTypeEnabled(ctx context.Context, id uint, enabled bool, updatedAt time.Time) (*models.ProblemType, error)
	FindProblemTypeByID(ctx context.Context, id uint) (*models.ProblemType, error)
	// ListProblemTypes 按 sort_order, id 升序返回
	ListProblemTypes(ctx context.Context, subject string) ([]models.ProblemType, error)
}

// ProblemRepositoryInterface 题目存储
type ProblemRepositoryInterface interface {
	// CreateProblem 在同一事务中写入题目与标签关联
	CreateProblem(ctx context.Context, problem *models.Problem) error
	// UpdateProblem 更新题目字段，不含标签、状态与发布时间
	UpdateProblem(ctx context.Context, problem *models.Problem) (*models.Problem, error)
	// UpdateProblemStatus 条件更新：只有状态仍为 change.From 时才写入，返回是否写入
	UpdateProblemStatus(ctx context.Context, id uint, change models.ProblemStatusChange) (bool, error)
	FindProblemByID(ctx context.Context, id uint) (*models.Problem, error)
	// ReplaceProblemTags 原子地替换题目的标签集合
	ReplaceProblemTags(ctx context.Context, problemID uint, tagIDs []uint) error
	// ListProblems 查询参数已由服务层校验
	ListProblems(ctx context.Context, query models.ProblemQuery) ([]models.Problem, int, error)
}

// DailyProblemRepositoryInterface 每日一题存储
type DailyProblemRepositoryInterface interface {
	CreateDailyProblem(ctx context.Context, dp *models.DailyProblem) error
	UpdateDailyProblem(ctx context.Context, dp *models.DailyProblem) (*models.DailyProblem, error)
	FindDailyProblem(ctx context.Context, day string) (*models.DailyProblem, error)
	// ListDailyProblems 返回 [from, to] 内的记录，按日期升序
	ListDailyProblems(ctx context.Context, from, to string) ([]models.DailyProblem, error)
}

// CommentRepositoryInterface 评论存储
type CommentRepositoryInterface interface {
	CreateComment(ctx context.Context, comment *models.ProblemComment) error
	FindCommentByID(ctx context.Context, id uint) (*models.ProblemComment, error)
	// SoftDeleteComment 清空内容并标记删除，返回删除后的状态
	SoftDeleteComment(ctx context.Context, id uint) (*models.ProblemComment, error)
	IncrementCommentLikes(ctx context.Context, id uint) (*models.ProblemComment, error)
	// ListTopLevelComments 按创建时间、id 升序分页返回顶层评论
	ListTopLevelComments(ctx context.Context, problemID uint, offset, limit int) ([]models.ProblemComment, int, error)
	// ListReplies 返回给定顶层评论下的全部回复，按创建时间、id 升序
	ListReplies(ctx context.Context, parentIDs []uint) ([]models.ProblemComment, error)
}

// ReportRepositoryInterface 举报存储
type ReportRepositoryInterface interface {
	CreateReport(ctx context.Context, report *models.Report) error
	FindReportByID(ctx context.Context, id uint) (*models.Report, error)
	// MarkReportHandled 仅当举报仍为 PENDING 时写入处理结果，返回是否写入
	MarkReportHandled(ctx context.Context, id uint, handling models.ReportHandling) (bool, error)
	// ListReports 按 created_at, id 倒序
	ListReports(ctx context.Context, query models.ReportQuery) ([]models.Report, int, error)
}

// RoleRepositoryInterface 角色存储
type RoleRepositoryInterface interface {
	CreateRole(ctx context.Context, role *models.Role) error
	FindRoleByCode(ctx context.Context, code string) (*models.Role, error)
	FindRolesByCodes(ctx context.Context, codes []string) ([]models.Role, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
}

// UserRepositoryInterface 用户存储
type UserRepositoryInterface interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	// ReplaceUserRoles 原子地替换用户的角色集合
	ReplaceUserRoles(ctx context.Context, userID uint, roleIDs []uint) error
}
