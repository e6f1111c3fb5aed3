package services

import (
	"context"
	"database/sql"
	"errors"

	"forum/internal/models"
	"forum/internal/utils"
)

const commentColumns = `id, problem_id, user_id, parent_id, reply_to_comment_id, content, like_count, deleted, created_at`

// CommentRepository 题目评论数据访问层（MySQL）
type CommentRepository struct {
	db     *Database
	logger utils.Logger
}

// NewCommentRepository 创建评论数据访问层
func NewCommentRepository(db *Database) *CommentRepository {
	return &CommentRepository{
		db:     db,
		logger: utils.GetLogger(),
	}
}

// CreateComment 插入评论
func (r *CommentRepository) CreateComment(ctx context.Context, c *models.ProblemComment) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	result, err := r.db.DB.ExecContext(ctx,
		`INSERT INTO problem_comments (problem_id, user_id, parent_id, reply_to_comment_id, content, like_count, deleted, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, 0, ?)`,
		c.ProblemID, c.UserID, nullUint(c.ParentID), nullUint(c.ReplyToCommentID), nullString(c.Content), c.CreatedAt)
	if err != nil {
		r.logger.Error("创建评论失败", "problemID", c.ProblemID, "userID", c.UserID, "error", err.Error())
		return utils.ErrDatabaseInsert
	}

	id, err := result.LastInsertId()
	if err != nil {
		return utils.ErrDatabaseInsert
	}
	c.ID = uint(id)
	return nil
}

// FindCommentByID 根据ID查询评论（包括已删除的）
func (r *CommentRepository) FindCommentByID(ctx context.Context, id uint) (*models.ProblemComment, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.DB.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM problem_comments WHERE id = ?`, id)
	c, err := scanComment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("查询评论失败", "commentID", id, "error", err.Error())
		return nil, utils.ErrDatabaseQuery
	}
	return c, nil
}

// SoftDeleteComment 软删除：清空内容，保留点赞数与层级关系
func (r *CommentRepository) SoftDeleteComment(ctx context.Context, id uint) (*models.ProblemComment, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	_, err := r.db.DB.ExecContext(ctx,
		`UPDATE problem_comments SET content = NULL, deleted = 1 WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("删除评论失败", "commentID", id, "error", err.Error())
		return nil, utils.ErrDatabaseUpdate
	}
	return r.FindCommentByID(ctx, id)
}

// IncrementCommentLikes 点赞数加一
func (r *CommentRepository) IncrementCommentLikes(ctx context.Context, id uint) (*models.ProblemComment, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	_, err := r.db.DB.ExecContext(ctx,
		`UPDATE problem_comments SET like_count = like_count + 1 WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("评论点赞失败", "commentID", id, "error", err.Error())
		return nil, utils.ErrDatabaseUpdate
	}
	return r.FindCommentByID(ctx, id)
}

// ListTopLevelComments 分页获取顶层评论
func (r *CommentRepository) ListTopLevelComments(ctx context.Context, problemID uint, offset, limit int) ([]models.ProblemComment, int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var total int
	err := r.db.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM problem_comments WHERE problem_id = ? AND parent_id IS NULL`, problemID).Scan(&total)
	if err != nil {
		r.logger.Error("查询评论总数失败", "problemID", problemID, "error", err.Error())
		return nil, 0, utils.ErrDatabaseQuery
	}

	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM problem_comments
		 WHERE problem_id = ? AND parent_id IS NULL
		 ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?`, problemID, limit, offset)
	if err != nil {
		r.logger.Error("查询评论列表失败", "problemID", problemID, "error", err.Error())
		return nil, 0, utils.ErrDatabaseQuery
	}
	defer rows.Close()

	comments, err := scanComments(rows)
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// ListReplies 批量获取回复，避免 N+1 查询
func (r *CommentRepository) ListReplies(ctx context.Context, parentIDs []uint) ([]models.ProblemComment, error) {
	if len(parentIDs) == 0 {
		return []models.ProblemComment{}, nil
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM problem_comments
		 WHERE parent_id IN (`+placeholders(len(parentIDs))+`)
		 ORDER BY created_at ASC, id ASC`, uintArgs(parentIDs)...)
	if err != nil {
		r.logger.Error("批量查询回复失败", "count", len(parentIDs), "error", err.Error())
		return nil, utils.ErrDatabaseQuery
	}
	defer rows.Close()

	return scanComments(rows)
}

func scanComments(rows *sql.Rows) ([]models.ProblemComment, error) {
	comments := []models.ProblemComment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, utils.ErrDatabaseQuery
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.ErrDatabaseQuery
	}
	return comments, nil
}

func scanComment(s rowScanner) (*models.ProblemComment, error) {
	var (
		c         models.ProblemComment
		parentID  sql.NullInt64
		replyToID sql.NullInt64
		content   sql.NullString
	)
	if err := s.Scan(&c.ID, &c.ProblemID, &c.UserID, &parentID, &replyToID, &content,
		&c.LikeCount, &c.Deleted, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.ParentID = uintPtr(parentID)
	c.ReplyToCommentID = uintPtr(replyToID)
	c.Content = stringPtr(content)
	return &c, nil
}
