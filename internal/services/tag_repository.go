package services

import (
	"context"
	"database/sql"
	"errors"

	"forum/internal/models"
	"forum/internal/utils"
)

// TagRepository 标签数据访问层（MySQL）
type TagRepository struct {
	db     *Database
	logger utils.Logger
}

// NewTagRepository 创建标签数据访问层
func NewTagRepository(db *Database) *TagRepository {
	return &TagRepository{
		db:     db,
		logger: utils.GetLogger(),
	}
}

// CreateTag 插入标签，(subject, name) 冲突时返回 ErrDuplicateEntry
func (r *TagRepository) CreateTag(ctx context.Context, tag *models.Tag) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	result, err := r.db.DB.ExecContext(ctx,
		`INSERT INTO tags (subject, name, slug, created_at) VALUES (?, ?, ?, ?)`,
		tag.Subject, tag.Name, tag.Slug, tag.CreatedAt)
	if err != nil {
		if isDuplicateEntry(err) {
			return utils.ErrDuplicateEntry
		}
		r.logger.Error("创建标签失败", "subject", tag.Subject, "name", tag.Name, "error", err.Error())
		return utils.ErrDatabaseInsert
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("获取标签ID失败", "error", err.Error())
		return utils.ErrDatabaseInsert
	}
	tag.ID = uint(id)
	return nil
}

// FindTagByName 根据学科和名称查找标签
func (r *TagRepository) FindTagByName(ctx context.Context, subject, name string) (*models.Tag, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag := &models.Tag{}
	err := r.db.DB.QueryRowContext(ctx,
		`SELECT id, subject, name, slug, created_at FROM tags WHERE subject = ? AND name = ?`,
		subject, name).Scan(&tag.ID, &tag.Subject, &tag.Name, &tag.Slug, &tag.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("查询标签失败", "subject", subject, "name", name, "error", err.Error())
		return nil, utils.ErrDatabaseQuery
	}
	return tag, nil
}

// FindTagsByIDs 批量查询标签，不存在的 id 被忽略
func (r *TagRepository) FindTagsByIDs(ctx context.Context, ids []uint) ([]models.Tag, error) {
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	query := `SELECT id, subject, name, slug, created_at FROM tags WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY id`
	rows, err := r.db.DB.QueryContext(ctx, query, uintArgs(ids)...)
	if err != nil {
		r.logger.Error("批量查询标签失败", "count", len(ids), "error", err.Error())
		return nil, utils.ErrDatabaseQuery
	}
	defer rows.Close()

	return scanTags(rows)
}

// ListTags 列出学科下的全部标签
func (r *TagRepository) ListTags(ctx context.Context, subject string) ([]models.Tag, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT id, subject, name, slug, created_at FROM tags WHERE subject = ? ORDER BY name ASC, id ASC`,
		subject)
	if err != nil {
		r.logger.Error("查询标签列表失败", "subject", subject, "error", err.Error())
		return nil, utils.ErrDatabaseQuery
	}
	defer rows.Close()

	return scanTags(rows)
}

func scanTags(rows *sql.Rows) ([]models.Tag, error) {
	tags := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Subject, &t.Name, &t.Slug, &t.CreatedAt); err != nil {
			return nil, utils.ErrDatabaseQuery
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.ErrDatabaseQuery
	}
	return tags, nil
}
