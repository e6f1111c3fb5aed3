package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"forum/internal/models"
	"forum/internal/utils"
)

const categoryColumns = `id, subject, parent_id, name, slug, description, sort_order, enabled, created_at, updated_at`

// CategoryRepository 分类数据访问层（MySQL）
type CategoryRepository struct {
	db     *Database
	logger utils.Logger
}

// NewCategoryRepository 创建分类数据访问层
func NewCategoryRepository(db *Database) *CategoryRepository {
	return &CategoryRepository{
		db:     db,
		logger: utils.GetLogger(),
	}
}

// CreateCategory 插入分类
func (r *CategoryRepository) CreateCategory(ctx context.Context, c *models.Category) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	result, err := r.db.DB.ExecContext(ctx,
		`INSERT INTO categories (subject, parent_id, name, slug, description, sort_order, enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Subject, nullUint(c.ParentID), c.Name, c.Slug, c.Description, c.SortOrder, c.Enabled, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		r.logger.Error("创建分类失败", "subject", c.Subject, "name", c.Name, "error", err.Error())
		return utils.ErrDatabaseInsert
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("获取分类ID失败", "error", err.Error())
		return utils.ErrDatabaseInsert
	}
	c.ID = uint(id)
	return nil
}

// UpdateCategory 更新分类并返回更新后的记录
func (r *CategoryRepository) UpdateCategory(ctx context.Context, c *models.Category) (*models.Category, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	_, err := r.db.DB.ExecContext(ctx,
		`UPDATE categories SET parent_id = ?, name = ?, slug = ?, description = ?, sort_order = ?, updated_at = ?
		 WHERE id = ?`,
		nullUint(c.ParentID), c.Name, c.Slug, c.Description, c.SortOrder, c.UpdatedAt, c.ID)
	if err != nil {
		r.logger.Error("更新分类失败", "categoryID", c.ID, "error", err.Error())
		return nil, utils.ErrDatabaseUpdate
	}
	return r.FindCategoryByID(ctx, c.ID)
}

// SetCategoryEnabled 只写 enabled 列
func (r *CategoryRepository) SetCategoryEnabled(ctx context.Context, id uint, enabled bool, updatedAt time.Time) (*models.Category, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.DB.ExecContext(ctx,
		`UPDATE categories SET enabled = ?, updated_at = ? WHERE id = ?`, enabled, updatedAt, id); err != nil {
		r.logger.Error("更新分类状态失败", "categoryID", id, "error", err.Error())
		return nil, utils.ErrDatabaseUpdate
	}
	return r.FindCategoryByID(ctx, id)
}

// FindCategoryByID 根据ID查询分类
func (r *CategoryRepository) FindCategoryByID(ctx context.Context, id uint) (*models.Category, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.DB.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("查询分类失败", "categoryID", id, "error", err.Error())
		return nil, utils.ErrDatabaseQuery
	}
	return c, nil
}

// ListCategories 获取学科下全部分类
func (r *CategoryRepository) ListCategories(ctx context.Context, subject string) ([]models.Category, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE subject = ? ORDER BY sort_order ASC, id ASC`, subject)
	if err != nil {
		r.logger.Error("查询分类列表失败", "subject", subject, "error", err.Error())
		return nil, utils.ErrDatabaseQuery
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			r.logger.Error("扫描分类失败", "error", err.Error())
			return nil, utils.ErrDatabaseQuery
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.ErrDatabaseQuery
	}
	return categories, nil
}

// rowScanner 兼容 *sql.Row 与 *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCategory(s rowScanner) (*models.Category, error) {
	var (
		c        models.Category
		parentID sql.NullInt64
	)
	if err := s.Scan(&c.ID, &c.Subject, &parentID, &c.Name, &c.Slug, &c.Description,
		&c.SortOrder, &c.Enabled, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ParentID = uintPtr(parentID)
	return &c, nil
}
