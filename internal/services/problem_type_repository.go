package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"forum/internal/models"
	"forum/internal/utils"
)

const problemTypeColumns = `id, subject, name, description, sort_order, enabled, created_at, updated_at`

// ProblemTypeRepository 题型数据访问层（MySQL）
type ProblemTypeRepository struct {
	db     *Database
	logger utils.Logger
}

// NewProblemTypeRepository 创建题型数据访问层
func NewProblemTypeRepository(db *Database) *ProblemTypeRepository {
	return &ProblemTypeRepository{
		db:     db,
		logger: utils.GetLogger(),
	}
}

// CreateProblemType 插入题型
func (r *ProblemTypeRepository) CreateProblemType(ctx context.Context, pt *models.ProblemType) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	result, err := r.db.DB.ExecContext(ctx,
		`INSERT INTO problem_types (subject, name, description, sort_order, enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pt.Subject, pt.Name, pt.Description, pt.SortOrder, pt.Enabled, pt.CreatedAt, pt.UpdatedAt)
	if err != nil {
		r.logger.Error("创建题型失败", "subject", pt.Subject, "name", pt.Name, "error", err.Error())
		return utils.ErrDatabaseInsert
	}

	id, err := result.LastInsertId()
	if err != nil {
		return utils.ErrDatabaseInsert
	}
	pt.ID = uint(id)
	return nil
}

// UpdateProblemType 更新题型并返回更新后的记录
func (r *ProblemTypeRepository) UpdateProblemType(ctx context.Context, pt *models.ProblemType) (*models.ProblemType, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	_, err := r.db.DB.ExecContext(ctx,
		`UPDATE problem_types SET name = ?, description = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
		pt.Name, pt.Description, pt.SortOrder, pt.UpdatedAt, pt.ID)
	if err != nil {
		r.logger.Error("更新题型失败", "typeID", pt.ID, "error", err.Error())
		return nil, utils.ErrDatabaseUpdate
	}
	return r.FindProblemTypeByID(ctx, pt.ID)
}

// SetProblemTypeEnabled 只写 enabled 列
func (r *ProblemTypeRepository) SetProblemTypeEnabled(ctx context.Context, id uint, enabled bool, updatedAt time.Time) (*models.ProblemType, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.DB.ExecContext(ctx,
		`UPDATE problem_types SET enabled = ?, updated_at = ? WHERE id = ?`, enabled, updatedAt, id); err != nil {
		r.logger.Error("更新题型状态失败", "typeID", id, "error", err.Error())
		return nil, utils.ErrDatabaseUpdate
	}
	return r.FindProblemTypeByID(ctx, id)
}

// FindProblemTypeByID 根据ID查询题型
func (r *ProblemTypeRepository) FindProblemTypeByID(ctx context.Context, id uint) (*models.ProblemType, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var pt models.ProblemType
	err := r.db.DB.QueryRowContext(ctx, `SELECT `+problemTypeColumns+` FROM problem_types WHERE id = ?`, id).
		Scan(&pt.ID, &pt.Subject, &pt.Name, &pt.Description, &pt.SortOrder, &pt.Enabled, &pt.CreatedAt, &pt.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("查询题型失败", "typeID", id, "error", err.Error())
		return nil, utils.ErrDatabaseQuery
	}
	return &pt, nil
}

// ListProblemTypes 获取学科下全部题型
func (r *ProblemTypeRepository) ListProblemTypes(ctx context.Context, subject string) ([]models.ProblemType, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT `+problemTypeColumns+` FROM problem_types WHERE subject = ? ORDER BY sort_order ASC, id ASC`, subject)
	if err != nil {
		r.logger.Error("查询题型列表失败", "subject", subject, "error", err.Error())
		return nil, utils.ErrDatabaseQuery
	}
	defer rows.Close()

	types := []models.ProblemType{}
	for rows.Next() {
		var pt models.ProblemType
		if err := rows.Scan(&pt.ID, &pt.Subject, &pt.Name, &pt.Description, &pt.SortOrder, &pt.Enabled, &pt.CreatedAt, &pt.UpdatedAt); err != nil {
			return nil, utils.ErrDatabaseQuery
		}
		types = append(types, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.ErrDatabaseQuery
	}
	return types, nil
}
