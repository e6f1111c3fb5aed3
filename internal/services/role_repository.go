package services

import (
	"context"
	"database/sql"
	"errors"

	"forum/internal/models"
	"forum/internal/utils"
)

// RoleRepository 角色数据访问层（MySQL）
type RoleRepository struct {
	db     *Database
	logger utils.Logger
}

// NewRoleRepository 创建角色数据访问层
func NewRoleRepository(db *Database) *RoleRepository {
	return &RoleRepository{
		db:     db,
		logger: utils.GetLogger(),
	}
}

// CreateRole 插入角色，编码重复时返回 ErrDuplicateEntry
func (r *RoleRepository) CreateRole(ctx context.Context, role *models.Role) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	result, err := r.db.DB.ExecContext(ctx,
		`INSERT INTO roles (code, name, created_at) VALUES (?, ?, ?)`,
		role.Code, role.Name, role.CreatedAt)
	if err != nil {
		if isDuplicateEntry(err) {
			return utils.ErrDuplicateEntry
		}
		r.logger.Error("创建角色失败", "code", role.Code, "error", err.Error())
		return utils.ErrDatabaseInsert
	}

	id, err := result.LastInsertId()
	if err != nil {
		return utils.ErrDatabaseInsert
	}
	role.ID = uint(id)
	r.logger.Info("角色创建成功", "roleID", role.ID, "code", role.Code)
	return nil
}

// FindRoleByCode 根据编码查询角色
func (r *RoleRepository) FindRoleByCode(ctx context.Context, code string) (*models.Role, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var role models.Role
	err := r.db.DB.QueryRowContext(ctx,
		`SELECT id, code, name, created_at FROM roles WHERE code = ?`, code).
		Scan(&role.ID, &role.Code, &role.Name, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("查询角色失败", "code", code, "error", err.Error())
		return nil, utils.ErrDatabaseQuery
	}
	return &role, nil
}

// FindRolesByCodes 批量查询角色，不存在的编码被忽略
func (r *RoleRepository) FindRolesByCodes(ctx context.Context, codes []string) ([]models.Role, error) {
	if len(codes) == 0 {
		return []models.Role{}, nil
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	args := make([]interface{}, len(codes))
	for i, code := range codes {
		args[i] = code
	}
	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT id, code, name, created_at FROM roles WHERE code IN (`+placeholders(len(codes))+`) ORDER BY id ASC`, args...)
	if err != nil {
		r.logger.Error("批量查询角色失败", "error", err.Error())
		return nil, utils.ErrDatabaseQuery
	}
	defer rows.Close()
	return scanRoles(rows)
}

// ListRoles 获取全部角色
func (r *RoleRepository) ListRoles(ctx context.Context) ([]models.Role, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.DB.QueryContext(ctx, `SELECT id, code, name, created_at FROM roles ORDER BY id ASC`)
	if err != nil {
		r.logger.Error("查询角色列表失败", "error", err.Error())
		return nil, utils.ErrDatabaseQuery
	}
	defer rows.Close()
	return scanRoles(rows)
}

func scanRoles(rows *sql.Rows) ([]models.Role, error) {
	roles := []models.Role{}
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Code, &role.Name, &role.CreatedAt); err != nil {
			return nil, utils.ErrDatabaseQuery
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.ErrDatabaseQuery
	}
	return roles, nil
}
