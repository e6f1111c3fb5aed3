package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"forum/internal/models"
	"forum/internal/utils"
)

const userColumns = `id, username, email, password_hash, created_at, updated_at`

// UserRepository 用户数据访问层
type UserRepository struct {
	db     *Database
	logger utils.Logger
}

// NewUserRepository 创建用户数据访问层
func NewUserRepository(db *Database) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: utils.GetLogger(),
	}
}

// CreateUser 创建用户，用户名或邮箱重复时返回 ErrDuplicateEntry
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	result, err := r.db.DB.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return utils.ErrDuplicateEntry
		}
		r.logger.Error("创建用户失败", "username", user.Username, "error", err.Error())
		return utils.ErrDatabaseInsert
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("获取用户ID失败", "username", user.Username, "error", err.Error())
		return utils.ErrDatabaseInsert
	}

	user.ID = uint(id)
	r.logger.Info("用户创建成功", "userID", user.ID, "username", user.Username)
	return nil
}

// FindUserByID 根据ID获取用户（含角色）
func (r *UserRepository) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	return r.findUser(ctx, "id", id)
}

// FindUserByUsername 根据用户名获取用户（含角色）
func (r *UserRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findUser(ctx, "username", username)
}

// FindUserByEmail 根据邮箱获取用户（含角色）
func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUser(ctx, "email", email)
}

// findUser column 只能是内部常量
func (r *UserRepository) findUser(ctx context.Context, column string, value interface{}) (*models.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	user := &models.User{}
	err := r.db.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug("用户不存在", column, value)
			return nil, nil
		}
		r.logger.Error("查询用户失败", column, value, "error", err.Error())
		return nil, utils.ErrDatabaseQuery
	}

	roles, err := r.listUserRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	return user, nil
}

// listUserRoles 查询用户拥有的角色
func (r *UserRepository) listUserRoles(ctx context.Context, userID uint) ([]models.Role, error) {
	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT ro.id, ro.code, ro.name, ro.created_at
		 FROM user_roles ur JOIN roles ro ON ro.id = ur.role_id
		 WHERE ur.user_id = ? ORDER BY ro.id ASC`, userID)
	if err != nil {
		r.logger.Error("查询用户角色失败", "userID", userID, "error", err.Error())
		return nil, utils.ErrDatabaseQuery
	}
	defer rows.Close()
	return scanRoles(rows)
}

// ReplaceUserRoles 在事务中替换用户角色
func (r *UserRepository) ReplaceUserRoles(ctx context.Context, userID uint, roleIDs []uint) error {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ?`, userID); err != nil {
			return err
		}
		if len(roleIDs) > 0 {
			values := make([]string, 0, len(roleIDs))
			args := make([]interface{}, 0, len(roleIDs)*2)
			for _, roleID := range roleIDs {
				values = append(values, "(?, ?)")
				args = append(args, userID, roleID)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO user_roles (user_id, role_id) VALUES `+strings.Join(values, ", "), args...); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, `UPDATE users SET updated_at = ? WHERE id = ?`, time.Now().UTC(), userID)
		return err
	})
	if err != nil {
		r.logger.Error("更新用户角色失败", "userID", userID, "error", err.Error())
		return utils.ErrDatabaseUpdate
	}
	r.logger.Info("用户角色已更新", "userID", userID, "roleCount", len(roleIDs))
	return nil
}
