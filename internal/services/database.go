package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"forum/internal/config"
	"forum/internal/utils"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry MySQL 唯一键冲突错误码
const mysqlDuplicateEntry = 1062

// Database 数据库服务
type Database struct {
	DB           *sql.DB
	queryTimeout time.Duration
}

// NewDatabase 创建数据库连接
func NewDatabase(cfg *config.Config) (*Database, error) {
	db, err := sql.Open("mysql", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	utils.GetLogger().Info("数据库连接成功",
		"host", cfg.Database.Host,
		"database", cfg.Database.Database)
	return NewDatabaseFromDB(db, cfg.Database.QueryTimeout), nil
}

// NewDatabaseFromDB 包装已有连接
func NewDatabaseFromDB(db *sql.DB, queryTimeout time.Duration) *Database {
	if queryTimeout <= 0 {
		queryTimeout = 5 * time.Second
	}
	return &Database{DB: db, queryTimeout: queryTimeout}
}

// Close 关闭数据库连接
func (d *Database) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// HealthCheck 测试数据库连接
func (d *Database) HealthCheck(ctx context.Context) error {
	if d == nil || d.DB == nil {
		return utils.ErrDatabaseConnection
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return d.DB.PingContext(ctx)
}

// withTimeout 为单次查询设置超时
func (d *Database) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.queryTimeout)
}

// WithTx 在事务中执行 fn，fn 返回错误时回滚
func (d *Database) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// isDuplicateEntry 判断是否为唯一键冲突
func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// placeholders 生成 IN 子句占位符，n 必须大于 0
func placeholders(n int) string {
	return "?" + strings.Repeat(",?", n-1)
}

// uintArgs 转换为查询参数
func uintArgs(ids []uint) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// nullUint 可空整数列
func nullUint(v *uint) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// nullString 可空字符串列
func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

// uintPtr 把可空整数列转换为指针
func uintPtr(v sql.NullInt64) *uint {
	if !v.Valid {
		return nil
	}
	u := uint(v.Int64)
	return &u
}

// stringPtr 把可空字符串列转换为指针
func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// timePtr 把可空时间列转换为指针
func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
