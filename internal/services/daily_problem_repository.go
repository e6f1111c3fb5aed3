package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"forum/internal/models"
	"forum/internal/utils"
)

// DailyProblemRepository 每日一题数据访问层（MySQL），day 为主键
type DailyProblemRepository struct {
	db     *Database
	logger utils.Logger
}

// NewDailyProblemRepository 创建每日一题数据访问层
func NewDailyProblemRepository(db *Database) *DailyProblemRepository {
	return &DailyProblemRepository{
		db:     db,
		logger: utils.GetLogger(),
	}
}

// CreateDailyProblem 插入某天的每日一题，当天已存在时返回 ErrDuplicateEntry
func (r *DailyProblemRepository) CreateDailyProblem(ctx context.Context, dp *models.DailyProblem) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	_, err := r.db.DB.ExecContext(ctx,
		`INSERT INTO daily_problems (day, problem_id, copywriting, operator_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		dp.Day, dp.ProblemID, dp.Copywriting, dp.OperatorID, dp.CreatedAt, dp.UpdatedAt)
	if err != nil {
		if isDuplicateEntry(err) {
			return utils.ErrDuplicateEntry
		}
		r.logger.Error("创建每日一题失败", "day", dp.Day, "error", err.Error())
		return utils.ErrDatabaseInsert
	}
	return nil
}

// UpdateDailyProblem 覆盖某天的每日一题
func (r *DailyProblemRepository) UpdateDailyProblem(ctx context.Context, dp *models.DailyProblem) (*models.DailyProblem, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	_, err := r.db.DB.ExecContext(ctx,
		`UPDATE daily_problems SET problem_id = ?, copywriting = ?, operator_id = ?, updated_at = ? WHERE day = ?`,
		dp.ProblemID, dp.Copywriting, dp.OperatorID, dp.UpdatedAt, dp.Day)
	if err != nil {
		r.logger.Error("更新每日一题失败", "day", dp.Day, "error", err.Error())
		return nil, utils.ErrDatabaseUpdate
	}
	return r.FindDailyProblem(ctx, dp.Day)
}

// FindDailyProblem 查询某天的每日一题
func (r *DailyProblemRepository) FindDailyProblem(ctx context.Context, day string) (*models.DailyProblem, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.DB.QueryRowContext(ctx,
		`SELECT day, problem_id, copywriting, operator_id, created_at, updated_at FROM daily_problems WHERE day = ?`, day)
	dp, err := scanDailyProblem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("查询每日一题失败", "day", day, "error", err.Error())
		return nil, utils.ErrDatabaseQuery
	}
	return dp, nil
}

// ListDailyProblems 查询日期区间内的每日一题
func (r *DailyProblemRepository) ListDailyProblems(ctx context.Context, from, to string) ([]models.DailyProblem, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT day, problem_id, copywriting, operator_id, created_at, updated_at
		 FROM daily_problems WHERE day BETWEEN ? AND ? ORDER BY day ASC`, from, to)
	if err != nil {
		r.logger.Error("查询每日一题列表失败", "from", from, "to", to, "error", err.Error())
		return nil, utils.ErrDatabaseQuery
	}
	defer rows.Close()

	list := []models.DailyProblem{}
	for rows.Next() {
		dp, err := scanDailyProblem(rows)
		if err != nil {
			return nil, utils.ErrDatabaseQuery
		}
		list = append(list, *dp)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.ErrDatabaseQuery
	}
	return list, nil
}

func scanDailyProblem(s rowScanner) (*models.DailyProblem, error) {
	var (
		dp  models.DailyProblem
		day time.Time
	)
	if err := s.Scan(&day, &dp.ProblemID, &dp.Copywriting, &dp.OperatorID, &dp.CreatedAt, &dp.UpdatedAt); err != nil {
		return nil, err
	}
	dp.Day = day.Format(models.DayLayout)
	return &dp, nil
}
