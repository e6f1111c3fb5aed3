package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"forum/internal/models"
	"forum/internal/utils"
)

const problemColumns = `p.id, p.title, p.subject, p.content, p.difficulty, p.status, p.visibility,
	p.category_id, p.type_id, p.author_id, p.published_at, p.created_at, p.updated_at`

// ProblemRepository 题目数据访问层（MySQL）
type ProblemRepository struct {
	db     *Database
	logger utils.Logger
}

// NewProblemRepository 创建题目数据访问层
func NewProblemRepository(db *Database) *ProblemRepository {
	return &ProblemRepository{
		db:     db,
		logger: utils.GetLogger(),
	}
}

// CreateProblem 创建题目，题目与标签关联在同一事务中写入
func (r *ProblemRepository) CreateProblem(ctx context.Context, p *models.Problem) error {
	start := time.Now().UTC()

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO problems (title, subject, content, difficulty, status, visibility, category_id, type_id,
				author_id, published_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Title, p.Subject, p.Content, p.Difficulty, p.Status, p.Visibility,
			nullUint(p.CategoryID), nullUint(p.TypeID), p.AuthorID, p.PublishedAt, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		p.ID = uint(id)
		return insertProblemTags(ctx, tx, p.ID, p.TagIDs)
	})
	if err != nil {
		r.logger.Error("创建题目失败", "title", p.Title, "error", err.Error())
		return utils.ErrDatabaseInsert
	}

	r.logger.Info("创建题目成功",
		"problemID", p.ID,
		"subject", p.Subject,
		"tagCount", len(p.TagIDs),
		"duration", time.Since(start))
	return nil
}

// UpdateProblem 更新题目的可编辑字段并返回更新后的记录
func (r *ProblemRepository) UpdateProblem(ctx context.Context, p *models.Problem) (*models.Problem, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	_, err := r.db.DB.ExecContext(ctx,
		`UPDATE problems SET title = ?, content = ?, difficulty = ?, visibility = ?,
			category_id = ?, type_id = ?, updated_at = ?
		 WHERE id = ?`,
		p.Title, p.Content, p.Difficulty, p.Visibility,
		nullUint(p.CategoryID), nullUint(p.TypeID), p.UpdatedAt, p.ID)
	if err != nil {
		r.logger.Error("更新题目失败", "problemID", p.ID, "error", err.Error())
		return nil, utils.ErrDatabaseUpdate
	}
	return r.FindProblemByID(ctx, p.ID)
}

// UpdateProblemStatus 条件更新状态，发布时间只在迁移到 PUBLISHED 时写入
func (r *ProblemRepository) UpdateProblemStatus(ctx context.Context, id uint, change models.ProblemStatusChange) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	result, err := r.db.DB.ExecContext(ctx,
		`UPDATE problems SET status = ?, published_at = COALESCE(?, published_at), updated_at = ?
		 WHERE id = ? AND status = ?`,
		change.To, change.PublishedAt, change.UpdatedAt, id, change.From)
	if err != nil {
		r.logger.Error("更新题目状态失败", "problemID", id, "error", err.Error())
		return false, utils.ErrDatabaseUpdate
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, utils.ErrDatabaseUpdate
	}
	return affected == 1, nil
}

// FindProblemByID 根据ID查询题目（含标签ID）
func (r *ProblemRepository) FindProblemByID(ctx context.Context, id uint) (*models.Problem, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.DB.QueryRowContext(ctx, `SELECT `+problemColumns+` FROM problems p WHERE p.id = ?`, id)
	p, err := scanProblem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("查询题目失败", "problemID", id, "error", err.Error())
		return nil, utils.ErrDatabaseQuery
	}

	tagMap, err := r.batchGetTagIDs(ctx, []uint{p.ID})
	if err != nil {
		return nil, err
	}
	p.TagIDs = tagMap[p.ID]
	if p.TagIDs == nil {
		p.TagIDs = []uint{}
	}
	return p, nil
}

// ReplaceProblemTags 在事务中删除旧关联并写入新关联
func (r *ProblemRepository) ReplaceProblemTags(ctx context.Context, problemID uint, tagIDs []uint) error {
	start := time.Now().UTC()

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM problem_tags WHERE problem_id = ?`, problemID); err != nil {
			return err
		}
		if err := insertProblemTags(ctx, tx, problemID, tagIDs); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE problems SET updated_at = ? WHERE id = ?`, time.Now().UTC(), problemID)
		return err
	})
	if err != nil {
		r.logger.Error("替换题目标签失败", "problemID", problemID, "error", err.Error())
		return utils.ErrDatabaseUpdate
	}

	r.logger.Info("替换题目标签成功",
		"problemID", problemID,
		"tagCount", len(tagIDs),
		"duration", time.Since(start))
	return nil
}

// insertProblemTags 批量写入标签关联
func insertProblemTags(ctx context.Context, tx *sql.Tx, problemID uint, tagIDs []uint) error {
	if len(tagIDs) == 0 {
		return nil
	}
	values := make([]string, 0, len(tagIDs))
	args := make([]interface{}, 0, len(tagIDs)*2)
	for _, tagID := range tagIDs {
		values = append(values, "(?, ?)")
		args = append(args, problemID, tagID)
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO problem_tags (problem_id, tag_id) VALUES `+strings.Join(values, ", "), args...)
	return err
}

// ListProblems 按条件分页查询题目
func (r *ProblemRepository) ListProblems(ctx context.Context, query models.ProblemQuery) ([]models.Problem, int, error) {
	start := time.Now().UTC()
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var conditions []string
	var args []interface{}

	conditions = append(conditions, "p.subject = ?")
	args = append(args, query.Subject)

	if len(query.TagIDs) > 0 {
		// 任意一个标签命中即可
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM problem_tags pt WHERE pt.problem_id = p.id AND pt.tag_id IN ("+placeholders(len(query.TagIDs))+"))")
		args = append(args, uintArgs(query.TagIDs)...)
	}
	if query.MinDifficulty != nil {
		conditions = append(conditions, "p.difficulty >= ?")
		args = append(args, *query.MinDifficulty)
	}
	if query.MaxDifficulty != nil {
		conditions = append(conditions, "p.difficulty <= ?")
		args = append(args, *query.MaxDifficulty)
	}
	if query.Keyword != "" {
		conditions = append(conditions, "LOWER(p.title) LIKE ? ESCAPE '\\\\'")
		args = append(args, "%"+escapeLike(strings.ToLower(query.Keyword))+"%")
	}
	if query.Status != nil {
		conditions = append(conditions, "p.status = ?")
		args = append(args, *query.Status)
	}
	if query.Visibility != nil {
		conditions = append(conditions, "p.visibility = ?")
		args = append(args, *query.Visibility)
	}

	if query.Viewer != nil && !query.Viewer.Privileged {
		conditions = append(conditions, "((p.status = ? AND p.visibility = ?) OR p.author_id = ?)")
		args = append(args, models.ProblemStatusPublished, models.VisibilityPublic, query.Viewer.UserID)
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	orderBy := "p.created_at DESC, p.id DESC"
	switch query.Sort {
	case models.SortPublishedAt:
		orderBy = "p.published_at DESC, p.id DESC"
	case models.SortDifficulty:
		orderBy = "p.difficulty ASC, p.id ASC"
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM problems p %s", whereClause)
	listQuery := fmt.Sprintf("SELECT %s FROM problems p %s ORDER BY %s LIMIT ? OFFSET ?",
		problemColumns, whereClause, orderBy)

	countArgs := make([]interface{}, len(args))
	copy(countArgs, args)
	listArgs := append(args, query.PageSize, models.Offset(query.Page, query.PageSize))

	// 并行执行 COUNT 和列表查询
	type countResult struct {
		total int
		err   error
	}
	countChan := make(chan countResult, 1)
	go func() {
		var total int
		err := r.db.DB.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total)
		countChan <- countResult{total: total, err: err}
	}()

	rows, err := r.db.DB.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		<-countChan
		r.logger.Error("查询题目列表失败", "error", err.Error())
		return nil, 0, utils.ErrDatabaseQuery
	}
	defer rows.Close()

	problems := []models.Problem{}
	ids := []uint{}
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			<-countChan
			r.logger.Error("扫描题目失败", "error", err.Error())
			return nil, 0, utils.ErrDatabaseQuery
		}
		problems = append(problems, *p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		<-countChan
		return nil, 0, utils.ErrDatabaseQuery
	}

	countRes := <-countChan
	if countRes.err != nil {
		r.logger.Error("查询题目总数失败", "error", countRes.err.Error())
		return nil, 0, utils.ErrDatabaseQuery
	}

	tagMap, err := r.batchGetTagIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range problems {
		problems[i].TagIDs = tagMap[problems[i].ID]
		if problems[i].TagIDs == nil {
			problems[i].TagIDs = []uint{}
		}
	}

	r.logger.Debug("查询题目列表完成",
		"subject", query.Subject,
		"total", countRes.total,
		"returned", len(problems),
		"duration", time.Since(start))
	return problems, countRes.total, nil
}

// batchGetTagIDs 批量获取题目的标签ID，避免 N+1 查询
func (r *ProblemRepository) batchGetTagIDs(ctx context.Context, problemIDs []uint) (map[uint][]uint, error) {
	result := make(map[uint][]uint, len(problemIDs))
	if len(problemIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT problem_id, tag_id FROM problem_tags WHERE problem_id IN (`+placeholders(len(problemIDs))+`)`,
		uintArgs(problemIDs)...)
	if err != nil {
		r.logger.Error("批量查询题目标签失败", "error", err.Error())
		return nil, utils.ErrDatabaseQuery
	}
	defer rows.Close()

	for rows.Next() {
		var problemID, tagID uint
		if err := rows.Scan(&problemID, &tagID); err != nil {
			return nil, utils.ErrDatabaseQuery
		}
		result[problemID] = append(result[problemID], tagID)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.ErrDatabaseQuery
	}
	for id := range result {
		ids := result[id]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return result, nil
}

func scanProblem(s rowScanner) (*models.Problem, error) {
	var (
		p           models.Problem
		categoryID  sql.NullInt64
		typeID      sql.NullInt64
		publishedAt sql.NullTime
	)
	if err := s.Scan(&p.ID, &p.Title, &p.Subject, &p.Content, &p.Difficulty, &p.Status, &p.Visibility,
		&categoryID, &typeID, &p.AuthorID, &publishedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.CategoryID = uintPtr(categoryID)
	p.TypeID = uintPtr(typeID)
	p.PublishedAt = timePtr(publishedAt)
	return &p, nil
}

// escapeLike 转义 LIKE 通配符
func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
