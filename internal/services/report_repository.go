package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"forum/internal/models"
	"forum/internal/utils"
)

const reportColumns = `id, reporter_id, target_type, target_id, reason, status, handler_id, handled_at, handling_note, created_at`

// ReportRepository 举报数据访问层（MySQL）
type ReportRepository struct {
	db     *Database
	logger utils.Logger
}

// NewReportRepository 创建举报数据访问层
func NewReportRepository(db *Database) *ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: utils.GetLogger(),
	}
}

// CreateReport 插入举报
func (r *ReportRepository) CreateReport(ctx context.Context, report *models.Report) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	result, err := r.db.DB.ExecContext(ctx,
		`INSERT INTO reports (reporter_id, target_type, target_id, reason, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		report.ReporterID, report.TargetType, report.TargetID, report.Reason, report.Status, report.CreatedAt)
	if err != nil {
		r.logger.Error("创建举报失败", "reporterID", report.ReporterID, "error", err.Error())
		return utils.ErrDatabaseInsert
	}

	id, err := result.LastInsertId()
	if err != nil {
		return utils.ErrDatabaseInsert
	}
	report.ID = uint(id)
	return nil
}

// FindReportByID 根据ID查询举报
func (r *ReportRepository) FindReportByID(ctx context.Context, id uint) (*models.Report, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.DB.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)
	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("查询举报失败", "reportID", id, "error", err.Error())
		return nil, utils.ErrDatabaseQuery
	}
	return report, nil
}

// MarkReportHandled 条件更新：只有 PENDING 的举报才会被写入处理结果
func (r *ReportRepository) MarkReportHandled(ctx context.Context, id uint, h models.ReportHandling) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	result, err := r.db.DB.ExecContext(ctx,
		`UPDATE reports SET status = ?, handler_id = ?, handled_at = ?, handling_note = ?
		 WHERE id = ? AND status = ?`,
		h.Status, h.HandlerID, h.HandledAt, nullString(h.Note), id, models.ReportStatusPending)
	if err != nil {
		r.logger.Error("处理举报失败", "reportID", id, "error", err.Error())
		return false, utils.ErrDatabaseUpdate
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, utils.ErrDatabaseUpdate
	}
	return affected == 1, nil
}

// ListReports 按条件分页查询举报，最新的在前
func (r *ReportRepository) ListReports(ctx context.Context, query models.ReportQuery) ([]models.Report, int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var conditions []string
	var args []interface{}
	if query.TargetType != nil {
		conditions = append(conditions, "target_type = ?")
		args = append(args, *query.TargetType)
	}
	if query.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *query.Status)
	}
	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`+whereClause, args...).Scan(&total); err != nil {
		r.logger.Error("查询举报总数失败", "error", err.Error())
		return nil, 0, utils.ErrDatabaseQuery
	}

	listArgs := append(args, query.PageSize, models.Offset(query.Page, query.PageSize))
	rows, err := r.db.DB.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports`+whereClause+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		listArgs...)
	if err != nil {
		r.logger.Error("查询举报列表失败", "error", err.Error())
		return nil, 0, utils.ErrDatabaseQuery
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, 0, utils.ErrDatabaseQuery
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, utils.ErrDatabaseQuery
	}
	return reports, total, nil
}

func scanReport(s rowScanner) (*models.Report, error) {
	var (
		report    models.Report
		handlerID sql.NullInt64
		handledAt sql.NullTime
		note      sql.NullString
	)
	if err := s.Scan(&report.ID, &report.ReporterID, &report.TargetType, &report.TargetID, &report.Reason,
		&report.Status, &handlerID, &handledAt, &note, &report.CreatedAt); err != nil {
		return nil, err
	}
	report.HandlerID = uintPtr(handlerID)
	report.HandledAt = timePtr(handledAt)
	report.HandlingNote = stringPtr(note)
	return &report, nil
}
