package services

import (
	"context"
	"time"

	"forum/internal/models"
	"forum/internal/utils"
)

// 举报字段限制
const (
	MaxReportReasonLength = 500
	MaxHandlingNoteLength = 500
)

// ReportService 举报服务
//
// 状态机：PENDING -> RESOLVED | REJECTED，终态不可再处理。
type ReportService struct {
	reportRepo  ReportRepositoryInterface
	notifier    ReportNotifier
	maxPageSize int
	logger      utils.Logger
	now         func() time.Time
}

// NewReportService 创建举报服务，notifier 可为 nil
func NewReportService(reportRepo ReportRepositoryInterface, notifier ReportNotifier, maxPageSize int) *ReportService {
	return &ReportService{
		reportRepo:  reportRepo,
		notifier:    notifier,
		maxPageSize: maxPageSize,
		logger:      utils.GetLogger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create 提交举报，同一对象可被重复举报
func (s *ReportService) Create(ctx context.Context, reporterID uint, req models.CreateReportRequest) (*models.Report, error) {
	if !req.TargetType.Valid() {
		return nil, utils.NewValidationError("无效的举报对象类型: %s", req.TargetType)
	}
	if req.TargetID == 0 {
		return nil, utils.NewValidationError("举报对象ID不能为空")
	}
	reason := utils.SanitizePlainText(req.Reason)
	if !utils.RuneLengthBetween(reason, 1, MaxReportReasonLength) {
		return nil, utils.NewValidationError("举报理由长度必须在1到%d个字符之间", MaxReportReasonLength)
	}

	report := &models.Report{
		ReporterID: reporterID,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Reason:     reason,
		Status:     models.ReportStatusPending,
		CreatedAt:  s.now(),
	}
	if err := s.reportRepo.CreateReport(ctx, report); err != nil {
		return nil, err
	}

	s.logger.Info("举报已提交",
		"reportID", report.ID,
		"reporterID", reporterID,
		"targetType", report.TargetType,
		"targetID", report.TargetID)
	s.publish(models.EventReportCreated, report)
	return report, nil
}

// Handle 处理举报，处理人、处理时间与备注一次性写入
func (s *ReportService) Handle(ctx context.Context, id, handlerID uint, req models.HandleReportRequest) (*models.Report, error) {
	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status.IsTerminal() {
		return nil, utils.NewConflictError("举报已处理")
	}
	if !req.Status.IsTerminal() {
		return nil, utils.NewValidationError("处理结果只能是 RESOLVED 或 REJECTED")
	}

	var note *string
	if req.Note != nil {
		trimmed := utils.SanitizePlainText(*req.Note)
		if !utils.RuneLengthBetween(trimmed, 0, MaxHandlingNoteLength) {
			return nil, utils.NewValidationError("处理备注不能超过%d个字符", MaxHandlingNoteLength)
		}
		if trimmed != "" {
			note = &trimmed
		}
	}

	handling := models.ReportHandling{
		Status:    req.Status,
		HandlerID: handlerID,
		HandledAt: s.now(),
		Note:      note,
	}
	ok, err := s.reportRepo.MarkReportHandled(ctx, id, handling)
	if err != nil {
		return nil, err
	}
	if !ok {
		// 读取之后被其他审核员抢先处理
		return nil, utils.NewConflictError("举报已处理")
	}

	handled, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("举报已处理",
		"reportID", id,
		"handlerID", handlerID,
		"status", req.Status)
	s.publish(models.EventReportHandled, handled)
	return handled, nil
}

// List 分页查询举报，最新的在前
func (s *ReportService) List(ctx context.Context, query models.ReportQuery) (models.Page[models.Report], error) {
	var empty models.Page[models.Report]
	if query.TargetType != nil && !query.TargetType.Valid() {
		return empty, utils.NewValidationError("无效的举报对象类型: %s", *query.TargetType)
	}
	if query.Status != nil && !query.Status.Valid() {
		return empty, utils.NewValidationError("无效的举报状态: %s", *query.Status)
	}
	if err := validatePage(query.Page, query.PageSize, s.maxPageSize); err != nil {
		return empty, err
	}

	reports, total, err := s.reportRepo.ListReports(ctx, query)
	if err != nil {
		return empty, err
	}
	return models.NewPage(reports, total, query.Page, query.PageSize), nil
}

// Get 获取举报
func (s *ReportService) Get(ctx context.Context, id uint) (*models.Report, error) {
	report, err := s.reportRepo.FindReportByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, utils.NewNotFoundError("举报不存在")
	}
	return report, nil
}

func (s *ReportService) publish(eventType string, report *models.Report) {
	if s.notifier == nil {
		return
	}
	snapshot := *report
	s.notifier.Publish(models.ModerationEvent{Type: eventType, Data: &snapshot})
}
