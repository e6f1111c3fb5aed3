package models

import "time"

// ReportStatus 举报状态
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "PENDING"
	ReportStatusResolved ReportStatus = "RESOLVED"
	ReportStatusRejected ReportStatus = "REJECTED"
)

// Valid 是否为已知状态
func (s ReportStatus) Valid() bool {
	return s == ReportStatusPending || s == ReportStatusResolved || s == ReportStatusRejected
}

// IsTerminal 是否为终态
func (s ReportStatus) IsTerminal() bool {
	return s == ReportStatusResolved || s == ReportStatusRejected
}

// ReportTargetType 举报对象类型
type ReportTargetType string

const (
	ReportTargetProblem ReportTargetType = "PROBLEM"
	ReportTargetComment ReportTargetType = "COMMENT"
	ReportTargetUser    ReportTargetType = "USER"
)

// Valid 是否为已知对象类型
func (t ReportTargetType) Valid() bool {
	switch t {
	case ReportTargetProblem, ReportTargetComment, ReportTargetUser:
		return true
	}
	return false
}

// Report 举报
type Report struct {
	ID           uint             `json:"id" db:"id"`
	ReporterID   uint             `json:"reporter_id" db:"reporter_id"`
	TargetType   ReportTargetType `json:"target_type" db:"target_type"`
	TargetID     uint             `json:"target_id" db:"target_id"`
	Reason       string           `json:"reason" db:"reason"`
	Status       ReportStatus     `json:"status" db:"status"`
	HandlerID    *uint            `json:"handler_id" db:"handler_id"`
	HandledAt    *time.Time       `json:"handled_at" db:"handled_at"`
	HandlingNote *string          `json:"handling_note" db:"handling_note"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}

// ReportHandling 举报处理结果，作为一个整体写入
type ReportHandling struct {
	Status    ReportStatus
	HandlerID uint
	HandledAt time.Time
	Note      *string
}

// ReportQuery 举报列表查询
type ReportQuery struct {
	TargetType *ReportTargetType `form:"target_type"`
	Status     *ReportStatus     `form:"status"`
	Page       int               `form:"page"`
	PageSize   int               `form:"page_size"`
}

// CreateReportRequest 创建举报请求
type CreateReportRequest struct {
	TargetType ReportTargetType `json:"target_type" binding:"required"`
	TargetID   uint             `json:"target_id" binding:"required"`
	Reason     string           `json:"reason" binding:"required"`
}

// HandleReportRequest 处理举报请求
type HandleReportRequest struct {
	Status ReportStatus `json:"status" binding:"required"`
	Note   *string      `json:"note"`
}

// ModerationEvent 推送给审核员的事件
type ModerationEvent struct {
	Type string  `json:"type"`
	Data *Report `json:"data"`
}

// 审核事件类型
const (
	EventReportCreated = "report.created"
	EventReportHandled = "report.handled"
)
