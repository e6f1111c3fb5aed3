package models

import (
	"time"
)

// DayLayout 日期格式
const DayLayout = "2006-01-02"

// DailyProblem 每日一题，每天只有一条
type DailyProblem struct {
	Day         string    `json:"day" db:"day"`
	ProblemID   uint      `json:"problem_id" db:"problem_id"`
	Copywriting string    `json:"copywriting" db:"copywriting"`
	OperatorID  uint      `json:"operator_id" db:"operator_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// PublishDailyProblemRequest 发布每日一题请求
type PublishDailyProblemRequest struct {
	Day         string `json:"day" binding:"required"`
	ProblemID   uint   `json:"problem_id" binding:"required"`
	Copywriting string `json:"copywriting" binding:"max=500"`
}

// ParseDay 解析 YYYY-MM-DD，返回规范化后的日期字符串
func ParseDay(s string) (string, time.Time, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return "", time.Time{}, err
	}
	return t.Format(DayLayout), t, nil
}

// DayOf 返回时间所在的日期（UTC）
func DayOf(t time.Time) string {
	return t.UTC().Format(DayLayout)
}
