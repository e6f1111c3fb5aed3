package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"forum/internal/models"
	"forum/internal/utils"
)

// 每日一题限制
const (
	MaxCopywritingLength = 500
	MaxDailyRangeDays    = 62
)

// DailyProblemService 每日一题服务
type DailyProblemService struct {
	dailyRepo DailyProblemRepositoryInterface
	problems  *ProblemService
	logger    utils.Logger
	now       func() time.Time
}

// NewDailyProblemService 创建每日一题服务
func NewDailyProblemService(dailyRepo DailyProblemRepositoryInterface, problems *ProblemService) *DailyProblemService {
	return &DailyProblemService{
		dailyRepo: dailyRepo,
		problems:  problems,
		logger:    utils.GetLogger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Publish 设置某天的每日一题，已存在则覆盖
func (s *DailyProblemService) Publish(ctx context.Context, operatorID uint, req models.PublishDailyProblemRequest) (*models.DailyProblem, error) {
	day, _, err := models.ParseDay(strings.TrimSpace(req.Day))
	if err != nil {
		return nil, utils.NewValidationError("日期格式错误，应为 YYYY-MM-DD")
	}
	copywriting := strings.TrimSpace(req.Copywriting)
	if !utils.RuneLengthBetween(copywriting, 0, MaxCopywritingLength) {
		return nil, utils.NewValidationError("文案不能超过%d个字符", MaxCopywritingLength)
	}

	problem, err := s.problems.Get(ctx, req.ProblemID)
	if err != nil {
		return nil, err
	}
	if problem.Status == models.ProblemStatusDraft {
		return nil, utils.NewConflictError("草稿题目不能设为每日一题")
	}

	now := s.now()
	dp := &models.DailyProblem{
		Day:         day,
		ProblemID:   problem.ID,
		Copywriting: copywriting,
		OperatorID:  operatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	existing, err := s.dailyRepo.FindDailyProblem(ctx, day)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		err = s.dailyRepo.CreateDailyProblem(ctx, dp)
		if err == nil {
			s.logger.Info("每日一题已发布", "day", day, "problemID", dp.ProblemID, "operatorID", operatorID)
			return s.GetByDay(ctx, day)
		}
		if !errors.Is(err, utils.ErrDuplicateEntry) {
			return nil, err
		}
		// 并发发布同一天，改为覆盖
		s.logger.Debug("每日一题已被并发创建，改为更新", "day", day)
	}

	updated, err := s.dailyRepo.UpdateDailyProblem(ctx, dp)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, utils.NewNotFoundError("每日一题不存在: %s", day)
	}
	s.logger.Info("每日一题已覆盖", "day", day, "problemID", dp.ProblemID, "operatorID", operatorID)
	return updated, nil
}

// GetByDay 查询某天的每日一题
func (s *DailyProblemService) GetByDay(ctx context.Context, rawDay string) (*models.DailyProblem, error) {
	day, _, err := models.ParseDay(strings.TrimSpace(rawDay))
	if err != nil {
		return nil, utils.NewValidationError("日期格式错误，应为 YYYY-MM-DD")
	}
	dp, err := s.dailyRepo.FindDailyProblem(ctx, day)
	if err != nil {
		return nil, err
	}
	if dp == nil {
		return nil, utils.NewNotFoundError("%s 没有每日一题", day)
	}
	return dp, nil
}

// Today 查询今天（UTC）的每日一题
func (s *DailyProblemService) Today(ctx context.Context) (*models.DailyProblem, error) {
	return s.GetByDay(ctx, models.DayOf(s.now()))
}

// ListRange 查询 [from, to] 内的每日一题
func (s *DailyProblemService) ListRange(ctx context.Context, rawFrom, rawTo string) ([]models.DailyProblem, error) {
	from, fromTime, err := models.ParseDay(strings.TrimSpace(rawFrom))
	if err != nil {
		return nil, utils.NewValidationError("开始日期格式错误，应为 YYYY-MM-DD")
	}
	to, toTime, err := models.ParseDay(strings.TrimSpace(rawTo))
	if err != nil {
		return nil, utils.NewValidationError("结束日期格式错误，应为 YYYY-MM-DD")
	}
	if toTime.Before(fromTime) {
		return nil, utils.NewValidationError("开始日期不能晚于结束日期")
	}
	if toTime.Sub(fromTime) > time.Duration(MaxDailyRangeDays-1)*24*time.Hour {
		return nil, utils.NewValidationError("查询区间不能超过%d天", MaxDailyRangeDays)
	}
	return s.dailyRepo.ListDailyProblems(ctx, from, to)
}
