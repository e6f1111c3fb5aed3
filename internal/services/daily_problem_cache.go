package services

import (
	"context"
	"encoding/json"
	"time"

	"forum/internal/models"
	"forum/internal/utils"
)

// CachedDailyProblemRepository 每日一题读缓存
//
// 只缓存按天查询的结果；写操作先落库再删除对应的缓存键。
// 缓存不可用时直接回源，不影响业务。
type CachedDailyProblemRepository struct {
	next   DailyProblemRepositoryInterface
	cache  CacheStore
	ttl    time.Duration
	prefix string
	logger utils.Logger
}

// NewCachedDailyProblemRepository 包装每日一题存储
func NewCachedDailyProblemRepository(next DailyProblemRepositoryInterface, cache CacheStore, ttl time.Duration, prefix string) *CachedDailyProblemRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedDailyProblemRepository{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		prefix: prefix,
		logger: utils.GetLogger(),
	}
}

func (r *CachedDailyProblemRepository) key(day string) string {
	return r.prefix + "daily_problem:" + day
}

// CreateDailyProblem 写入后清除缓存
func (r *CachedDailyProblemRepository) CreateDailyProblem(ctx context.Context, dp *models.DailyProblem) error {
	if err := r.next.CreateDailyProblem(ctx, dp); err != nil {
		return err
	}
	r.invalidate(ctx, dp.Day)
	return nil
}

// UpdateDailyProblem 更新后清除缓存
func (r *CachedDailyProblemRepository) UpdateDailyProblem(ctx context.Context, dp *models.DailyProblem) (*models.DailyProblem, error) {
	updated, err := r.next.UpdateDailyProblem(ctx, dp)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, dp.Day)
	return updated, nil
}

// FindDailyProblem 先查缓存，未命中时回源并回填
func (r *CachedDailyProblemRepository) FindDailyProblem(ctx context.Context, day string) (*models.DailyProblem, error) {
	key := r.key(day)
	if raw, ok, err := r.cache.Get(ctx, key); err != nil {
		r.logger.Warn("读取每日一题缓存失败", "day", day, "error", err.Error())
	} else if ok {
		var dp models.DailyProblem
		if err := json.Unmarshal([]byte(raw), &dp); err == nil {
			return &dp, nil
		}
		r.invalidate(ctx, day)
	}

	dp, err := r.next.FindDailyProblem(ctx, day)
	if err != nil || dp == nil {
		return dp, err
	}

	if data, err := json.Marshal(dp); err == nil {
		if err := r.cache.Set(ctx, key, string(data), r.ttl); err != nil {
			r.logger.Warn("写入每日一题缓存失败", "day", day, "error", err.Error())
		}
	}
	return dp, nil
}

// ListDailyProblems 区间查询不走缓存
func (r *CachedDailyProblemRepository) ListDailyProblems(ctx context.Context, from, to string) ([]models.DailyProblem, error) {
	return r.next.ListDailyProblems(ctx, from, to)
}

func (r *CachedDailyProblemRepository) invalidate(ctx context.Context, day string) {
	if err := r.cache.Delete(ctx, r.key(day)); err != nil {
		r.logger.Warn("清除每日一题缓存失败", "day", day, "error", err.Error())
	}
}
