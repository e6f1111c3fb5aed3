package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"forum/internal/models"
	"forum/internal/services/memstore"
	"forum/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingDailyRepo 统计回源次数
type countingDailyRepo struct {
	*memstore.Store
	finds int
}

func (r *countingDailyRepo) FindDailyProblem(ctx context.Context, day string) (*models.DailyProblem, error) {
	r.finds++
	return r.Store.FindDailyProblem(ctx, day)
}

// brokenCache 模拟缓存服务不可用
type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}

func (brokenCache) Set(context.Context, string, string, time.Duration) error {
	return errors.New("connection refused")
}

func (brokenCache) Delete(context.Context, ...string) error {
	return errors.New("connection refused")
}

func newMemoryCacheStore(t *testing.T) *MemoryCacheStore {
	t.Helper()
	mc := utils.NewMemoryCache(time.Minute)
	t.Cleanup(mc.Stop)
	return NewMemoryCacheStore(mc)
}

func TestCachedDailyProblemRepository_ReadThrough(t *testing.T) {
	ctx := context.Background()
	origin := &countingDailyRepo{Store: memstore.New()}
	cache := newMemoryCacheStore(t)
	repo := NewCachedDailyProblemRepository(origin, cache, time.Minute, "test:")

	require.NoError(t, repo.CreateDailyProblem(ctx, &models.DailyProblem{Day: "2024-01-01", ProblemID: 5, OperatorID: 1}))

	for i := 0; i < 3; i++ {
		dp, err := repo.FindDailyProblem(ctx, "2024-01-01")
		require.NoError(t, err)
		require.NotNil(t, dp)
		assert.Equal(t, uint(5), dp.ProblemID)
	}
	assert.Equal(t, 1, origin.finds)

	raw, ok, err := cache.Get(ctx, "test:daily_problem:2024-01-01")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, raw, `"problem_id":5`)

	// 未命中不缓存空结果
	missing, err := repo.FindDailyProblem(ctx, "2024-01-02")
	require.NoError(t, err)
	assert.Nil(t, missing)
	_, ok, _ = cache.Get(ctx, "test:daily_problem:2024-01-02")
	assert.False(t, ok)
}

func TestCachedDailyProblemRepository_UpdateInvalidates(t *testing.T) {
	ctx := context.Background()
	origin := &countingDailyRepo{Store: memstore.New()}
	repo := NewCachedDailyProblemRepository(origin, newMemoryCacheStore(t), time.Minute, "")

	dp := &models.DailyProblem{Day: "2024-01-01", ProblemID: 5, OperatorID: 1}
	require.NoError(t, repo.CreateDailyProblem(ctx, dp))
	_, err := repo.FindDailyProblem(ctx, "2024-01-01")
	require.NoError(t, err)

	dp.ProblemID = 7
	_, err = repo.UpdateDailyProblem(ctx, dp)
	require.NoError(t, err)

	got, err := repo.FindDailyProblem(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, uint(7), got.ProblemID)
	assert.Equal(t, 2, origin.finds)
}

func TestCachedDailyProblemRepository_CacheFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	origin := &countingDailyRepo{Store: memstore.New()}
	repo := NewCachedDailyProblemRepository(origin, brokenCache{}, time.Minute, "")

	require.NoError(t, repo.CreateDailyProblem(ctx, &models.DailyProblem{Day: "2024-01-01", ProblemID: 5}))
	dp, err := repo.FindDailyProblem(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, uint(5), dp.ProblemID)
}

func TestDailyProblemService_WithCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cached := NewCachedDailyProblemRepository(f.store, newMemoryCacheStore(t), time.Minute, "")
	svc := NewDailyProblemService(cached, f.problems)

	p5 := f.publishedProblem(t, "math", "five")
	p7 := f.publishedProblem(t, "math", "seven")

	_, err := svc.Publish(ctx, 1, models.PublishDailyProblemRequest{Day: "2024-01-01", ProblemID: p5.ID})
	require.NoError(t, err)
	first, err := svc.GetByDay(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, p5.ID, first.ProblemID)

	_, err = svc.Publish(ctx, 1, models.PublishDailyProblemRequest{Day: "2024-01-01", ProblemID: p7.ID})
	require.NoError(t, err)
	second, err := svc.GetByDay(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, p7.ID, second.ProblemID)
}
