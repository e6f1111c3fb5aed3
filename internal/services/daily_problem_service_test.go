package services

import (
	"context"
	"testing"

	"forum/internal/models"
	"forum/internal/services/memstore"
	"forum/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// racingDailyRepo 查询时总是报告"不存在"，模拟并发发布同一天
type racingDailyRepo struct {
	*memstore.Store
}

func (r *racingDailyRepo) FindDailyProblem(ctx context.Context, day string) (*models.DailyProblem, error) {
	return nil, nil
}

func TestDailyProblemService_Publish_Upsert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p5 := f.publishedProblem(t, "math", "five")
	p7 := f.publishedProblem(t, "math", "seven")

	first, err := f.daily.Publish(ctx, 1, models.PublishDailyProblemRequest{Day: "2024-01-01", ProblemID: p5.ID, Copywriting: "hello"})
	require.NoError(t, err)
	assert.Equal(t, p5.ID, first.ProblemID)

	second, err := f.daily.Publish(ctx, 2, models.PublishDailyProblemRequest{Day: "2024-01-01", ProblemID: p7.ID})
	require.NoError(t, err)
	assert.Equal(t, p7.ID, second.ProblemID)
	assert.Equal(t, uint(2), second.OperatorID)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt), "overwrite keeps createdAt")

	assert.Equal(t, 1, f.store.DailyProblemCount())

	got, err := f.daily.GetByDay(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, p7.ID, got.ProblemID)
}

func TestDailyProblemService_Publish_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft := f.newProblem(t, "math", "draft", 1)
	published := f.publishedProblem(t, "math", "ok")

	tests := []struct {
		name    string
		req     models.PublishDailyProblemRequest
		wantErr error
	}{
		{"bad day", models.PublishDailyProblemRequest{Day: "2024/01/01", ProblemID: published.ID}, utils.ErrValidation},
		{"impossible day", models.PublishDailyProblemRequest{Day: "2024-02-30", ProblemID: published.ID}, utils.ErrValidation},
		{"missing problem", models.PublishDailyProblemRequest{Day: "2024-01-01", ProblemID: 999}, utils.ErrNotFound},
		{"draft problem", models.PublishDailyProblemRequest{Day: "2024-01-01", ProblemID: draft.ID}, utils.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.daily.Publish(ctx, 1, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, 0, f.store.DailyProblemCount())
}

func TestDailyProblemService_Publish_ArchivedAllowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.publishedProblem(t, "math", "old")
	_, err := f.problems.Archive(ctx, p.ID)
	require.NoError(t, err)

	dp, err := f.daily.Publish(ctx, 1, models.PublishDailyProblemRequest{Day: "2024-03-01", ProblemID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, p.ID, dp.ProblemID)
}

func TestDailyProblemService_Publish_DuplicateFallsBackToUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p5 := f.publishedProblem(t, "math", "five")
	p7 := f.publishedProblem(t, "math", "seven")

	_, err := f.daily.Publish(ctx, 1, models.PublishDailyProblemRequest{Day: "2024-01-01", ProblemID: p5.ID})
	require.NoError(t, err)

	racing := NewDailyProblemService(&racingDailyRepo{Store: f.store}, f.problems)
	dp, err := racing.Publish(ctx, 1, models.PublishDailyProblemRequest{Day: "2024-01-01", ProblemID: p7.ID})
	require.NoError(t, err)
	assert.Equal(t, p7.ID, dp.ProblemID)
	assert.Equal(t, 1, f.store.DailyProblemCount())
}

func TestDailyProblemService_GetByDayAndRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.publishedProblem(t, "math", "p")

	for _, day := range []string{"2024-01-03", "2024-01-01", "2024-02-01"} {
		_, err := f.daily.Publish(ctx, 1, models.PublishDailyProblemRequest{Day: day, ProblemID: p.ID})
		require.NoError(t, err)
	}

	_, err := f.daily.GetByDay(ctx, "2024-01-02")
	assert.ErrorIs(t, err, utils.ErrNotFound)

	list, err := f.daily.ListRange(ctx, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-01-01", list[0].Day)
	assert.Equal(t, "2024-01-03", list[1].Day)

	_, err = f.daily.ListRange(ctx, "2024-02-01", "2024-01-01")
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = f.daily.ListRange(ctx, "2024-01-01", "2024-06-01")
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestDailyProblemService_Today(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.publishedProblem(t, "math", "p")

	today := models.DayOf(f.clock.Now())
	_, err := f.daily.Publish(ctx, 1, models.PublishDailyProblemRequest{Day: today, ProblemID: p.ID})
	require.NoError(t, err)

	got, err := f.daily.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, today, got.Day)
}
