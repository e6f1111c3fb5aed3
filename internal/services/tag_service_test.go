package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"forum/internal/models"
	"forum/internal/services/memstore"
	"forum/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// racingTagRepo 第一次查询时模拟另一个请求抢先插入同名标签
type racingTagRepo struct {
	*memstore.Store
	raced bool
}

func (r *racingTagRepo) FindTagByName(ctx context.Context, subject, name string) (*models.Tag, error) {
	if !r.raced {
		r.raced = true
		if err := r.Store.CreateTag(ctx, &models.Tag{Subject: subject, Name: name, Slug: "winner"}); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return r.Store.FindTagByName(ctx, subject, name)
}

func TestTagService_CreateOrGet_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.tags.CreateOrGet(ctx, "math", "Algebra")
	require.NoError(t, err)
	second, err := f.tags.CreateOrGet(ctx, "math", "  Algebra  ")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Algebra", second.Name)
	assert.Equal(t, "algebra", first.Slug)

	tags, err := f.tags.List(ctx, "math")
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestTagService_CreateOrGet_ExactName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ids := map[uint]string{}
	for _, name := range []string{"Cafe", "Café", "cafe", "CAFE"} {
		tag, err := f.tags.CreateOrGet(ctx, "math", name)
		require.NoError(t, err)
		assert.Equal(t, name, tag.Name)
		ids[tag.ID] = name
	}
	assert.Len(t, ids, 4, "case and accent variants are distinct tags")
}

func TestTagService_CreateOrGet_SubjectScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	math, err := f.tags.CreateOrGet(ctx, "Math", "Graph")
	require.NoError(t, err)
	physics, err := f.tags.CreateOrGet(ctx, "physics", "Graph")
	require.NoError(t, err)

	assert.NotEqual(t, math.ID, physics.ID)
	assert.Equal(t, "math", math.Subject)
}

func TestTagService_CreateOrGet_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		subject string
		tag     string
	}{
		{"empty name", "math", ""},
		{"blank name", "math", "   \t"},
		{"invalid subject", "数学", "Algebra"},
		{"name too long", "math", strings.Repeat("x", MaxTagNameLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tags.CreateOrGet(ctx, tt.subject, tt.tag)
			assert.ErrorIs(t, err, utils.ErrValidation)
		})
	}
}

func TestTagService_CreateOrGet_DuplicateKeyRetriesLookup(t *testing.T) {
	repo := &racingTagRepo{Store: memstore.New()}
	svc := NewTagService(repo)
	ctx := context.Background()

	tag, err := svc.CreateOrGet(ctx, "math", "Geometry")
	require.NoError(t, err)
	assert.Equal(t, "winner", tag.Slug)

	tags, err := repo.ListTags(ctx, "math")
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestTagService_CreateOrGet_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 16
	ids := make([]uint, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tag, err := f.tags.CreateOrGet(ctx, "math", "Probability")
			if assert.NoError(t, err) {
				ids[i] = tag.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestTagService_ResolveIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.tags.CreateOrGet(ctx, "math", "A")
	require.NoError(t, err)
	b, err := f.tags.CreateOrGet(ctx, "math", "B")
	require.NoError(t, err)
	other, err := f.tags.CreateOrGet(ctx, "physics", "C")
	require.NoError(t, err)

	tags, err := f.tags.ResolveIDs(ctx, "math", []uint{b.ID, a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, a.ID, tags[0].ID)
	assert.Equal(t, b.ID, tags[1].ID)

	_, err = f.tags.ResolveIDs(ctx, "math", []uint{a.ID, other.ID})
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = f.tags.ResolveIDs(ctx, "math", []uint{a.ID, 9999})
	assert.ErrorIs(t, err, utils.ErrNotFound)

	empty, err := f.tags.ResolveIDs(ctx, "math", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
