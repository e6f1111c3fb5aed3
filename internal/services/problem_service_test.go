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

// interleavingProblemRepo 在写入之前先执行一次 before，模拟另一个请求抢先提交
type interleavingProblemRepo struct {
	*memstore.Store
	before func()
}

func (r *interleavingProblemRepo) runBefore() {
	if fn := r.before; fn != nil {
		r.before = nil
		fn()
	}
}

func (r *interleavingProblemRepo) UpdateProblem(ctx context.Context, p *models.Problem) (*models.Problem, error) {
	r.runBefore()
	return r.Store.UpdateProblem(ctx, p)
}

func (r *interleavingProblemRepo) UpdateProblemStatus(ctx context.Context, id uint, change models.ProblemStatusChange) (bool, error) {
	r.runBefore()
	return r.Store.UpdateProblemStatus(ctx, id, change)
}

func TestProblemService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing, err := f.tags.CreateOrGet(ctx, "math", "Graph")
	require.NoError(t, err)
	category := createCategory(t, f, "math", "Combinatorics", nil, 0)

	p, err := f.problems.Create(ctx, 7, models.CreateProblemRequest{
		Title:      "  Count the paths  ",
		Subject:    "Math",
		Content:    "# Paths",
		Difficulty: 3,
		CategoryID: &category.ID,
		TagIDs:     []uint{existing.ID},
		TagNames:   []string{"DP", "Graph"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Count the paths", p.Title)
	assert.Equal(t, "math", p.Subject)
	assert.Equal(t, models.ProblemStatusDraft, p.Status)
	assert.Equal(t, models.VisibilityPublic, p.Visibility)
	assert.Nil(t, p.PublishedAt)
	assert.Equal(t, uint(7), p.AuthorID)
	require.Len(t, p.TagIDs, 2)
	assert.Equal(t, existing.ID, p.TagIDs[0])
	assert.Less(t, p.TagIDs[0], p.TagIDs[1])
}

func TestProblemService_Create_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	otherCategory := createCategory(t, f, "physics", "Optics", nil, 0)
	otherTag, err := f.tags.CreateOrGet(ctx, "physics", "Light")
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     models.CreateProblemRequest
		wantErr error
	}{
		{"empty title", models.CreateProblemRequest{Title: " ", Subject: "math", Difficulty: 1}, utils.ErrValidation},
		{"difficulty too low", models.CreateProblemRequest{Title: "t", Subject: "math", Difficulty: 0}, utils.ErrValidation},
		{"difficulty too high", models.CreateProblemRequest{Title: "t", Subject: "math", Difficulty: 6}, utils.ErrValidation},
		{"bad visibility", models.CreateProblemRequest{Title: "t", Subject: "math", Difficulty: 1, Visibility: "SECRET"}, utils.ErrValidation},
		{"bad subject", models.CreateProblemRequest{Title: "t", Subject: "", Difficulty: 1}, utils.ErrValidation},
		{"category of other subject", models.CreateProblemRequest{Title: "t", Subject: "math", Difficulty: 1, CategoryID: &otherCategory.ID}, utils.ErrNotFound},
		{"missing type", models.CreateProblemRequest{Title: "t", Subject: "math", Difficulty: 1, TypeID: uintp(999)}, utils.ErrNotFound},
		{"tag of other subject", models.CreateProblemRequest{Title: "t", Subject: "math", Difficulty: 1, TagIDs: []uint{otherTag.ID}}, utils.ErrNotFound},
		{"blank tag name", models.CreateProblemRequest{Title: "t", Subject: "math", Difficulty: 1, TagNames: []string{" "}}, utils.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.problems.Create(ctx, 1, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProblemService_ChangeStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    []models.ProblemStatus
		target  models.ProblemStatus
		wantErr error
	}{
		{"draft to published", nil, models.ProblemStatusPublished, nil},
		{"published to archived", []models.ProblemStatus{models.ProblemStatusPublished}, models.ProblemStatusArchived, nil},
		{"draft to archived", nil, models.ProblemStatusArchived, utils.ErrConflict},
		{"draft to draft", nil, models.ProblemStatusDraft, utils.ErrConflict},
		{"published to draft", []models.ProblemStatus{models.ProblemStatusPublished}, models.ProblemStatusDraft, utils.ErrConflict},
		{"published to published", []models.ProblemStatus{models.ProblemStatusPublished}, models.ProblemStatusPublished, utils.ErrConflict},
		{"archived to published", []models.ProblemStatus{models.ProblemStatusPublished, models.ProblemStatusArchived}, models.ProblemStatusPublished, utils.ErrConflict},
		{"unknown target", nil, "DELETED", utils.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			p := f.newProblem(t, "math", "p", 2)
			for _, s := range tt.from {
				_, err := f.problems.ChangeStatus(ctx, p.ID, s)
				require.NoError(t, err)
			}

			got, err := f.problems.ChangeStatus(ctx, p.ID, tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.target, got.Status)
			assert.NotNil(t, got.PublishedAt)
		})
	}
}

func TestProblemService_Publish_SetsPublishedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.newProblem(t, "math", "p", 2)

	published, err := f.problems.Publish(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
	publishedAt := *published.PublishedAt

	archived, err := f.problems.Archive(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProblemStatusArchived, archived.Status)
	assert.True(t, publishedAt.Equal(*archived.PublishedAt), "archive keeps publishedAt")

	_, err = f.problems.Publish(ctx, 12345)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestProblemService_AttachTags_ReplacesSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.newProblem(t, "math", "p", 2, "old")

	updated, err := f.problems.AttachTags(ctx, p.ID, "math", []string{"new", " new ", "other"})
	require.NoError(t, err)
	require.Len(t, updated.TagIDs, 2)

	detail, err := f.problems.GetDetail(ctx, p.ID, models.Viewer{Privileged: true})
	require.NoError(t, err)
	names := []string{detail.Tags[0].Name, detail.Tags[1].Name}
	assert.ElementsMatch(t, []string{"new", "other"}, names)

	cleared, err := f.problems.AttachTags(ctx, p.ID, "math", nil)
	require.NoError(t, err)
	assert.Empty(t, cleared.TagIDs)

	_, err = f.problems.AttachTags(ctx, p.ID, "physics", []string{"x"})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = f.problems.AttachTags(ctx, 999, "math", []string{"x"})
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestProblemService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.newProblem(t, "math", "p", 2)

	vis := models.VisibilityUnlisted
	updated, err := f.problems.Update(ctx, p.ID, models.UpdateProblemRequest{
		Title:      strp("renamed"),
		Difficulty: intp(5),
		Visibility: &vis,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, 5, updated.Difficulty)
	assert.Equal(t, models.VisibilityUnlisted, updated.Visibility)
	assert.Equal(t, models.ProblemStatusDraft, updated.Status)

	_, err = f.problems.Update(ctx, p.ID, models.UpdateProblemRequest{Difficulty: intp(9)})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = f.problems.Update(ctx, 999, models.UpdateProblemRequest{Title: strp("x")})
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestProblemService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p1 := f.newProblem(t, "math", "Binary Search", 2, "search")
	p2 := f.newProblem(t, "math", "binary tree paths", 4, "tree")
	p3 := f.newProblem(t, "math", "Knapsack", 3, "dp")
	f.newProblem(t, "physics", "Binary stars", 1)

	search, err := f.tags.CreateOrGet(ctx, "math", "search")
	require.NoError(t, err)
	tree, err := f.tags.CreateOrGet(ctx, "math", "tree")
	require.NoError(t, err)

	_, err = f.problems.Publish(ctx, p3.ID)
	require.NoError(t, err)
	_, err = f.problems.Publish(ctx, p1.ID)
	require.NoError(t, err)

	ids := func(page models.Page[models.Problem]) []uint {
		out := make([]uint, 0, len(page.Items))
		for _, p := range page.Items {
			out = append(out, p.ID)
		}
		return out
	}
	base := models.ProblemQuery{Subject: "math", Page: 1, PageSize: 10}

	latest, err := f.problems.List(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, []uint{p3.ID, p2.ID, p1.ID}, ids(latest))
	assert.Equal(t, 3, latest.Total)

	q := base
	q.Sort = models.SortDifficulty
	byDifficulty, err := f.problems.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []uint{p1.ID, p3.ID, p2.ID}, ids(byDifficulty))

	q = base
	q.Sort = models.SortPublishedAt
	byPublished, err := f.problems.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []uint{p1.ID, p3.ID, p2.ID}, ids(byPublished), "unpublished last")

	q = base
	q.Keyword = "BINARY"
	keyword, err := f.problems.List(ctx, q)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{p1.ID, p2.ID}, ids(keyword))

	q = base
	q.TagIDs = []uint{search.ID, tree.ID}
	anyTag, err := f.problems.List(ctx, q)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{p1.ID, p2.ID}, ids(anyTag))

	q = base
	q.MinDifficulty = intp(3)
	q.MaxDifficulty = intp(4)
	ranged, err := f.problems.List(ctx, q)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{p2.ID, p3.ID}, ids(ranged), "range is inclusive")

	q = base
	q.PageSize = 2
	q.Page = 2
	paged, err := f.problems.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []uint{p1.ID}, ids(paged))
	assert.Equal(t, 3, paged.Total)
}

func TestProblemService_List_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query models.ProblemQuery
	}{
		{"unknown sort", models.ProblemQuery{Subject: "math", Sort: "HOT", Page: 1, PageSize: 10}},
		{"page zero", models.ProblemQuery{Subject: "math", Page: 0, PageSize: 10}},
		{"page size zero", models.ProblemQuery{Subject: "math", Page: 1, PageSize: 0}},
		{"page size too large", models.ProblemQuery{Subject: "math", Page: 1, PageSize: DefaultMaxPageSize + 1}},
		{"min above max", models.ProblemQuery{Subject: "math", Page: 1, PageSize: 10, MinDifficulty: intp(4), MaxDifficulty: intp(2)}},
		{"missing subject", models.ProblemQuery{Page: 1, PageSize: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.problems.List(ctx, tt.query)
			assert.ErrorIs(t, err, utils.ErrValidation)
		})
	}
}

func TestProblemService_GetDetail_RendersMarkdown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.problems.Create(ctx, 1, models.CreateProblemRequest{
		Title:      "md",
		Subject:    "math",
		Content:    "**bold**<script>alert(1)</script>",
		Difficulty: 1,
	})
	require.NoError(t, err)

	detail, err := f.problems.GetDetail(ctx, p.ID, models.Viewer{Privileged: true})
	require.NoError(t, err)
	assert.Contains(t, detail.ContentHTML, "<strong>bold</strong>")
	assert.NotContains(t, detail.ContentHTML, "<script>")
	assert.Empty(t, detail.Tags)
}

func TestProblemService_Update_KeepsConcurrentArchive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.publishedProblem(t, "math", "p")

	repo := &interleavingProblemRepo{Store: f.store}
	svc := NewProblemService(repo, f.store, f.store, f.tags, DefaultMaxPageSize)
	repo.before = func() {
		_, err := f.problems.Archive(ctx, p.ID)
		require.NoError(t, err)
	}

	updated, err := svc.Update(ctx, p.ID, models.UpdateProblemRequest{Title: strp("renamed")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, models.ProblemStatusArchived, updated.Status)

	stored, err := f.problems.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProblemStatusArchived, stored.Status)
	assert.NotNil(t, stored.PublishedAt)
}

func TestProblemService_ChangeStatus_LostRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.newProblem(t, "math", "p", 2)

	repo := &interleavingProblemRepo{Store: f.store}
	svc := NewProblemService(repo, f.store, f.store, f.tags, DefaultMaxPageSize)
	svc.now = f.clock.Now
	repo.before = func() {
		_, err := f.problems.Publish(ctx, p.ID)
		require.NoError(t, err)
		_, err = f.problems.Archive(ctx, p.ID)
		require.NoError(t, err)
	}

	_, err := svc.Publish(ctx, p.ID)
	assert.ErrorIs(t, err, utils.ErrConflict)

	stored, err := f.problems.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProblemStatusArchived, stored.Status, "archived problems are never republished")
}

func TestProblemService_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const author, stranger = uint(1), uint(2)
	private := f.newProblem(t, "math", "private draft", 1)
	_, err := f.problems.Update(ctx, private.ID, models.UpdateProblemRequest{Visibility: visibilityp(models.VisibilityPrivate)})
	require.NoError(t, err)

	unlisted := f.publishedProblem(t, "math", "unlisted")
	_, err = f.problems.Update(ctx, unlisted.ID, models.UpdateProblemRequest{Visibility: visibilityp(models.VisibilityUnlisted)})
	require.NoError(t, err)

	public := f.publishedProblem(t, "math", "public")
	draft := f.newProblem(t, "math", "public draft", 1)

	tests := []struct {
		name    string
		id      uint
		viewer  models.Viewer
		visible bool
	}{
		{"anonymous private draft", private.ID, models.Viewer{}, false},
		{"stranger private draft", private.ID, models.Viewer{UserID: stranger}, false},
		{"author private draft", private.ID, models.Viewer{UserID: author}, true},
		{"moderator private draft", private.ID, models.Viewer{UserID: stranger, Privileged: true}, true},
		{"anonymous public draft", draft.ID, models.Viewer{}, false},
		{"anonymous unlisted", unlisted.ID, models.Viewer{}, true},
		{"anonymous public", public.ID, models.Viewer{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail, err := f.problems.GetDetail(ctx, tt.id, tt.viewer)
			if tt.visible {
				require.NoError(t, err)
				assert.Equal(t, tt.id, detail.ID)
				return
			}
			assert.ErrorIs(t, err, utils.ErrNotFound)
		})
	}

	listIDs := func(viewer *models.Viewer) []uint {
		page, err := f.problems.List(ctx, models.ProblemQuery{Subject: "math", Page: 1, PageSize: 10, Viewer: viewer})
		require.NoError(t, err)
		ids := []uint{}
		for _, p := range page.Items {
			ids = append(ids, p.ID)
		}
		return ids
	}
	assert.Equal(t, []uint{public.ID}, listIDs(&models.Viewer{}), "lists skip unlisted, private and drafts")
	assert.ElementsMatch(t, []uint{private.ID, unlisted.ID, public.ID, draft.ID}, listIDs(&models.Viewer{UserID: author}))
	assert.ElementsMatch(t, []uint{private.ID, unlisted.ID, public.ID, draft.ID},
		listIDs(&models.Viewer{UserID: stranger, Privileged: true}))
	assert.Equal(t, []uint{public.ID}, listIDs(&models.Viewer{UserID: stranger}))
}

func visibilityp(v models.Visibility) *models.Visibility { return &v }
