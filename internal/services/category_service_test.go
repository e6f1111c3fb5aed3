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

func createCategory(t *testing.T, f *fixture, subject, name string, parentID *uint, sortOrder int) *models.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), models.CreateCategoryRequest{
		Subject:   subject,
		ParentID:  parentID,
		Name:      name,
		SortOrder: sortOrder,
	})
	require.NoError(t, err)
	return c
}

func TestCategoryService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := createCategory(t, f, "math", "Algebra Basics", nil, 0)
	assert.True(t, root.Enabled)
	assert.Equal(t, "algebra-basics", root.Slug)
	assert.Nil(t, root.ParentID)

	child := createCategory(t, f, "math", "Linear", &root.ID, 0)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, root.ID, *child.ParentID)

	_, err := f.categories.Create(ctx, models.CreateCategoryRequest{Subject: "physics", ParentID: &root.ID, Name: "Optics"})
	assert.ErrorIs(t, err, utils.ErrNotFound, "parent in another subject")

	_, err = f.categories.Create(ctx, models.CreateCategoryRequest{Subject: "math", ParentID: uintp(999), Name: "Ghost"})
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = f.categories.Create(ctx, models.CreateCategoryRequest{Subject: "math", Name: "  "})
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestCategoryService_Update_CycleRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := createCategory(t, f, "math", "A", nil, 0)
	b := createCategory(t, f, "math", "B", &a.ID, 0)
	c := createCategory(t, f, "math", "C", &b.ID, 0)

	// B 的父分类本来就是 A，重复设置不算变化
	updated, err := f.categories.Update(ctx, b.ID, models.UpdateCategoryRequest{ParentID: &a.ID})
	require.NoError(t, err)
	assert.Equal(t, a.ID, *updated.ParentID)

	_, err = f.categories.Update(ctx, a.ID, models.UpdateCategoryRequest{ParentID: &b.ID})
	assert.ErrorIs(t, err, utils.ErrConflict)

	_, err = f.categories.Update(ctx, a.ID, models.UpdateCategoryRequest{ParentID: &c.ID})
	assert.ErrorIs(t, err, utils.ErrConflict, "grandchild as parent")

	_, err = f.categories.Update(ctx, a.ID, models.UpdateCategoryRequest{ParentID: &a.ID})
	assert.ErrorIs(t, err, utils.ErrConflict, "self as parent")

	unchanged, err := f.categories.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, unchanged.ParentID)
}

func TestCategoryService_Update_MoveAndClearParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := createCategory(t, f, "math", "A", nil, 0)
	b := createCategory(t, f, "math", "B", nil, 0)
	c := createCategory(t, f, "math", "C", &a.ID, 0)

	moved, err := f.categories.Update(ctx, c.ID, models.UpdateCategoryRequest{ParentID: &b.ID, Name: strp("C2")})
	require.NoError(t, err)
	assert.Equal(t, b.ID, *moved.ParentID)
	assert.Equal(t, "C2", moved.Name)
	assert.Equal(t, "c2", moved.Slug)

	cleared, err := f.categories.Update(ctx, c.ID, models.UpdateCategoryRequest{ClearParent: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.ParentID)

	other := createCategory(t, f, "physics", "Optics", nil, 0)
	_, err = f.categories.Update(ctx, c.ID, models.UpdateCategoryRequest{ParentID: &other.ID})
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = f.categories.Update(ctx, 999, models.UpdateCategoryRequest{Name: strp("x")})
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestCategoryService_List_Deterministic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	second := createCategory(t, f, "math", "second", nil, 2)
	firstA := createCategory(t, f, "math", "first-a", nil, 1)
	firstB := createCategory(t, f, "math", "first-b", nil, 1)
	createCategory(t, f, "physics", "elsewhere", nil, 0)

	for i := 0; i < 3; i++ {
		list, err := f.categories.List(ctx, "math")
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []uint{firstA.ID, firstB.ID, second.ID},
			[]uint{list[0].ID, list[1].ID, list[2].ID})
	}
}

func TestCategoryService_SetEnabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := createCategory(t, f, "math", "A", nil, 0)
	disabled, err := f.categories.SetEnabled(ctx, c.ID, false)
	require.NoError(t, err)
	assert.False(t, disabled.Enabled)

	list, err := f.categories.List(ctx, "math")
	require.NoError(t, err)
	require.Len(t, list, 1, "disabled categories are kept")
	assert.False(t, list[0].Enabled)

	_, err = f.categories.SetEnabled(ctx, 42, true)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

// disablingCategoryRepo 在写回分类之前先让另一个请求禁用它
type disablingCategoryRepo struct {
	*memstore.Store
	other *CategoryService
}

func (r *disablingCategoryRepo) UpdateCategory(ctx context.Context, c *models.Category) (*models.Category, error) {
	if _, err := r.other.SetEnabled(ctx, c.ID, false); err != nil {
		return nil, err
	}
	return r.Store.UpdateCategory(ctx, c)
}

func TestCategoryService_Update_KeepsConcurrentDisable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := createCategory(t, f, "math", "A", nil, 0)

	svc := NewCategoryService(&disablingCategoryRepo{Store: f.store, other: f.categories})
	updated, err := svc.Update(ctx, c.ID, models.UpdateCategoryRequest{Name: strp("B")})
	require.NoError(t, err)
	assert.Equal(t, "B", updated.Name)
	assert.False(t, updated.Enabled)
}

func TestCategoryService_Tree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := createCategory(t, f, "math", "A", nil, 0)
	b := createCategory(t, f, "math", "B", nil, 1)
	a1 := createCategory(t, f, "math", "A1", &a.ID, 0)
	createCategory(t, f, "math", "A1x", &a1.ID, 0)

	tree, err := f.categories.Tree(ctx, "math")
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, a.ID, tree[0].ID)
	assert.Equal(t, b.ID, tree[1].ID)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, a1.ID, tree[0].Children[0].ID)
	require.Len(t, tree[0].Children[0].Children, 1)
	assert.Empty(t, tree[1].Children)
}

func TestProblemTypeService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	choice, err := f.types.Create(ctx, models.CreateProblemTypeRequest{Subject: "math", Name: "Choice", SortOrder: 2})
	require.NoError(t, err)
	blank, err := f.types.Create(ctx, models.CreateProblemTypeRequest{Subject: "math", Name: "Blank", SortOrder: 1})
	require.NoError(t, err)

	list, err := f.types.List(ctx, "math")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, blank.ID, list[0].ID)
	assert.Equal(t, choice.ID, list[1].ID)

	updated, err := f.types.Update(ctx, choice.ID, models.UpdateProblemTypeRequest{SortOrder: intp(0), Description: strp("single choice")})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.SortOrder)
	assert.Equal(t, "single choice", updated.Description)

	disabled, err := f.types.SetEnabled(ctx, blank.ID, false)
	require.NoError(t, err)
	assert.False(t, disabled.Enabled)

	_, err = f.types.Get(ctx, 999)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = f.types.Create(ctx, models.CreateProblemTypeRequest{Subject: "", Name: "x"})
	assert.ErrorIs(t, err, utils.ErrValidation)
}
