package services

import (
	"context"
	"testing"

	"forum/internal/models"
	"forum/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.Register(ctx, models.RegisterRequest{Username: "alice", Password: "secret123", Email: " Alice@Example.com "})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, []string{models.RoleUser}, user.RoleCodes())
	assert.NotEqual(t, "secret123", user.PasswordHash)

	tests := []struct {
		name    string
		req     models.RegisterRequest
		wantErr error
	}{
		{"duplicate username", models.RegisterRequest{Username: "alice", Password: "secret123", Email: "other@example.com"}, utils.ErrConflict},
		{"duplicate email", models.RegisterRequest{Username: "alice2", Password: "secret123", Email: "alice@example.com"}, utils.ErrConflict},
		{"short username", models.RegisterRequest{Username: "al", Password: "secret123", Email: "al@example.com"}, utils.ErrValidation},
		{"username starts with digit", models.RegisterRequest{Username: "1alice", Password: "secret123", Email: "x@example.com"}, utils.ErrValidation},
		{"bad email", models.RegisterRequest{Username: "bob", Password: "secret123", Email: "bob"}, utils.ErrValidation},
		{"weak password", models.RegisterRequest{Username: "bob", Password: "secret", Email: "bob@example.com"}, utils.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Register(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUserService_AssignRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.newUser(t, "carol")

	updated, err := f.users.AssignRoles(ctx, user.ID, []string{"moderator", "USER", "user"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{models.RoleModerator, models.RoleUser}, updated.RoleCodes())

	_, err = f.users.AssignRoles(ctx, user.ID, []string{models.RoleUser, "GHOST"})
	assert.ErrorIs(t, err, utils.ErrNotFound)

	unchanged, err := f.users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{models.RoleModerator, models.RoleUser}, unchanged.RoleCodes())

	cleared, err := f.users.AssignRoles(ctx, user.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, cleared.RoleCodes())

	_, err = f.users.AssignRoles(ctx, 999, []string{models.RoleUser})
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestUserService_IsModerator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plain := f.newUser(t, "plain")
	moderator := f.newUser(t, "moder", models.RoleModerator)
	admin := f.newUser(t, "boss", models.RoleAdmin)

	tests := []struct {
		name   string
		userID uint
		want   bool
	}{
		{"plain user", plain.ID, false},
		{"moderator", moderator.ID, true},
		{"admin", admin.ID, true},
		{"unknown user", 999, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.users.IsModerator(ctx, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	ok, err := f.users.HasAnyRole(ctx, moderator.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserService_EnsureDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	existing := f.newUser(t, "dave")

	require.NoError(t, f.users.EnsureDefaults(ctx, []string{"root", "dave", " "}, "changeme123"))
	// 重复执行不会报错也不会重复创建
	require.NoError(t, f.users.EnsureDefaults(ctx, []string{"root", "dave"}, "changeme123"))

	roles, err := f.roles.List(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, len(defaultRoles))

	root, err := f.store.FindUserByUsername(ctx, "root")
	require.NoError(t, err)
	require.NotNil(t, root)
	assert.Equal(t, "root@admin.local", root.Email)
	assert.Equal(t, []string{models.RoleAdmin}, root.RoleCodes())

	dave, err := f.users.Get(ctx, existing.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{models.RoleUser, models.RoleAdmin}, dave.RoleCodes())

	require.NoError(t, f.users.EnsureDefaults(ctx, []string{"nopass"}, ""))
	missing, err := f.store.FindUserByUsername(ctx, "nopass")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRoleService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	role, err := f.roles.Create(ctx, models.CreateRoleRequest{Code: " editor ", Name: "编辑"})
	require.NoError(t, err)
	assert.Equal(t, "EDITOR", role.Code)

	_, err = f.roles.Create(ctx, models.CreateRoleRequest{Code: "EDITOR", Name: "again"})
	assert.ErrorIs(t, err, utils.ErrConflict)

	_, err = f.roles.Create(ctx, models.CreateRoleRequest{Code: "9LIVES", Name: "x"})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = f.roles.Create(ctx, models.CreateRoleRequest{Code: "EMPTY_NAME", Name: " "})
	assert.ErrorIs(t, err, utils.ErrValidation)

	got, err := f.roles.GetByCode(ctx, "editor")
	require.NoError(t, err)
	assert.Equal(t, role.ID, got.ID)

	_, err = f.roles.GetByCode(ctx, "nobody")
	assert.ErrorIs(t, err, utils.ErrNotFound)

	user := f.newUser(t, "erin")
	updated, err := f.users.AssignRoles(ctx, user.ID, []string{"editor"})
	require.NoError(t, err)
	assert.Equal(t, []string{"EDITOR"}, updated.RoleCodes())
}
