package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usagi-project/usagi-api/internal/apperr"
	"github.com/usagi-project/usagi-api/internal/models"
	"github.com/usagi-project/usagi-api/internal/repo"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	return &UserService{Repo: newTestRepo(t)}
}

func seedUser(t *testing.T, r *repo.GormRepo, email, alias string, role models.Role) *models.User {
	t.Helper()

	u := &models.User{
		Email:        email,
		Alias:        alias,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		Role:         role,
	}
	require.NoError(t, r.Create(context.Background(), u))
	return u
}

func TestUserList_SQLFallback(t *testing.T) {
	t.Parallel()

	s := newUserService(t)
	ctx := context.Background()
	seedUser(t, s.Repo, "flandre@mansion.net", "Flandre", models.RoleUser)
	seedUser(t, s.Repo, "remilia@mansion.net", "Remilia", models.RoleUser)
	seedUser(t, s.Repo, "meiling@mansion.net", "Meiling", models.RoleModerator)

	// nil search index: the alias filter runs against the database
	users, total, err := s.List(ctx, 1, 10, "lia")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "Remilia", users[0].Alias)

	users, total, err = s.List(ctx, 1, 10, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, users, 3)
}

func TestUserListNew_NewestFirst(t *testing.T) {
	t.Parallel()

	s := newUserService(t)
	ctx := context.Background()
	seedUser(t, s.Repo, "first@order.net", "FirstOne", models.RoleUser)
	second := seedUser(t, s.Repo, "second@order.net", "SecondOne", models.RoleUser)

	users, _, err := s.ListNew(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, second.ID, users[0].ID)
}

func TestUserGet_InvalidID(t *testing.T) {
	t.Parallel()

	s := newUserService(t)

	_, err := s.Get(context.Background(), "not-a-ulid")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUserDelete(t *testing.T) {
	t.Parallel()

	s := newUserService(t)
	ctx := context.Background()
	admin := seedUser(t, s.Repo, "kanako@shrine.net", "Kanako", models.RoleAdmin)
	target := seedUser(t, s.Repo, "suwako@shrine.net", "Suwako", models.RoleUser)

	_, err := s.Delete(ctx, admin, admin.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindSelfDelete, apperr.KindOf(err))

	deleted, err := s.Delete(ctx, admin, target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, deleted.ID)

	_, err = s.Get(ctx, target.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUserBan(t *testing.T) {
	t.Parallel()

	s := newUserService(t)
	ctx := context.Background()
	admin := seedUser(t, s.Repo, "yukari@border.net", "Yukari", models.RoleAdmin)
	target := seedUser(t, s.Repo, "chen@border.net", "ChenChen", models.RoleUser)

	banned, err := s.Ban(ctx, admin, target.ID, "spamming danmaku")
	require.NoError(t, err)
	assert.Equal(t, models.RoleBanned, banned.Role)
	require.NotNil(t, banned.RevokedAt)
}

func TestUserSetRole(t *testing.T) {
	t.Parallel()

	s := newUserService(t)
	ctx := context.Background()
	admin := seedUser(t, s.Repo, "ran@border.net", "RanRan", models.RoleAdmin)
	target := seedUser(t, s.Repo, "momiji@mountain.net", "Momiji", models.RoleUser)

	_, err := s.SetRole(ctx, admin, target.ID, models.RoleBanned)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	updated, err := s.SetRole(ctx, admin, target.ID, models.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, updated.Role)

	// a role change must not revoke outstanding tokens
	stored, err := s.Repo.FindByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.RevokedAt)
}
