package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/usagi-project/usagi-api/internal/apperr"
	"github.com/usagi-project/usagi-api/internal/hash"
	"github.com/usagi-project/usagi-api/internal/models"
	"github.com/usagi-project/usagi-api/internal/repo"
	"github.com/usagi-project/usagi-api/internal/tokens"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "users.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return repo.New(db)
}

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return &AuthService{
		Repo:  newTestRepo(t),
		Codec: tokens.NewCodec([]byte("test-secret"), time.Hour, 24*time.Hour),
	}
}

func register(t *testing.T, s *AuthService, email, alias, password string) (*models.User, *TokenPair) {
	t.Helper()

	user, pair, err := s.Register(context.Background(), RegisterInput{
		Email:           email,
		Alias:           alias,
		Password:        password,
		PasswordConfirm: password,
	})
	require.NoError(t, err)
	return user, pair
}

func TestRegister(t *testing.T) {
	t.Parallel()

	s := newAuthService(t)
	user, pair := register(t, s, "reimu@shrine.net", "Reimu", "donation1")

	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, models.ValidID(user.ID))

	access, err := s.Codec.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tokens.TypeAccess, access.TokenType)
	assert.Equal(t, user.ID, access.Subject)

	refresh, err := s.Codec.Parse(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, tokens.TypeRefresh, refresh.TokenType)
	assert.Equal(t, user.ID, refresh.Subject)
}

func TestRegister_PasswordMismatch(t *testing.T) {
	t.Parallel()

	s := newAuthService(t)
	_, _, err := s.Register(context.Background(), RegisterInput{
		Email:           "marisa@forest.net",
		Alias:           "Marisa",
		Password:        "spark123",
		PasswordConfirm: "spark124",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindPasswordMismatch, apperr.KindOf(err))
}

func TestRegister_Duplicates(t *testing.T) {
	t.Parallel()

	s := newAuthService(t)
	register(t, s, "sanae@shrine.net", "Sanae", "miracle1")

	_, _, err := s.Register(context.Background(), RegisterInput{
		Email:           "SANAE@shrine.net",
		Alias:           "Other",
		Password:        "miracle1",
		PasswordConfirm: "miracle1",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "email")

	_, _, err = s.Register(context.Background(), RegisterInput{
		Email:           "other@shrine.net",
		Alias:           "Sanae",
		Password:        "miracle1",
		PasswordConfirm: "miracle1",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "alias")
}

func TestLogin(t *testing.T) {
	t.Parallel()

	s := newAuthService(t)
	registered, _ := register(t, s, "youmu@garden.net", "Youmu", "halfghost")

	user, pair, err := s.Login(context.Background(), "youmu@garden.net", "halfghost")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestLogin_BadCredentialsIndistinguishable(t *testing.T) {
	t.Parallel()

	s := newAuthService(t)
	register(t, s, "aya@mountain.net", "Ayaya", "fastest1")

	_, _, errWrongPass := s.Login(context.Background(), "aya@mountain.net", "slowest1")
	require.Error(t, errWrongPass)
	assert.Equal(t, apperr.KindBadCredentials, apperr.KindOf(errWrongPass))

	_, _, errNoUser := s.Login(context.Background(), "momiji@mountain.net", "fastest1")
	require.Error(t, errNoUser)
	assert.Equal(t, apperr.KindBadCredentials, apperr.KindOf(errNoUser))

	assert.Equal(t, errWrongPass.Error(), errNoUser.Error())
}

func TestLogin_BannedBeforePasswordCheck(t *testing.T) {
	t.Parallel()

	s := newAuthService(t)
	ctx := context.Background()

	pwHash, err := hash.HashPassword("oldhakkero")
	require.NoError(t, err)
	banned := &models.User{
		Email:        "rumia@dark.net",
		Alias:        "Rumia",
		PasswordHash: pwHash,
		Role:         models.RoleBanned,
	}
	require.NoError(t, s.Repo.Create(ctx, banned))

	// wrong password on purpose: the ban must answer first
	_, _, err = s.Login(ctx, "rumia@dark.net", "wrongpass")
	require.Error(t, err)
	assert.Equal(t, apperr.KindAccountBanned, apperr.KindOf(err))
}

func TestAccessTokenLogin_Override(t *testing.T) {
	t.Parallel()

	s := newAuthService(t)
	register(t, s, "nitori@river.net", "Nitori", "cucumber")

	access, err := s.AccessTokenLogin(context.Background(), "nitori@river.net", "cucumber", 5*time.Minute)
	require.NoError(t, err)

	claims, err := s.Codec.Parse(access)
	require.NoError(t, err)
	assert.Equal(t, tokens.TypeAccess, claims.TokenType)
	assert.Equal(t, 5*time.Minute, claims.ExpiresAt.Sub(claims.IssuedAt.Time))

	access, err = s.AccessTokenLogin(context.Background(), "nitori@river.net", "cucumber", 0)
	require.NoError(t, err)
	claims, err = s.Codec.Parse(access)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	s := newAuthService(t)
	user, pair := register(t, s, "keine@school.net", "Keine", "history1")
	ctx := context.Background()

	res, err := s.Refresh(ctx, pair.RefreshToken, false)
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Empty(t, res.RefreshToken)

	res, err = s.Refresh(ctx, pair.RefreshToken, true)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RefreshToken)

	claims, err := s.Codec.Parse(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	t.Parallel()

	s := newAuthService(t)
	_, pair := register(t, s, "mokou@bamboo.net", "Mokou", "phoenix1")

	_, err := s.Refresh(context.Background(), pair.AccessToken, false)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidToken, apperr.KindOf(err))
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	t.Parallel()

	s := newAuthService(t)
	user, pair := register(t, s, "yuyuko@garden.net", "Yuyuko", "butterfly")
	ctx := context.Background()

	time.Sleep(1100 * time.Millisecond)
	require.NoError(t, s.Logout(ctx, user))

	_, err := s.Refresh(ctx, pair.RefreshToken, false)
	require.Error(t, err)
	assert.Equal(t, apperr.KindRevokedToken, apperr.KindOf(err))
}

func TestUpdatePassword(t *testing.T) {
	t.Parallel()

	s := newAuthService(t)
	user, pair := register(t, s, "eirin@moon.net", "Eirin", "medicine1")
	ctx := context.Background()

	err := s.UpdatePassword(ctx, user, "wrongpass", "remedy22", "remedy22")
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadCredentials, apperr.KindOf(err))

	err = s.UpdatePassword(ctx, user, "medicine1", "remedy22", "remedy23")
	require.Error(t, err)
	assert.Equal(t, apperr.KindPasswordMismatch, apperr.KindOf(err))

	time.Sleep(1100 * time.Millisecond)
	require.NoError(t, s.UpdatePassword(ctx, user, "medicine1", "remedy22", "remedy22"))

	_, err = s.Refresh(ctx, pair.RefreshToken, false)
	require.Error(t, err)
	assert.Equal(t, apperr.KindRevokedToken, apperr.KindOf(err))

	_, _, err = s.Login(ctx, "eirin@moon.net", "medicine1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadCredentials, apperr.KindOf(err))

	_, _, err = s.Login(ctx, "eirin@moon.net", "remedy22")
	require.NoError(t, err)
}
