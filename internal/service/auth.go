package service

import (
	"context"
	"time"

	"github.com/usagi-project/usagi-api/internal/apperr"
	"github.com/usagi-project/usagi-api/internal/events"
	"github.com/usagi-project/usagi-api/internal/hash"
	"github.com/usagi-project/usagi-api/internal/logging"
	"github.com/usagi-project/usagi-api/internal/models"
	"github.com/usagi-project/usagi-api/internal/repo"
	"github.com/usagi-project/usagi-api/internal/search"
	"github.com/usagi-project/usagi-api/internal/tokens"
)

// AuthService orchestrates the register/login/refresh/logout/password flows
// on top of the account store and the token codec.
type AuthService struct {
	Repo   *repo.GormRepo
	Codec  *tokens.Codec
	Events *events.Producer
	Search *search.Index
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type RegisterInput struct {
	Email           string
	Alias           string
	Password        string
	PasswordConfirm string
}

func (s *AuthService) issuePair(userID string) (*TokenPair, error) {
	access, err := s.Codec.Issue(userID, tokens.TypeAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Codec.Issue(userID, tokens.TypeRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, *TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if in.Password != in.PasswordConfirm {
		return nil, nil, apperr.New(apperr.KindPasswordMismatch, "password and confirmation must match")
	}

	if _, err := s.Repo.FindByEmail(ctx, in.Email); err == nil {
		return nil, nil, apperr.New(apperr.KindConflict, "a user with this email address already exists")
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		return nil, nil, err
	}
	if _, err := s.Repo.FindByAlias(ctx, in.Alias); err == nil {
		return nil, nil, apperr.New(apperr.KindConflict, "a user with this alias already exists")
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		return nil, nil, err
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInternal, "cannot hash the password", err)
	}

	user := &models.User{
		Email:        in.Email,
		Alias:        in.Alias,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		return nil, nil, err
	}

	l.Info("user_registered", "user_id", user.ID, "alias", user.Alias)
	s.Events.Publish(ctx, events.TypeUserRegistered, user.ID, map[string]any{
		"alias": user.Alias,
		"email": user.Email,
	})
	s.Search.IndexUser(ctx, user)

	return user, pair, nil
}

// verifyCredentials resolves a login attempt. The ban check short-circuits
// before the password compare so a banned account gets a distinct signal,
// while unknown email and wrong password stay indistinguishable.
func (s *AuthService) verifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.New(apperr.KindBadCredentials, "incorrect email or password")
		}
		return nil, err
	}
	if user.Role == models.RoleBanned {
		return nil, apperr.New(apperr.KindAccountBanned, "this user is banned")
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, apperr.New(apperr.KindBadCredentials, "incorrect email or password")
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.verifyCredentials(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.Repo.StampLogin(ctx, user); err != nil {
		return nil, nil, err
	}

	l.Info("login_succeeded", "user_id", user.ID)
	return user, pair, nil
}

// AccessTokenLogin issues an access token only, for direct API usage.
// An override lifetime may be supplied, zero means the configured default.
func (s *AuthService) AccessTokenLogin(ctx context.Context, email, password string, override time.Duration) (string, error) {
	user, err := s.verifyCredentials(ctx, email, password)
	if err != nil {
		return "", err
	}

	var access string
	if override > 0 {
		access, err = s.Codec.Issue(user.ID, tokens.TypeAccess, override)
	} else {
		access, err = s.Codec.Issue(user.ID, tokens.TypeAccess)
	}
	if err != nil {
		return "", err
	}

	if err := s.Repo.StampLogin(ctx, user); err != nil {
		return "", err
	}
	return access, nil
}

type RefreshResult struct {
	AccessToken  string
	RefreshToken string // empty unless continuous
}

// Refresh mints a new access token for a valid, unrevoked refresh token.
// With continuous set, the refresh token rotates too and last_login is
// stamped, keeping an active session alive indefinitely.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string, continuous bool) (*RefreshResult, error) {
	claims, err := s.Codec.Parse(rawRefresh)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokens.TypeRefresh {
		return nil, apperr.New(apperr.KindInvalidToken, "not a refresh token")
	}

	user, err := s.Repo.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if claims.RevokedBy(user.RevokedAt) {
		return nil, apperr.Revoked(string(tokens.TypeRefresh))
	}

	access, err := s.Codec.Issue(user.ID, tokens.TypeAccess)
	if err != nil {
		return nil, err
	}
	res := &RefreshResult{AccessToken: access}

	if continuous {
		refresh, err := s.Codec.Issue(user.ID, tokens.TypeRefresh)
		if err != nil {
			return nil, err
		}
		res.RefreshToken = refresh
		if err := s.Repo.StampLogin(ctx, user); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Logout revokes every outstanding token by advancing the account's
// revocation stamp. The caller must re-authenticate everywhere.
func (s *AuthService) Logout(ctx context.Context, user *models.User) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if err := s.Repo.RevokeAccess(ctx, user); err != nil {
		return err
	}
	l.Info("tokens_revoked", "user_id", user.ID)
	return nil
}

func (s *AuthService) UpdatePassword(ctx context.Context, user *models.User, current, desired, confirm string) error {
	l := logging.FromContext(ctx).With("svc", "auth.update_password")

	if !hash.CheckPassword(user.PasswordHash, current) {
		return apperr.New(apperr.KindBadCredentials, "current password is incorrect")
	}
	if desired != confirm {
		return apperr.New(apperr.KindPasswordMismatch, "confirmation does not match the desired password")
	}

	pwHash, err := hash.HashPassword(desired)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "cannot hash the password", err)
	}
	if err := s.Repo.UpdatePassword(ctx, user, pwHash); err != nil {
		return err
	}
	if err := s.Repo.RevokeAccess(ctx, user); err != nil {
		return err
	}

	l.Info("password_updated", "user_id", user.ID)
	s.Events.Publish(ctx, events.TypeUserPasswordChanged, user.ID, nil)
	return nil
}
