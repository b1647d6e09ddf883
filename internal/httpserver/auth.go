package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/usagi-project/usagi-api/internal/apperr"
	"github.com/usagi-project/usagi-api/internal/middleware"
	"github.com/usagi-project/usagi-api/internal/service"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

type tokensOut struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	RefreshTokenType string `json:"refresh_token_type,omitempty"`
}

func pairOut(pair *service.TokenPair) tokensOut {
	return tokensOut{
		AccessToken:      pair.AccessToken,
		TokenType:        "bearer",
		RefreshToken:     pair.RefreshToken,
		RefreshTokenType: "cookie",
	}
}

// Register creates a new USER account and logs it straight in.
func (h *AuthHTTP) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.KindValidation, "invalid body")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	user, pair, err := h.Svc.Register(c.Request().Context(), service.RegisterInput{
		Email:           req.Email,
		Alias:           req.Alias,
		Password:        req.Password,
		PasswordConfirm: req.PassConfirm,
	})
	if err != nil {
		return err
	}

	setRefreshCookie(c, pair.RefreshToken, h.Svc.Codec.RefreshTTL)
	return respond(c, http.StatusCreated,
		"user "+user.Alias+" was successfully registered", pairOut(pair))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.KindValidation, "invalid body")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	_, pair, err := h.Svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	setRefreshCookie(c, pair.RefreshToken, h.Svc.Codec.RefreshTTL)
	return respond(c, http.StatusOK, "login succeeded", pairOut(pair))
}

// AccessToken is the access-only login for direct API usage, no cookie.
func (h *AuthHTTP) AccessToken(c echo.Context) error {
	var req accessTokenRequest
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.KindValidation, "invalid body")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	access, err := h.Svc.AccessTokenLogin(c.Request().Context(),
		req.Email, req.Password, time.Duration(req.ExpiresMinutes)*time.Minute)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, "token granted", tokensOut{
		AccessToken: access,
		TokenType:   "bearer",
	})
}

// RefreshAccess mints a new access token for any caller bearing a valid
// refresh cookie. continuous=true rotates the refresh token as well.
func (h *AuthHTTP) RefreshAccess(c echo.Context) error {
	raw := refreshTokenFromCookie(c)
	if raw == "" {
		return apperr.New(apperr.KindUnauthenticated, "no refresh token")
	}
	continuous := c.QueryParam("continuous") == "true"

	res, err := h.Svc.Refresh(c.Request().Context(), raw, continuous)
	if err != nil {
		return err
	}

	message := "access token refreshed"
	out := tokensOut{AccessToken: res.AccessToken, TokenType: "bearer"}
	if res.RefreshToken != "" {
		setRefreshCookie(c, res.RefreshToken, h.Svc.Codec.RefreshTTL)
		out.RefreshToken = res.RefreshToken
		out.RefreshTokenType = "cookie"
		message = "both tokens refreshed"
	}
	return respond(c, http.StatusOK, message, out)
}

// RevokeTokens logs the caller out of every session by advancing the
// account's revocation stamp.
func (h *AuthHTTP) RevokeTokens(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if err := h.Svc.Logout(c.Request().Context(), user); err != nil {
		return err
	}
	clearRefreshCookie(c)
	return respond(c, http.StatusOK, "tokens revoked", nil)
}

// UpdatePassword re-hashes the caller's password and revokes all previously
// issued tokens; the caller must log in again.
func (h *AuthHTTP) UpdatePassword(c echo.Context) error {
	var req updatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.KindValidation, "invalid body")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	user := middleware.CurrentUser(c)
	err := h.Svc.UpdatePassword(c.Request().Context(), user,
		req.CurrentPass, req.NewPass, req.ConfirmPass)
	if err != nil {
		return err
	}

	clearRefreshCookie(c)
	return respond(c, http.StatusOK, "password updated - please log in again", nil)
}
