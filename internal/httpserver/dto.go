package httpserver

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/usagi-project/usagi-api/internal/apperr"
)

// An alias is 3-20 characters, letters and digits only, starting with a letter.
var rgxAlias = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{1,18}[A-Za-z0-9]$`)

func validationError(err error) error {
	if err == nil {
		return nil
	}
	return apperr.Wrap(apperr.KindValidation, err.Error(), err)
}

type registerRequest struct {
	Email       string `json:"email"`
	Alias       string `json:"alias"`
	Password    string `json:"password"`
	PassConfirm string `json:"pass_confirm"`
}

func (r registerRequest) Validate() error {
	return validationError(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Alias, validation.Required,
			validation.Match(rgxAlias).Error("an alias must be between 3-20 characters and contain only letters and numbers")),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 200)),
		validation.Field(&r.PassConfirm, validation.Required, validation.Length(6, 200)),
	))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validationError(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 200)),
	))
}

type accessTokenRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	ExpiresMinutes int    `json:"expires_minutes"`
}

func (r accessTokenRequest) Validate() error {
	return validationError(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 200)),
		validation.Field(&r.ExpiresMinutes, validation.Min(0)),
	))
}

type updatePasswordRequest struct {
	CurrentPass string `json:"current_pass"`
	NewPass     string `json:"new_pass"`
	ConfirmPass string `json:"confirm_pass"`
}

func (r updatePasswordRequest) Validate() error {
	return validationError(validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPass, validation.Required, validation.Length(6, 200)),
		validation.Field(&r.NewPass, validation.Required, validation.Length(6, 200)),
		validation.Field(&r.ConfirmPass, validation.Required, validation.Length(6, 200)),
	))
}

type banUserRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

func (r banUserRequest) Validate() error {
	return validationError(validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.Reason, validation.Length(6, 50)),
	))
}

type setRoleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (r setRoleRequest) Validate() error {
	return validationError(validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.Role, validation.Required),
	))
}
