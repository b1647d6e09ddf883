package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind discriminates the request-scoped failures the service can surface.
// Mapping a Kind to an HTTP status happens only at the transport boundary.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindBadCredentials
	KindPasswordMismatch
	KindUnauthenticated
	KindInvalidToken
	KindRevokedToken
	KindForbidden
	KindAccountBanned
	KindNotFound
	KindConflict
	KindSelfDelete
	KindInternal
)

type Error struct {
	Kind Kind
	Msg  string

	// TokenType is set on KindRevokedToken (access_token vs refresh_token).
	TokenType string
	// Role is set on KindForbidden and names the caller's actual role.
	Role string

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match two *Error values by Kind, so services can compare
// against the exported template errors below without equality on messages.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Revoked builds the RevokedToken failure naming which token type died.
func Revoked(tokenType string) *Error {
	return &Error{
		Kind:      KindRevokedToken,
		Msg:       fmt.Sprintf("this %s has been revoked", tokenType),
		TokenType: tokenType,
	}
}

// ForbiddenRole builds the Forbidden failure naming the caller's actual role.
func ForbiddenRole(role string) *Error {
	return &Error{
		Kind: KindForbidden,
		Msg:  fmt.Sprintf("a %s cannot perform this action", role),
		Role: role,
	}
}

// KindOf extracts the Kind from any error in the chain, KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }

// HTTPStatus is the single place the taxonomy meets HTTP.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindBadCredentials, KindPasswordMismatch:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindInvalidToken, KindRevokedToken, KindForbidden, KindAccountBanned, KindSelfDelete:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
