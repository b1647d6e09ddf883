package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/usagi-project/usagi-api/internal/apperr"
)

// ErrorHandler maps the error taxonomy onto HTTP statuses and the response
// envelope. This is the only place a Kind becomes a status code.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "internal server error"
	var meta map[string]any

	var e *apperr.Error
	var he *echo.HTTPError
	switch {
	case errors.As(err, &e):
		status = apperr.HTTPStatus(e.Kind)
		message = e.Msg
		if e.Kind == apperr.KindInternal {
			message = "internal server error"
		}
		if e.TokenType != "" {
			meta = map[string]any{"token_type": e.TokenType}
		}
		if e.Role != "" {
			meta = map[string]any{"role": e.Role}
		}
	case errors.As(err, &he):
		status = he.Code
		message = fmt.Sprintf("%v", he.Message)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, Envelope{Message: message, Meta: meta})
}
