package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/usagi-project/usagi-api/internal/models"
)

// Envelope is the uniform response body: {message, data, meta}.
type Envelope struct {
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
	Data    any            `json:"data,omitempty"`
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Envelope{Message: message, Data: data})
}

func respondMeta(c echo.Context, status int, message string, data any, meta map[string]any) error {
	return c.JSON(status, Envelope{Message: message, Data: data, Meta: meta})
}

// UserOut is the public projection of an account. The registration time is
// recovered from the ULID, there is no created_at column.
type UserOut struct {
	ID           string      `json:"id"`
	Alias        string      `json:"alias"`
	Role         models.Role `json:"role"`
	RegisteredOn time.Time   `json:"registered_on"`
	LastLogin    time.Time   `json:"last_login"`
}

// UserOutFull adds the fields reserved for privileged listings.
type UserOutFull struct {
	UserOut
	Email     string     `json:"email"`
	RevokedAt *time.Time `json:"revoked_at"`
	Confirmed bool       `json:"confirmed"`
}

func newUserOut(u models.User) UserOut {
	return UserOut{
		ID:           u.ID,
		Alias:        u.Alias,
		Role:         u.Role,
		RegisteredOn: u.RegisteredOn(),
		LastLogin:    u.LastLogin,
	}
}

func newUserOutFull(u models.User) UserOutFull {
	return UserOutFull{
		UserOut:   newUserOut(u),
		Email:     u.Email,
		RevokedAt: u.RevokedAt,
		Confirmed: u.Confirmed,
	}
}

func usersOut(users []models.User) []UserOut {
	out := make([]UserOut, len(users))
	for i, u := range users {
		out[i] = newUserOut(u)
	}
	return out
}

func usersOutFull(users []models.User) []UserOutFull {
	out := make([]UserOutFull, len(users))
	for i, u := range users {
		out[i] = newUserOutFull(u)
	}
	return out
}
