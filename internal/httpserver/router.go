package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/usagi-project/usagi-api/internal/middleware"
	"github.com/usagi-project/usagi-api/internal/models"
)

type Deps struct {
	Auth  *AuthHTTP
	Users *UserHTTP
	Admin *AdminHTTP
	Gate  *mw.Gate

	Logger      *slog.Logger
	CORSOrigins []string
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler
	e.Use(echomw.Recover())
	e.Use(mw.RequestLogger(d.Logger))
	if len(d.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     d.CORSOrigins,
			AllowCredentials: true,
		}))
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/access-token", d.Auth.AccessToken)
	auth.GET("/refresh-access", d.Auth.RefreshAccess)
	auth.DELETE("/tokens", d.Auth.RevokeTokens, d.Gate.Require())
	auth.POST("/update-password", d.Auth.UpdatePassword, d.Gate.Require())

	api.GET("/users", d.Users.List)
	api.GET("/users/new", d.Users.ListNew)
	api.GET("/users/role/:role", d.Users.ListByRole,
		d.Gate.Require(models.RoleAdmin, models.RoleModerator))

	user := api.Group("/user")
	user.GET("/count", d.Users.Count)
	user.GET("/me", d.Users.Me, d.Gate.Require())
	user.GET("/:id", d.Users.GetByID)
	user.DELETE("/:id", d.Users.Delete, d.Gate.Require(models.RoleAdmin))

	admin := api.Group("/admin")
	admin.POST("/ban-user", d.Admin.BanUser,
		d.Gate.Require(models.RoleAdmin, models.RoleModerator))
	admin.POST("/set-role", d.Admin.SetRole, d.Gate.Require(models.RoleAdmin))
}
