package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/usagi-project/usagi-api/internal/apperr"
	"github.com/usagi-project/usagi-api/internal/middleware"
	"github.com/usagi-project/usagi-api/internal/models"
	"github.com/usagi-project/usagi-api/internal/service"
)

type AdminHTTP struct {
	Svc *service.UserService
}

// BanUser moves a user to BANNED and kills every outstanding token at once.
func (h *AdminHTTP) BanUser(c echo.Context) error {
	var req banUserRequest
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.KindValidation, "invalid body")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	current := middleware.CurrentUser(c)
	user, err := h.Svc.Ban(c.Request().Context(), current, req.UserID, req.Reason)
	if err != nil {
		return err
	}

	message := fmt.Sprintf("'%s' (%s) has banned user: '%s'", current.Alias, current.ID, user.Alias)
	if req.Reason != "" {
		message += " - reason: " + req.Reason
	}
	return respond(c, http.StatusOK, message, nil)
}

// SetRole changes a user's role among the active roles. BANNED is refused;
// that transition goes through BanUser so revocation happens with it.
func (h *AdminHTTP) SetRole(c echo.Context) error {
	var req setRoleRequest
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.KindValidation, "invalid body")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	role, ok := models.ParseRole(req.Role)
	if !ok {
		return apperr.New(apperr.KindValidation, "unknown role")
	}
	if role == models.RoleBanned {
		return apperr.New(apperr.KindValidation, "use the ban-user route instead")
	}

	current := middleware.CurrentUser(c)
	if _, err := h.Svc.SetRole(c.Request().Context(), current, req.UserID, role); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "role updated", nil)
}
