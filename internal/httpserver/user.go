package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/usagi-project/usagi-api/internal/apperr"
	"github.com/usagi-project/usagi-api/internal/middleware"
	"github.com/usagi-project/usagi-api/internal/models"
	"github.com/usagi-project/usagi-api/internal/service"
	"github.com/usagi-project/usagi-api/internal/util"
)

type UserHTTP struct {
	Svc *service.UserService
}

func pageParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	return util.Clamp(page, size)
}

func listMessage(total int64) string {
	if total == 0 {
		return "no users found"
	}
	return "user(s) retrieved"
}

// List retrieves a page of users, optionally narrowed by a fuzzy alias search.
func (h *UserHTTP) List(c echo.Context) error {
	page, size := pageParams(c)

	searchString := c.QueryParam("search")
	if searchString != "" && (len(searchString) < 3 || len(searchString) > 20) {
		return apperr.New(apperr.KindValidation, "search string must be between 3 and 20 characters")
	}

	users, total, err := h.Svc.List(c.Request().Context(), page, size, searchString)
	if err != nil {
		return err
	}

	meta := map[string]any{}
	if searchString != "" {
		meta["search_string"] = searchString
	}
	return respondMeta(c, http.StatusOK, listMessage(total),
		util.NewPage(usersOut(users), total, page, size), meta)
}

// ListNew retrieves the newest users first; ULID ids sort by creation time.
func (h *UserHTTP) ListNew(c echo.Context) error {
	page, size := pageParams(c)

	users, total, err := h.Svc.ListNew(c.Request().Context(), page, size)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, listMessage(total),
		util.NewPage(usersOut(users), total, page, size))
}

// ListByRole retrieves full user records for one role. Admin or moderator.
func (h *UserHTTP) ListByRole(c echo.Context) error {
	role, ok := models.ParseRole(c.Param("role"))
	if !ok {
		return apperr.New(apperr.KindValidation, "unknown role")
	}
	page, size := pageParams(c)

	users, total, err := h.Svc.ListByRole(c.Request().Context(), role, page, size)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, listMessage(total),
		util.NewPage(usersOutFull(users), total, page, size))
}

func (h *UserHTTP) Count(c echo.Context) error {
	count, err := h.Svc.Count(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "user count retrieved", count)
}

// Me returns the caller's own record, resolved through the gate.
func (h *UserHTTP) Me(c echo.Context) error {
	user := middleware.CurrentUser(c)
	return respond(c, http.StatusOK, "user retrieved", newUserOutFull(*user))
}

func (h *UserHTTP) GetByID(c echo.Context) error {
	user, err := h.Svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "user retrieved", newUserOut(*user))
}

// Delete removes a user. Admin only; self-deletion is refused.
func (h *UserHTTP) Delete(c echo.Context) error {
	current := middleware.CurrentUser(c)
	user, err := h.Svc.Delete(c.Request().Context(), current, c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "user "+user.Alias+" removed", newUserOutFull(*user))
}
