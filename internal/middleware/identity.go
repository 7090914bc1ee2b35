package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// UserID returns the authenticated user's id, or "" for anonymous requests.
func UserID(c echo.Context) string {
	s, _ := c.Get(ctxUserID).(string)
	return s
}

// Role returns the authenticated user's role, or "" for anonymous requests.
func Role(c echo.Context) string {
	s, _ := c.Get(ctxRole).(string)
	return s
}

// ActorFrom describes the caller for ownership checks.
func ActorFrom(c echo.Context) model.Actor {
	return model.Actor{UserID: UserID(c), IsAdmin: Role(c) == model.RoleAdmin}
}
