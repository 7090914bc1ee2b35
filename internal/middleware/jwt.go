// Package middleware holds the echo middleware shared by the API routes:
// bearer authentication, role checks, rate limiting and request logging.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticket-reservation/internal/utils"
)

// JWTAuth validates a Bearer access token and stores the token's subject
// and role in the context under "user_id" and "role".  Requests without a
// valid token are answered with 401 and never reach next.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token", "code": "UNAUTHORIZED"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token", "code": "UNAUTHORIZED"})
			}

			c.Set(ctxUserID, claims.UserID)
			c.Set(ctxRole, strings.ToUpper(claims.Role))
			return next(c)
		}
	}
}
