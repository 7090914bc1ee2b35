// Package router wires handlers and middleware onto echo routes.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticket-reservation/internal/handler"
	"github.com/iliyamo/bus-ticket-reservation/internal/middleware"
	"github.com/iliyamo/bus-ticket-reservation/internal/model"
)

// RegisterRoutes registers the liveness and readiness probes.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
	e.GET("/readyz", h.Ready)
}

// RegisterPublic registers endpoints guests may call.
func RegisterPublic(e *echo.Echo, t *handler.TicketHandler) {
	e.GET("/v1/trips/:id/seats", t.SeatMap)
}

// RegisterTickets registers the authenticated ticket endpoints under /v1.
// Purchase is limited to the USER role; cancellation is open to USER and
// ADMIN, with ownership enforced by the service.  limiter guards the two
// write endpoints.
func RegisterTickets(e *echo.Echo, t *handler.TicketHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	g.POST("/trips/:id/quote", t.Quote, middleware.RequireRole(model.RoleUser))
	g.POST("/trips/:id/tickets", t.Purchase, middleware.RequireRole(model.RoleUser), limiter)
	g.DELETE("/tickets/:id", t.Cancel, middleware.RequireRole(model.RoleUser, model.RoleAdmin), limiter)
	g.GET("/me/balance", t.Balance)
}
