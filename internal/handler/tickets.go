package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticket-reservation/internal/middleware"
	"github.com/iliyamo/bus-ticket-reservation/internal/service"
)

// TicketService is the part of service.TicketService the HTTP layer uses.
type TicketService interface {
	Purchase(ctx context.Context, in service.PurchaseInput) (service.PurchaseResult, error)
	Cancel(ctx context.Context, in service.CancelInput) (service.CancelResult, error)
	Quote(ctx context.Context, in service.QuoteInput) (service.Quote, error)
	SeatMap(ctx context.Context, tripID string) (service.SeatMap, error)
	Balance(ctx context.Context, userID string) (int64, error)
}

// TicketHandler exposes ticket purchase, cancellation and the read paths
// around them.  Authenticated routes expect JWTAuth to have run.
type TicketHandler struct {
	svc TicketService
}

func NewTicketHandler(svc TicketService) *TicketHandler {
	if svc == nil {
		panic("nil service passed to NewTicketHandler")
	}
	return &TicketHandler{svc: svc}
}

type seatSelection struct {
	Seats      []int  `json:"seats"`
	CouponCode string `json:"coupon_code"`
}

type purchaseResponse struct {
	TicketID   string `json:"ticket_id"`
	Seats      []int  `json:"seats"`
	Subtotal   int64  `json:"subtotal"`
	Discount   int64  `json:"discount"`
	FinalPrice int64  `json:"final_price"`
}

// Purchase handles POST /v1/trips/:id/tickets.  Body:
// {"seats":[3,4],"coupon_code":"SUMMER10"}; the coupon is optional.
// Responds 201 with the ticket id and the charged amount.
func (h *TicketHandler) Purchase(c echo.Context) error {
	var body seatSelection
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	res, err := h.svc.Purchase(c.Request().Context(), service.PurchaseInput{
		TripID:     c.Param("id"),
		UserID:     middleware.UserID(c),
		Seats:      body.Seats,
		CouponCode: body.CouponCode,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, purchaseResponse{
		TicketID:   res.TicketID,
		Seats:      res.Seats,
		Subtotal:   res.Subtotal,
		Discount:   res.Discount,
		FinalPrice: res.FinalPrice,
	})
}

// Cancel handles DELETE /v1/tickets/:id.  Users may cancel their own
// tickets, admins any ticket.
func (h *TicketHandler) Cancel(c echo.Context) error {
	res, err := h.svc.Cancel(c.Request().Context(), service.CancelInput{
		TicketID: c.Param("id"),
		Actor:    middleware.ActorFrom(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"ticket_id":       res.TicketID,
		"status":          "CANCELED",
		"refunded_amount": res.RefundedAmount,
	})
}

// Quote handles POST /v1/trips/:id/quote with the same body as Purchase.
func (h *TicketHandler) Quote(c echo.Context) error {
	var body seatSelection
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	q, err := h.svc.Quote(c.Request().Context(), service.QuoteInput{
		TripID:     c.Param("id"),
		UserID:     middleware.UserID(c),
		Seats:      body.Seats,
		CouponCode: body.CouponCode,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

// SeatMap handles GET /v1/trips/:id/seats.  Public.
func (h *TicketHandler) SeatMap(c echo.Context) error {
	m, err := h.svc.SeatMap(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Balance handles GET /v1/me/balance.
func (h *TicketHandler) Balance(c echo.Context) error {
	userID := middleware.UserID(c)
	b, err := h.svc.Balance(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": userID, "balance": b})
}
