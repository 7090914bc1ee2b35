package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
	"github.com/iliyamo/bus-ticket-reservation/internal/queue"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
)

type PurchaseInput struct {
	TripID     string
	UserID     string
	Seats      []int
	CouponCode string
}

type PurchaseResult struct {
	TicketID   string
	Subtotal   int64
	Discount   int64
	FinalPrice int64
	Seats      []int
}

// Purchase buys every requested seat on a trip for the user, applying an
// optional coupon and charging the user's balance.  Either the ticket,
// all of its seats, the debit and the coupon usage are committed together
// or nothing is.  A seat taken by a concurrent purchase surfaces as
// ErrSeatConflict carrying the seat number.
func (s *TicketService) Purchase(ctx context.Context, in PurchaseInput) (PurchaseResult, error) {
	if strings.TrimSpace(in.TripID) == "" {
		return PurchaseResult{}, invalid("trip id is required")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return PurchaseResult{}, invalid("user id is required")
	}
	if len(in.Seats) == 0 {
		return PurchaseResult{}, &Error{Kind: KindValidation, Code: codeInvalidSeats, Message: "at least one seat is required"}
	}

	now := s.clock.Now()
	var (
		res   PurchaseResult
		event queue.TicketPurchasedEvent
	)
	err := s.store.WithTx(ctx, func(tx Tx) error {
		// The account lock comes first so every later read of this
		// transaction sees the user's previously committed purchases.
		acct, err := tx.LockAccount(ctx, in.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		trip, err := getTrip(ctx, tx, in.TripID)
		if err != nil {
			return err
		}
		seats, err := validateSeats(in.Seats, trip)
		if err != nil {
			return err
		}

		var coupon *model.Coupon
		fraction := decimal.Zero
		if code := model.NormalizeCouponCode(in.CouponCode); code != "" {
			c, err := validateCoupon(ctx, tx, code, trip.CompanyID, in.UserID, now)
			if err != nil {
				return err
			}
			coupon = &c
			fraction = c.Discount
		}

		price := ComputePrice(trip.Price, len(seats), fraction)
		if acct.Balance < price.Final {
			return insufficientBalance(price.Final, acct.Balance)
		}

		// Cheap early answer; the seat_claims key is what actually decides.
		if n, err := firstTaken(ctx, tx, trip.ID, seats); err != nil {
			return err
		} else if n != 0 {
			return seatConflict(n)
		}

		ticket := model.Ticket{
			ID:         uuid.NewString(),
			TripID:     trip.ID,
			UserID:     in.UserID,
			Status:     model.TicketActive,
			TotalPrice: price.Final,
			CreatedAt:  now,
		}
		if err := tx.InsertTicket(ctx, ticket); err != nil {
			return err
		}
		if err := tx.ReserveSeats(ctx, trip.ID, ticket.ID, seats, now); err != nil {
			var taken *repository.SeatTakenError
			if errors.As(err, &taken) {
				return seatConflict(taken.Seat)
			}
			return err
		}
		if err := tx.Debit(ctx, in.UserID, price.Final); err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				return insufficientBalance(price.Final, acct.Balance)
			}
			return err
		}
		if coupon != nil {
			usage := model.CouponUsage{
				ID:        uuid.NewString(),
				CouponID:  coupon.ID,
				UserID:    in.UserID,
				TicketID:  ticket.ID,
				CreatedAt: now,
			}
			if err := tx.InsertCouponUsage(ctx, usage); err != nil {
				return err
			}
		}

		res = PurchaseResult{
			TicketID:   ticket.ID,
			Subtotal:   price.Subtotal,
			Discount:   price.Discount,
			FinalPrice: price.Final,
			Seats:      seats,
		}
		event = queue.TicketPurchasedEvent{
			TicketID:    ticket.ID,
			TripID:      trip.ID,
			CompanyID:   trip.CompanyID,
			UserID:      in.UserID,
			Seats:       seats,
			Subtotal:    price.Subtotal,
			Discount:    price.Discount,
			TotalPrice:  price.Final,
			PurchasedAt: now.Format(time.RFC3339),
		}
		if coupon != nil {
			event.CouponCode = coupon.Code
		}
		return nil
	})
	if err != nil {
		return PurchaseResult{}, s.fail("purchase", err, logrus.Fields{
			"trip_id": in.TripID,
			"user_id": in.UserID,
			"seats":   in.Seats,
		})
	}

	s.log.WithFields(logrus.Fields{
		"ticket_id": res.TicketID,
		"trip_id":   in.TripID,
		"user_id":   in.UserID,
		"total":     res.FinalPrice,
	}).Info("ticket purchased")

	if s.events != nil {
		pubCtx, cancel := publishContext(ctx)
		defer cancel()
		if err := s.events.PublishTicketPurchased(pubCtx, event); err != nil {
			s.log.WithError(err).WithField("ticket_id", res.TicketID).Warn("publish ticket.purchased failed")
		}
	}
	return res, nil
}

// publishContext detaches event publishing from the request's
// cancellation while still bounding it.
func publishContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
}
