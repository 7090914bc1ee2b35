package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
	"github.com/iliyamo/bus-ticket-reservation/internal/queue"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
)

type CancelInput struct {
	TicketID string
	Actor    model.Actor
}

type CancelResult struct {
	TicketID       string
	RefundedAmount int64
}

// Cancel cancels an active ticket and refunds the amount that was charged
// for it to the ticket owner.  Admins may cancel any ticket; everyone else
// only their own.  Cancellation closes cancelWindow before departure, the
// boundary instant itself still being allowed.  The ticket's seats become
// available again.
func (s *TicketService) Cancel(ctx context.Context, in CancelInput) (CancelResult, error) {
	if strings.TrimSpace(in.TicketID) == "" {
		return CancelResult{}, invalid("ticket id is required")
	}
	if !in.Actor.IsAdmin && strings.TrimSpace(in.Actor.UserID) == "" {
		return CancelResult{}, invalid("user id is required")
	}

	now := s.clock.Now()
	var (
		res   CancelResult
		event queue.TicketCanceledEvent
	)
	err := s.store.WithTx(ctx, func(tx Tx) error {
		ticket, err := tx.GetTicketForUpdate(ctx, in.TicketID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTicketNotFound
			}
			return err
		}
		if !in.Actor.IsAdmin && ticket.UserID != in.Actor.UserID {
			return ErrNotOwner
		}
		if ticket.Status != model.TicketActive {
			return ErrWrongTicketStatus
		}

		trip, err := getTrip(ctx, tx, ticket.TripID)
		if err != nil {
			return err
		}
		if now.After(trip.DepartureTime.Add(-s.cancelWindow)) {
			return ErrDeadlinePassed
		}

		if err := tx.UpdateTicketStatus(ctx, ticket.ID, model.TicketActive, model.TicketCanceled); err != nil {
			if errors.Is(err, repository.ErrStaleStatus) {
				return ErrWrongTicketStatus
			}
			return err
		}
		seats, err := tx.SeatsByTicket(ctx, ticket.ID)
		if err != nil {
			return err
		}
		if _, err := tx.ReleaseSeats(ctx, ticket.ID); err != nil {
			return err
		}
		if err := tx.Credit(ctx, ticket.UserID, ticket.TotalPrice); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		res = CancelResult{TicketID: ticket.ID, RefundedAmount: ticket.TotalPrice}
		event = queue.TicketCanceledEvent{
			TicketID:       ticket.ID,
			TripID:         ticket.TripID,
			UserID:         ticket.UserID,
			CanceledBy:     in.Actor.UserID,
			ByAdmin:        in.Actor.IsAdmin,
			Seats:          seats,
			RefundedAmount: ticket.TotalPrice,
			CanceledAt:     now.Format(time.RFC3339),
		}
		return nil
	})
	if err != nil {
		return CancelResult{}, s.fail("cancel", err, logrus.Fields{
			"ticket_id": in.TicketID,
			"actor_id":  in.Actor.UserID,
			"admin":     in.Actor.IsAdmin,
		})
	}

	s.log.WithFields(logrus.Fields{
		"ticket_id": res.TicketID,
		"refunded":  res.RefundedAmount,
		"admin":     in.Actor.IsAdmin,
	}).Info("ticket canceled")

	if s.events != nil {
		pubCtx, cancel := publishContext(ctx)
		defer cancel()
		if err := s.events.PublishTicketCanceled(pubCtx, event); err != nil {
			s.log.WithError(err).WithField("ticket_id", res.TicketID).Warn("publish ticket.canceled failed")
		}
	}
	return res, nil
}
