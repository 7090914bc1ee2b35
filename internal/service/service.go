// Package service holds the ticket purchase and cancellation
// coordinators.  Each operation runs as one short database transaction
// and either commits in full or leaves no trace; failures are returned as
// *Error values whose Kind tells the caller how to react.
package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/bus-ticket-reservation/internal/clock"
	"github.com/iliyamo/bus-ticket-reservation/internal/model"
	"github.com/iliyamo/bus-ticket-reservation/internal/queue"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
)

// DefaultCancelWindow is how long before departure a ticket stops being
// cancelable.
const DefaultCancelWindow = time.Hour

// EventPublisher receives ticket events after the owning transaction has
// committed.  Publish failures are logged and never undo the operation.
type EventPublisher interface {
	PublishTicketPurchased(ctx context.Context, ev queue.TicketPurchasedEvent) error
	PublishTicketCanceled(ctx context.Context, ev queue.TicketCanceledEvent) error
}

// TicketService coordinates purchases, cancellations and the read paths
// that support them.
type TicketService struct {
	store        Store
	clock        clock.Clock
	cancelWindow time.Duration
	trips        TripCache
	events       EventPublisher
	log          *logrus.Logger
}

type Option func(*TicketService)

// WithClock overrides the system clock.
func WithClock(c clock.Clock) Option {
	return func(s *TicketService) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithCancelWindow overrides DefaultCancelWindow.  Non-positive values are ignored.
func WithCancelWindow(d time.Duration) Option {
	return func(s *TicketService) {
		if d > 0 {
			s.cancelWindow = d
		}
	}
}

func WithTripCache(c TripCache) Option {
	return func(s *TicketService) { s.trips = c }
}

func WithEvents(p EventPublisher) Option {
	return func(s *TicketService) { s.events = p }
}

func WithLogger(l *logrus.Logger) Option {
	return func(s *TicketService) {
		if l != nil {
			s.log = l
		}
	}
}

// NewTicketService returns a TicketService backed by store.
func NewTicketService(store Store, opts ...Option) *TicketService {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &TicketService{
		store:        store,
		clock:        clock.NewSystem(),
		cancelWindow: DefaultCancelWindow,
		log:          discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fail turns err into an *Error.  Errors that are already typed pass
// through; anything else is a storage failure and is logged.
func (s *TicketService) fail(op string, err error, fields logrus.Fields) error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	s.log.WithFields(fields).WithError(err).Errorf("%s failed", op)
	return persistence(op+" failed", err)
}

// loadTrip reads a trip for display paths, consulting the cache first.
func (s *TicketService) loadTrip(ctx context.Context, tx Tx, tripID string) (model.Trip, error) {
	if s.trips != nil {
		if trip, ok := s.trips.Get(ctx, tripID); ok {
			return trip, nil
		}
	}
	trip, err := getTrip(ctx, tx, tripID)
	if err != nil {
		return model.Trip{}, err
	}
	if s.trips != nil {
		s.trips.Set(ctx, trip)
	}
	return trip, nil
}

func getTrip(ctx context.Context, tx Tx, tripID string) (model.Trip, error) {
	trip, err := tx.GetTrip(ctx, tripID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Trip{}, ErrTripNotFound
	}
	return trip, err
}

// validateSeats checks a seat selection against a trip's capacity and
// returns it sorted.
func validateSeats(seats []int, trip model.Trip) ([]int, error) {
	if len(seats) == 0 {
		return nil, &Error{Kind: KindValidation, Code: codeInvalidSeats, Message: "at least one seat is required"}
	}
	sorted := append([]int(nil), seats...)
	sort.Ints(sorted)
	for i, n := range sorted {
		if !trip.HasSeat(n) {
			return nil, invalidSeat(n, "seat out of range")
		}
		if i > 0 && sorted[i-1] == n {
			return nil, invalidSeat(n, "duplicate seat")
		}
	}
	return sorted, nil
}

// firstTaken returns the first of seats already held by an active ticket,
// or 0 when all are free.
func firstTaken(ctx context.Context, tx Tx, tripID string, seats []int) (int, error) {
	booked, err := tx.BookedSeats(ctx, tripID)
	if err != nil {
		return 0, err
	}
	taken := make(map[int]struct{}, len(booked))
	for _, n := range booked {
		taken[n] = struct{}{}
	}
	for _, n := range seats {
		if _, ok := taken[n]; ok {
			return n, nil
		}
	}
	return 0, nil
}
