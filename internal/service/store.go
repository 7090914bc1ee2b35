package service

import (
	"context"
	"time"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
)

// Tx is the transaction-scoped repository the coordinators work through.
// Every method runs inside the same database transaction.
type Tx interface {
	GetTrip(ctx context.Context, tripID string) (model.Trip, error)

	BookedSeats(ctx context.Context, tripID string) ([]int, error)
	ReserveSeats(ctx context.Context, tripID, ticketID string, seats []int, now time.Time) error
	ReleaseSeats(ctx context.Context, ticketID string) (int, error)
	SeatsByTicket(ctx context.Context, ticketID string) ([]int, error)

	GetAccount(ctx context.Context, userID string) (model.UserAccount, error)
	LockAccount(ctx context.Context, userID string) (model.UserAccount, error)
	Debit(ctx context.Context, userID string, amount int64) error
	Credit(ctx context.Context, userID string, amount int64) error

	FindCouponByCode(ctx context.Context, code string) (model.Coupon, error)
	CountCouponUsage(ctx context.Context, couponID, userID string) (int, error)
	InsertCouponUsage(ctx context.Context, u model.CouponUsage) error

	InsertTicket(ctx context.Context, tk model.Ticket) error
	GetTicketForUpdate(ctx context.Context, ticketID string) (model.Ticket, error)
	UpdateTicketStatus(ctx context.Context, ticketID string, from, to model.TicketStatus) error
}

// Store opens transactions.  fn's error is returned unchanged and causes
// a rollback; a nil return commits.  View hands fn a Tx that reads
// outside any transaction.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

type sqlStore struct {
	store *repository.Store
}

// NewSQLStore adapts a repository.Store to the Store interface.
func NewSQLStore(s *repository.Store) Store {
	return sqlStore{store: s}
}

func (s sqlStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.store.WithTx(ctx, func(tx *repository.Tx) error {
		return fn(tx)
	})
}

func (s sqlStore) View(ctx context.Context, fn func(tx Tx) error) error {
	return s.store.View(ctx, func(tx *repository.Tx) error {
		return fn(tx)
	})
}

// TripCache is an optional read-through cache for trips used by the
// display paths (seat map and quote).  Purchase and Cancel always read the
// trip inside their transaction.
type TripCache interface {
	Get(ctx context.Context, tripID string) (model.Trip, bool)
	Set(ctx context.Context, trip model.Trip)
}
