package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/bus-ticket-reservation/internal/clock"
	"github.com/iliyamo/bus-ticket-reservation/internal/model"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
	"github.com/iliyamo/bus-ticket-reservation/internal/service"
	"github.com/iliyamo/bus-ticket-reservation/internal/testutil"
)

var testNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db      *sql.DB
	store   service.Store
	svc     *service.TicketService
	company string
	trip    model.Trip
}

// newFixture seeds one company and one trip departing a day after testNow.
func newFixture(t *testing.T, price int64, capacity int, opts ...service.Option) *fixture {
	t.Helper()
	repo, db := testutil.NewSQLiteStore(t)
	store := service.NewSQLStore(repo)

	company := testutil.InsertCompany(t, db, "Anadolu Express")
	trip := testutil.InsertTrip(t, db, model.Trip{
		CompanyID:     company,
		DepartureTime: testNow.Add(24 * time.Hour),
		Price:         price,
		Capacity:      capacity,
	})

	opts = append([]service.Option{service.WithClock(clock.NewFixed(testNow))}, opts...)
	return &fixture{
		db:      db,
		store:   store,
		svc:     service.NewTicketService(store, opts...),
		company: company,
		trip:    trip,
	}
}

func (f *fixture) user(t *testing.T, balance int64) string {
	t.Helper()
	return testutil.InsertUser(t, f.db, model.RoleUser, balance)
}

func (f *fixture) tripDeparting(t *testing.T, departure time.Time) model.Trip {
	t.Helper()
	return testutil.InsertTrip(t, f.db, model.Trip{
		CompanyID:     f.company,
		DepartureTime: departure,
		Price:         f.trip.Price,
		Capacity:      f.trip.Capacity,
	})
}

func (f *fixture) buy(t *testing.T, userID, tripID string, seats ...int) service.PurchaseResult {
	t.Helper()
	res, err := f.svc.Purchase(context.Background(), service.PurchaseInput{TripID: tripID, UserID: userID, Seats: seats})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	return res
}

// failingStore injects an error into one Tx method so late failures can
// be observed.
type failingStore struct {
	inner service.Store
	err   error
}

func (s failingStore) WithTx(ctx context.Context, fn func(tx service.Tx) error) error {
	return s.inner.WithTx(ctx, func(tx service.Tx) error {
		return fn(failingTx{Tx: tx, err: s.err})
	})
}

func (s failingStore) View(ctx context.Context, fn func(tx service.Tx) error) error {
	return s.inner.View(ctx, fn)
}

type failingTx struct {
	service.Tx
	err error
}

func (tx failingTx) InsertCouponUsage(context.Context, model.CouponUsage) error { return tx.err }

func (tx failingTx) Credit(context.Context, string, int64) error { return tx.err }

var errDiskFull = errors.New("disk full")

// claimRaceStore simulates a seat claimed by a concurrent purchase after
// the pre-check: BookedSeats sees nothing, the claim insert collides.
type claimRaceStore struct {
	inner service.Store
	seat  int
}

func (s claimRaceStore) WithTx(ctx context.Context, fn func(tx service.Tx) error) error {
	return s.inner.WithTx(ctx, func(tx service.Tx) error {
		return fn(claimRaceTx{Tx: tx, seat: s.seat})
	})
}

func (s claimRaceStore) View(ctx context.Context, fn func(tx service.Tx) error) error {
	return s.inner.View(ctx, fn)
}

type claimRaceTx struct {
	service.Tx
	seat int
}

func (tx claimRaceTx) BookedSeats(context.Context, string) ([]int, error) { return nil, nil }

func (tx claimRaceTx) ReserveSeats(_ context.Context, tripID, _ string, _ []int, _ time.Time) error {
	return &repository.SeatTakenError{TripID: tripID, Seat: tx.seat}
}

// recordingStore logs the order of Tx calls made by the service.
type recordingStore struct {
	inner service.Store
	calls *[]string
}

func (s recordingStore) WithTx(ctx context.Context, fn func(tx service.Tx) error) error {
	return s.inner.WithTx(ctx, func(tx service.Tx) error {
		return fn(recordingTx{Tx: tx, calls: s.calls})
	})
}

func (s recordingStore) View(ctx context.Context, fn func(tx service.Tx) error) error {
	return s.inner.View(ctx, fn)
}

type recordingTx struct {
	service.Tx
	calls *[]string
}

func (tx recordingTx) record(name string) { *tx.calls = append(*tx.calls, name) }

func (tx recordingTx) GetTrip(ctx context.Context, tripID string) (model.Trip, error) {
	tx.record("GetTrip")
	return tx.Tx.GetTrip(ctx, tripID)
}

func (tx recordingTx) LockAccount(ctx context.Context, userID string) (model.UserAccount, error) {
	tx.record("LockAccount")
	return tx.Tx.LockAccount(ctx, userID)
}

func (tx recordingTx) FindCouponByCode(ctx context.Context, code string) (model.Coupon, error) {
	tx.record("FindCouponByCode")
	return tx.Tx.FindCouponByCode(ctx, code)
}

func (tx recordingTx) CountCouponUsage(ctx context.Context, couponID, userID string) (int, error) {
	tx.record("CountCouponUsage")
	return tx.Tx.CountCouponUsage(ctx, couponID, userID)
}

func (tx recordingTx) BookedSeats(ctx context.Context, tripID string) ([]int, error) {
	tx.record("BookedSeats")
	return tx.Tx.BookedSeats(ctx, tripID)
}
