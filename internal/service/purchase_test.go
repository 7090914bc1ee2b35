package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-ticket-reservation/internal/clock"
	"github.com/iliyamo/bus-ticket-reservation/internal/service"
	"github.com/iliyamo/bus-ticket-reservation/internal/testutil"
)

func TestPurchase_TwoSeatsWithCoupon(t *testing.T) {
	f := newFixture(t, 100, 40)
	user := f.user(t, 180)
	testutil.InsertCoupon(t, f.db, "SUMMER10", "0.10", 1, testNow.Add(24*time.Hour), nil)

	res, err := f.svc.Purchase(context.Background(), service.PurchaseInput{
		TripID:     f.trip.ID,
		UserID:     user,
		Seats:      []int{4, 3},
		CouponCode: "summer10",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.TicketID)
	assert.EqualValues(t, 200, res.Subtotal)
	assert.EqualValues(t, 20, res.Discount)
	assert.EqualValues(t, 180, res.FinalPrice)
	assert.Equal(t, []int{3, 4}, res.Seats)

	assert.EqualValues(t, 0, testutil.Balance(t, f.db, user))
	assert.Equal(t, "ACTIVE", testutil.TicketStatus(t, f.db, res.TicketID))
	assert.Equal(t, 2, testutil.CountRows(t, f.db, "booked_seats", "ticket_id = ?", res.TicketID))
	assert.Equal(t, 1, testutil.CountRows(t, f.db, "coupon_usages", "ticket_id = ?", res.TicketID))

	var total int64
	require.NoError(t, f.db.QueryRow(`SELECT total_price FROM tickets WHERE id = ?`, res.TicketID).Scan(&total))
	assert.EqualValues(t, 180, total)
}

func TestPurchase_WithoutCoupon(t *testing.T) {
	f := newFixture(t, 250, 10)
	user := f.user(t, 1000)

	res, err := f.svc.Purchase(context.Background(), service.PurchaseInput{TripID: f.trip.ID, UserID: user, Seats: []int{1}})
	require.NoError(t, err)
	assert.EqualValues(t, 250, res.FinalPrice)
	assert.EqualValues(t, 0, res.Discount)
	assert.EqualValues(t, 750, testutil.Balance(t, f.db, user))
	assert.Equal(t, 0, testutil.CountRows(t, f.db, "coupon_usages", ""))
}

func TestPurchase_SeatAlreadyBooked(t *testing.T) {
	f := newFixture(t, 100, 40)
	first := f.user(t, 500)
	second := f.user(t, 500)
	f.buy(t, first, f.trip.ID, 3)

	_, err := f.svc.Purchase(context.Background(), service.PurchaseInput{TripID: f.trip.ID, UserID: second, Seats: []int{2, 3}})
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrSeatConflict)

	var se *service.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, service.KindConflict, se.Kind)
	assert.Equal(t, 3, se.Seat)

	assert.EqualValues(t, 500, testutil.Balance(t, f.db, second))
	assert.Equal(t, 1, testutil.CountRows(t, f.db, "tickets", ""))
	assert.Equal(t, 1, testutil.CountRows(t, f.db, "booked_seats", ""))
}

func TestPurchase_ConcurrentSameSeat(t *testing.T) {
	f := newFixture(t, 100, 40)

	const buyers = 8
	users := make([]string, buyers)
	for i := range users {
		users[i] = f.user(t, 100)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
		others    []error
	)
	start := make(chan struct{})
	for _, u := range users {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			<-start
			_, err := f.svc.Purchase(context.Background(), service.PurchaseInput{TripID: f.trip.ID, UserID: userID, Seats: []int{5}})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, service.ErrSeatConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}(u)
	}
	close(start)
	wg.Wait()

	require.Empty(t, others)
	assert.Equal(t, 1, wins)
	assert.Equal(t, buyers-1, conflicts)
	assert.Equal(t, 1, testutil.CountRows(t, f.db, "booked_seats", "trip_id = ? AND seat_number = 5", f.trip.ID))

	var charged int
	for _, u := range users {
		if testutil.Balance(t, f.db, u) == 0 {
			charged++
		}
	}
	assert.Equal(t, 1, charged)
}

func TestPurchase_InsufficientBalanceLeavesNoTrace(t *testing.T) {
	f := newFixture(t, 100, 40)
	user := f.user(t, 150)

	_, err := f.svc.Purchase(context.Background(), service.PurchaseInput{TripID: f.trip.ID, UserID: user, Seats: []int{1, 2}})
	require.ErrorIs(t, err, service.ErrInsufficientBalance)

	var se *service.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, service.KindBusinessRule, se.Kind)
	assert.EqualValues(t, 200, se.Required)
	assert.EqualValues(t, 150, se.Available)

	assert.EqualValues(t, 150, testutil.Balance(t, f.db, user))
	assert.Equal(t, 0, testutil.CountRows(t, f.db, "tickets", ""))
	assert.Equal(t, 0, testutil.CountRows(t, f.db, "booked_seats", ""))
	assert.Equal(t, 0, testutil.CountRows(t, f.db, "seat_claims", ""))
}

func TestPurchase_Validation(t *testing.T) {
	f := newFixture(t, 100, 10)
	user := f.user(t, 1000)

	tests := []struct {
		name string
		in   service.PurchaseInput
		want error
		kind service.Kind
		seat int
	}{
		{"no seats", service.PurchaseInput{TripID: f.trip.ID, UserID: user}, service.ErrInvalidSeats, service.KindValidation, 0},
		{"seat zero", service.PurchaseInput{TripID: f.trip.ID, UserID: user, Seats: []int{0}}, service.ErrInvalidSeats, service.KindValidation, 0},
		{"above capacity", service.PurchaseInput{TripID: f.trip.ID, UserID: user, Seats: []int{1, 11}}, service.ErrInvalidSeats, service.KindValidation, 11},
		{"duplicate", service.PurchaseInput{TripID: f.trip.ID, UserID: user, Seats: []int{2, 2}}, service.ErrInvalidSeats, service.KindValidation, 2},
		{"missing trip id", service.PurchaseInput{UserID: user, Seats: []int{1}}, service.ErrInvalidInput, service.KindValidation, 0},
		{"missing user id", service.PurchaseInput{TripID: f.trip.ID, Seats: []int{1}}, service.ErrInvalidInput, service.KindValidation, 0},
		{"unknown trip", service.PurchaseInput{TripID: "nope", UserID: user, Seats: []int{1}}, service.ErrTripNotFound, service.KindNotFound, 0},
		{"unknown user", service.PurchaseInput{TripID: f.trip.ID, UserID: "ghost", Seats: []int{1}}, service.ErrUserNotFound, service.KindNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Purchase(context.Background(), tt.in)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.kind, service.KindOf(err))
			if tt.seat != 0 {
				var se *service.Error
				require.True(t, errors.As(err, &se))
				assert.Equal(t, tt.seat, se.Seat)
			}
		})
	}
	assert.Equal(t, 0, testutil.CountRows(t, f.db, "tickets", ""))
	assert.EqualValues(t, 1000, testutil.Balance(t, f.db, user))
}

func TestPurchase_CouponRules(t *testing.T) {
	f := newFixture(t, 100, 40)
	otherCompany := testutil.InsertCompany(t, f.db, "Other Lines")

	testutil.InsertCoupon(t, f.db, "EXPIRED", "0.5", 5, testNow.Add(-time.Second), nil)
	testutil.InsertCoupon(t, f.db, "LASTSECOND", "0.5", 5, testNow, nil)
	testutil.InsertCoupon(t, f.db, "OTHERCO", "0.5", 5, testNow.Add(time.Hour), &otherCompany)
	testutil.InsertCoupon(t, f.db, "OURCO", "0.25", 5, testNow.Add(time.Hour), &f.company)

	tests := []struct {
		name     string
		code     string
		seat     int
		want     error
		discount int64
	}{
		{"unknown code", "NOSUCH", 1, service.ErrCouponNotFound, 0},
		{"expired one second ago", "EXPIRED", 2, service.ErrCouponExpired, 0},
		{"expires exactly now", "LASTSECOND", 3, nil, 50},
		{"other company", "OTHERCO", 4, service.ErrCouponWrongScope, 0},
		{"own company, padded lower case", "  ourco ", 5, nil, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := f.user(t, 1000)
			before := testutil.CountRows(t, f.db, "tickets", "")

			res, err := f.svc.Purchase(context.Background(), service.PurchaseInput{
				TripID:     f.trip.ID,
				UserID:     user,
				Seats:      []int{tt.seat},
				CouponCode: tt.code,
			})
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
				assert.Equal(t, before, testutil.CountRows(t, f.db, "tickets", ""))
				assert.EqualValues(t, 1000, testutil.Balance(t, f.db, user))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.discount, res.Discount)
			assert.EqualValues(t, 1000-100+tt.discount, testutil.Balance(t, f.db, user))
		})
	}
}

func TestPurchase_CouponUsageLimitPerUser(t *testing.T) {
	f := newFixture(t, 100, 40)
	testutil.InsertCoupon(t, f.db, "ONCE", "0.10", 1, testNow.Add(time.Hour), nil)
	alice := f.user(t, 1000)
	bob := f.user(t, 1000)

	_, err := f.svc.Purchase(context.Background(), service.PurchaseInput{TripID: f.trip.ID, UserID: alice, Seats: []int{1}, CouponCode: "ONCE"})
	require.NoError(t, err)

	_, err = f.svc.Purchase(context.Background(), service.PurchaseInput{TripID: f.trip.ID, UserID: alice, Seats: []int{2}, CouponCode: "ONCE"})
	require.ErrorIs(t, err, service.ErrCouponUsageLimit)
	assert.Equal(t, service.KindBusinessRule, service.KindOf(err))

	// the limit is per user
	_, err = f.svc.Purchase(context.Background(), service.PurchaseInput{TripID: f.trip.ID, UserID: bob, Seats: []int{2}, CouponCode: "ONCE"})
	require.NoError(t, err)

	assert.Equal(t, 1, testutil.CountRows(t, f.db, "coupon_usages", "user_id = ?", alice))
	assert.EqualValues(t, 910, testutil.Balance(t, f.db, alice))
}

func TestPurchase_LateFailureRollsBackEverything(t *testing.T) {
	f := newFixture(t, 100, 40)
	testutil.InsertCoupon(t, f.db, "SUMMER10", "0.10", 1, testNow.Add(time.Hour), nil)
	user := f.user(t, 500)

	svc := service.NewTicketService(failingStore{inner: f.store, err: errDiskFull},
		service.WithClock(clock.NewFixed(testNow)))

	_, err := svc.Purchase(context.Background(), service.PurchaseInput{
		TripID: f.trip.ID, UserID: user, Seats: []int{1, 2}, CouponCode: "SUMMER10",
	})
	require.Error(t, err)
	assert.Equal(t, service.KindPersistence, service.KindOf(err))
	assert.ErrorIs(t, err, errDiskFull)
	assert.ErrorIs(t, err, service.ErrPersistence)

	assert.EqualValues(t, 500, testutil.Balance(t, f.db, user))
	assert.Equal(t, 0, testutil.CountRows(t, f.db, "tickets", ""))
	assert.Equal(t, 0, testutil.CountRows(t, f.db, "booked_seats", ""))
	assert.Equal(t, 0, testutil.CountRows(t, f.db, "seat_claims", ""))
	assert.Equal(t, 0, testutil.CountRows(t, f.db, "coupon_usages", ""))
}

func TestPurchase_SeatClaimConflictAtCommit(t *testing.T) {
	f := newFixture(t, 100, 40)
	testutil.InsertCoupon(t, f.db, "SUMMER10", "0.10", 1, testNow.Add(time.Hour), nil)
	user := f.user(t, 500)

	svc := service.NewTicketService(claimRaceStore{inner: f.store, seat: 2},
		service.WithClock(clock.NewFixed(testNow)))

	_, err := svc.Purchase(context.Background(), service.PurchaseInput{
		TripID: f.trip.ID, UserID: user, Seats: []int{1, 2}, CouponCode: "summer10",
	})
	require.ErrorIs(t, err, service.ErrSeatConflict)
	assert.Equal(t, service.KindConflict, service.KindOf(err))
	var se *service.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Seat)

	assert.EqualValues(t, 500, testutil.Balance(t, f.db, user))
	assert.Equal(t, 0, testutil.CountRows(t, f.db, "tickets", ""))
	assert.Equal(t, 0, testutil.CountRows(t, f.db, "coupon_usages", ""))
}

func TestPurchase_LocksAccountBeforeAnyRead(t *testing.T) {
	f := newFixture(t, 100, 40)
	testutil.InsertCoupon(t, f.db, "SUMMER10", "0.10", 1, testNow.Add(time.Hour), nil)
	user := f.user(t, 500)

	var calls []string
	svc := service.NewTicketService(recordingStore{inner: f.store, calls: &calls},
		service.WithClock(clock.NewFixed(testNow)))

	_, err := svc.Purchase(context.Background(), service.PurchaseInput{
		TripID: f.trip.ID, UserID: user, Seats: []int{3}, CouponCode: "SUMMER10",
	})
	require.NoError(t, err)
	require.NotEmpty(t, calls)
	assert.Equal(t, "LockAccount", calls[0])
	assert.Contains(t, calls, "CountCouponUsage")
}

func TestPurchase_ConcurrentCouponRedemptionsBySameUser(t *testing.T) {
	f := newFixture(t, 100, 40)
	testutil.InsertCoupon(t, f.db, "ONCE", "0.10", 1, testNow.Add(time.Hour), nil)
	user := f.user(t, 10000)

	const buyers = 6
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		limited int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(seat int) {
			defer wg.Done()
			_, err := f.svc.Purchase(context.Background(), service.PurchaseInput{
				TripID: f.trip.ID, UserID: user, Seats: []int{seat}, CouponCode: "ONCE",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, service.ErrCouponUsageLimit):
				limited++
			default:
				t.Errorf("seat %d: unexpected error: %v", seat, err)
			}
		}(i + 1)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, buyers-1, limited)
	assert.Equal(t, 1, testutil.CountRows(t, f.db, "coupon_usages", "user_id = ?", user))
	assert.EqualValues(t, 10000-90, testutil.Balance(t, f.db, user))
}
