package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
)

// SeatMap is the occupancy of a trip.
type SeatMap struct {
	TripID    string `json:"trip_id"`
	Capacity  int    `json:"capacity"`
	Booked    []int  `json:"booked"`
	Available []int  `json:"available"`
}

// SeatMap reports which seats of a trip are held by active tickets and
// which are free.
func (s *TicketService) SeatMap(ctx context.Context, tripID string) (SeatMap, error) {
	if strings.TrimSpace(tripID) == "" {
		return SeatMap{}, invalid("trip id is required")
	}
	var out SeatMap
	err := s.store.View(ctx, func(tx Tx) error {
		trip, err := s.loadTrip(ctx, tx, tripID)
		if err != nil {
			return err
		}
		booked, err := tx.BookedSeats(ctx, trip.ID)
		if err != nil {
			return err
		}
		out = buildSeatMap(trip, booked)
		return nil
	})
	if err != nil {
		return SeatMap{}, s.fail("seat map", err, logrus.Fields{"trip_id": tripID})
	}
	return out, nil
}

func buildSeatMap(trip model.Trip, booked []int) SeatMap {
	taken := make(map[int]bool, len(booked))
	for _, n := range booked {
		taken[n] = true
	}
	m := SeatMap{TripID: trip.ID, Capacity: trip.Capacity, Booked: booked, Available: make([]int, 0, max(trip.Capacity-len(booked), 0))}
	for n := 1; n <= trip.Capacity; n++ {
		if !taken[n] {
			m.Available = append(m.Available, n)
		}
	}
	return m
}

type QuoteInput struct {
	TripID     string
	UserID     string
	Seats      []int
	CouponCode string
}

// Quote is a price preview for a seat selection.
type Quote struct {
	Subtotal   int64  `json:"subtotal"`
	Discount   int64  `json:"discount"`
	FinalPrice int64  `json:"final_price"`
	CouponCode string `json:"coupon_code,omitempty"`
	Balance    int64  `json:"balance"`
	Affordable bool   `json:"affordable"`
}

// Quote prices a seat selection with the same seat and coupon rules as
// Purchase but writes nothing and holds no locks.  Seats already taken are reported as
// ErrSeatConflict; an unaffordable price is reported through Affordable,
// not as an error.
func (s *TicketService) Quote(ctx context.Context, in QuoteInput) (Quote, error) {
	if strings.TrimSpace(in.TripID) == "" {
		return Quote{}, invalid("trip id is required")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return Quote{}, invalid("user id is required")
	}

	now := s.clock.Now()
	var out Quote
	err := s.store.View(ctx, func(tx Tx) error {
		trip, err := s.loadTrip(ctx, tx, in.TripID)
		if err != nil {
			return err
		}
		seats, err := validateSeats(in.Seats, trip)
		if err != nil {
			return err
		}
		acct, err := tx.GetAccount(ctx, in.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		fraction := decimal.Zero
		code := model.NormalizeCouponCode(in.CouponCode)
		if code != "" {
			c, err := validateCoupon(ctx, tx, code, trip.CompanyID, in.UserID, now)
			if err != nil {
				return err
			}
			fraction = c.Discount
		}

		if n, err := firstTaken(ctx, tx, trip.ID, seats); err != nil {
			return err
		} else if n != 0 {
			return seatConflict(n)
		}

		price := ComputePrice(trip.Price, len(seats), fraction)
		out = Quote{
			Subtotal:   price.Subtotal,
			Discount:   price.Discount,
			FinalPrice: price.Final,
			CouponCode: code,
			Balance:    acct.Balance,
			Affordable: acct.Balance >= price.Final,
		}
		return nil
	})
	if err != nil {
		return Quote{}, s.fail("quote", err, logrus.Fields{"trip_id": in.TripID, "user_id": in.UserID})
	}
	return out, nil
}

// Balance returns the user's virtual-credit balance.
func (s *TicketService) Balance(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, invalid("user id is required")
	}
	var balance int64
	err := s.store.View(ctx, func(tx Tx) error {
		acct, err := tx.GetAccount(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		balance = acct.Balance
		return nil
	})
	if err != nil {
		return 0, s.fail("balance", err, logrus.Fields{"user_id": userID})
	}
	return balance, nil
}
