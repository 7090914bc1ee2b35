package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
)

// BookedSeats returns the seat numbers held by ACTIVE tickets of a trip in
// ascending order.  Seats of canceled or expired tickets are not included.
func (t *Tx) BookedSeats(ctx context.Context, tripID string) ([]int, error) {
	const q = `SELECT bs.seat_number
               FROM booked_seats bs
               JOIN tickets tk ON tk.id = bs.ticket_id
               WHERE bs.trip_id = ? AND tk.status = ?
               ORDER BY bs.seat_number`
	rows, err := t.tx.QueryContext(ctx, q, tripID, string(model.TicketActive))
	if err != nil {
		return nil, fmt.Errorf("query booked seats: %w", err)
	}
	defer rows.Close()

	seats := make([]int, 0)
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan booked seat: %w", err)
		}
		seats = append(seats, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booked seats: %w", err)
	}
	return seats, nil
}

// ReserveSeats binds every seat to the ticket.  Each seat is first claimed
// in seat_claims, whose primary key (trip_id, seat_number) makes the claim
// exclusive; a duplicate key, or a MySQL deadlock among transactions
// waiting on the same key, is returned as *SeatTakenError and the caller
// must roll the transaction back.  Seats are claimed in ascending order so
// that concurrent purchases lock overlapping seats in the same sequence.
func (t *Tx) ReserveSeats(ctx context.Context, tripID, ticketID string, seats []int, now time.Time) error {
	ordered := append([]int(nil), seats...)
	sort.Ints(ordered)

	const claim = `INSERT INTO seat_claims (trip_id, seat_number, ticket_id) VALUES (?, ?, ?)`
	const book = `INSERT INTO booked_seats (id, ticket_id, trip_id, seat_number, created_at) VALUES (?, ?, ?, ?, ?)`
	for _, n := range ordered {
		if _, err := t.tx.ExecContext(ctx, claim, tripID, n, ticketID); err != nil {
			return t.claimError(tripID, n, err)
		}
		if _, err := t.tx.ExecContext(ctx, book, uuid.NewString(), ticketID, tripID, n, now); err != nil {
			return fmt.Errorf("book seat %d: %w", n, err)
		}
	}
	return nil
}

func (t *Tx) claimError(tripID string, seat int, err error) error {
	if t.dialect.IsUniqueViolation(err) || t.dialect.IsDeadlock(err) {
		return &SeatTakenError{TripID: tripID, Seat: seat}
	}
	return fmt.Errorf("claim seat %d: %w", seat, err)
}

// ReleaseSeats drops the seat claims of a ticket so its seats can be sold
// again.  The ticket's booked_seats rows are kept as history.
func (t *Tx) ReleaseSeats(ctx context.Context, ticketID string) (int, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM seat_claims WHERE ticket_id = ?`, ticketID)
	if err != nil {
		return 0, fmt.Errorf("release seats: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("release seats: %w", err)
	}
	return int(n), nil
}

// SeatsByTicket lists the seat numbers booked under a ticket.
func (t *Tx) SeatsByTicket(ctx context.Context, ticketID string) ([]int, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT seat_number FROM booked_seats WHERE ticket_id = ? ORDER BY seat_number`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("query ticket seats: %w", err)
	}
	defer rows.Close()

	var seats []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan ticket seat: %w", err)
		}
		seats = append(seats, n)
	}
	return seats, rows.Err()
}
