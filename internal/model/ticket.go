package model

import (
	"fmt"
	"strings"
	"time"
)

// TicketStatus is the closed set of ticket states.  Values are stored
// upper-case in the tickets.status column.
type TicketStatus string

const (
	TicketActive   TicketStatus = "ACTIVE"
	TicketCanceled TicketStatus = "CANCELED"
	TicketExpired  TicketStatus = "EXPIRED"
)

// ParseTicketStatus normalizes a stored status literal.  Matching is
// case-insensitive; anything outside the enum is an error.
func ParseTicketStatus(s string) (TicketStatus, error) {
	switch st := TicketStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case TicketActive, TicketCanceled, TicketExpired:
		return st, nil
	}
	return "", fmt.Errorf("unknown ticket status %q", s)
}

// Valid reports whether s is one of the known statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketActive, TicketCanceled, TicketExpired:
		return true
	}
	return false
}

// Ticket records a purchase of one or more seats on a trip.  TotalPrice is
// the amount actually charged and is never recomputed.
type Ticket struct {
	ID         string       // tickets.id
	TripID     string       // tickets.trip_id
	UserID     string       // tickets.user_id
	Status     TicketStatus // tickets.status
	TotalPrice int64        // tickets.total_price
	CreatedAt  time.Time    // tickets.created_at
}

// BookedSeat binds a seat number to a ticket.  Rows are written once, at
// purchase time, and never changed afterwards.
type BookedSeat struct {
	ID         string    // booked_seats.id
	TicketID   string    // booked_seats.ticket_id
	TripID     string    // booked_seats.trip_id
	SeatNumber int       // booked_seats.seat_number
	CreatedAt  time.Time // booked_seats.created_at
}
