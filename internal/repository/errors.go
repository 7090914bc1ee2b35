// Package repository implements the reservation engine's persistence on
// top of database/sql.  The sentinel values below let the service layer
// distinguish expected storage outcomes (a missing row, a seat somebody
// else already holds, a balance too small for a debit) from genuine
// infrastructure failures, which are returned wrapped and unchanged.
package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrInsufficientFunds is returned by Debit when the account balance is
// smaller than the amount to take.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrStaleStatus is returned when a conditional status transition finds
// the row in a different state than expected, e.g. a ticket that a
// concurrent request canceled first.
var ErrStaleStatus = errors.New("stale status")

// ErrSeatTaken matches any *SeatTakenError via errors.Is.
var ErrSeatTaken = errors.New("seat taken")

// SeatTakenError reports the seat whose claim hit the uniqueness
// constraint.
type SeatTakenError struct {
	TripID string
	Seat   int
}

func (e *SeatTakenError) Error() string {
	return fmt.Sprintf("seat %d on trip %s is already taken", e.Seat, e.TripID)
}

// Is lets errors.Is(err, ErrSeatTaken) match.
func (e *SeatTakenError) Is(target error) bool { return target == ErrSeatTaken }
