package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
)

// GetTrip loads a trip by id.  It returns ErrNotFound when no such trip
// exists.
func (t *Tx) GetTrip(ctx context.Context, tripID string) (model.Trip, error) {
	const q = `SELECT id, company_id, departure_city, destination_city,
                      departure_time, arrival_time, price, capacity
               FROM trips
               WHERE id = ?`
	var trip model.Trip
	err := t.tx.QueryRowContext(ctx, q, tripID).Scan(
		&trip.ID, &trip.CompanyID, &trip.DepartureCity, &trip.DestinationCity,
		&trip.DepartureTime, &trip.ArrivalTime, &trip.Price, &trip.Capacity,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Trip{}, ErrNotFound
		}
		return model.Trip{}, fmt.Errorf("get trip: %w", err)
	}
	trip.DepartureTime = trip.DepartureTime.UTC()
	trip.ArrivalTime = trip.ArrivalTime.UTC()
	return trip, nil
}
