package model

import "time"

// Trip represents a scheduled, company-operated bus journey.  Trips are
// managed by the trip administration screens; the reservation engine only
// reads them.
//
// Fields:
//  ID              – primary key identifier.
//  CompanyID       – bus company operating the trip.
//  DepartureCity   – city of departure.
//  DestinationCity – city of arrival.
//  DepartureTime   – scheduled departure (UTC).
//  ArrivalTime     – scheduled arrival (UTC).
//  Price           – unit price of one seat in whole currency units.
//  Capacity        – number of seats; valid seat numbers are 1..Capacity.
type Trip struct {
	ID              string    `json:"id"`               // trips.id
	CompanyID       string    `json:"company_id"`       // trips.company_id
	DepartureCity   string    `json:"departure_city"`   // trips.departure_city
	DestinationCity string    `json:"destination_city"` // trips.destination_city
	DepartureTime   time.Time `json:"departure_time"`   // trips.departure_time
	ArrivalTime     time.Time `json:"arrival_time"`     // trips.arrival_time
	Price           int64     `json:"price"`            // trips.price
	Capacity        int       `json:"capacity"`         // trips.capacity
}

// HasSeat reports whether n is a valid seat number on the trip.
func (t Trip) HasSeat(n int) bool {
	return n >= 1 && n <= t.Capacity
}

// Company is a bus operator.  Trips and coupons can be scoped to it.
type Company struct {
	ID   string // bus_companies.id
	Name string // bus_companies.name
}
