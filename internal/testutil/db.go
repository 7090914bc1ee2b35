package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-ticket-reservation/internal/database"
	"github.com/iliyamo/bus-ticket-reservation/internal/model"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
)

// NewSQLiteStore opens a migrated SQLite database in a temp dir and
// returns a store over it.  The database is closed when the test ends.
func NewSQLiteStore(t *testing.T) (*repository.Store, *sql.DB) {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "tickets.db"))
	require.NoError(t, err, "open sqlite")
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, database.Migrate(ctx, db, database.SQLite), "migrate")

	return repository.NewStore(db, database.Dialect{Driver: database.SQLite}), db
}

func InsertCompany(t *testing.T, db *sql.DB, name string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.Exec(`INSERT INTO bus_companies (id, name) VALUES (?, ?)`, id, name)
	require.NoError(t, err, "insert company")
	return id
}

func InsertUser(t *testing.T, db *sql.DB, role string, balance int64) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.Exec(`INSERT INTO users (id, full_name, role, balance) VALUES (?, ?, ?, ?)`,
		id, "user "+id[:8], role, balance)
	require.NoError(t, err, "insert user")
	return id
}

// InsertTrip stores trip, filling in an id and arrival time when missing.
func InsertTrip(t *testing.T, db *sql.DB, trip model.Trip) model.Trip {
	t.Helper()
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	if trip.DepartureCity == "" {
		trip.DepartureCity = "Istanbul"
	}
	if trip.DestinationCity == "" {
		trip.DestinationCity = "Ankara"
	}
	if trip.ArrivalTime.IsZero() {
		trip.ArrivalTime = trip.DepartureTime.Add(6 * time.Hour)
	}
	_, err := db.Exec(`INSERT INTO trips (id, company_id, departure_city, destination_city, departure_time, arrival_time, price, capacity)
	                   VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		trip.ID, trip.CompanyID, trip.DepartureCity, trip.DestinationCity,
		trip.DepartureTime.UTC(), trip.ArrivalTime.UTC(), trip.Price, trip.Capacity)
	require.NoError(t, err, "insert trip")
	return trip
}

// InsertCoupon stores a coupon with the given code and discount fraction.
func InsertCoupon(t *testing.T, db *sql.DB, code string, discount string, usageLimit int, expireAt time.Time, companyID *string) string {
	t.Helper()
	id := uuid.NewString()
	var company sql.NullString
	if companyID != nil {
		company = sql.NullString{String: *companyID, Valid: true}
	}
	_, err := db.Exec(`INSERT INTO coupons (id, code, discount, usage_limit, expire_at, company_id) VALUES (?, ?, ?, ?, ?, ?)`,
		id, model.NormalizeCouponCode(code), decimal.RequireFromString(discount), usageLimit, expireAt.UTC(), company)
	require.NoError(t, err, "insert coupon")
	return id
}

func Balance(t *testing.T, db *sql.DB, userID string) int64 {
	t.Helper()
	var b int64
	require.NoError(t, db.QueryRow(`SELECT balance FROM users WHERE id = ?`, userID).Scan(&b))
	return b
}

// CountRows counts the rows of table, optionally filtered by a where
// clause with args.
func CountRows(t *testing.T, db *sql.DB, table, where string, args ...any) int {
	t.Helper()
	q := `SELECT COUNT(*) FROM ` + table
	if where != "" {
		q += ` WHERE ` + where
	}
	var n int
	require.NoError(t, db.QueryRow(q, args...).Scan(&n))
	return n
}

func TicketStatus(t *testing.T, db *sql.DB, ticketID string) string {
	t.Helper()
	var s string
	require.NoError(t, db.QueryRow(`SELECT status FROM tickets WHERE id = ?`, ticketID).Scan(&s))
	return s
}
