package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	got := splitStatements("CREATE TABLE a (x INT);\n\n  ;CREATE INDEX i ON a (x);\n")
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE INDEX i ON a (x)"}, got)
}

func TestMigrateSQLiteIsIdempotent(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, db, SQLite))
	require.NoError(t, Migrate(ctx, db, SQLite))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)

	for _, table := range []string{"users", "trips", "tickets", "booked_seats", "seat_claims", "coupons", "coupon_usages"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}
}

func TestMigrateUnknownDriver(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	assert.Error(t, Migrate(context.Background(), db, Driver("oracle")))
}

func TestIsUniqueViolation(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "u.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(context.Background(), db, SQLite))

	_, err = db.Exec(`INSERT INTO bus_companies (id, name) VALUES ('c', 'C')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO bus_companies (id, name) VALUES ('c', 'again')`)
	require.Error(t, err)

	lite := Dialect{Driver: SQLite}
	assert.True(t, lite.IsUniqueViolation(err))
	assert.False(t, lite.IsUniqueViolation(errors.New("other")))
	assert.False(t, lite.IsUniqueViolation(nil))

	my := Dialect{Driver: MySQL}
	assert.True(t, my.IsUniqueViolation(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.False(t, my.IsUniqueViolation(&mysql.MySQLError{Number: 1213, Message: "Deadlock"}))
}

func TestForUpdate(t *testing.T) {
	assert.Equal(t, " FOR UPDATE", Dialect{Driver: MySQL}.ForUpdate())
	assert.Equal(t, "", Dialect{Driver: SQLite}.ForUpdate())
}

func TestIsDeadlock(t *testing.T) {
	my := Dialect{Driver: MySQL}
	assert.True(t, my.IsDeadlock(&mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}))
	assert.True(t, my.IsDeadlock(fmt.Errorf("claim seat 3: %w", &mysql.MySQLError{Number: 1213})))
	assert.False(t, my.IsDeadlock(&mysql.MySQLError{Number: 1062}))
	assert.False(t, my.IsDeadlock(errors.New("other")))
	assert.False(t, my.IsDeadlock(nil))
}

func TestTxOptions(t *testing.T) {
	opts := Dialect{Driver: MySQL}.TxOptions()
	require.NotNil(t, opts)
	assert.Equal(t, sql.LevelReadCommitted, opts.Isolation)
	assert.False(t, opts.ReadOnly)

	assert.Nil(t, Dialect{Driver: SQLite}.TxOptions())
}
