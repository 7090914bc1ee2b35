package database

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// Driver names the SQL backend in use.
type Driver string

const (
	MySQL  Driver = "mysql"
	SQLite Driver = "sqlite"
)

const (
	mysqlDuplicateEntry = 1062 // ER_DUP_ENTRY
	mysqlLockDeadlock   = 1213 // ER_LOCK_DEADLOCK
)

// Dialect hides the few places where MySQL and SQLite differ.
type Dialect struct {
	Driver Driver
}

// ForUpdate returns the row-locking suffix for SELECT statements.  SQLite
// has no row locks; its IMMEDIATE transactions already hold the write lock.
func (d Dialect) ForUpdate() string {
	if d.Driver == MySQL {
		return " FOR UPDATE"
	}
	return ""
}

// TxOptions returns the options every read-write transaction is opened
// with.  MySQL runs at READ COMMITTED so a read issued after waiting on a
// row lock sees what the lock holder committed; SQLite keeps its default.
func (d Dialect) TxOptions() *sql.TxOptions {
	if d.Driver == MySQL {
		return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}
	return nil
}

// IsDeadlock reports whether err is a MySQL deadlock.  InnoDB raises it
// when several transactions wait on the same duplicate key and the holder
// rolls back.
func (d Dialect) IsDeadlock(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlLockDeadlock
}

// IsUniqueViolation reports whether err is a primary key or unique index
// violation raised by the driver.
func (d Dialect) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
