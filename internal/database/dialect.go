package database

import (
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect captures the SQL differences between the supported engines.
type Dialect struct {
	Driver Driver
	// Returning reports support for INSERT ... RETURNING id.
	Returning bool
}

// DialectFor returns the dialect of a driver.
func DialectFor(d Driver) Dialect {
	return Dialect{
		Driver:    d,
		Returning: d == Postgres || d == SQLite,
	}
}

// Quote quotes an identifier. Column names such as "user" are reserved words on postgres.
func (d Dialect) Quote(ident string) string {
	switch d.Driver {
	case Postgres:
		return pq.QuoteIdentifier(ident)
	case MySQL:
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	default:
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	}
}

// Placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d.Driver == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// IsUniqueViolation reports whether err is a unique-constraint failure on any supported engine.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
