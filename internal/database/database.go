package database

import (
	"context"
	"database/sql"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Driver names the relational engine behind the pool.
type Driver string

const (
	Postgres Driver = "postgres"
	MySQL    Driver = "mysql"
	SQLite   Driver = "sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know about.
	sqlx.BindDriver(string(SQLite), sqlx.QUESTION)
}

// ParseDriver validates a configured driver name.
func ParseDriver(s string) (Driver, error) {
	switch d := Driver(s); d {
	case Postgres, MySQL, SQLite:
		return d, nil
	}
	return "", errors.Errorf("unsupported database driver %q", s)
}

// Options describes how to open the shared pool.
type Options struct {
	Driver   Driver
	DSN      string
	MaxConns int
}

// Endpoint holds the discrete connection settings used when no DSN is given.
type Endpoint struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// BuildDSN renders a driver specific connection string from discrete settings.
func BuildDSN(driver Driver, ep Endpoint) string {
	switch driver {
	case Postgres:
		port := ep.Port
		if port == 0 {
			port = 5432
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(ep.User, ep.Password),
			Host:     net.JoinHostPort(ep.Host, strconv.Itoa(port)),
			Path:     "/" + ep.Database,
			RawQuery: "sslmode=disable",
		}
		return u.String()
	case MySQL:
		port := ep.Port
		if port == 0 {
			port = 3306
		}
		cfg := mysql.NewConfig()
		cfg.User = ep.User
		cfg.Passwd = ep.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(ep.Host, strconv.Itoa(port))
		cfg.DBName = ep.Database
		cfg.ParseTime = true
		// report matched rows on UPDATE, not only changed ones
		cfg.ClientFoundRows = true
		return cfg.FormatDSN()
	default:
		if ep.Database == "" {
			return "inventory.db"
		}
		return ep.Database
	}
}

// DB is the lifecycle-scoped pool handed to every repository.
type DB struct {
	*sqlx.DB
	Dialect Dialect

	pool *pgxpool.Pool
}

// Open connects to the configured engine and verifies the connection.
func Open(ctx context.Context, opts Options) (*DB, error) {
	var (
		sqlDB *sql.DB
		pool  *pgxpool.Pool
		err   error
	)

	switch opts.Driver {
	case Postgres:
		cfg, err := pgxpool.ParseConfig(opts.DSN)
		if err != nil {
			return nil, errors.Wrap(err, "parse postgres dsn")
		}
		if opts.MaxConns > 0 {
			cfg.MaxConns = int32(opts.MaxConns)
		}
		pool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, errors.Wrap(err, "create pgx pool")
		}
		sqlDB = stdlib.OpenDBFromPool(pool)
	case MySQL:
		sqlDB, err = sql.Open("mysql", opts.DSN)
		if err != nil {
			return nil, errors.Wrap(err, "open mysql")
		}
		if opts.MaxConns > 0 {
			sqlDB.SetMaxOpenConns(opts.MaxConns)
		}
		sqlDB.SetConnMaxLifetime(3 * time.Minute)
	case SQLite:
		sqlDB, err = sql.Open("sqlite", opts.DSN)
		if err != nil {
			return nil, errors.Wrap(err, "open sqlite")
		}
		// a single writer avoids SQLITE_BUSY between pooled connections
		sqlDB.SetMaxOpenConns(1)
	default:
		return nil, errors.Errorf("unsupported database driver %q", opts.Driver)
	}

	driverName := string(opts.Driver)
	if opts.Driver == Postgres {
		driverName = "pgx"
	}
	db := &DB{
		DB:      sqlx.NewDb(sqlDB, driverName),
		Dialect: DialectFor(opts.Driver),
		pool:    pool,
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database ping failed")
	}
	return db, nil
}

// Close releases the pool. The pgx pool outlives the *sql.DB wrapper and is closed separately.
func (db *DB) Close() error {
	err := db.DB.Close()
	if db.pool != nil {
		db.pool.Close()
	}
	return err
}
