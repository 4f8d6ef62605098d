package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DB struct {
	conn   *sql.DB
	driver string
}

// Connect opens a PostgreSQL archive.
func Connect(dsn string) (*DB, error) {
	return Open(DriverPostgres, dsn)
}

// OpenSQLite opens (creating if needed) a SQLite archive file.
func OpenSQLite(path string) (*DB, error) {
	return Open(DriverSQLite, path)
}

func Open(driver, dsn string) (*DB, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if driver == DriverSQLite {
		// One writer at a time; WAL lets readers proceed alongside it.
		conn.SetMaxOpenConns(1)
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	log.Info().Str("component", "db").Str("driver", driver).Msg("connected")
	return &DB{conn: conn, driver: driver}, nil
}

func (d *DB) Driver() string {
	return d.driver
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) Ping(ctx context.Context) error {
	return d.conn.PingContext(ctx)
}

// Migrate applies the embedded goose migrations for the connection's driver.
func (d *DB) Migrate() error {
	dialect, dir := "postgres", "migrations/postgres"
	if d.driver == DriverSQLite {
		dialect, dir = "sqlite3", "migrations/sqlite"
	}
	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("reading migrations dir: %w", err)
	}

	goose.SetBaseFS(sub)
	goose.SetLogger(gooseLogger{log.With().Str("component", "goose").Logger()})
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(d.conn, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// gooseLogger routes goose output through zerolog. Fatalf does not exit;
// goose returns the error to Migrate as well.
type gooseLogger struct {
	zl zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.zl.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.zl.Error().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

var placeholder = regexp.MustCompile(`\$\d+`)

// rebind rewrites $N placeholders to ? for SQLite. Every query in this
// package uses each placeholder once and in order.
func (d *DB) rebind(query string) string {
	if d.driver != DriverSQLite {
		return query
	}
	return placeholder.ReplaceAllString(query, "?")
}
