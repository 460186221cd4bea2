// Package conn provides the MySQL connection adapter the engine runs
// against. The Connection interface is what every other package depends
// on; the concrete adapter wraps database/sql with the go-sql-driver
// and remembers the most recent driver error.
package conn

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"

	"schemasync/internal/core"
)

// Connection is the capability the engine needs from a database. A
// command holds exactly one connection for its whole lifetime.
type Connection interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
	// EscapeString escapes a value for inclusion inside a quoted SQL
	// string literal, using MySQL's escaping rules.
	EscapeString(s string) string
	// LastError returns the message of the most recent driver error, or
	// the empty string.
	LastError() string
	// Database returns the schema name the connection is bound to.
	Database() string
	Close() error
}

// Config holds MySQL connection parameters.
type Config struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	Socket   string `toml:"socket"`
	// TLSMode is one of "", "disabled", "preferred", "required",
	// "skip-verify", or "custom" (which needs TLSCA).
	TLSMode string `toml:"tls"`
	// TLSCA is the CA certificate file for TLSMode "custom".
	TLSCA string `toml:"tls_ca"`
}

// customTLSName is the driver-registered config name for TLSMode custom.
const customTLSName = "schemasync-custom"

// DSN renders the driver connection string. parseTime makes DATETIME
// columns scan into time.Time; interpolateParams keeps the dump reader
// on the text protocol.
func (c Config) DSN() string {
	var addr string
	if c.Socket != "" {
		addr = fmt.Sprintf("unix(%s)", c.Socket)
	} else {
		host := c.Host
		if host == "" {
			host = "127.0.0.1"
		}
		port := c.Port
		if port == 0 {
			port = 3306
		}
		addr = fmt.Sprintf("tcp(%s:%d)", host, port)
	}

	dsn := fmt.Sprintf("%s:%s@%s/%s?parseTime=true&interpolateParams=true",
		c.User, c.Password, addr, c.Database)

	switch c.TLSMode {
	case "preferred":
		dsn += "&tls=preferred"
	case "required":
		dsn += "&tls=true"
	case "skip-verify":
		dsn += "&tls=skip-verify"
	case "custom":
		dsn += "&tls=" + customTLSName
	}
	return dsn
}

// validateTLS checks the TLS mode and registers the custom CA config
// with the driver when requested.
func (c Config) validateTLS() error {
	switch c.TLSMode {
	case "", "disabled", "preferred", "required", "skip-verify":
		return nil
	case "custom":
		if c.TLSCA == "" {
			return core.NewError(core.ErrDatabaseUnavailable,
				"tls mode custom requires a CA certificate file")
		}
		return registerCustomTLS(c.TLSCA)
	default:
		return core.NewError(core.ErrDatabaseUnavailable,
			"invalid tls mode %q: valid values are disabled, preferred, required, skip-verify, custom", c.TLSMode)
	}
}

// registerCustomTLS reads a CA certificate PEM file and registers it as
// a named TLS config with the driver.
func registerCustomTLS(caPath string) error {
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return core.WrapError(core.ErrDatabaseUnavailable, err, "read CA certificate %q", caPath)
	}

	rootCAs := x509.NewCertPool()
	if !rootCAs.AppendCertsFromPEM(pem) {
		return core.NewError(core.ErrDatabaseUnavailable,
			"no valid certificates found in %q", caPath)
	}

	if err := mysqldriver.RegisterTLSConfig(customTLSName, &tls.Config{RootCAs: rootCAs}); err != nil {
		return core.WrapError(core.ErrDatabaseUnavailable, err, "register TLS config")
	}
	return nil
}

// DB is the concrete MySQL-backed connection.
type DB struct {
	db       *sql.DB
	database string
	lastErr  string
}

// Open connects and pings the target database. Connection and
// authentication failures come back tagged DatabaseUnavailable.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if err := cfg.validateTLS(); err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, core.WrapError(core.ErrDatabaseUnavailable, err, "open connection to %s", cfg.Database)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, core.WrapError(core.ErrDatabaseUnavailable, err, "ping %s", cfg.Database)
	}

	// One command per process, so the pool stays small: at most two open
	// connections, one of them kept idle.
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)

	return &DB{db: db, database: cfg.Database}, nil
}

// Wrap adapts an existing *sql.DB (used by tests with sqlmock).
func Wrap(db *sql.DB, database string) *DB {
	return &DB{db: db, database: database}
}

// Exec runs a statement and records any driver error.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := d.db.ExecContext(ctx, query, args...)
	d.remember(err)
	return res, err
}

// Query runs a query returning a streaming row set.
func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	d.remember(err)
	return rows, err
}

// QueryRow runs a single-row query.
func (d *DB) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

// EscapeString escapes s for embedding in a single-quoted literal.
func (d *DB) EscapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/10)
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\x00':
			b.WriteString(`\0`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\x1a':
			b.WriteString(`\Z`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LastError returns the most recent driver error message.
func (d *DB) LastError() string {
	return d.lastErr
}

// Database returns the schema name this connection is bound to.
func (d *DB) Database() string {
	return d.database
}

// Close releases the underlying pool.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) remember(err error) {
	if err == nil {
		return
	}
	var me *mysqldriver.MySQLError
	if errors.As(err, &me) {
		d.lastErr = fmt.Sprintf("[%d] %s", me.Number, me.Message)
		return
	}
	d.lastErr = err.Error()
}
