package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	// mssql driver registration.
	_ "github.com/microsoft/go-mssqldb"
)

// Config holds the connection settings for a SQL Server instance.
type Config struct {
	Host      string `koanf:"host"`
	Port      int    `koanf:"port"`
	User      string `koanf:"user"`
	Password  string `koanf:"password"`
	Database  string `koanf:"database"`
	Encrypt   bool   `koanf:"encrypt"`
	TrustCert bool   `koanf:"trust_cert"`
}

// DSN builds the go-mssqldb connection URL.
func (c Config) DSN() string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = 1433
	}

	q := url.Values{}
	q.Set("database", c.Database)
	if c.Encrypt {
		q.Set("encrypt", "true")
	} else {
		q.Set("encrypt", "disable")
	}
	if c.TrustCert {
		q.Set("TrustServerCertificate", "true")
	}

	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", host, port),
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Conn is the shared database handle. It holds a single underlying
// session and serializes every round trip behind a mutex: the in-flight
// query and foreground schema or catalog lookups never interleave on the
// wire.
type Conn struct {
	mu     sync.Mutex
	db     *sql.DB
	cfg    Config
	logger *slog.Logger
}

// Connect opens and verifies a connection to SQL Server.
// If logger is nil, a discard logger is used.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	logger.Debug("connecting to sql server",
		slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("sqlserver", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	// One session only; exclusivity is enforced by the Conn mutex.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to SQL Server: %w", err)
	}

	return NewConn(db, cfg, logger), nil
}

// NewConn wraps an already-open database handle. Used by Connect and by
// tests that substitute a mock handle.
func NewConn(db *sql.DB, cfg Config, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Conn{db: db, cfg: cfg, logger: logger}
}

// Config returns the connection settings.
func (c *Conn) Config() Config { return c.cfg }

// Database returns the connected database name.
func (c *Conn) Database() string { return c.cfg.Database }

// Exclusive runs fn while holding the connection lock. Callers keep fn to
// a single round trip, including full row consumption.
func (c *Conn) Exclusive(fn func(db *sql.DB) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.db)
}

// QueryStrings runs a query under the connection lock and materializes
// every row with each column rendered as a string. NULL columns become
// empty strings. Intended for small catalog lookups.
func (c *Conn) QueryStrings(ctx context.Context, query string, args ...any) ([][]string, error) {
	var out [][]string
	err := c.Exclusive(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		cols, err := rows.Columns()
		if err != nil {
			return err
		}

		for rows.Next() {
			values := make([]sql.NullString, len(cols))
			ptrs := make([]any, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return err
			}
			record := make([]string, len(cols))
			for i, v := range values {
				record[i] = v.String
			}
			out = append(out, record)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reconnect drops the current session and establishes a new one with the
// same settings.
func (c *Conn) Reconnect(ctx context.Context) error {
	db, err := sql.Open("sqlserver", c.cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to reconnect: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.db.Close()
	c.db = db
	return nil
}

// TestConnection probes the session with a trivial query.
func (c *Conn) TestConnection(ctx context.Context) error {
	return c.Exclusive(func(db *sql.DB) error {
		var one int
		return db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
	})
}

// ServerVersion returns the first line of @@VERSION.
func (c *Conn) ServerVersion(ctx context.Context) (string, error) {
	var version string
	err := c.Exclusive(func(db *sql.DB) error {
		return db.QueryRowContext(ctx, "SELECT @@VERSION").Scan(&version)
	})
	if err != nil {
		return "", fmt.Errorf("failed to read server version: %w", err)
	}
	if i := strings.IndexByte(version, '\n'); i >= 0 {
		version = version[:i]
	}
	return strings.TrimSpace(version), nil
}

// Close releases the underlying session.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Close()
}
