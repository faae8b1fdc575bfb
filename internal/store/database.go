package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know about.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Database represents the read-only results store connection
type Database struct {
	conn   *sqlx.DB
	driver string
}

// NewDatabase opens the results store. SQLite files are opened read-only.
func NewDatabase(driver, dsn string) (*Database, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("store dsn is required")
	}

	switch driver {
	case DriverSQLite:
		dsn = ReadOnlySQLiteDSN(dsn)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		conn:   db,
		driver: driver,
	}, nil
}

// ReadOnlySQLiteDSN turns a SQLite file path (or file: URI) into a URI that
// opens the file read-only and rejects writes on every pooled connection.
func ReadOnlySQLiteDSN(path string) string {
	uri := path
	if !strings.HasPrefix(uri, "file:") {
		uri = "file:" + uri
	}

	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}

	params := []string{"_pragma=query_only(1)", "_pragma=busy_timeout(5000)"}
	if !strings.Contains(uri, "mode=") {
		params = append([]string{"mode=ro"}, params...)
	}

	return uri + sep + strings.Join(params, "&")
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// DB returns the underlying *sqlx.DB for queries
func (db *Database) DB() *sqlx.DB {
	return db.conn
}

// Driver returns the driver name the store was opened with
func (db *Database) Driver() string {
	return db.driver
}

// HealthCheck performs a health check on the database
func (db *Database) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return db.conn.PingContext(ctx)
}
