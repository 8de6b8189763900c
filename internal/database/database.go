package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"nullsafe/internal/config"
	"nullsafe/internal/query"
	"nullsafe/internal/schema"
)

// ErrUnsupportedDriver is returned for drivers other than sqlite3, mysql and postgres
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// DB wraps sqlx.DB with the dialect used to render statements
type DB struct {
	*sqlx.DB
	Dialect query.Dialect
}

// Open connects to the configured database
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	driverName, dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	dialect, err := query.DialectFor(driverName)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driverName == "sqlite3" {
		// SQLite only supports one writer at a time, and an in-memory
		// database lives only as long as its connection
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(time.Hour)
	}

	slog.Debug("connected to database", "driver", driverName, "target", target(cfg))
	return &DB{DB: db, Dialect: dialect}, nil
}

// Table starts a query builder bound to this connection
func (db *DB) Table(name string) *query.Builder {
	return query.New(db.Dialect, name).RunWith(db.DB)
}

// Schema returns a schema builder bound to this connection
func (db *DB) Schema() *schema.Builder {
	return schema.New(db.DB, db.Dialect)
}

// DSN builds the driver name and data source name for cfg
func DSN(cfg config.DatabaseConfig) (string, string, error) {
	switch cfg.Driver {
	case "sqlite3":
		sep := "?"
		if strings.Contains(cfg.Path, "?") {
			sep = "&"
		}
		return "sqlite3", cfg.Path + sep + "_busy_timeout=5000&_foreign_keys=on", nil
	case "mysql":
		return "mysql", mysqlConfig(cfg, cfg.Name).FormatDSN(), nil
	case "postgres":
		return "postgres", postgresDSN(cfg, cfg.Name), nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
}

// EnsureDatabase creates the configured database when it does not exist.
// For sqlite3 it creates the parent directory of the database file.
func EnsureDatabase(ctx context.Context, cfg config.DatabaseConfig) error {
	switch cfg.Driver {
	case "sqlite3":
		if isMemoryPath(cfg.Path) {
			return nil
		}
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
		return nil
	case "mysql":
		db, err := sqlx.ConnectContext(ctx, "mysql", mysqlConfig(cfg, "").FormatDSN())
		if err != nil {
			return fmt.Errorf("failed to connect to server: %w", err)
		}
		defer db.Close()
		if _, err := db.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS "+query.MySQL.Quote(cfg.Name)); err != nil {
			return fmt.Errorf("failed to create database %s: %w", cfg.Name, err)
		}
		slog.Info("database created or already exists", "database", cfg.Name)
		return nil
	case "postgres":
		db, err := sqlx.ConnectContext(ctx, "postgres", postgresDSN(cfg, "postgres"))
		if err != nil {
			return fmt.Errorf("failed to connect to server: %w", err)
		}
		defer db.Close()
		var exists bool
		err = db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, cfg.Name)
		if err != nil {
			return fmt.Errorf("failed to look up database %s: %w", cfg.Name, err)
		}
		if exists {
			slog.Info("database already exists", "database", cfg.Name)
			return nil
		}
		if _, err := db.ExecContext(ctx, "CREATE DATABASE "+query.PostgreSQL.Quote(cfg.Name)); err != nil {
			return fmt.Errorf("failed to create database %s: %w", cfg.Name, err)
		}
		slog.Info("database created", "database", cfg.Name)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
}

func mysqlConfig(cfg config.DatabaseConfig, dbName string) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = dbName
	mc.ParseTime = true
	return mc
}

func postgresDSN(cfg config.DatabaseConfig, dbName string) string {
	parts := []string{
		"host=" + pqQuote(cfg.Host),
		"port=" + strconv.Itoa(cfg.Port),
		"user=" + pqQuote(cfg.User),
		"dbname=" + pqQuote(dbName),
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+pqQuote(cfg.Password))
	}
	if cfg.SSLMode != "" {
		parts = append(parts, "sslmode="+pqQuote(cfg.SSLMode))
	}
	return strings.Join(parts, " ")
}

// pqQuote quotes a key/value connection string value when needed
func pqQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, ` '\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

func isMemoryPath(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// target describes the connection for logs without credentials
func target(cfg config.DatabaseConfig) string {
	if cfg.Driver == "sqlite3" {
		return cfg.Path
	}
	return fmt.Sprintf("%s@%s:%d/%s", cfg.User, cfg.Host, cfg.Port, cfg.Name)
}
