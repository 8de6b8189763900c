package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nullsafe/internal/config"
	"nullsafe/internal/query"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.DatabaseConfig
		wantDriver string
		wantDSN    string
	}{
		{
			name:       "sqlite file",
			cfg:        config.DatabaseConfig{Driver: "sqlite3", Path: "./data/nullsafe.db"},
			wantDriver: "sqlite3",
			wantDSN:    "./data/nullsafe.db?_busy_timeout=5000&_foreign_keys=on",
		},
		{
			name:       "sqlite with query",
			cfg:        config.DatabaseConfig{Driver: "sqlite3", Path: "file:t?mode=memory&cache=shared"},
			wantDriver: "sqlite3",
			wantDSN:    "file:t?mode=memory&cache=shared&_busy_timeout=5000&_foreign_keys=on",
		},
		{
			name: "postgres",
			cfg: config.DatabaseConfig{
				Driver: "postgres", Host: "localhost", Port: 5432,
				User: "root", Password: "p w'd", Name: "knex_test", SSLMode: "disable",
			},
			wantDriver: "postgres",
			wantDSN:    `host=localhost port=5432 user=root dbname=knex_test password='p w\'d' sslmode=disable`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, dsn, err := DSN(tt.cfg)
			if err != nil {
				t.Fatalf("DSN() error = %v", err)
			}
			if driver != tt.wantDriver {
				t.Errorf("driver = %v, want %v", driver, tt.wantDriver)
			}
			if dsn != tt.wantDSN {
				t.Errorf("dsn = %v, want %v", dsn, tt.wantDSN)
			}
		})
	}
}

func TestDSN_MySQL(t *testing.T) {
	cfg := config.DatabaseConfig{
		Driver: "mysql", Host: "localhost", Port: 3306,
		User: "root", Password: "123456", Name: "knex_test",
	}
	driver, dsn, err := DSN(cfg)
	if err != nil {
		t.Fatalf("DSN() error = %v", err)
	}
	if driver != "mysql" {
		t.Errorf("driver = %v, want mysql", driver)
	}
	if !strings.HasPrefix(dsn, "root:123456@tcp(localhost:3306)/knex_test") {
		t.Errorf("dsn = %v, want root:123456@tcp(localhost:3306)/knex_test prefix", dsn)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("dsn = %v, want parseTime=true", dsn)
	}
}

func TestDSN_Unsupported(t *testing.T) {
	_, _, err := DSN(config.DatabaseConfig{Driver: "oracle"})
	if !errors.Is(err, ErrUnsupportedDriver) {
		t.Errorf("DSN() error = %v, want ErrUnsupportedDriver", err)
	}
}

func TestPQQuote(t *testing.T) {
	tests := map[string]string{
		"plain": "plain",
		"":      "''",
		"a b":   "'a b'",
		`a\b`:   `'a\\b'`,
		"it's":  `'it\'s'`,
	}
	for in, want := range tests {
		if got := pqQuote(in); got != want {
			t.Errorf("pqQuote(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestEnsureDatabase_SQLite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	cfg := config.DatabaseConfig{Driver: "sqlite3", Path: filepath.Join(dir, "nullsafe.db")}

	if err := EnsureDatabase(context.Background(), cfg); err != nil {
		t.Fatalf("EnsureDatabase() error = %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("directory %s not created: %v", dir, err)
	}

	mem := config.DatabaseConfig{Driver: "sqlite3", Path: ":memory:"}
	if err := EnsureDatabase(context.Background(), mem); err != nil {
		t.Errorf("EnsureDatabase(:memory:) error = %v", err)
	}
}

func TestOpen_SQLite(t *testing.T) {
	db, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite3", Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if db.Dialect != query.SQLite {
		t.Errorf("Dialect = %v, want sqlite3", db.Dialect)
	}
	if got := db.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", got)
	}

	var fk int
	if err := db.Get(&fk, `PRAGMA foreign_keys`); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestTarget(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, User: "root", Password: "secret", Name: "x"}
	got := target(cfg)
	if strings.Contains(got, "secret") {
		t.Errorf("target() = %s leaks the password", got)
	}
	if got != "root@db:3306/x" {
		t.Errorf("target() = %s, want root@db:3306/x", got)
	}
}
