package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
)

// ErrUnknownDialect is returned when a driver name has no matching dialect
var ErrUnknownDialect = errors.New("unknown SQL dialect")

// Dialect describes how statements are rendered for one database engine
type Dialect struct {
	name   string
	flavor sqlbuilder.Flavor
	quote  byte
}

var (
	// MySQL renders backtick-quoted identifiers and ? placeholders
	MySQL = Dialect{name: "mysql", flavor: sqlbuilder.MySQL, quote: '`'}
	// PostgreSQL renders double-quoted identifiers and $n placeholders
	PostgreSQL = Dialect{name: "postgres", flavor: sqlbuilder.PostgreSQL, quote: '"'}
	// SQLite renders double-quoted identifiers and ? placeholders
	SQLite = Dialect{name: "sqlite3", flavor: sqlbuilder.SQLite, quote: '"'}
)

// DialectFor returns the dialect for a database/sql driver name
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return PostgreSQL, nil
	case "sqlite3", "sqlite":
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("%w: %q", ErrUnknownDialect, driver)
}

// Name returns the canonical driver name of the dialect
func (d Dialect) Name() string {
	return d.name
}

// Flavor returns the underlying sqlbuilder flavor
func (d Dialect) Flavor() sqlbuilder.Flavor {
	return d.flavor
}

func (d Dialect) String() string {
	return d.name
}

// Quote quotes an identifier. Dotted names are quoted per part and
// "*" is left as is, so "u.*" becomes `u`.*
func (d Dialect) Quote(ident string) string {
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		q := string(d.quote)
		parts[i] = q + strings.ReplaceAll(p, q, q+q) + q
	}
	return strings.Join(parts, ".")
}

// ident quotes an identifier for use inside sqlbuilder expressions, where
// $ marks a placeholder
func (d Dialect) ident(name string) string {
	return sqlbuilder.Escape(d.Quote(name))
}
