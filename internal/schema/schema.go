package schema

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"nullsafe/internal/query"
)

// Builder runs DDL statements for a single dialect
type Builder struct {
	exec    sqlx.ExecerContext
	dialect query.Dialect
}

// New creates a new schema Builder
func New(exec sqlx.ExecerContext, d query.Dialect) *Builder {
	return &Builder{exec: exec, dialect: d}
}

// DropTableIfExists drops a table when it exists
func (s *Builder) DropTableIfExists(ctx context.Context, name string) error {
	stmt := "DROP TABLE IF EXISTS " + s.dialect.Quote(name)
	if _, err := s.exec.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", name, err)
	}
	slog.Debug("dropped table", "table", name)
	return nil
}

// CreateTable creates a table whose columns are declared by fn
func (s *Builder) CreateTable(ctx context.Context, name string, fn func(t *Table)) error {
	stmt, args := s.createTable(name, fn)
	if _, err := s.exec.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}
	slog.Debug("created table", "table", name)
	return nil
}

// CreateTableSQL renders the CREATE TABLE statement without running it
func (s *Builder) CreateTableSQL(name string, fn func(t *Table)) string {
	stmt, _ := s.createTable(name, fn)
	return stmt
}

// createTable builds the statement and its args. Column definitions are
// literal text, so args is empty unless a definition ever binds a value.
func (s *Builder) createTable(name string, fn func(t *Table)) (string, []interface{}) {
	t := &Table{}
	fn(t)

	ctb := s.dialect.Flavor().NewCreateTableBuilder()
	ctb.CreateTable(sqlbuilder.Escape(s.dialect.Quote(name)))
	for _, c := range t.columns {
		ctb.Define(c.definition(s.dialect)...)
	}
	return ctb.Build()
}

// Table collects column declarations for CreateTable
type Table struct {
	columns []*Column
}

type columnKind int

const (
	kindIncrements columnKind = iota
	kindString
	kindInteger
	kindText
)

// Column is a declared column. Modifiers return the column for chaining
type Column struct {
	name    string
	kind    columnKind
	length  int
	notNull bool
	unique  bool
}

// Increments declares an auto-incrementing integer primary key
func (t *Table) Increments(name string) *Column {
	return t.add(&Column{name: name, kind: kindIncrements})
}

// String declares a VARCHAR column. A non-positive length defaults to 255
func (t *Table) String(name string, length int) *Column {
	if length <= 0 {
		length = 255
	}
	return t.add(&Column{name: name, kind: kindString, length: length})
}

// Integer declares an integer column
func (t *Table) Integer(name string) *Column {
	return t.add(&Column{name: name, kind: kindInteger})
}

// Text declares an unbounded text column
func (t *Table) Text(name string) *Column {
	return t.add(&Column{name: name, kind: kindText})
}

func (t *Table) add(c *Column) *Column {
	t.columns = append(t.columns, c)
	return c
}

// NotNullable marks the column NOT NULL
func (c *Column) NotNullable() *Column {
	c.notNull = true
	return c
}

// Unique adds a UNIQUE constraint to the column
func (c *Column) Unique() *Column {
	c.unique = true
	return c
}

func (c *Column) definition(d query.Dialect) []string {
	def := []string{sqlbuilder.Escape(d.Quote(c.name)), c.sqlType(d)}
	if c.kind == kindIncrements {
		return def
	}
	if c.notNull {
		def = append(def, "NOT NULL")
	}
	if c.unique {
		def = append(def, "UNIQUE")
	}
	return def
}

func (c *Column) sqlType(d query.Dialect) string {
	switch c.kind {
	case kindIncrements:
		switch d {
		case query.MySQL:
			return "INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY"
		case query.PostgreSQL:
			return "SERIAL PRIMARY KEY"
		default:
			return "INTEGER PRIMARY KEY AUTOINCREMENT"
		}
	case kindString:
		return "VARCHAR(" + strconv.Itoa(c.length) + ")"
	case kindInteger:
		return "INTEGER"
	default:
		return "TEXT"
	}
}
