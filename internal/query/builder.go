package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
)

// ErrNoExecutor is returned when a builder is run without a database handle
var ErrNoExecutor = errors.New("query has no executor")

// Statement is a rendered SQL statement with its positional bindings
type Statement struct {
	SQL      string `json:"sql"`
	Bindings []any  `json:"bindings"`
}

// Row is a single record for Insert, keyed by column name
type Row map[string]any

type predicate struct {
	or   bool
	expr func(sb *sqlbuilder.SelectBuilder, d Dialect) string
}

// Builder builds SELECT and INSERT statements against a single table.
// Predicates are joined in call order with AND or OR and are not
// parenthesized unless added through WhereGroup or OrWhereGroup.
type Builder struct {
	dialect Dialect
	table   string
	columns []string
	where   []predicate
	orderBy []string
	limit   int
	exec    sqlx.ExtContext
}

// New creates a builder for the given table
func New(d Dialect, table string) *Builder {
	return &Builder{dialect: d, table: table, limit: -1}
}

// RunWith attaches the handle used by Find and Insert
func (b *Builder) RunWith(exec sqlx.ExtContext) *Builder {
	b.exec = exec
	return b
}

// Dialect returns the dialect the builder renders for
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// Select sets the selected columns. No columns selects *
func (b *Builder) Select(columns ...string) *Builder {
	b.columns = append(b.columns[:0], columns...)
	return b
}

// Where adds an AND-connected standard equality predicate. A NULL value is
// bound as is, so the predicate never matches.
func (b *Builder) Where(column string, value any) *Builder {
	return b.add(false, equal(column, value))
}

// OrWhere adds an OR-connected standard equality predicate
func (b *Builder) OrWhere(column string, value any) *Builder {
	return b.add(true, equal(column, value))
}

// WhereNull adds an AND-connected IS NULL predicate
func (b *Builder) WhereNull(column string) *Builder {
	return b.add(false, isNull(column))
}

// OrWhereNull adds an OR-connected IS NULL predicate
func (b *Builder) OrWhereNull(column string) *Builder {
	return b.add(true, isNull(column))
}

// WhereNotNull adds an AND-connected IS NOT NULL predicate
func (b *Builder) WhereNotNull(column string) *Builder {
	return b.add(false, isNotNull(column))
}

// OrWhereNotNull adds an OR-connected IS NOT NULL predicate
func (b *Builder) OrWhereNotNull(column string) *Builder {
	return b.add(true, isNotNull(column))
}

// WhereGroup adds an AND-connected parenthesized group of predicates
func (b *Builder) WhereGroup(fn func(g *Builder)) *Builder {
	return b.add(false, b.group(fn))
}

// OrWhereGroup adds an OR-connected parenthesized group of predicates
func (b *Builder) OrWhereGroup(fn func(g *Builder)) *Builder {
	return b.add(true, b.group(fn))
}

// OrderBy appends an ORDER BY term. dir is ASC or DESC, anything else is ASC
func (b *Builder) OrderBy(column, dir string) *Builder {
	dir = strings.ToUpper(strings.TrimSpace(dir))
	if dir != "DESC" {
		dir = "ASC"
	}
	b.orderBy = append(b.orderBy, b.dialect.ident(column)+" "+dir)
	return b
}

// Limit caps the number of returned rows. A negative n removes the limit
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// ToSQL renders the SELECT statement
func (b *Builder) ToSQL() Statement {
	sb := b.dialect.flavor.NewSelectBuilder()

	cols := []string{"*"}
	if len(b.columns) > 0 {
		cols = make([]string, len(b.columns))
		for i, c := range b.columns {
			cols[i] = b.dialect.ident(c)
		}
	}
	sb.Select(cols...).From(b.dialect.ident(b.table))

	if expr := compile(sb, b.dialect, b.where); expr != "" {
		sb.Where(expr)
	}
	if len(b.orderBy) > 0 {
		sb.OrderBy(b.orderBy...)
	}
	if b.limit >= 0 {
		sb.Limit(b.limit)
	}

	query, args := sb.Build()
	if args == nil {
		args = []any{}
	}
	return Statement{SQL: query, Bindings: args}
}

func (b *Builder) String() string {
	return b.ToSQL().SQL
}

// Find runs the SELECT and scans all rows into dest, which must be a
// pointer to a slice
func (b *Builder) Find(ctx context.Context, dest any) error {
	if b.exec == nil {
		return ErrNoExecutor
	}
	stmt := b.ToSQL()
	if err := sqlx.SelectContext(ctx, b.exec, dest, stmt.SQL, stmt.Bindings...); err != nil {
		return fmt.Errorf("failed to select from %s: %w", b.table, err)
	}
	return nil
}

// InsertSQL renders a multi-row INSERT. Columns are the sorted union of the
// row keys; a key missing from a row is inserted as NULL.
func (b *Builder) InsertSQL(rows ...Row) Statement {
	if len(rows) == 0 {
		return Statement{Bindings: []any{}}
	}

	seen := make(map[string]struct{})
	var keys []string
	for _, r := range rows {
		for k := range r {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)

	ib := b.dialect.flavor.NewInsertBuilder()
	ib.InsertInto(b.dialect.ident(b.table))
	cols := make([]string, len(keys))
	for i, k := range keys {
		cols[i] = b.dialect.ident(k)
	}
	ib.Cols(cols...)
	for _, r := range rows {
		values := make([]any, len(keys))
		for i, k := range keys {
			values[i] = r[k]
		}
		ib.Values(values...)
	}

	query, args := ib.Build()
	return Statement{SQL: query, Bindings: args}
}

// Insert inserts rows into the table. Inserting no rows is a no-op
func (b *Builder) Insert(ctx context.Context, rows ...Row) error {
	if len(rows) == 0 {
		return nil
	}
	if b.exec == nil {
		return ErrNoExecutor
	}
	stmt := b.InsertSQL(rows...)
	if _, err := b.exec.ExecContext(ctx, stmt.SQL, stmt.Bindings...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", b.table, err)
	}
	return nil
}

func (b *Builder) add(or bool, expr func(sb *sqlbuilder.SelectBuilder, d Dialect) string) *Builder {
	b.where = append(b.where, predicate{or: or, expr: expr})
	return b
}

func (b *Builder) group(fn func(g *Builder)) func(sb *sqlbuilder.SelectBuilder, d Dialect) string {
	g := New(b.dialect, b.table)
	fn(g)
	return func(sb *sqlbuilder.SelectBuilder, d Dialect) string {
		expr := compile(sb, d, g.where)
		if expr == "" {
			return ""
		}
		return "(" + expr + ")"
	}
}

// compile joins predicates in order. The first rendered predicate carries
// no connector.
func compile(sb *sqlbuilder.SelectBuilder, d Dialect, preds []predicate) string {
	var buf strings.Builder
	for _, p := range preds {
		expr := p.expr(sb, d)
		if expr == "" {
			continue
		}
		if buf.Len() > 0 {
			if p.or {
				buf.WriteString(" OR ")
			} else {
				buf.WriteString(" AND ")
			}
		}
		buf.WriteString(expr)
	}
	return buf.String()
}

// The sb condition helpers escape the field themselves, so they take the
// quoted name rather than ident.
func equal(column string, value any) func(sb *sqlbuilder.SelectBuilder, d Dialect) string {
	return func(sb *sqlbuilder.SelectBuilder, d Dialect) string {
		return sb.Equal(d.Quote(column), value)
	}
}

func isNull(column string) func(sb *sqlbuilder.SelectBuilder, d Dialect) string {
	return func(sb *sqlbuilder.SelectBuilder, d Dialect) string {
		return sb.IsNull(d.Quote(column))
	}
}

func isNotNull(column string) func(sb *sqlbuilder.SelectBuilder, d Dialect) string {
	return func(sb *sqlbuilder.SelectBuilder, d Dialect) string {
		return sb.IsNotNull(d.Quote(column))
	}
}
