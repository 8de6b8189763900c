package query

import (
	"database/sql/driver"
	"reflect"

	"github.com/huandu/go-sqlbuilder"
)

// WhereNullSafe adds an AND-connected null-safe equality predicate.
// A NULL value compiles to "column IS NULL", anything else to "column = ?".
func (b *Builder) WhereNullSafe(column string, value any) *Builder {
	return b.add(false, nullSafeEqual(column, value))
}

// OrWhereNullSafe adds an OR-connected null-safe equality predicate
func (b *Builder) OrWhereNullSafe(column string, value any) *Builder {
	return b.add(true, nullSafeEqual(column, value))
}

// WhereColumnNullSafe compares two columns, treating two NULLs as equal
func (b *Builder) WhereColumnNullSafe(left, right string) *Builder {
	return b.add(false, columnNullSafeEqual(left, right))
}

// OrWhereColumnNullSafe is the OR-connected form of WhereColumnNullSafe
func (b *Builder) OrWhereColumnNullSafe(left, right string) *Builder {
	return b.add(true, columnNullSafeEqual(left, right))
}

func nullSafeEqual(column string, value any) func(sb *sqlbuilder.SelectBuilder, d Dialect) string {
	if IsNull(value) {
		return isNull(column)
	}
	return equal(column, value)
}

func columnNullSafeEqual(left, right string) func(sb *sqlbuilder.SelectBuilder, d Dialect) string {
	return func(sb *sqlbuilder.SelectBuilder, d Dialect) string {
		l, r := d.ident(left), d.ident(right)
		return "((" + l + " IS NULL AND " + r + " IS NULL) OR " + l + " = " + r + ")"
	}
}

// IsNull reports whether v would be sent to the database as NULL: untyped
// nil, a nil pointer, slice or map, or a driver.Valuer whose value is nil.
func IsNull(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return true
		}
	}

	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		return err == nil && dv == nil
	}
	return false
}
