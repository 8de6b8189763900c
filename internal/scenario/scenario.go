// Package scenario holds the null-safe equality checks run against the
// users fixture and prints their results.
package scenario

import (
	"nullsafe/internal/database/queries"
	"nullsafe/internal/query"
)

// Kind selects what a scenario prints
type Kind int

const (
	// KindRows runs the query and prints the matched rows
	KindRows Kind = iota
	// KindSQL prints the generated SQL and bindings without running it
	KindSQL
)

// Scenario is one numbered check
type Scenario struct {
	Title string
	Kind  Kind
	Build func(b *query.Builder) *query.Builder
	// Expect holds the matching ids for KindRows, in any order
	Expect []int64
	// ExpectBindings holds the bindings for KindSQL
	ExpectBindings []any
}

// Default returns the nine checks in run order
func Default() []Scenario {
	return []Scenario{
		{
			Title: "Find user with ID 2 and null email",
			Build: func(b *query.Builder) *query.Builder {
				return queries.IDAndUnconfirmedEmail(b, 2)
			},
			Expect: []int64{2},
		},
		{
			Title: "Find user with ID 1 and null email (should return empty)",
			Build: func(b *query.Builder) *query.Builder {
				return queries.IDAndUnconfirmedEmail(b, 1)
			},
			Expect: []int64{},
		},
		{
			Title: "Find user with ID null and null email",
			Build: func(b *query.Builder) *query.Builder {
				return queries.IDAndUnconfirmedEmail(b, nil)
			},
			Expect: []int64{},
		},
		{
			Title: "Raw SQL for comparison",
			Kind:  KindSQL,
			Build: func(b *query.Builder) *query.Builder {
				return queries.IDAndUnconfirmedEmail(b, 2)
			},
			ExpectBindings: []any{2},
		},
		{
			Title: "OrWhereNullSafe with non-null value",
			Build: func(b *query.Builder) *query.Builder {
				return queries.NameOrEmail(b, "Juan", "bob@example.com")
			},
			Expect: []int64{1},
		},
		{
			Title: "OrWhereNullSafe with null value",
			Build: func(b *query.Builder) *query.Builder {
				return queries.NameOrEmail(b, "Marcos", nil)
			},
			Expect: []int64{2, 3, 4},
		},
		{
			Title: "Complex query with multiple OrWhereNullSafe",
			Build: func(b *query.Builder) *query.Builder {
				return b.Where("name", "Juan").
					OrWhereNullSafe("email", nil).
					OrWhereNullSafe("id", 3).
					Select("*")
			},
			Expect: []int64{1, 2, 3, 4},
		},
		{
			Title: "OrWhereNullSafe with all null values",
			Build: func(b *query.Builder) *query.Builder {
				return b.WhereNullSafe("name", nil).
					OrWhereNullSafe("email", nil).
					Select("*")
			},
			Expect: []int64{2, 4},
		},
		{
			Title: "Raw SQL for OrWhereNullSafe",
			Kind:  KindSQL,
			Build: func(b *query.Builder) *query.Builder {
				return b.Where("name", "Juan").
					OrWhereNullSafe("email", nil).
					Select("*")
			},
			ExpectBindings: []any{"Juan"},
		},
	}
}
