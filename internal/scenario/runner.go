package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"nullsafe/internal/database"
	"nullsafe/internal/models"
	"nullsafe/internal/query"
)

// ErrVerification is returned when a verified scenario does not match its
// expected result
var ErrVerification = errors.New("scenario verification failed")

// Runner runs scenarios against the users table and writes their output
type Runner struct {
	db        *database.DB
	table     string
	out       io.Writer
	verify    bool
	scenarios []Scenario
	logger    *slog.Logger
}

// NewRunner creates a Runner for the Default scenarios
func NewRunner(db *database.DB, table string, out io.Writer, verify bool) *Runner {
	return &Runner{
		db:        db,
		table:     table,
		out:       out,
		verify:    verify,
		scenarios: Default(),
		logger:    slog.Default(),
	}
}

// WithLogger sets the logger used for verification results
func (r *Runner) WithLogger(logger *slog.Logger) *Runner {
	r.logger = logger
	return r
}

// WithScenarios replaces the scenarios to run
func (r *Runner) WithScenarios(scenarios []Scenario) *Runner {
	r.scenarios = scenarios
	return r
}

// Run executes every scenario in order. Database errors stop the run;
// verification mismatches are collected and returned together.
func (r *Runner) Run(ctx context.Context) error {
	var failed []string
	for i, s := range r.scenarios {
		n := i + 1
		if i > 0 {
			fmt.Fprintln(r.out)
		}
		fmt.Fprintf(r.out, "Test %d: %s\n", n, s.Title)

		b := s.Build(r.db.Table(r.table))
		if s.Kind == KindSQL {
			stmt := b.ToSQL()
			if err := writeStatement(r.out, stmt); err != nil {
				return err
			}
			if r.verify && !sameBindings(stmt.Bindings, s.ExpectBindings) {
				r.logger.Error("unexpected bindings", "test", n, "got", stmt.Bindings, "want", s.ExpectBindings)
				failed = append(failed, fmt.Sprintf("test %d", n))
			}
			continue
		}

		users := []models.User{}
		if err := b.Find(ctx, &users); err != nil {
			return fmt.Errorf("test %d: %w", n, err)
		}
		if err := writeJSON(r.out, "", users); err != nil {
			return err
		}

		if !r.verify {
			continue
		}
		got := IDs(users)
		if !sameIDs(got, s.Expect) {
			r.logger.Error("unexpected rows", "test", n, "got", got, "want", s.Expect)
			failed = append(failed, fmt.Sprintf("test %d", n))
			continue
		}
		r.logger.Debug("scenario passed", "test", n)
	}

	if len(failed) > 0 {
		return fmt.Errorf("%w: %s", ErrVerification, strings.Join(failed, ", "))
	}
	return nil
}

// PrintSQL writes the statement every scenario would run, without a
// database connection
func PrintSQL(w io.Writer, d query.Dialect, table string, scenarios []Scenario) error {
	for i, s := range scenarios {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Test %d: %s\n", i+1, s.Title)
		if err := writeStatement(w, s.Build(query.New(d, table)).ToSQL()); err != nil {
			return err
		}
	}
	return nil
}

// IDs returns the ids of users in order
func IDs(users []models.User) []int64 {
	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

func writeStatement(w io.Writer, stmt query.Statement) error {
	fmt.Fprintf(w, "SQL: %s\n", stmt.SQL)
	return writeJSON(w, "Bindings: ", stmt.Bindings)
}

func writeJSON(w io.Writer, prefix string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s%s\n", prefix, data)
	return err
}

func sameIDs(got, want []int64) bool {
	a := slices.Clone(got)
	b := slices.Clone(want)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

func sameBindings(got, want []any) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if fmt.Sprint(got[i]) != fmt.Sprint(want[i]) {
			return false
		}
	}
	return true
}
