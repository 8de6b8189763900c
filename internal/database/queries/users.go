package queries

import (
	"context"
	"fmt"
	"log/slog"

	"nullsafe/internal/database"
	"nullsafe/internal/models"
	"nullsafe/internal/query"
	"nullsafe/internal/schema"
)

// UserQueries provides fixture and lookup operations for the users table
type UserQueries struct {
	db    *database.DB
	table string
}

// NewUserQueries creates a new UserQueries instance. An empty table name
// defaults to "users".
func NewUserQueries(db *database.DB, table string) *UserQueries {
	if table == "" {
		table = "users"
	}
	return &UserQueries{db: db, table: table}
}

// Table returns the table name the queries operate on
func (q *UserQueries) Table() string {
	return q.table
}

// Setup drops, recreates and seeds the users table
func (q *UserQueries) Setup(ctx context.Context) error {
	sb := q.db.Schema()
	if err := sb.DropTableIfExists(ctx, q.table); err != nil {
		return err
	}
	err := sb.CreateTable(ctx, q.table, func(t *schema.Table) {
		t.Increments("id")
		t.String("name", 255)
		t.String("email", 255)
	})
	if err != nil {
		return err
	}

	users := models.SeedUsers()
	rows := make([]query.Row, len(users))
	for i, u := range users {
		rows[i] = query.Row{"id": u.ID, "name": u.Name, "email": u.Email}
	}
	if err := q.db.Table(q.table).Insert(ctx, rows...); err != nil {
		return fmt.Errorf("failed to seed %s: %w", q.table, err)
	}

	slog.Info("seeded fixture table", "table", q.table, "rows", len(rows))
	return nil
}

// Teardown drops the users table
func (q *UserQueries) Teardown(ctx context.Context) error {
	if err := q.db.Schema().DropTableIfExists(ctx, q.table); err != nil {
		return err
	}
	slog.Info("dropped fixture table", "table", q.table)
	return nil
}

// FindByIDAndUnconfirmedEmail matches id null-safely and requires a NULL email
func (q *UserQueries) FindByIDAndUnconfirmedEmail(ctx context.Context, id any) ([]models.User, error) {
	users := []models.User{}
	err := IDAndUnconfirmedEmail(q.db.Table(q.table), id).Find(ctx, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// FindByNameOrEmail matches name by standard equality or email null-safely
func (q *UserQueries) FindByNameOrEmail(ctx context.Context, name, email any) ([]models.User, error) {
	users := []models.User{}
	err := NameOrEmail(q.db.Table(q.table), name, email).Find(ctx, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// IDAndUnconfirmedEmail adds the FindByIDAndUnconfirmedEmail predicates to b
func IDAndUnconfirmedEmail(b *query.Builder, id any) *query.Builder {
	return b.WhereNullSafe("id", id).WhereNullSafe("email", nil).Select("*")
}

// NameOrEmail adds the FindByNameOrEmail predicates to b
func NameOrEmail(b *query.Builder, name, email any) *query.Builder {
	return b.Where("name", name).OrWhereNullSafe("email", email).Select("*")
}
