package queries

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nullsafe/internal/config"
	"nullsafe/internal/database"
	"nullsafe/internal/models"
	"nullsafe/internal/query"
)

func setupUsers(t *testing.T) *UserQueries {
	t.Helper()
	db, err := database.Open(context.Background(), config.DatabaseConfig{Driver: "sqlite3", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	q := NewUserQueries(db, "")
	require.NoError(t, q.Setup(context.Background()))
	return q
}

func TestNewUserQueries_DefaultTable(t *testing.T) {
	assert.Equal(t, "users", NewUserQueries(nil, "").Table())
	assert.Equal(t, "people", NewUserQueries(nil, "people").Table())
}

func TestSetup_SeedsFixture(t *testing.T) {
	q := setupUsers(t)

	var users []models.User
	require.NoError(t, q.db.Table("users").OrderBy("id", "asc").Find(context.Background(), &users))
	assert.Equal(t, models.SeedUsers(), users)

	// Setup is repeatable
	require.NoError(t, q.Setup(context.Background()))
	users = nil
	require.NoError(t, q.db.Table("users").Find(context.Background(), &users))
	assert.Len(t, users, 4)
}

func TestTeardown(t *testing.T) {
	q := setupUsers(t)
	require.NoError(t, q.Teardown(context.Background()))

	var users []models.User
	err := q.db.Table("users").Find(context.Background(), &users)
	assert.Error(t, err)

	require.NoError(t, q.Teardown(context.Background()), "dropping a missing table is not an error")
}

func TestFindByIDAndUnconfirmedEmail(t *testing.T) {
	q := setupUsers(t)
	ctx := context.Background()

	tests := []struct {
		name string
		id   any
		want []int64
	}{
		{name: "id without email", id: 2, want: []int64{2}},
		{name: "id with email", id: 1, want: []int64{}},
		{name: "null id", id: nil, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := q.FindByIDAndUnconfirmedEmail(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(users))
		})
	}
}

func TestFindByNameOrEmail(t *testing.T) {
	q := setupUsers(t)
	ctx := context.Background()

	users, err := q.FindByNameOrEmail(ctx, "Juan", "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(users))

	users, err = q.FindByNameOrEmail(ctx, "Marcos", nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{2, 3, 4}, ids(users))

	users, err = q.FindByNameOrEmail(ctx, "Nobody", models.NullString{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{2, 4}, ids(users), "an invalid NullString is NULL")
}

func TestBuilders_SQL(t *testing.T) {
	stmt := IDAndUnconfirmedEmail(query.New(query.MySQL, "users"), 2).ToSQL()
	assert.Equal(t, "SELECT * FROM `users` WHERE `id` = ? AND `email` IS NULL", stmt.SQL)
	assert.Equal(t, []any{2}, stmt.Bindings)

	stmt = NameOrEmail(query.New(query.MySQL, "users"), "Juan", nil).ToSQL()
	assert.Equal(t, "SELECT * FROM `users` WHERE `name` = ? OR `email` IS NULL", stmt.SQL)
	assert.Equal(t, []any{"Juan"}, stmt.Bindings)
}

func ids(users []models.User) []int64 {
	out := make([]int64, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}
