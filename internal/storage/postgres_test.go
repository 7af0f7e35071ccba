package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPostgres_Repositories(t *testing.T) {
	if testing.Short() || os.Getenv("FOODSAFETY_CONTAINER_TESTS") != "1" {
		t.Skip("set FOODSAFETY_CONTAINER_TESTS=1 to run container tests")
	}
	ctx := context.Background()

	ctr, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("foodsafety_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := ctr.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(ctx, DialectPostgres, dsn, PoolConfig{MaxOpenConns: 5})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, EnsureSchema(ctx, db, DialectPostgres))

	store := NewStore(db, DialectPostgres)

	require.NoError(t, store.Foods.Create(ctx, &Food{Name: "Skipjack Tuna", Description: "Light tuna"}))
	require.NoError(t, store.Foods.Create(ctx, &Food{Name: "Kale"}))
	foods, err := store.Foods.Search(ctx, []string{"tuna", "nothing"}, 10)
	require.NoError(t, err)
	require.Len(t, foods, 1)
	assert.Equal(t, "Skipjack Tuna", foods[0].Name)

	_, err = store.Recalls.Upsert(ctx, &Recall{RecallNumber: "F-1", ProductDescription: "Tuna salad",
		Classification: ClassI, RecallDate: daysAgo(3)})
	require.NoError(t, err)
	recent, err := store.Recalls.Recent(ctx, 30, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	require.NoError(t, store.Users.Create(ctx, &User{Email: "a@b.io", HashedPassword: "h", IsActive: true}))
	assert.ErrorIs(t, store.Users.Create(ctx, &User{Email: "a@b.io", HashedPassword: "h"}), ErrConflict)

	category := &Category{Name: "Seafood"}
	require.NoError(t, store.Categories.Create(ctx, category))
	assert.NotZero(t, category.ID)

	user, err := store.Users.GetByEmail(ctx, "a@b.io")
	require.NoError(t, err)
	require.NoError(t, store.MealPlans.Create(ctx, &MealPlan{UserID: user.ID, Name: "Undated"}))
	require.NoError(t, store.MealPlans.Create(ctx, &MealPlan{UserID: user.ID, Name: "Dated", Date: daysAgo(1)}))
	plans, err := store.MealPlans.ListByUser(ctx, user.ID, "")
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "Dated", plans[0].Name)
}
