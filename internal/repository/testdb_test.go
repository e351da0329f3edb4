package repository

import (
	"context"
	"testing"
	"time"

	"greencart/internal/database"
	"greencart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL container with the application schema.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := database.NewPoolFromURL(ctx, connStr, database.PoolOptions{MaxConns: 5}, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	t.Cleanup(func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	})

	return pool
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedProducts(t *testing.T, repo ProductRepository, products ...model.Product) {
	t.Helper()
	for i := range products {
		require.NoError(t, repo.Create(context.Background(), &products[i]))
	}
}

func seedAddress(t *testing.T, repo AddressRepository, userID string) *model.Address {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	a := &model.Address{
		ID:        uuid.New(),
		UserID:    userID,
		FirstName: "Asha",
		LastName:  "Rao",
		Email:     "asha@example.com",
		Street:    "12 Market Road",
		City:      "Pune",
		State:     "MH",
		ZipCode:   "411001",
		Country:   "India",
		Phone:     "9999999999",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(context.Background(), a))
	return a
}

func testProduct(id string, offer string, createdAt time.Time) model.Product {
	return model.Product{
		ID:          id,
		Name:        "Product " + id,
		Description: []string{"fresh"},
		Category:    "Fruits",
		Price:       dec(offer).Add(dec("1")),
		OfferPrice:  dec(offer),
		InStock:     true,
		Images:      []string{"https://cdn.example.com/" + id + ".png"},
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}
