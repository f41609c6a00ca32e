package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/quick-stock/internal/migrations"
	"github.com/magabrotheeeer/quick-stock/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, dsn)
	require.NoError(t, err)

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}

// testDataFactory создает тестовые данные напрямую через хранилище.
type testDataFactory struct {
	storage *Storage
}

func newTestDataFactory(storage *Storage) *testDataFactory {
	return &testDataFactory{storage: storage}
}

func (f *testDataFactory) createStore(t *testing.T, ownerEmail string, quota int) {
	t.Helper()
	_, err := f.storage.CreateStore(context.Background(), models.Store{
		OwnerEmail:     ownerEmail,
		Name:           "Corner shop",
		Address:        "Main st. 1",
		RemainingQuota: quota,
	})
	require.NoError(t, err)
}

func (f *testDataFactory) createProduct(t *testing.T, id, ownerEmail string, quantity int) {
	t.Helper()
	require.NoError(t, f.storage.CreateProduct(context.Background(), models.Product{
		ID:         id,
		OwnerEmail: ownerEmail,
		Name:       "Milk",
		Quantity:   quantity,
		Price:      1.5,
	}))
}

func (f *testDataFactory) quota(t *testing.T, ownerEmail string) int {
	t.Helper()
	var remaining int
	err := f.storage.DB.QueryRow(`SELECT remaining_quota FROM stores WHERE owner_email = $1`, ownerEmail).
		Scan(&remaining)
	require.NoError(t, err)
	return remaining
}
