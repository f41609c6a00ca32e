package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/quick-stock/internal/models"
)

func TestStorage_Users(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("first insert creates the user", func(t *testing.T) {
		u, inserted, err := storage.InsertUserIfAbsent(ctx, "a@shop.com", models.UserFields{Name: "Ann"})
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.Equal(t, "Ann", u.Name)
		assert.Equal(t, models.RoleUnset, u.Role)
	})

	t.Run("second insert returns the stored record unchanged", func(t *testing.T) {
		u, inserted, err := storage.InsertUserIfAbsent(ctx, "a@shop.com", models.UserFields{Name: "Other"})
		require.NoError(t, err)
		assert.False(t, inserted)
		assert.Equal(t, "Ann", u.Name)
	})

	t.Run("concurrent inserts keep a single row", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := storage.InsertUserIfAbsent(ctx, "race@shop.com", models.UserFields{})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		var count int
		require.NoError(t, storage.DB.QueryRow(`SELECT COUNT(*) FROM users WHERE email = 'race@shop.com'`).Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("role upsert on existing and missing user", func(t *testing.T) {
		res, err := storage.UpsertRole(ctx, "a@shop.com", models.RoleManager)
		require.NoError(t, err)
		assert.Equal(t, models.UpdateResult{Matched: 1, Modified: 1}, res)

		res, err = storage.UpsertRole(ctx, "new@shop.com", models.RoleStaff)
		require.NoError(t, err)
		assert.True(t, res.Upserted)

		u, err := storage.GetUser(ctx, "new@shop.com")
		require.NoError(t, err)
		assert.Equal(t, models.RoleStaff, u.Role)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := storage.GetUser(ctx, "ghost@shop.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStorage_StoresAndQuota(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()
	factory := newTestDataFactory(storage)

	factory.createStore(t, "owner@shop.com", 5)

	t.Run("duplicate store is rejected", func(t *testing.T) {
		_, err := storage.CreateStore(ctx, models.Store{OwnerEmail: "owner@shop.com", Name: "Again", RemainingQuota: 1})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("get store by owner", func(t *testing.T) {
		st, err := storage.GetStoreByOwner(ctx, "owner@shop.com")
		require.NoError(t, err)
		assert.Equal(t, 5, st.RemainingQuota)

		_, err = storage.GetStoreByOwner(ctx, "ghost@shop.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent decrements are not lost", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := storage.AdjustQuota(ctx, "owner@shop.com", -1)
				assert.NoError(t, err)
				assert.True(t, res.Matched)
			}()
		}
		wg.Wait()
		assert.Equal(t, 3, factory.quota(t, "owner@shop.com"))
	})

	t.Run("quota has no floor", func(t *testing.T) {
		res, err := storage.AdjustQuota(ctx, "owner@shop.com", -4)
		require.NoError(t, err)
		assert.Equal(t, models.QuotaResult{Matched: true, RemainingQuota: -1}, res)
	})

	t.Run("missing store is not matched", func(t *testing.T) {
		res, err := storage.AdjustQuota(ctx, "ghost@shop.com", 1)
		require.NoError(t, err)
		assert.False(t, res.Matched)
	})
}

func TestStorage_Products(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()
	factory := newTestDataFactory(storage)

	factory.createStore(t, "owner@shop.com", 1)

	t.Run("create, count and list", func(t *testing.T) {
		first, second := uuid.NewString(), uuid.NewString()
		factory.createProduct(t, first, "owner@shop.com", 10)
		factory.createProduct(t, second, "owner@shop.com", 4)

		count, err := storage.CountProducts(ctx, "owner@shop.com")
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		products, err := storage.ListProducts(ctx, "owner@shop.com")
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, first, products[0].ID)

		empty, err := storage.ListProducts(ctx, "ghost@shop.com")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("product without a store is rejected", func(t *testing.T) {
		err := storage.CreateProduct(ctx, models.Product{ID: uuid.NewString(), OwnerEmail: "ghost@shop.com", Name: "x"})
		assert.ErrorIs(t, err, ErrStoreNotFound)
	})

	t.Run("partial update keeps id and owner", func(t *testing.T) {
		id := uuid.NewString()
		factory.createProduct(t, id, "owner@shop.com", 1)

		name := "Oat milk"
		otherID := uuid.NewString()
		otherOwner := "thief@shop.com"
		p, err := storage.UpdateProduct(ctx, id, models.ProductFields{
			ID:         &otherID,
			OwnerEmail: &otherOwner,
			Name:       &name,
		})
		require.NoError(t, err)
		assert.Equal(t, id, p.ID)
		assert.Equal(t, "owner@shop.com", p.OwnerEmail)
		assert.Equal(t, "Oat milk", p.Name)
		assert.Equal(t, 1, p.Quantity)
	})

	t.Run("update of missing product", func(t *testing.T) {
		name := "x"
		_, err := storage.UpdateProduct(ctx, uuid.NewString(), models.ProductFields{Name: &name})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete reports deleted count", func(t *testing.T) {
		id := uuid.NewString()
		factory.createProduct(t, id, "owner@shop.com", 1)

		n, err := storage.DeleteProduct(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = storage.DeleteProduct(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("decoupled create does not touch quota", func(t *testing.T) {
		assert.Equal(t, 1, factory.quota(t, "owner@shop.com"))
	})
}

func TestStorage_ProductsWithQuota(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()
	factory := newTestDataFactory(storage)

	factory.createStore(t, "owner@shop.com", 1)

	id := uuid.NewString()
	require.NoError(t, storage.CreateProductWithQuota(ctx, models.Product{ID: id, OwnerEmail: "owner@shop.com", Name: "Tea"}))
	assert.Equal(t, 0, factory.quota(t, "owner@shop.com"))

	err := storage.CreateProductWithQuota(ctx, models.Product{ID: uuid.NewString(), OwnerEmail: "owner@shop.com", Name: "Coffee"})
	assert.ErrorIs(t, err, ErrQuotaExhausted)

	count, err := storage.CountProducts(ctx, "owner@shop.com")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "exhausted quota must not create a product")

	err = storage.CreateProductWithQuota(ctx, models.Product{ID: uuid.NewString(), OwnerEmail: "ghost@shop.com", Name: "x"})
	assert.ErrorIs(t, err, ErrStoreNotFound)

	owner, n, err := storage.DeleteProductWithQuota(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, "owner@shop.com", owner)
	assert.Equal(t, 1, factory.quota(t, "owner@shop.com"))

	_, n, err = storage.DeleteProductWithQuota(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Equal(t, 1, factory.quota(t, "owner@shop.com"), "missing product must not refund quota")
}

func TestStorage_Sales(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()
	factory := newTestDataFactory(storage)

	factory.createStore(t, "owner@shop.com", 3)
	productID := uuid.NewString()
	factory.createProduct(t, productID, "owner@shop.com", 2)

	t.Run("plain sale ignores stock", func(t *testing.T) {
		err := storage.CreateSale(ctx, models.Sale{
			ID: uuid.NewString(), OwnerEmail: "owner@shop.com", ProductID: productID, QuantitySold: 50, Amount: 75,
		})
		require.NoError(t, err)
	})

	t.Run("stock-checked sale decrements quantity", func(t *testing.T) {
		err := storage.CreateSaleWithStock(ctx, models.Sale{
			ID: uuid.NewString(), OwnerEmail: "owner@shop.com", ProductID: productID, QuantitySold: 2, Amount: 3,
		})
		require.NoError(t, err)

		err = storage.CreateSaleWithStock(ctx, models.Sale{
			ID: uuid.NewString(), OwnerEmail: "owner@shop.com", ProductID: productID, QuantitySold: 1, Amount: 1.5,
		})
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})

	t.Run("list and count", func(t *testing.T) {
		sales, err := storage.ListSales(ctx, "owner@shop.com")
		require.NoError(t, err)
		require.Len(t, sales, 2)
		assert.Equal(t, 2, sales[0].QuantitySold, "newest sale first")

		count, err := storage.CountSales(ctx, "owner@shop.com")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestStorage_Subscriptions(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()
	factory := newTestDataFactory(storage)
	factory.createStore(t, "owner@shop.com", 3)
	allowances := map[string]int{"basic": 200}

	sub := models.Subscription{OwnerEmail: "owner@shop.com", Tier: "basic", PaymentReference: "pi_1", IdempotencyKey: "k1"}

	created, isNew, err := storage.CreatePendingSubscription(ctx, sub)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, models.SubscriptionPending, created.Status)
	assert.Nil(t, created.ConfirmedAt)

	again, isNew, err := storage.CreatePendingSubscription(ctx, sub)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, created.ID, again.ID)

	var wg sync.WaitGroup
	var mu sync.Mutex
	flips := 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, flipped, err := storage.ActivateSubscription(ctx, "pi_1", allowances)
			assert.NoError(t, err)
			if flipped {
				mu.Lock()
				flips++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, flips, "only one activation may flip the record")
	assert.Equal(t, 203, factory.quota(t, "owner@shop.com"), "quota is replenished exactly once")

	active, err := storage.GetSubscriptionByReference(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, active.Status)
	assert.NotNil(t, active.ConfirmedAt)

	failed, err := storage.FailSubscription(ctx, "pi_1")
	require.NoError(t, err)
	assert.False(t, failed, "active subscription cannot fail")

	_, err = storage.GetSubscriptionByReference(ctx, "pi_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
