// Package inventory управляет товарами магазина.
//
// В режиме decoupled товары и квота независимы, как отдельные вызовы клиента.
// В режиме coupled создание товара списывает квоту, а удаление возвращает её
// в одной транзакции с изменением товара.
package inventory

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/quick-stock/internal/cache"
	"github.com/magabrotheeeer/quick-stock/internal/config"
	"github.com/magabrotheeeer/quick-stock/internal/lib/apperr"
	"github.com/magabrotheeeer/quick-stock/internal/lib/sl"
	"github.com/magabrotheeeer/quick-stock/internal/metrics"
	"github.com/magabrotheeeer/quick-stock/internal/models"
	"github.com/magabrotheeeer/quick-stock/internal/storage/repository"
)

// Repository определяет методы хранилища товаров.
type Repository interface {
	CreateProduct(ctx context.Context, p models.Product) error
	CreateProductWithQuota(ctx context.Context, p models.Product) error
	CountProducts(ctx context.Context, ownerEmail string) (int, error)
	ListProducts(ctx context.Context, ownerEmail string) ([]*models.Product, error)
	UpdateProduct(ctx context.Context, id string, f models.ProductFields) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) (int64, error)
	DeleteProductWithQuota(ctx context.Context, id string) (string, int64, error)
}

// Invalidator сбрасывает закэшированный магазин после изменения квоты.
type Invalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// Store реализует операции над товарами.
type Store struct {
	repo    Repository
	cache   Invalidator
	coupled bool
	metrics *metrics.Metrics
	log     *slog.Logger
	newID   func() string
}

// NewStore создает Store в режиме mode (config.QuotaModeDecoupled или config.QuotaModeCoupled).
func NewStore(repo Repository, cache Invalidator, mode string, m *metrics.Metrics, log *slog.Logger) *Store {
	return &Store{
		repo:    repo,
		cache:   cache,
		coupled: mode == config.QuotaModeCoupled,
		metrics: m,
		log:     log,
		newID:   uuid.NewString,
	}
}

// Add создает товар с новым UUID.
func (s *Store) Add(ctx context.Context, info models.ProductInfo) (models.InsertResult, error) {
	const op = "inventory.Add"
	p := models.Product{
		ID:           s.newID(),
		OwnerEmail:   info.OwnerEmail,
		Name:         info.Name,
		Quantity:     info.Quantity,
		Price:        info.Price,
		Location:     info.Location,
		Cost:         info.Cost,
		ProfitMargin: info.ProfitMargin,
		Discount:     info.Discount,
		Description:  info.Description,
		ImageURL:     info.ImageURL,
	}

	var err error
	if s.coupled {
		err = s.repo.CreateProductWithQuota(ctx, p)
	} else {
		err = s.repo.CreateProduct(ctx, p)
	}
	switch {
	case errors.Is(err, repository.ErrQuotaExhausted):
		s.metrics.ProductCreated("quota_exhausted")
		return models.InsertResult{}, apperr.New(apperr.ErrConflict, op, "product quota exhausted")
	case errors.Is(err, repository.ErrStoreNotFound):
		s.metrics.ProductCreated("error")
		return models.InsertResult{}, apperr.New(apperr.ErrInvalidArgument, op, "store not found for owner")
	case err != nil:
		s.metrics.ProductCreated("error")
		return models.InsertResult{}, apperr.Wrap(apperr.ErrUpstream, op, err)
	}

	s.metrics.ProductCreated("ok")
	if s.coupled {
		s.metrics.QuotaChanged(-1)
		s.invalidateStore(ctx, p.OwnerEmail)
	}
	s.log.Info("product created", slog.String("id", p.ID), sl.Email("owner", p.OwnerEmail))
	return models.InsertResult{InsertedID: p.ID}, nil
}

// Count возвращает количество товаров владельца.
func (s *Store) Count(ctx context.Context, ownerEmail string) (int, error) {
	const op = "inventory.Count"
	n, err := s.repo.CountProducts(ctx, ownerEmail)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrUpstream, op, err)
	}
	return n, nil
}

// List возвращает товары владельца в порядке создания.
func (s *Store) List(ctx context.Context, ownerEmail string) ([]*models.Product, error) {
	const op = "inventory.List"
	products, err := s.repo.ListProducts(ctx, ownerEmail)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstream, op, err)
	}
	return products, nil
}

// Update применяет переданные поля к товару и возвращает его новое состояние.
// Поля id и owner_email из запроса отбрасываются.
func (s *Store) Update(ctx context.Context, id string, fields models.ProductFields) (*models.Product, error) {
	const op = "inventory.Update"
	id, err := canonicalID(op, id)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.UpdateProduct(ctx, id, fields.Mutable())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.New(apperr.ErrNotFound, op, "product not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstream, op, err)
	}
	return p, nil
}

// Remove удаляет товар. Для несуществующего id DeletedCount == 0.
func (s *Store) Remove(ctx context.Context, id string) (models.DeleteResult, error) {
	const op = "inventory.Remove"
	id, err := canonicalID(op, id)
	if err != nil {
		return models.DeleteResult{}, err
	}

	if !s.coupled {
		n, err := s.repo.DeleteProduct(ctx, id)
		if err != nil {
			return models.DeleteResult{}, apperr.Wrap(apperr.ErrUpstream, op, err)
		}
		if n > 0 {
			s.log.Info("product removed", slog.String("id", id))
		}
		return models.DeleteResult{DeletedCount: n}, nil
	}

	owner, n, err := s.repo.DeleteProductWithQuota(ctx, id)
	if err != nil {
		return models.DeleteResult{}, apperr.Wrap(apperr.ErrUpstream, op, err)
	}
	if n > 0 {
		s.metrics.QuotaChanged(1)
		s.invalidateStore(ctx, owner)
		s.log.Info("product removed, quota returned", slog.String("id", id), sl.Email("owner", owner))
	}
	return models.DeleteResult{DeletedCount: n}, nil
}

// invalidateStore сбрасывает кэш магазина владельца. Ошибка только логируется.
func (s *Store) invalidateStore(ctx context.Context, ownerEmail string) {
	if err := s.cache.Invalidate(ctx, cache.StoreKey(ownerEmail)); err != nil {
		s.log.Warn("failed to invalidate store cache", sl.Email("owner", ownerEmail), sl.Err(err))
	}
}

// canonicalID приводит id к виду xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx.
// uuid.Parse принимает и urn:uuid:, который Postgres отвергает.
func canonicalID(op, id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", apperr.New(apperr.ErrInvalidArgument, op, "invalid product id")
	}
	return parsed.String(), nil
}
