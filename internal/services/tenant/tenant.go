// Package tenant управляет пользователями и магазинами арендаторов.
package tenant

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/quick-stock/internal/cache"
	"github.com/magabrotheeeer/quick-stock/internal/lib/apperr"
	"github.com/magabrotheeeer/quick-stock/internal/lib/sl"
	"github.com/magabrotheeeer/quick-stock/internal/models"
	"github.com/magabrotheeeer/quick-stock/internal/storage/repository"
)

// Repository определяет методы хранилища для пользователей и магазинов.
type Repository interface {
	// InsertUserIfAbsent создает пользователя или возвращает существующего без изменений.
	InsertUserIfAbsent(ctx context.Context, email string, fields models.UserFields) (*models.User, bool, error)
	// GetUser возвращает пользователя по email.
	GetUser(ctx context.Context, email string) (*models.User, error)
	// UpsertRole назначает роль, создавая пользователя при необходимости.
	UpsertRole(ctx context.Context, email, role string) (models.UpdateResult, error)
	// CreateStore сохраняет магазин и возвращает его ID.
	CreateStore(ctx context.Context, store models.Store) (int64, error)
	// GetStoreByOwner возвращает магазин владельца.
	GetStoreByOwner(ctx context.Context, ownerEmail string) (*models.Store, error)
}

// Cache описывает методы для кэширования магазинов.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Registry реализует регистрацию пользователей и магазинов.
type Registry struct {
	repo         Repository
	cache        Cache
	cacheTTL     time.Duration
	initialQuota int
	log          *slog.Logger
}

// NewRegistry создает Registry. initialQuota используется для магазинов без явной квоты.
func NewRegistry(repo Repository, cache Cache, cacheTTL time.Duration, initialQuota int, log *slog.Logger) *Registry {
	return &Registry{
		repo:         repo,
		cache:        cache,
		cacheTTL:     cacheTTL,
		initialQuota: initialQuota,
		log:          log,
	}
}

// UpsertUser возвращает существующего пользователя без изменений или создает нового из fields.
func (r *Registry) UpsertUser(ctx context.Context, email string, fields models.UserFields) (*models.User, error) {
	const op = "tenant.UpsertUser"
	if strings.TrimSpace(email) == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, op, "email is required")
	}

	u, inserted, err := r.repo.InsertUserIfAbsent(ctx, email, fields)
	if err != nil {
		return nil, mapStorageErr(op, err)
	}
	if inserted {
		r.log.Info("user registered", sl.Email("email", email))
	}
	return u, nil
}

// SetRole назначает роль пользователю независимо от того, существовал ли он.
func (r *Registry) SetRole(ctx context.Context, email, role string) (models.UpdateResult, error) {
	const op = "tenant.SetRole"
	if strings.TrimSpace(email) == "" {
		return models.UpdateResult{}, apperr.New(apperr.ErrInvalidArgument, op, "email is required")
	}
	switch role {
	case models.RoleOwner, models.RoleManager, models.RoleStaff:
	default:
		return models.UpdateResult{}, apperr.New(apperr.ErrInvalidArgument, op, "role must be owner, manager or staff")
	}

	res, err := r.repo.UpsertRole(ctx, email, role)
	if err != nil {
		return models.UpdateResult{}, mapStorageErr(op, err)
	}
	r.log.Info("role updated", sl.Email("email", email), slog.String("role", role))
	return res, nil
}

// GetUser возвращает пользователя по email.
func (r *Registry) GetUser(ctx context.Context, email string) (*models.User, error) {
	const op = "tenant.GetUser"
	u, err := r.repo.GetUser(ctx, email)
	if err != nil {
		return nil, mapStorageErr(op, err)
	}
	return u, nil
}

// CreateStore создает магазин и повышает роль владельца до manager.
// Второй магазин того же владельца возвращает ErrConflict.
func (r *Registry) CreateStore(ctx context.Context, info models.StoreInfo) (models.InsertResult, error) {
	const op = "tenant.CreateStore"

	quota := r.initialQuota
	if info.RemainingQuota != nil {
		quota = *info.RemainingQuota
	}
	store := models.Store{
		OwnerEmail:     info.OwnerEmail,
		Name:           info.Name,
		Address:        info.Address,
		Description:    info.Description,
		LogoURL:        info.LogoURL,
		RemainingQuota: quota,
	}

	id, err := r.repo.CreateStore(ctx, store)
	if errors.Is(err, repository.ErrAlreadyExists) {
		return models.InsertResult{}, apperr.New(apperr.ErrConflict, op, "store already exists")
	}
	if err != nil {
		return models.InsertResult{}, mapStorageErr(op, err)
	}

	log := r.log.With(slog.String("op", op), sl.Email("owner", info.OwnerEmail))
	log.Info("store created", slog.Int64("id", id), slog.Int("remaining_quota", quota))

	if _, err := r.repo.UpsertRole(ctx, info.OwnerEmail, models.RoleManager); err != nil {
		log.Warn("failed to promote store owner", sl.Err(err))
	}
	if err := r.cache.Invalidate(ctx, cache.StoreKey(info.OwnerEmail)); err != nil {
		log.Warn("failed to invalidate store cache", sl.Err(err))
	}

	return models.InsertResult{InsertedID: strconv.FormatInt(id, 10)}, nil
}

// GetStoreByOwner возвращает магазин владельца, используя кэш или хранилище.
func (r *Registry) GetStoreByOwner(ctx context.Context, ownerEmail string) (*models.Store, error) {
	const op = "tenant.GetStoreByOwner"
	key := cache.StoreKey(ownerEmail)

	var cached models.Store
	found, err := r.cache.Get(ctx, key, &cached)
	if err != nil {
		r.log.Warn("failed to read store from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	store, err := r.repo.GetStoreByOwner(ctx, ownerEmail)
	if err != nil {
		return nil, mapStorageErr(op, err)
	}

	if err := r.cache.Set(ctx, key, store, r.cacheTTL); err != nil {
		r.log.Warn("failed to cache store", slog.String("key", key), sl.Err(err))
	}
	return store, nil
}

func mapStorageErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.Wrap(apperr.ErrNotFound, op, err)
	case errors.Is(err, repository.ErrAlreadyExists):
		return apperr.Wrap(apperr.ErrConflict, op, err)
	default:
		return apperr.Wrap(apperr.ErrUpstream, op, err)
	}
}
