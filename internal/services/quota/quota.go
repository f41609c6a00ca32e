// Package quota ведет счетчик оставшейся квоты товаров магазина.
//
// Счетчик меняется одним атомарным UPDATE и не имеет нижней и верхней границы:
// уменьшение нулевой квоты дает -1.
package quota

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/quick-stock/internal/cache"
	"github.com/magabrotheeeer/quick-stock/internal/lib/apperr"
	"github.com/magabrotheeeer/quick-stock/internal/lib/sl"
	"github.com/magabrotheeeer/quick-stock/internal/metrics"
	"github.com/magabrotheeeer/quick-stock/internal/models"
)

// Repository атомарно меняет квоту магазина.
type Repository interface {
	AdjustQuota(ctx context.Context, ownerEmail string, delta int) (models.QuotaResult, error)
}

// Invalidator сбрасывает закэшированный магазин.
type Invalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// Ledger реализует операции над квотой.
type Ledger struct {
	repo    Repository
	cache   Invalidator
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewLedger создает Ledger.
func NewLedger(repo Repository, cache Invalidator, m *metrics.Metrics, log *slog.Logger) *Ledger {
	return &Ledger{
		repo:    repo,
		cache:   cache,
		metrics: m,
		log:     log,
	}
}

// Decrement уменьшает квоту на единицу.
func (l *Ledger) Decrement(ctx context.Context, ownerEmail string) (models.QuotaResult, error) {
	return l.Add(ctx, ownerEmail, -1)
}

// Increment увеличивает квоту на единицу.
func (l *Ledger) Increment(ctx context.Context, ownerEmail string) (models.QuotaResult, error) {
	return l.Add(ctx, ownerEmail, 1)
}

// Add меняет квоту на delta. Отсутствие магазина возвращается как Matched == false.
func (l *Ledger) Add(ctx context.Context, ownerEmail string, delta int) (models.QuotaResult, error) {
	const op = "quota.Add"
	if ownerEmail == "" {
		return models.QuotaResult{}, apperr.New(apperr.ErrInvalidArgument, op, "owner email is required")
	}

	res, err := l.repo.AdjustQuota(ctx, ownerEmail, delta)
	if err != nil {
		return models.QuotaResult{}, apperr.Wrap(apperr.ErrUpstream, op, err)
	}
	if !res.Matched {
		l.log.Info("quota change for missing store", sl.Email("owner", ownerEmail))
		return res, nil
	}

	l.metrics.QuotaChanged(delta)
	if err := l.cache.Invalidate(ctx, cache.StoreKey(ownerEmail)); err != nil {
		l.log.Warn("failed to invalidate store cache", sl.Email("owner", ownerEmail), sl.Err(err))
	}
	l.log.Debug("quota changed", sl.Email("owner", ownerEmail),
		slog.Int("delta", delta), slog.Int("remaining_quota", res.RemainingQuota))
	return res, nil
}
