// Package sales записывает продажи. Записи только добавляются и не изменяются.
package sales

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/quick-stock/internal/lib/apperr"
	"github.com/magabrotheeeer/quick-stock/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/quick-stock/internal/lib/sl"
	"github.com/magabrotheeeer/quick-stock/internal/metrics"
	"github.com/magabrotheeeer/quick-stock/internal/models"
	"github.com/magabrotheeeer/quick-stock/internal/storage/repository"
)

// Repository определяет методы хранилища продаж.
type Repository interface {
	CreateSale(ctx context.Context, sale models.Sale) error
	CreateSaleWithStock(ctx context.Context, sale models.Sale) error
	ListSales(ctx context.Context, ownerEmail string) ([]*models.Sale, error)
	CountSales(ctx context.Context, ownerEmail string) (int, error)
}

// EventPublisher публикует доменные события.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// SaleRecorded событие о записанной продаже.
type SaleRecorded struct {
	SaleID       string    `json:"sale_id"`
	OwnerEmail   string    `json:"owner_email"`
	ProductID    string    `json:"product_id"`
	QuantitySold int       `json:"quantity_sold"`
	Amount       float64   `json:"amount"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Recorder реализует запись продаж.
type Recorder struct {
	repo         Repository
	events       EventPublisher
	enforceStock bool
	metrics      *metrics.Metrics
	log          *slog.Logger
	newID        func() string
	now          func() time.Time
}

// NewRecorder создает Recorder. При enforceStock продажа уменьшает остаток товара
// и отклоняется, если остатка не хватает.
func NewRecorder(repo Repository, events EventPublisher, enforceStock bool, m *metrics.Metrics, log *slog.Logger) *Recorder {
	return &Recorder{
		repo:         repo,
		events:       events,
		enforceStock: enforceStock,
		metrics:      m,
		log:          log,
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

// Record сохраняет продажу и публикует sale.recorded.
func (r *Recorder) Record(ctx context.Context, info models.SaleInfo) (models.InsertResult, error) {
	const op = "sales.Record"
	productID, err := uuid.Parse(info.ProductID)
	if err != nil {
		return models.InsertResult{}, apperr.New(apperr.ErrInvalidArgument, op, "invalid product id")
	}
	if info.QuantitySold <= 0 {
		return models.InsertResult{}, apperr.New(apperr.ErrInvalidArgument, op, "quantity sold must be positive")
	}

	sale := models.Sale{
		ID:           r.newID(),
		OwnerEmail:   info.OwnerEmail,
		ProductID:    productID.String(),
		QuantitySold: info.QuantitySold,
		Amount:       info.Amount,
	}

	if r.enforceStock {
		err = r.repo.CreateSaleWithStock(ctx, sale)
	} else {
		err = r.repo.CreateSale(ctx, sale)
	}
	if errors.Is(err, repository.ErrInsufficientStock) {
		return models.InsertResult{}, apperr.New(apperr.ErrConflict, op, "insufficient stock")
	}
	if err != nil {
		return models.InsertResult{}, apperr.Wrap(apperr.ErrUpstream, op, err)
	}

	r.metrics.SaleRecorded()
	log := r.log.With(slog.String("op", op), slog.String("sale_id", sale.ID))
	log.Info("sale recorded", sl.Email("owner", sale.OwnerEmail))

	event := SaleRecorded{
		SaleID:       sale.ID,
		OwnerEmail:   sale.OwnerEmail,
		ProductID:    sale.ProductID,
		QuantitySold: sale.QuantitySold,
		Amount:       sale.Amount,
		RecordedAt:   r.now().UTC(),
	}
	if err := r.events.Publish(ctx, rabbitmq.RoutingSaleRecorded, event); err != nil {
		log.Warn("failed to publish sale event", sl.Err(err))
	}

	return models.InsertResult{InsertedID: sale.ID}, nil
}

// List возвращает продажи владельца, новые первыми.
func (r *Recorder) List(ctx context.Context, ownerEmail string) ([]*models.Sale, error) {
	const op = "sales.List"
	sales, err := r.repo.ListSales(ctx, ownerEmail)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstream, op, err)
	}
	return sales, nil
}

// Count возвращает количество продаж владельца.
func (r *Recorder) Count(ctx context.Context, ownerEmail string) (int, error) {
	const op = "sales.Count"
	n, err := r.repo.CountSales(ctx, ownerEmail)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrUpstream, op, err)
	}
	return n, nil
}
