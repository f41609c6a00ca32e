// Package subscription проводит оплату тарифа в две фазы.
//
// Первая фаза создает платежное намерение в шлюзе. Вторая сохраняет подписку
// в статусе pending. Подписка становится active только после подтверждения
// платежа вебхуком шлюза или опросом намерения; только вызов, переключивший
// статус, пополняет квоту магазина.
package subscription

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/quick-stock/internal/cache"
	"github.com/magabrotheeeer/quick-stock/internal/lib/apperr"
	"github.com/magabrotheeeer/quick-stock/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/quick-stock/internal/lib/sl"
	"github.com/magabrotheeeer/quick-stock/internal/metrics"
	"github.com/magabrotheeeer/quick-stock/internal/models"
	"github.com/magabrotheeeer/quick-stock/internal/paymentprovider"
	"github.com/magabrotheeeer/quick-stock/internal/storage/repository"
)

// IntentTTL сколько хранится ответ намерения для повтора по ключу идемпотентности.
const IntentTTL = 24 * time.Hour

// Repository определяет методы хранилища подписок.
type Repository interface {
	CreatePendingSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, bool, error)
	GetSubscriptionByReference(ctx context.Context, paymentReference string) (*models.Subscription, error)
	ActivateSubscription(ctx context.Context, paymentReference string, allowances map[string]int) (*models.Subscription, bool, error)
	FailSubscription(ctx context.Context, paymentReference string) (bool, error)
}

// Gateway платежный шлюз.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req paymentprovider.CreateIntentRequest) (*paymentprovider.Intent, error)
	GetPaymentIntent(ctx context.Context, id string) (*paymentprovider.Intent, error)
}

// Cache хранит ответы намерений и сбрасывает кэш магазина после пополнения квоты.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// EventPublisher публикует доменные события.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Activated событие об активации подписки.
type Activated struct {
	OwnerEmail       string    `json:"owner_email"`
	Tier             string    `json:"tier"`
	PaymentReference string    `json:"payment_reference"`
	Allowance        int       `json:"allowance"`
	ActivatedAt      time.Time `json:"activated_at"`
}

// Activator реализует оплату и активацию подписок.
type Activator struct {
	repo     Repository
	gateway  Gateway
	cache    Cache
	events   EventPublisher
	currency string
	tiers    map[string]int
	prices   map[string]int64
	metrics  *metrics.Metrics
	log      *slog.Logger
	newKey   func() string
}

// NewActivator создает Activator. tiers задает, сколько товаров добавляет каждый тариф,
// prices цену тарифа в основных единицах валюты.
func NewActivator(repo Repository, gateway Gateway, cache Cache, events EventPublisher,
	currency string, tiers map[string]int, prices map[string]float64, m *metrics.Metrics, log *slog.Logger) *Activator {
	minor := make(map[string]int64, len(prices))
	for tier, price := range prices {
		minor[tier] = toMinor(price)
	}
	return &Activator{
		repo:     repo,
		gateway:  gateway,
		cache:    cache,
		events:   events,
		currency: currency,
		tiers:    tiers,
		prices:   minor,
		metrics:  m,
		log:      log,
		newKey:   uuid.NewString,
	}
}

// CreatePaymentIntent создает платежное намерение на сумму req.Price.
// Сумма должна совпадать с ценой тарифа req.Tier. С непустым idempotencyKey повторный вызов возвращает сохраненный ответ
// и не создает второй платеж.
func (a *Activator) CreatePaymentIntent(ctx context.Context, ownerEmail string, req models.IntentRequest, idempotencyKey string) (models.PaymentIntent, error) {
	const op = "subscription.CreatePaymentIntent"
	if req.Price == nil {
		return models.PaymentIntent{}, apperr.New(apperr.ErrInvalidArgument, op, "price is required")
	}
	amount := toMinor(*req.Price)
	if amount < 1 {
		return models.PaymentIntent{}, apperr.New(apperr.ErrInvalidArgument, op, "price must be at least 0.01")
	}
	tierPrice, ok := a.prices[req.Tier]
	if _, known := a.tiers[req.Tier]; !known || !ok {
		return models.PaymentIntent{}, apperr.New(apperr.ErrInvalidArgument, op, "unknown tier")
	}
	if amount != tierPrice {
		return models.PaymentIntent{}, apperr.New(apperr.ErrInvalidArgument, op, "price does not match tier")
	}

	log := a.log.With(slog.String("op", op), sl.Email("owner", ownerEmail))

	cacheKey := ""
	if idempotencyKey != "" {
		cacheKey = cache.IntentKey(ownerEmail + ":" + idempotencyKey)
		var cached models.PaymentIntent
		found, err := a.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			log.Warn("failed to read payment intent from cache", sl.Err(err))
		}
		if found {
			a.metrics.PaymentIntent("replayed")
			log.Info("payment intent replayed", slog.String("payment_reference", cached.PaymentReference))
			return cached, nil
		}
	} else {
		idempotencyKey = a.newKey()
		cacheKey = cache.IntentKey(ownerEmail + ":" + idempotencyKey)
	}

	intent, err := a.gateway.CreatePaymentIntent(ctx, paymentprovider.CreateIntentRequest{
		AmountMinor: amount,
		Currency:    a.currency,
		Metadata: map[string]string{
			"owner_email": ownerEmail,
			"tier":        req.Tier,
		},
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		a.metrics.PaymentIntent("failed")
		return models.PaymentIntent{}, apperr.Wrap(apperr.ErrUpstream, op, err)
	}

	resp := models.PaymentIntent{
		ClientSecret:     intent.ClientSecret,
		PaymentReference: intent.ID,
		IdempotencyKey:   idempotencyKey,
		AmountMinor:      amount,
		Currency:         a.currency,
	}
	if err := a.cache.Set(ctx, cacheKey, resp, IntentTTL); err != nil {
		log.Warn("failed to cache payment intent", sl.Err(err))
	}

	a.metrics.PaymentIntent("created")
	log.Info("payment intent created", slog.String("payment_reference", intent.ID))
	return resp, nil
}

// RecordSubscription сохраняет подписку в статусе pending и один раз опрашивает шлюз.
// Платеж, который не совпадает с подпиской по владельцу, тарифу или сумме, отклоняется
// до записи. Если платеж уже прошел, подписка активируется. Повтор с тем же
// payment_reference возвращает существующую запись.
func (a *Activator) RecordSubscription(ctx context.Context, info models.SubscriptionInfo) (*models.Subscription, error) {
	const op = "subscription.RecordSubscription"
	if _, ok := a.tiers[info.Tier]; !ok {
		return nil, apperr.New(apperr.ErrInvalidArgument, op, "unknown tier")
	}
	if info.PaymentReference == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, op, "payment reference is required")
	}

	log := a.log.With(slog.String("op", op), slog.String("payment_reference", info.PaymentReference))

	want := models.Subscription{
		OwnerEmail:       info.OwnerEmail,
		Tier:             info.Tier,
		PaymentReference: info.PaymentReference,
		IdempotencyKey:   info.IdempotencyKey,
		Status:           models.SubscriptionPending,
	}

	intent, err := a.gateway.GetPaymentIntent(ctx, info.PaymentReference)
	if err != nil {
		log.Warn("failed to poll payment intent, subscription stays pending", sl.Err(err))
		intent = nil
	}
	if intent != nil {
		if reason := a.mismatch(intent, &want); reason != "" {
			log.Warn("payment intent does not match subscription", slog.String("reason", reason))
			return nil, apperr.New(apperr.ErrConflict, op, "payment does not match subscription")
		}
	}

	sub, created, err := a.repo.CreatePendingSubscription(ctx, want)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstream, op, err)
	}
	if created {
		log.Info("subscription recorded as pending", sl.Email("owner", sub.OwnerEmail))
	}
	if sub.OwnerEmail != info.OwnerEmail {
		return nil, apperr.New(apperr.ErrConflict, op, "payment reference already used")
	}
	if sub.Tier != info.Tier {
		return nil, apperr.New(apperr.ErrConflict, op, "payment reference already used for another tier")
	}
	if sub.Status != models.SubscriptionPending || intent == nil {
		return sub, nil
	}
	if intent.Status != paymentprovider.StatusSucceeded {
		return sub, nil
	}

	activated, err := a.activate(ctx, sub.PaymentReference)
	if err != nil {
		return nil, err
	}
	if activated != nil {
		return activated, nil
	}
	return a.current(ctx, op, sub.PaymentReference)
}

// ConfirmPayment обрабатывает проверенное событие вебхука шлюза.
// Неизвестные типы событий игнорируются.
func (a *Activator) ConfirmPayment(ctx context.Context, event paymentprovider.WebhookEvent) error {
	const op = "subscription.ConfirmPayment"
	ref := event.Data.Object.ID
	log := a.log.With(slog.String("op", op), slog.String("event", event.Type), slog.String("payment_reference", ref))

	if ref == "" {
		return apperr.New(apperr.ErrInvalidArgument, op, "payment reference is required")
	}

	switch event.Type {
	case paymentprovider.EventIntentSucceeded:
		sub, err := a.repo.GetSubscriptionByReference(ctx, ref)
		if errors.Is(err, repository.ErrNotFound) {
			log.Info("payment confirmed before subscription was recorded")
			return nil
		}
		if err != nil {
			return apperr.Wrap(apperr.ErrUpstream, op, err)
		}
		if reason := a.mismatch(&event.Data.Object, sub); reason != "" {
			log.Warn("confirmed payment does not match subscription, not activated", slog.String("reason", reason))
			return nil
		}
		if _, err := a.activate(ctx, ref); err != nil {
			return err
		}
	case paymentprovider.EventIntentFailed:
		failed, err := a.repo.FailSubscription(ctx, ref)
		if err != nil {
			return apperr.Wrap(apperr.ErrUpstream, op, err)
		}
		if failed {
			log.Info("subscription payment failed")
		}
	default:
		log.Debug("ignored webhook event")
	}
	return nil
}

// activate переключает подписку в active. Возвращает nil без ошибки, если
// подписка уже не pending или еще не записана.
func (a *Activator) activate(ctx context.Context, paymentReference string) (*models.Subscription, error) {
	const op = "subscription.activate"

	sub, flipped, err := a.repo.ActivateSubscription(ctx, paymentReference, a.tiers)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstream, op, err)
	}
	if !flipped {
		return nil, nil
	}

	allowance := a.tiers[sub.Tier]
	log := a.log.With(slog.String("op", op), slog.String("payment_reference", paymentReference),
		sl.Email("owner", sub.OwnerEmail))
	log.Info("subscription activated", slog.String("tier", sub.Tier), slog.Int("allowance", allowance))

	a.metrics.SubscriptionActivated(sub.Tier)
	a.metrics.QuotaChanged(allowance)
	if err := a.cache.Invalidate(ctx, cache.StoreKey(sub.OwnerEmail)); err != nil {
		log.Warn("failed to invalidate store cache", sl.Err(err))
	}

	event := Activated{
		OwnerEmail:       sub.OwnerEmail,
		Tier:             sub.Tier,
		PaymentReference: sub.PaymentReference,
		Allowance:        allowance,
		ActivatedAt:      time.Now().UTC(),
	}
	if sub.ConfirmedAt != nil {
		event.ActivatedAt = sub.ConfirmedAt.UTC()
	}
	if err := a.events.Publish(ctx, rabbitmq.RoutingSubscriptionActivated, event); err != nil {
		log.Warn("failed to publish subscription event", sl.Err(err))
	}
	return sub, nil
}

// mismatch возвращает причину, по которой платеж нельзя засчитать подписке,
// или пустую строку.
func (a *Activator) mismatch(intent *paymentprovider.Intent, sub *models.Subscription) string {
	switch {
	case intent.Metadata["owner_email"] != sub.OwnerEmail:
		return "owner"
	case intent.Metadata["tier"] != sub.Tier:
		return "tier"
	case intent.Amount != a.prices[sub.Tier]:
		return "amount"
	case !strings.EqualFold(intent.Currency, a.currency):
		return "currency"
	}
	return ""
}

func toMinor(price float64) int64 {
	amount := math.Round(price * 100)
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return int64(amount)
}

func (a *Activator) current(ctx context.Context, op, paymentReference string) (*models.Subscription, error) {
	sub, err := a.repo.GetSubscriptionByReference(ctx, paymentReference)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstream, op, err)
	}
	return sub, nil
}
