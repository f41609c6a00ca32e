package models

import "time"

// Статусы записи подписки.
const (
	SubscriptionPending = "pending"
	SubscriptionActive  = "active"
	SubscriptionFailed  = "failed"
)

// Subscription запись об оплате тарифа. Active только после подтверждения платежа.
type Subscription struct {
	ID               int64      `json:"id"`
	OwnerEmail       string     `json:"owner_email"`
	Tier             string     `json:"tier"`
	PaymentReference string     `json:"payment_reference"`
	IdempotencyKey   string     `json:"idempotency_key,omitempty"`
	Status           string     `json:"status"`
	Timestamp        time.Time  `json:"timestamp"`
	ConfirmedAt      *time.Time `json:"confirmed_at,omitempty"`
}

// SubscriptionInfo данные подписки из JSON-запроса.
// OwnerEmail берется из сессии, а не из тела запроса.
type SubscriptionInfo struct {
	OwnerEmail       string `json:"-" validate:"required,email"`
	Tier             string `json:"tier" validate:"required"`
	PaymentReference string `json:"payment_reference" validate:"required"`
	IdempotencyKey   string `json:"idempotency_key" validate:"omitempty,max=255"`
}

// IntentRequest запрос на создание платежного намерения. Price указывается в основных единицах валюты
// и должна совпадать с ценой тарифа Tier.
type IntentRequest struct {
	Price *float64 `json:"price"`
	Tier  string   `json:"tier"`
}

// PaymentIntent ответ клиенту для завершения оплаты на стороне платежного шлюза.
type PaymentIntent struct {
	ClientSecret     string `json:"client_secret"`
	PaymentReference string `json:"payment_reference"`
	IdempotencyKey   string `json:"idempotency_key"`
	AmountMinor      int64  `json:"amount"`
	Currency         string `json:"currency"`
}
