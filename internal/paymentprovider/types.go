package paymentprovider

// Статусы платежного намерения.
const (
	StatusSucceeded       = "succeeded"
	StatusRequiresPayment = "requires_payment_method"
	StatusCanceled        = "canceled"
)

// Типы событий вебхука шлюза.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

// CreateIntentRequest представляет запрос на создание платежного намерения.
type CreateIntentRequest struct {
	AmountMinor    int64             // сумма в минимальных единицах валюты, например центах
	Currency       string            // валюта, например "usd"
	Metadata       map[string]string // owner_email, tier
	IdempotencyKey string            // повтор с тем же ключом не создаёт второй платеж
}

// Intent представляет платежное намерение в ответе шлюза.
type Intent struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	ClientSecret string            `json:"client_secret"`
	Metadata     map[string]string `json:"metadata"`
}

// WebhookEvent уведомление шлюза об изменении статуса платежа.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object Intent `json:"object"`
	} `json:"data"`
}

type apiErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
