// Package webhook реализует HTTP-обработчик событий платежного шлюза.
//
// Тело подписывается HMAC-SHA256 общим секретом, подпись передается в hex
// в заголовке X-Webhook-Signature. Запрос без валидной подписи отклоняется до разбора тела.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/quick-stock/internal/http/response"
	"github.com/magabrotheeeer/quick-stock/internal/lib/sl"
	"github.com/magabrotheeeer/quick-stock/internal/paymentprovider"
)

// HeaderSignature заголовок с подписью тела.
const HeaderSignature = "X-Webhook-Signature"

const maxBodyBytes = 1 << 20

// Service обрабатывает проверенное событие.
type Service interface {
	ConfirmPayment(ctx context.Context, event paymentprovider.WebhookEvent) error
}

// Handler обрабатывает POST /payments/webhook.
type Handler struct {
	log     *slog.Logger
	service Service
	secret  []byte
}

// New создает новый Handler. С пустым секретом любой запрос отклоняется.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:     log,
		service: service,
		secret:  []byte(secret),
	}
}

// Sign возвращает подпись тела в формате заголовка X-Webhook-Signature.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (h *Handler) verifySignature(body []byte, signature string) bool {
	if len(h.secret) == 0 || signature == "" {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), got)
}

// ServeHTTP godoc
// @Summary Вебхук платежного шлюза
// @Description Подтверждает или отклоняет оплату подписки. Повторная доставка события ничего не меняет.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param X-Webhook-Signature header string true "HMAC-SHA256 тела в hex"
// @Success 200 {object} map[string]any "Событие обработано"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payments.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if !h.verifySignature(body, r.Header.Get(HeaderSignature)) {
		log.Error("invalid or missing webhook signature")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var event paymentprovider.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.service.ConfirmPayment(r.Context(), event); err != nil {
		log.Error("failed to process webhook event", slog.String("event", event.Type), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("webhook processed", slog.String("event", event.Type), slog.String("payment_id", event.Data.Object.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{"received": true}))
}
