// Package intent реализует HTTP-обработчик создания платежного намерения.
//
// Владелец берется из сессии. Заголовок Idempotency-Key делает повтор запроса
// безопасным: шлюз не создаст второй платеж, клиент получит тот же ответ.
package intent

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/quick-stock/internal/http/middlewarectx"
	"github.com/magabrotheeeer/quick-stock/internal/http/response"
	"github.com/magabrotheeeer/quick-stock/internal/lib/sl"
	"github.com/magabrotheeeer/quick-stock/internal/models"
)

// HeaderIdempotencyKey заголовок ключа идемпотентности.
const HeaderIdempotencyKey = "Idempotency-Key"

// Service описывает создание намерения.
type Service interface {
	CreatePaymentIntent(ctx context.Context, ownerEmail string, req models.IntentRequest, idempotencyKey string) (models.PaymentIntent, error)
}

// Handler обрабатывает POST /payments/intent.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать платежное намерение
// @Description Создает намерение в платежном шлюзе и возвращает client secret для оплаты картой.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param Idempotency-Key header string false "Ключ идемпотентности"
// @Param request body models.IntentRequest true "Сумма и тариф"
// @Success 200 {object} models.PaymentIntent
// @Failure 400 {object} response.ErrorResponse "Некорректная сумма"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 502 {object} response.ErrorResponse "Сбой платежного шлюза"
// @Router /payments/intent [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payments.intent"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	owner, ok := middlewarectx.EmailFrom(r.Context())
	if !ok {
		log.Error("email not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized access"))
		return
	}

	key := r.Header.Get(HeaderIdempotencyKey)
	if err := h.validate.Var(key, "omitempty,max=255"); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("idempotency key is too long"))
		return
	}

	var req models.IntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.Invalid(w, r, err)
		return
	}

	res, err := h.service.CreatePaymentIntent(r.Context(), owner, req, key)
	if err != nil {
		log.Error("failed to create payment intent", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(res))
}
