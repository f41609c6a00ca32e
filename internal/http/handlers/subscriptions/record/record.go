// Package record реализует HTTP-обработчик записи оплаченной подписки.
//
// Подписка сохраняется в статусе pending. Статус active появляется только после
// подтверждения оплаты шлюзом, поэтому ответ может вернуть еще pending-запись.
package record

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

// Service описывает запись подписки.
type Service interface {
	RecordSubscription(ctx context.Context, info models.SubscriptionInfo) (*models.Subscription, error)
}

// Handler обрабатывает POST /subscriptions.
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
// @Summary Записать подписку
// @Description Сохраняет подписку по ссылке на платеж. Квота пополняется только после подтверждения оплаты.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param request body models.SubscriptionInfo true "Подписка"
// @Success 200 {object} models.Subscription
// @Failure 400 {object} response.ErrorResponse "Неизвестный тариф"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 409 {object} response.ErrorResponse "Платеж уже использован или не совпадает с подпиской"
// @Router /subscriptions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscriptions.record"
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

	var req models.SubscriptionInfo
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.Invalid(w, r, err)
		return
	}
	req.OwnerEmail = owner
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		response.Invalid(w, r, err)
		return
	}

	sub, err := h.service.RecordSubscription(r.Context(), req)
	if err != nil {
		log.Error("failed to record subscription", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("subscription recorded", slog.String("status", sub.Status), slog.String("payment_reference", sub.PaymentReference))
	render.JSON(w, r, response.OKWithData(sub))
}
