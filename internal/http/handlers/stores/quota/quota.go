// Package quota реализует HTTP-обработчик атомарного изменения квоты товаров магазина.
//
// Направление берется из URL: decrement или increment. Отсутствие магазина
// не считается ошибкой, ответ содержит matched=false.
package quota

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/quick-stock/internal/http/response"
	"github.com/magabrotheeeer/quick-stock/internal/lib/sl"
	"github.com/magabrotheeeer/quick-stock/internal/models"
)

// Service описывает изменение квоты.
type Service interface {
	Decrement(ctx context.Context, ownerEmail string) (models.QuotaResult, error)
	Increment(ctx context.Context, ownerEmail string) (models.QuotaResult, error)
}

// Handler обрабатывает PATCH /stores/{email}/quota/{direction}.
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
// @Summary Изменить квоту магазина на единицу
// @Description Уменьшает или увеличивает оставшуюся квоту товаров. Нижней границы нет.
// @Tags Stores
// @Produce  json
// @Param email path string true "Email владельца"
// @Param direction path string true "decrement или increment"
// @Success 200 {object} models.QuotaResult
// @Failure 400 {object} response.ErrorResponse "Некорректный email или направление"
// @Router /stores/{email}/quota/{direction} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stores.quota"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	email := chi.URLParam(r, "email")
	if err := h.validate.Var(email, "required,email"); err != nil {
		log.Error("invalid email in url", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid email"))
		return
	}

	var (
		res models.QuotaResult
		err error
	)
	switch direction := chi.URLParam(r, "direction"); direction {
	case "decrement":
		res, err = h.service.Decrement(r.Context(), email)
	case "increment":
		res, err = h.service.Increment(r.Context(), email)
	default:
		log.Error("unknown quota direction", slog.String("direction", direction))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("direction must be decrement or increment"))
		return
	}
	if err != nil {
		log.Error("failed to change quota", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, response.OKWithData(res))
}
