// Package create реализует HTTP-обработчик записи продажи.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/quick-stock/internal/http/response"
	"github.com/magabrotheeeer/quick-stock/internal/lib/sl"
	"github.com/magabrotheeeer/quick-stock/internal/models"
)

// Service описывает запись продажи.
type Service interface {
	Record(ctx context.Context, info models.SaleInfo) (models.InsertResult, error)
}

// Handler обрабатывает POST /sales.
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
// @Summary Записать продажу
// @Tags Sales
// @Accept  json
// @Produce  json
// @Param request body models.SaleInfo true "Продажа"
// @Success 201 {object} models.InsertResult
// @Failure 409 {object} response.ErrorResponse "Недостаточно товара"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /sales [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.sales.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.SaleInfo
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.Invalid(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		response.Invalid(w, r, err)
		return
	}

	res, err := h.service.Record(r.Context(), req)
	if err != nil {
		log.Error("failed to record sale", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("sale recorded", slog.String("id", res.InsertedID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(res))
}
