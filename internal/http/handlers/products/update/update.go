// Package update реализует HTTP-обработчик частичного обновления товара.
//
// id и owner_email из тела игнорируются: товар нельзя переименовать или
// перенести в другой магазин.
package update

import (
	"context"
	"encoding/json"
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

// Service описывает обновление товара.
type Service interface {
	Update(ctx context.Context, id string, fields models.ProductFields) (*models.Product, error)
}

// Handler обрабатывает PUT /products/item/{id}.
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
// @Summary Обновить товар
// @Description Меняет только переданные поля и возвращает товар после обновления.
// @Tags Products
// @Accept  json
// @Produce  json
// @Param id path string true "UUID товара"
// @Param request body models.ProductFields true "Изменяемые поля"
// @Success 200 {object} models.Product
// @Failure 400 {object} response.ErrorResponse "Некорректный id"
// @Failure 404 {object} response.ErrorResponse "Товар не найден"
// @Router /products/item/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.update"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	var req models.ProductFields
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

	product, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		log.Error("failed to update product", slog.String("id", id), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("product updated", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(product))
}
