// Package remove реализует HTTP-обработчик удаления товара по id.
//
// Удаление несуществующего товара не ошибка: ответ содержит deleted_count=0.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/quick-stock/internal/http/response"
	"github.com/magabrotheeeer/quick-stock/internal/lib/sl"
	"github.com/magabrotheeeer/quick-stock/internal/models"
)

// Handler обрабатывает DELETE /products/item/{id}.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики для удаления товара
}

// Service описывает удаление товара.
type Service interface {
	Remove(ctx context.Context, id string) (models.DeleteResult, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить товар по ID
// @Tags Products
// @Produce  json
// @Param id path string true "UUID товара"
// @Success 200 {object} models.DeleteResult
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Router /products/item/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	res, err := h.service.Remove(r.Context(), id)
	if err != nil {
		log.Error("failed to delete product", slog.String("id", id), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("success to delete product", slog.Int64("deleted entries", res.DeletedCount))
	render.JSON(w, r, response.OKWithData(res))
}
