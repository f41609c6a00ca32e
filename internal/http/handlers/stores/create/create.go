// Package create реализует HTTP-обработчик создания магазина.
//
// У владельца может быть только один магазин: повторная попытка возвращает 409.
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

// Service описывает создание магазина.
type Service interface {
	CreateStore(ctx context.Context, info models.StoreInfo) (models.InsertResult, error)
}

// Handler обрабатывает POST /stores.
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
// @Summary Создать магазин
// @Description Создает магазин владельца с начальной квотой товаров и назначает владельцу роль manager.
// @Tags Stores
// @Accept  json
// @Produce  json
// @Param request body models.StoreInfo true "Данные магазина"
// @Success 201 {object} models.InsertResult
// @Failure 409 {object} response.ErrorResponse "Магазин уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /stores [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stores.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.StoreInfo
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

	res, err := h.service.CreateStore(r.Context(), req)
	if err != nil {
		log.Error("failed to create store", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("store created", slog.String("id", res.InsertedID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(res))
}
