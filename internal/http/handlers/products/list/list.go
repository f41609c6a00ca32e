// Package list реализует HTTP-обработчик списка товаров магазина.
package list

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

// Service описывает чтение товаров владельца.
type Service interface {
	List(ctx context.Context, ownerEmail string) ([]*models.Product, error)
}

// Handler обрабатывает GET /products/{email}.
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
// @Summary Список товаров
// @Description Возвращает товары магазина в порядке добавления.
// @Tags Products
// @Produce  json
// @Param email path string true "Email владельца"
// @Success 200 {array} models.Product
// @Failure 400 {object} response.ErrorResponse "Некорректный email"
// @Router /products/{email} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.list"
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

	products, err := h.service.List(r.Context(), email)
	if err != nil {
		log.Error("failed to list products", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	if products == nil {
		products = []*models.Product{}
	}

	log.Debug("products listed", slog.Int("count", len(products)))
	render.JSON(w, r, response.OKWithData(products))
}
