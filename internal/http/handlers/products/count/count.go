// Package count реализует HTTP-обработчик подсчета товаров магазина.
package count

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
)

// Service описывает подсчет товаров.
type Service interface {
	Count(ctx context.Context, ownerEmail string) (int, error)
}

// Handler обрабатывает GET /products/{email}/count.
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
// @Summary Количество товаров
// @Tags Products
// @Produce  json
// @Param email path string true "Email владельца"
// @Success 200 {object} map[string]any "count"
// @Router /products/{email}/count [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.count"
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

	n, err := h.service.Count(r.Context(), email)
	if err != nil {
		log.Error("failed to count products", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{"count": n}))
}
