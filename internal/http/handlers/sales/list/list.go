// Package list реализует HTTP-обработчик истории продаж магазина.
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

// Service описывает чтение продаж.
type Service interface {
	List(ctx context.Context, ownerEmail string) ([]*models.Sale, error)
}

// Handler обрабатывает GET /sales/{email}.
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
// @Summary История продаж
// @Description Продажи магазина, новые первыми.
// @Tags Sales
// @Produce  json
// @Param email path string true "Email владельца"
// @Success 200 {array} models.Sale
// @Router /sales/{email} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.sales.list"
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

	sales, err := h.service.List(r.Context(), email)
	if err != nil {
		log.Error("failed to list sales", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	if sales == nil {
		sales = []*models.Sale{}
	}
	render.JSON(w, r, response.OKWithData(sales))
}
