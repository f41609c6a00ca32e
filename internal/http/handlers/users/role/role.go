// Package role реализует HTTP-обработчик смены роли пользователя.
package role

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

// Service описывает смену роли.
type Service interface {
	SetRole(ctx context.Context, email, role string) (models.UpdateResult, error)
}

// Handler обрабатывает PUT /users/{email}/role.
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
// @Summary Назначить роль
// @Description Устанавливает роль пользователя. Пользователь создается, если его нет.
// @Tags Users
// @Accept  json
// @Produce  json
// @Param email path string true "Email пользователя"
// @Param request body models.RoleRequest true "Роль"
// @Success 200 {object} models.UpdateResult
// @Failure 400 {object} response.ErrorResponse "Некорректный email"
// @Failure 422 {object} response.ErrorResponse "Недопустимая роль"
// @Router /users/{email}/role [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.role"
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

	var req models.RoleRequest
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

	res, err := h.service.SetRole(r.Context(), email, req.Role)
	if err != nil {
		log.Error("failed to set role", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("role updated", sl.Email("email", email), slog.String("role", req.Role))
	render.JSON(w, r, response.OKWithData(res))
}
