// Package issue реализует HTTP-обработчик выдачи токена сессии.
//
// Handler принимает email и роль, подписывает токен и кладет его в httpOnly cookie.
// Тот же токен возвращается в теле, чтобы клиенты без cookie могли передавать его
// в заголовке Authorization.
package issue

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/quick-stock/internal/http/response"
	"github.com/magabrotheeeer/quick-stock/internal/lib/sl"
	"github.com/magabrotheeeer/quick-stock/internal/services/session"
)

// Service описывает выдачу токенов.
type Service interface {
	Issue(ctx context.Context, claims session.Claims) (string, error)
}

// Cookie задает параметры cookie сессии.
type Cookie struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Handler обрабатывает POST /jwt.
type Handler struct {
	log      *slog.Logger
	service  Service
	cookie   Cookie
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, cookie Cookie) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		cookie:   cookie,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Выдать токен сессии
// @Description Подписывает токен для email и роли и устанавливает httpOnly cookie.
// @Tags Session
// @Accept  json
// @Produce  json
// @Param request body session.Claims true "Email и роль"
// @Success 200 {object} map[string]any "Токен выдан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /jwt [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.issue"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req session.Claims
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

	token, err := h.service.Issue(r.Context(), req)
	if err != nil {
		log.Error("failed to issue session", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	sameSite := http.SameSiteStrictMode
	if h.cookie.Secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: sameSite,
	})

	log.Info("session issued", sl.Email("email", req.Email))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"success": true,
		"token":   token,
	}))
}
