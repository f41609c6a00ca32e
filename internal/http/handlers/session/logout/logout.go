// Package logout реализует HTTP-обработчик выхода. Сервер не хранит сессии,
// поэтому выход только удаляет cookie на клиенте.
package logout

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/quick-stock/internal/http/response"
)

// Handler обрабатывает GET /logout.
type Handler struct {
	cookieName string
	secure     bool
}

// New создает новый Handler.
func New(cookieName string, secure bool) *Handler {
	return &Handler{cookieName: cookieName, secure: secure}
}

// ServeHTTP godoc
// @Summary Выйти
// @Description Удаляет cookie сессии. Выданный токен остается валидным до истечения срока.
// @Tags Session
// @Produce  json
// @Success 200 {object} map[string]any "Cookie удалена"
// @Router /logout [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sameSite := http.SameSiteStrictMode
	if h.secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: sameSite,
	})
	render.JSON(w, r, response.OKWithData(map[string]any{"success": true}))
}
