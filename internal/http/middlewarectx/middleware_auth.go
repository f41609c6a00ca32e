// Package middlewarectx содержит HTTP middleware проверки сессии и ограничения частоты запросов.
//
// SessionMiddleware берет токен из cookie сессии, а при ее отсутствии из заголовка
// Authorization: Bearer. Невалидный токен завершает запрос ответом 401 до вызова
// обработчика. При успехе email и роль кладутся в контекст запроса.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/quick-stock/internal/http/response"
	"github.com/magabrotheeeer/quick-stock/internal/lib/sl"
	"github.com/magabrotheeeer/quick-stock/internal/services/session"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// Email ключ для email пользователя в контексте
	Email Key = "email"
	// Role ключ для роли пользователя в контексте
	Role Key = "role"
)

// Verifier проверяет токен сессии.
type Verifier interface {
	Verify(ctx context.Context, token string) (session.Claims, error)
}

// SessionMiddleware возвращает middleware, пропускающий только запросы с валидной сессией.
func SessionMiddleware(verifier Verifier, cookieName string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Session"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			claims, err := verifier.Verify(r.Context(), tokenFrom(r, cookieName))
			if err != nil {
				log.Warn("session rejected", sl.Err(err))
				response.Fail(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), Email, claims.Email)
			ctx = context.WithValue(ctx, Role, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFrom(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// EmailFrom возвращает email из сессии запроса.
func EmailFrom(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(Email).(string)
	return email, ok && email != ""
}
