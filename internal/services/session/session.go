// Package session выдает и проверяет токены сессии.
//
// Токен только аутентифицирует: сервис не хранит сессии и не отзывает их,
// выход из системы сводится к удалению cookie на клиенте.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/quick-stock/internal/lib/apperr"
	"github.com/magabrotheeeer/quick-stock/internal/lib/jwt"
	"github.com/magabrotheeeer/quick-stock/internal/lib/sl"
)

// Claims данные, которые клиент получает обратно после проверки токена.
type Claims struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role,omitempty"`
}

// Gate выдает и проверяет токены.
type Gate struct {
	maker jwt.Maker
	log   *slog.Logger
}

// NewGate создает Gate поверх генератора токенов.
func NewGate(maker jwt.Maker, log *slog.Logger) *Gate {
	return &Gate{
		maker: maker,
		log:   log,
	}
}

// Issue подписывает токен для переданных claims.
func (g *Gate) Issue(ctx context.Context, claims Claims) (string, error) {
	const op = "session.Issue"
	if err := ctx.Err(); err != nil {
		return "", apperr.Wrap(apperr.ErrCanceled, op, err)
	}
	if strings.TrimSpace(claims.Email) == "" {
		return "", apperr.New(apperr.ErrInvalidArgument, op, "email is required")
	}

	token, err := g.maker.GenerateToken(claims.Email, claims.Role)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrUpstream, op, err)
	}
	g.log.Debug("session issued", sl.Email("email", claims.Email))
	return token, nil
}

// Verify проверяет токен. Любая ошибка разбора, подписи или срока действия
// возвращается как apperr.ErrUnauthorized.
func (g *Gate) Verify(ctx context.Context, token string) (Claims, error) {
	const op = "session.Verify"
	if err := ctx.Err(); err != nil {
		return Claims{}, apperr.Wrap(apperr.ErrCanceled, op, err)
	}
	if token == "" {
		return Claims{}, apperr.New(apperr.ErrUnauthorized, op, "unauthorized access")
	}

	parsed, err := g.maker.ParseToken(token)
	if err != nil {
		return Claims{}, &apperr.Error{
			Kind: apperr.ErrUnauthorized,
			Op:   op,
			Msg:  "unauthorized access",
			Err:  fmt.Errorf("parse token: %w", err),
		}
	}
	return Claims{Email: parsed.Email, Role: parsed.Role}, nil
}
