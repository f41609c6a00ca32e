// Package sl содержит вспомогательные функции для формирования структурированных
// полей лога slog: ошибок и email-адресов владельцев.
package sl

import (
	"log/slog"
	"strings"
)

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
// Для nil возвращает пустое значение, чтобы логгер не паниковал.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Email возвращает атрибут с email, у которого скрыта локальная часть: o***@shop.com.
func Email(key, email string) slog.Attr {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return slog.String(key, "***")
	}
	return slog.String(key, email[:1]+"***"+email[at:])
}
