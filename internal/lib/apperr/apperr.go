// Package apperr содержит таксономию ошибок, которую сервисы возвращают транспорту.
//
// Любая ошибка сервиса оборачивает ровно один из видов ниже, так что обработчик
// проверяет вид через errors.Is и выбирает HTTP-статус без разбора текста.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized отсутствует или недействителен токен сессии.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument некорректный идентификатор или значение.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict нарушено ограничение уникальности или исчерпана квота/остаток.
	ErrConflict = errors.New("conflict")
	// ErrUpstream сбой хранилища или платежного шлюза.
	ErrUpstream = errors.New("upstream failure")
	// ErrCanceled запрос отменен или превышен дедлайн.
	ErrCanceled = errors.New("canceled")
)

// Error связывает вид ошибки с операцией и исходной причиной.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

// Is сопоставляет ошибку с ее видом.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New создает ошибку заданного вида с сообщением для клиента.
func New(kind error, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap оборачивает причину в ошибку заданного вида.
// Отмена контекста всегда превращается в ErrCanceled.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = ErrCanceled
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Message возвращает текст, который безопасно показать клиенту.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized access"
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid argument"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrCanceled):
		return "request canceled or timed out"
	default:
		return "upstream failure"
	}
}
