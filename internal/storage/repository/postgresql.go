// Package repository реализует хранилище данных арендаторов на основе PostgreSQL:
// пользователей, магазинов с квотой, товаров, продаж и подписок.
//
// Инварианты уникальности (один пользователь на email, один магазин на владельца,
// одна подписка на платеж) обеспечиваются индексами базы, а не проверками в коде.
// Нарушение ограничения возвращается как ErrAlreadyExists.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	// ErrNotFound запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists нарушено ограничение уникальности.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrStoreNotFound владелец еще не создал магазин.
	ErrStoreNotFound = errors.New("store not found")
	// ErrQuotaExhausted квота магазина исчерпана.
	ErrQuotaExhausted = errors.New("product quota exhausted")
	// ErrInsufficientStock на складе меньше товара, чем продается.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Storage инкапсулирует пул соединений с PostgreSQL.
// Создается один раз при старте приложения и передается в сервисы конструктором.
type Storage struct {
	DB *sql.DB
}

// New создаёт пул подключений к PostgreSQL и проверяет соединение.
func New(ctx context.Context, storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(ctx context.Context, storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables 
        WHERE table_name = 'stores'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("required table stores query error: %w", err)
	}
	if !exists {
		return errors.New("required table stores missing")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}

// rollback откатывает транзакцию, если она не была зафиксирована.
func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}
