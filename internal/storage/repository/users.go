package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/quick-stock/internal/models"
)

const userColumns = `email, name, photo_url, role, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.Email, &u.Name, &u.PhotoURL, &u.Role, &u.Timestamp); err != nil {
		return nil, err
	}
	return u, nil
}

// InsertUserIfAbsent создает пользователя, если его еще нет, и возвращает сохраненную запись.
// Для существующего пользователя переданные поля игнорируются, inserted == false.
func (s *Storage) InsertUserIfAbsent(ctx context.Context, email string, fields models.UserFields) (*models.User, bool, error) {
	const op = "storage.InsertUserIfAbsent"
	if err := checkCtx(ctx, op); err != nil {
		return nil, false, err
	}

	query := `INSERT INTO users (email, name, photo_url, role, updated_at)
			  VALUES ($1, $2, $3, $4, NOW())
			  ON CONFLICT (email) DO NOTHING
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email, fields.Name, fields.PhotoURL, fields.Role))
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	u, err = s.GetUser(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return u, false, nil
}

// GetUser возвращает пользователя по email.
func (s *Storage) GetUser(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpsertRole назначает роль пользователю, создавая запись при ее отсутствии.
func (s *Storage) UpsertRole(ctx context.Context, email, role string) (models.UpdateResult, error) {
	const op = "storage.UpsertRole"
	if err := checkCtx(ctx, op); err != nil {
		return models.UpdateResult{}, err
	}

	// xmax = 0 только у строки, вставленной этим же запросом.
	query := `INSERT INTO users (email, role, updated_at)
			  VALUES ($1, $2, NOW())
			  ON CONFLICT (email) DO UPDATE
			  SET role = EXCLUDED.role, updated_at = NOW()
			  RETURNING (xmax = 0)`
	var inserted bool
	if err := s.DB.QueryRowContext(ctx, query, email, role).Scan(&inserted); err != nil {
		return models.UpdateResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if inserted {
		return models.UpdateResult{Upserted: true}, nil
	}
	return models.UpdateResult{Matched: 1, Modified: 1}, nil
}
