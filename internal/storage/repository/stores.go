package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/quick-stock/internal/models"
)

// CreateStore сохраняет новый магазин и возвращает его ID.
// Второй магазин того же владельца отклоняется с ErrAlreadyExists.
func (s *Storage) CreateStore(ctx context.Context, store models.Store) (int64, error) {
	const op = "storage.CreateStore"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	query := `INSERT INTO stores (owner_email, name, address, description, logo_url, remaining_quota)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var id int64
	err := s.DB.QueryRowContext(ctx, query,
		store.OwnerEmail, store.Name, store.Address, store.Description, store.LogoURL,
		store.RemainingQuota).Scan(&id)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetStoreByOwner возвращает магазин владельца.
func (s *Storage) GetStoreByOwner(ctx context.Context, ownerEmail string) (*models.Store, error) {
	const op = "storage.GetStoreByOwner"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, owner_email, name, address, description, logo_url, remaining_quota, created_at
			  FROM stores
			  WHERE owner_email = $1`
	st := &models.Store{}
	err := s.DB.QueryRowContext(ctx, query, ownerEmail).Scan(&st.ID, &st.OwnerEmail, &st.Name,
		&st.Address, &st.Description, &st.LogoURL, &st.RemainingQuota, &st.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// AdjustQuota атомарно меняет квоту магазина на delta одним UPDATE.
// Отсутствие магазина возвращается как Matched == false без ошибки.
func (s *Storage) AdjustQuota(ctx context.Context, ownerEmail string, delta int) (models.QuotaResult, error) {
	const op = "storage.AdjustQuota"
	if err := checkCtx(ctx, op); err != nil {
		return models.QuotaResult{}, err
	}

	query := `UPDATE stores
			  SET remaining_quota = remaining_quota + $2, updated_at = NOW()
			  WHERE owner_email = $1
			  RETURNING remaining_quota`
	var remaining int
	err := s.DB.QueryRowContext(ctx, query, ownerEmail, delta).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return models.QuotaResult{}, nil
	}
	if err != nil {
		return models.QuotaResult{}, fmt.Errorf("%s: %w", op, err)
	}
	return models.QuotaResult{Matched: true, RemainingQuota: remaining}, nil
}

// takeQuota списывает единицу квоты внутри транзакции, если она еще есть.
func takeQuota(ctx context.Context, tx *sql.Tx, ownerEmail string) error {
	res, err := tx.ExecContext(ctx, `UPDATE stores
			  SET remaining_quota = remaining_quota - 1, updated_at = NOW()
			  WHERE owner_email = $1 AND remaining_quota > 0`, ownerEmail)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM stores WHERE owner_email = $1)`, ownerEmail).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrStoreNotFound
	}
	return ErrQuotaExhausted
}
