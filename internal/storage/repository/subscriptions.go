package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/quick-stock/internal/models"
)

const subscriptionColumns = `id, owner_email, tier, payment_reference, idempotency_key, status,
			  created_at, confirmed_at`

func scanSubscription(row interface{ Scan(...any) error }) (*models.Subscription, error) {
	sub := &models.Subscription{}
	var confirmedAt sql.NullTime
	if err := row.Scan(&sub.ID, &sub.OwnerEmail, &sub.Tier, &sub.PaymentReference,
		&sub.IdempotencyKey, &sub.Status, &sub.Timestamp, &confirmedAt); err != nil {
		return nil, err
	}
	if confirmedAt.Valid {
		sub.ConfirmedAt = &confirmedAt.Time
	}
	return sub, nil
}

// CreatePendingSubscription сохраняет подписку в статусе pending.
// Повтор с тем же payment_reference возвращает существующую запись и created == false.
func (s *Storage) CreatePendingSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, bool, error) {
	const op = "storage.CreatePendingSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, false, err
	}

	query := `INSERT INTO subscriptions (owner_email, tier, payment_reference, idempotency_key, status)
			  VALUES ($1, $2, $3, $4, 'pending')
			  ON CONFLICT (payment_reference) DO NOTHING
			  RETURNING ` + subscriptionColumns
	created, err := scanSubscription(s.DB.QueryRowContext(ctx, query,
		sub.OwnerEmail, sub.Tier, sub.PaymentReference, sub.IdempotencyKey))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	existing, err := s.GetSubscriptionByReference(ctx, sub.PaymentReference)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return existing, false, nil
}

// GetSubscriptionByReference возвращает подписку по идентификатору платежа.
func (s *Storage) GetSubscriptionByReference(ctx context.Context, paymentReference string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByReference"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE payment_reference = $1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, paymentReference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// ActivateSubscription переводит подписку из pending в active и в той же транзакции
// добавляет к квоте магазина владельца allowances[tier] товаров.
// flipped == true только для вызова, который действительно изменил статус,
// поэтому повторное подтверждение не пополняет квоту второй раз.
func (s *Storage) ActivateSubscription(ctx context.Context, paymentReference string, allowances map[string]int) (*models.Subscription, bool, error) {
	const op = "storage.ActivateSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, false, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	query := `UPDATE subscriptions
			  SET status = 'active', confirmed_at = NOW()
			  WHERE payment_reference = $1 AND status = 'pending'
			  RETURNING ` + subscriptionColumns
	sub, err := scanSubscription(tx.QueryRowContext(ctx, query, paymentReference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if allowance := allowances[sub.Tier]; allowance > 0 {
		if _, err = tx.ExecContext(ctx, `UPDATE stores
			  SET remaining_quota = remaining_quota + $2, updated_at = NOW()
			  WHERE owner_email = $1`, sub.OwnerEmail, allowance); err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return sub, true, nil
}

// FailSubscription помечает ожидающую подписку как failed.
func (s *Storage) FailSubscription(ctx context.Context, paymentReference string) (bool, error) {
	const op = "storage.FailSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE subscriptions
			  SET status = 'failed', confirmed_at = NOW()
			  WHERE payment_reference = $1 AND status = 'pending'`, paymentReference)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}
