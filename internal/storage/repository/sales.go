package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/quick-stock/internal/models"
)

func insertSale(ctx context.Context, db execer, sale models.Sale) error {
	query := `INSERT INTO sales (id, owner_email, product_id, quantity_sold, amount)
			  VALUES ($1, $2, $3, $4, $5)`
	_, err := db.ExecContext(ctx, query, sale.ID, sale.OwnerEmail, sale.ProductID,
		sale.QuantitySold, sale.Amount)
	return err
}

// CreateSale сохраняет запись о продаже без проверки остатка.
func (s *Storage) CreateSale(ctx context.Context, sale models.Sale) error {
	const op = "storage.CreateSale"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	if err := insertSale(ctx, s.DB, sale); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateSaleWithStock в одной транзакции уменьшает остаток товара и сохраняет продажу.
// Если товара владельца нет или остатка не хватает, возвращает ErrInsufficientStock.
func (s *Storage) CreateSaleWithStock(ctx context.Context, sale models.Sale) error {
	const op = "storage.CreateSaleWithStock"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx, `UPDATE products
			  SET quantity = quantity - $3, updated_at = NOW()
			  WHERE id = $1 AND owner_email = $2 AND quantity >= $3`,
		sale.ProductID, sale.OwnerEmail, sale.QuantitySold)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrInsufficientStock)
	}

	if err = insertSale(ctx, tx, sale); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListSales возвращает продажи владельца, новые первыми.
func (s *Storage) ListSales(ctx context.Context, ownerEmail string) ([]*models.Sale, error) {
	const op = "storage.ListSales"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, owner_email, product_id, quantity_sold, amount, created_at
			  FROM sales
			  WHERE owner_email = $1
			  ORDER BY created_at DESC, id`
	rows, err := s.DB.QueryContext(ctx, query, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	sales := make([]*models.Sale, 0)
	for rows.Next() {
		sale := &models.Sale{}
		if err := rows.Scan(&sale.ID, &sale.OwnerEmail, &sale.ProductID, &sale.QuantitySold,
			&sale.Amount, &sale.Timestamp); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sales = append(sales, sale)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sales, nil
}

// CountSales возвращает количество продаж владельца.
func (s *Storage) CountSales(ctx context.Context, ownerEmail string) (int, error) {
	const op = "storage.CountSales"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var count int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sales WHERE owner_email = $1`, ownerEmail).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
