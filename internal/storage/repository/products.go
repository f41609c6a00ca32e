package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/quick-stock/internal/models"
)

const productColumns = `id, owner_email, name, quantity, price, location, cost, profit_margin,
			  discount, description, image_url, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	p := &models.Product{}
	if err := row.Scan(&p.ID, &p.OwnerEmail, &p.Name, &p.Quantity, &p.Price, &p.Location,
		&p.Cost, &p.ProfitMargin, &p.Discount, &p.Description, &p.ImageURL,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertProduct(ctx context.Context, db execer, p models.Product) error {
	query := `INSERT INTO products (id, owner_email, name, quantity, price, location, cost,
			      profit_margin, discount, description, image_url)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := db.ExecContext(ctx, query, p.ID, p.OwnerEmail, p.Name, p.Quantity, p.Price,
		p.Location, p.Cost, p.ProfitMargin, p.Discount, p.Description, p.ImageURL)
	if isForeignKeyViolation(err) {
		return ErrStoreNotFound
	}
	return err
}

// CreateProduct сохраняет товар без изменения квоты.
func (s *Storage) CreateProduct(ctx context.Context, p models.Product) error {
	const op = "storage.CreateProduct"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	if err := insertProduct(ctx, s.DB, p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateProductWithQuota в одной транзакции списывает единицу квоты и сохраняет товар.
// При нулевой квоте возвращает ErrQuotaExhausted, товар не создается.
func (s *Storage) CreateProductWithQuota(ctx context.Context, p models.Product) error {
	const op = "storage.CreateProductWithQuota"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	if err = takeQuota(ctx, tx, p.OwnerEmail); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = insertProduct(ctx, tx, p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountProducts возвращает количество товаров владельца.
func (s *Storage) CountProducts(ctx context.Context, ownerEmail string) (int, error) {
	const op = "storage.CountProducts"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var count int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE owner_email = $1`, ownerEmail).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// ListProducts возвращает все товары владельца в порядке создания.
func (s *Storage) ListProducts(ctx context.Context, ownerEmail string) ([]*models.Product, error) {
	const op = "storage.ListProducts"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + productColumns + `
			  FROM products
			  WHERE owner_email = $1
			  ORDER BY created_at, id`
	rows, err := s.DB.QueryContext(ctx, query, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	products := make([]*models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

// UpdateProduct применяет непустые поля к товару и возвращает его новое состояние.
// ID и владелец товара не меняются.
func (s *Storage) UpdateProduct(ctx context.Context, id string, f models.ProductFields) (*models.Product, error) {
	const op = "storage.UpdateProduct"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	f = f.Mutable()
	query := `UPDATE products SET
			      name          = COALESCE($2::text, name),
			      quantity      = COALESCE($3::integer, quantity),
			      price         = COALESCE($4::double precision, price),
			      location      = COALESCE($5::text, location),
			      cost          = COALESCE($6::double precision, cost),
			      profit_margin = COALESCE($7::double precision, profit_margin),
			      discount      = COALESCE($8::double precision, discount),
			      description   = COALESCE($9::text, description),
			      image_url     = COALESCE($10::text, image_url),
			      updated_at    = NOW()
			  WHERE id = $1
			  RETURNING ` + productColumns
	p, err := scanProduct(s.DB.QueryRowContext(ctx, query, id,
		f.Name, f.Quantity, f.Price, f.Location, f.Cost, f.ProfitMargin, f.Discount,
		f.Description, f.ImageURL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// DeleteProduct удаляет товар и возвращает количество удаленных строк.
func (s *Storage) DeleteProduct(ctx context.Context, id string) (int64, error) {
	const op = "storage.DeleteProduct"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// DeleteProductWithQuota удаляет товар и возвращает единицу квоты владельцу в той же транзакции.
// Возвращает владельца удаленного товара. Для несуществующего товара квота не меняется.
func (s *Storage) DeleteProductWithQuota(ctx context.Context, id string) (string, int64, error) {
	const op = "storage.DeleteProductWithQuota"
	if err := checkCtx(ctx, op); err != nil {
		return "", 0, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	var ownerEmail string
	err = tx.QueryRowContext(ctx,
		`DELETE FROM products WHERE id = $1 RETURNING owner_email`, id).Scan(&ownerEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE stores
			  SET remaining_quota = remaining_quota + 1, updated_at = NOW()
			  WHERE owner_email = $1`, ownerEmail); err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}
	return ownerEmail, 1, nil
}
