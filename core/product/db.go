package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("product not found")

func Create(ctx context.Context, db sqlx.ExtContext, p Product) error {
	const q = `
	INSERT INTO products
		(product_id, name, price, description, photo_link, in_stock,
		 category, color, size, material, pattern, created_at, updated_at)
	VALUES
		(:product_id, :name, :price, :description, :photo_link, :in_stock,
		 :category, :color, :size, :material, :pattern, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Product, error) {
	const q = `SELECT * FROM products WHERE product_id = $1`

	var p Product
	if err := sqlx.GetContext(ctx, db, &p, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("selecting product[%s]: %w", id, err)
	}

	return p, nil
}

func List(ctx context.Context, db sqlx.ExtContext) ([]Product, error) {
	const q = `SELECT * FROM products ORDER BY created_at`

	ps := []Product{}
	if err := sqlx.SelectContext(ctx, db, &ps, q); err != nil {
		return nil, fmt.Errorf("selecting products: %w", err)
	}

	return ps, nil
}

func Update(ctx context.Context, db sqlx.ExtContext, p Product) error {
	const q = `
	UPDATE products SET
		name        = :name,
		price       = :price,
		description = :description,
		photo_link  = :photo_link,
		in_stock    = :in_stock,
		category    = :category,
		color       = :color,
		size        = :size,
		material    = :material,
		pattern     = :pattern,
		updated_at  = :updated_at
	WHERE product_id = :product_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("updating product[%s]: %w", p.ID, err)
	}

	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM products WHERE product_id = $1`

	res, err := db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("deleting product[%s]: %w", id, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}
