package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

func FetchItems(ctx context.Context, db sqlx.ExtContext, userID string) ([]Item, error) {
	const q = `SELECT * FROM cart_items WHERE user_id = $1 ORDER BY created_at`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q, userID); err != nil {
		return nil, fmt.Errorf("selecting cart items: %w", err)
	}

	return items, nil
}

// UpsertItem adds a product to the cart. A product already present gets its
// quantity incremented instead of a duplicate row.
func UpsertItem(ctx context.Context, db sqlx.ExtContext, userID string, in ItemNew) error {
	const q = `
	INSERT INTO cart_items
		(user_id, product_id, quantity, created_at, updated_at)
	VALUES
		($1, $2, $3, $4, $4)
	ON CONFLICT (user_id, product_id) DO UPDATE SET
		quantity   = cart_items.quantity + EXCLUDED.quantity,
		updated_at = EXCLUDED.updated_at`

	if _, err := db.ExecContext(ctx, q, userID, in.ProductID, in.Quantity, time.Now().UTC()); err != nil {
		return fmt.Errorf("upserting cart item: %w", err)
	}

	return nil
}

func SetItemQuantity(ctx context.Context, db sqlx.ExtContext, userID string, productID string, quantity int) (bool, error) {
	const q = `
	UPDATE cart_items SET quantity = $3, updated_at = $4
	WHERE user_id = $1 AND product_id = $2`

	res, err := db.ExecContext(ctx, q, userID, productID, quantity, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("updating cart quantity: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating cart quantity: %w", err)
	}

	return n > 0, nil
}

func DeleteItem(ctx context.Context, db sqlx.ExtContext, userID string, productID string) (bool, error) {
	const q = `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	res, err := db.ExecContext(ctx, q, userID, productID)
	if err != nil {
		return false, fmt.Errorf("deleting cart item: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting cart item: %w", err)
	}

	return n > 0, nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, userID string) error {
	const q = `DELETE FROM cart_items WHERE user_id = $1`

	if _, err := db.ExecContext(ctx, q, userID); err != nil {
		return fmt.Errorf("flushing cart: %w", err)
	}

	return nil
}
