package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eleganza/storefront/validate"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrNotFound = errors.New("order not found")

func Create(ctx context.Context, db sqlx.ExtContext, ord Order) error {
	const q = `
	INSERT INTO orders
		(order_id, user_id, delivery_address, delivery_link, total_amount, status, created_at)
	VALUES
		(:order_id, :user_id, :delivery_address, :delivery_link, :total_amount, :status, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, ord); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	return nil
}

func CreateItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO order_items
		(order_id, product_id, quantity)
	VALUES
		(:order_id, :product_id, :quantity)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("inserting order item: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Order, error) {
	const q = `SELECT * FROM orders WHERE order_id = $1`

	var ord Order
	if err := sqlx.GetContext(ctx, db, &ord, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("selecting order[%s]: %w", id, err)
	}

	return ord, nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, orderID string) ([]Item, error) {
	const q = `SELECT * FROM order_items WHERE order_id = $1 ORDER BY product_id`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q, orderID); err != nil {
		return nil, fmt.Errorf("selecting order items: %w", err)
	}

	return items, nil
}

func ListForUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]Order, error) {
	const q = `SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	ords := []Order{}
	if err := sqlx.SelectContext(ctx, db, &ords, q, userID); err != nil {
		return nil, fmt.Errorf("selecting orders for user[%s]: %w", userID, err)
	}

	return ords, nil
}

func ListAll(ctx context.Context, db sqlx.ExtContext) ([]Summary, error) {
	const q = `
	SELECT o.*, COALESCE(u.name, 'Unknown') AS user_name
	FROM orders AS o
	LEFT JOIN users AS u ON u.user_id = o.user_id
	ORDER BY o.created_at DESC`

	sums := []Summary{}
	if err := sqlx.SelectContext(ctx, db, &sums, q); err != nil {
		return nil, fmt.Errorf("selecting all orders: %w", err)
	}

	return sums, nil
}

func UpdateStatus(ctx context.Context, db sqlx.ExtContext, orderID string, status Status) error {
	const q = `UPDATE orders SET status = $2 WHERE order_id = $1`

	res, err := db.ExecContext(ctx, q, orderID, status)
	if err != nil {
		return fmt.Errorf("updating order[%s] status: %w", orderID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

// AppendHistory writes one immutable timeline entry. It runs inside the same
// transaction as the status write it records.
func AppendHistory(ctx context.Context, db sqlx.ExtContext, orderID string, status Status, note string, changedBy *string) error {
	const q = `
	INSERT INTO order_status_history
		(history_id, order_id, status, note, changed_by, created_at)
	VALUES
		($1, $2, $3, $4, $5, $6)`

	if _, err := db.ExecContext(ctx, q, validate.GenerateID(), orderID, status, note, changedBy, time.Now().UTC()); err != nil {
		return fmt.Errorf("appending status history: %w", err)
	}

	return nil
}

func ListHistory(ctx context.Context, db sqlx.ExtContext, orderID string) ([]HistoryEntry, error) {
	const q = `
	SELECT * FROM order_status_history
	WHERE order_id = $1
	ORDER BY created_at, history_id`

	entries := []HistoryEntry{}
	if err := sqlx.SelectContext(ctx, db, &entries, q, orderID); err != nil {
		return nil, fmt.Errorf("selecting status history: %w", err)
	}

	return entries, nil
}

// Revenue statuses: orders that are live or collected. Terminal negative
// states do not count toward the summary.
var revenueStatuses = []Status{Pending, Paid, Confirmed, Packed, Shipped, OutForDelivery, Delivered}

func FetchSalesSummary(ctx context.Context, db sqlx.ExtContext) (SalesSummary, error) {
	const revQ = `
	SELECT COALESCE(SUM(total_amount), 0)
	FROM orders
	WHERE status = ANY($1)`

	sts := make([]string, 0, len(revenueStatuses))
	for _, s := range revenueStatuses {
		sts = append(sts, string(s))
	}

	var sum SalesSummary
	if err := db.QueryRowxContext(ctx, revQ, pq.Array(sts)).Scan(&sum.TotalRevenue); err != nil {
		return SalesSummary{}, fmt.Errorf("summing revenue: %w", err)
	}

	const topQ = `
	SELECT oi.product_id, SUM(oi.quantity) AS quantity_sold
	FROM order_items AS oi
	JOIN orders AS o ON o.order_id = oi.order_id
	WHERE o.status = ANY($1)
	GROUP BY oi.product_id
	ORDER BY quantity_sold DESC
	LIMIT 20`

	sum.TopProducts = []TopProduct{}
	if err := sqlx.SelectContext(ctx, db, &sum.TopProducts, topQ, pq.Array(sts)); err != nil {
		return SalesSummary{}, fmt.Errorf("selecting top products: %w", err)
	}

	return sum, nil
}
