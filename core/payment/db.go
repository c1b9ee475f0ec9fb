package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("payment not found")

func Create(ctx context.Context, db sqlx.ExtContext, pay Payment) error {
	const q = `
	INSERT INTO payments
		(payment_id, order_id, provider, provider_payment_id, amount, currency, status, created_at)
	VALUES
		(:payment_id, :order_id, :provider, :provider_payment_id, :amount, :currency, :status, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, pay); err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}

	return nil
}

// FetchByProviderIDForUpdate locks the payment row for the rest of the
// transaction, serializing concurrent outcome applications for the same
// provider payment id.
func FetchByProviderIDForUpdate(ctx context.Context, tx sqlx.ExtContext, providerPaymentID string) (Payment, error) {
	const q = `SELECT * FROM payments WHERE provider_payment_id = $1 FOR UPDATE`

	var pay Payment
	if err := sqlx.GetContext(ctx, tx, &pay, q, providerPaymentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Payment{}, ErrNotFound
		}
		return Payment{}, fmt.Errorf("locking payment[%s]: %w", providerPaymentID, err)
	}

	return pay, nil
}

func UpdateStatus(ctx context.Context, db sqlx.ExtContext, paymentID string, status Status) error {
	const q = `UPDATE payments SET status = $2 WHERE payment_id = $1`

	res, err := db.ExecContext(ctx, q, paymentID, status)
	if err != nil {
		return fmt.Errorf("updating payment[%s] status: %w", paymentID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}
