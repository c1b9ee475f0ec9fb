package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/eleganza/storefront/core/order"
	"github.com/eleganza/storefront/database"
	"github.com/jmoiron/sqlx"
)

// Outcome is the state a reconciliation left behind. Applied is false when
// the payment was already terminal and the call was a no-op.
type Outcome struct {
	Payment     Payment      `json:"payment"`
	OrderStatus order.Status `json:"orderStatus"`
	Applied     bool         `json:"applied"`
}

// ApplyOutcome converts a payment verdict into consistent Payment, Order and
// history state. Both inbound channels (client confirm and provider webhook)
// funnel through here, so their behavior cannot diverge.
//
// The payment row is locked for the whole transaction: concurrent deliveries
// for the same provider payment id serialize, and any delivery after the
// first terminal one short-circuits before writing. The three writes commit
// as one unit.
func ApplyOutcome(ctx context.Context, db *sqlx.DB, providerPaymentID string, success bool, note string) (Outcome, error) {
	var out Outcome

	err := database.Transaction(db, func(tx sqlx.ExtContext) error {
		pay, err := FetchByProviderIDForUpdate(ctx, tx, providerPaymentID)
		if err != nil {
			return err
		}

		if pay.Status.Terminal() {
			out = Outcome{Payment: pay, OrderStatus: orderStatusFor(pay.Status), Applied: false}
			return nil
		}

		payStatus := StatusSuccess
		ordStatus := order.Paid
		if !success {
			payStatus = StatusFailed
			ordStatus = order.PaymentFailed
		}

		if err := UpdateStatus(ctx, tx, pay.ID, payStatus); err != nil {
			return fmt.Errorf("updating payment status: %w", err)
		}

		if err := order.UpdateStatus(ctx, tx, pay.OrderID, ordStatus); err != nil {
			if errors.Is(err, order.ErrNotFound) {
				return fmt.Errorf("order[%s] bound to payment[%s]: %w", pay.OrderID, providerPaymentID, ErrNotFound)
			}
			return fmt.Errorf("updating order status: %w", err)
		}

		// System-originated transition: no acting user on the history entry.
		if err := order.AppendHistory(ctx, tx, pay.OrderID, ordStatus, note, nil); err != nil {
			return err
		}

		pay.Status = payStatus
		out = Outcome{Payment: pay, OrderStatus: ordStatus, Applied: true}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	return out, nil
}

func orderStatusFor(s Status) order.Status {
	if s == StatusSuccess {
		return order.Paid
	}
	return order.PaymentFailed
}
