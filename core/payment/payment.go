package payment

import "time"

// Status is the payment vocabulary: a payment starts pending and moves
// exactly once to a terminal success or failed.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

const providerName = "cashfree"

type Payment struct {
	ID                string    `json:"id" db:"payment_id"`
	OrderID           string    `json:"orderId" db:"order_id"`
	Provider          string    `json:"provider" db:"provider"`
	ProviderPaymentID string    `json:"providerPaymentId" db:"provider_payment_id"`
	Amount            float64   `json:"amount" db:"amount"`
	Currency          string    `json:"currency" db:"currency"`
	Status            Status    `json:"status" db:"status"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
}

type SessionNew struct {
	OrderID  string  `json:"orderId" validate:"required,uuid4"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"omitempty,len=3"`
}

type Confirm struct {
	ProviderPaymentID string `json:"providerPaymentId" validate:"required"`
	Status            string `json:"status" validate:"required"`
}
