package order

import "time"

// NoDeliveryLink is stored when an order is created without a tracking link.
const NoDeliveryLink = "N/A"

type Order struct {
	ID              string    `json:"id" db:"order_id"`
	UserID          string    `json:"userId" db:"user_id"`
	DeliveryAddress string    `json:"deliveryAddress" db:"delivery_address"`
	DeliveryLink    string    `json:"deliveryLink" db:"delivery_link"`
	TotalAmount     float64   `json:"totalAmount" db:"total_amount"`
	Status          Status    `json:"status" db:"status"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

type OrderNew struct {
	DeliveryAddress string    `json:"deliveryAddress" validate:"required"`
	DeliveryLink    string    `json:"deliveryLink"`
	TotalAmount     float64   `json:"totalAmount" validate:"required,gt=0"`
	Items           []ItemNew `json:"items" validate:"required,min=1,dive"`
}

type Item struct {
	OrderID   string `json:"orderId" db:"order_id"`
	ProductID string `json:"productId" db:"product_id"`
	Quantity  int    `json:"quantity" db:"quantity"`
}

type ItemNew struct {
	ProductID string `json:"productId" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// StatusUp is the admin status-update request. Status is checked against the
// canonical enum before anything is written.
type StatusUp struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note"`
}

// HistoryEntry is one immutable record in an order's status timeline.
// ChangedBy is nil for system-originated transitions like webhook outcomes.
type HistoryEntry struct {
	ID        string    `json:"id" db:"history_id"`
	OrderID   string    `json:"orderId" db:"order_id"`
	Status    Status    `json:"status" db:"status"`
	Note      string    `json:"note" db:"note"`
	ChangedBy *string   `json:"changedBy" db:"changed_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Summary is the admin listing row; the user name is joined for display and
// rendered "Unknown" when the owning user is gone.
type Summary struct {
	Order
	UserName string `json:"userName" db:"user_name"`
}

type Timeline struct {
	OrderID       string         `json:"orderId"`
	CurrentStatus Status         `json:"currentStatus"`
	History       []HistoryEntry `json:"history"`
}

type SalesSummary struct {
	TotalRevenue float64      `json:"totalRevenue"`
	TopProducts  []TopProduct `json:"topProducts"`
}

type TopProduct struct {
	ProductID    string `json:"productId" db:"product_id"`
	QuantitySold int    `json:"quantitySold" db:"quantity_sold"`
}
