package order

// Status is the single vocabulary for an order's lifecycle. Fulfillment
// updates and payment reconciliation write into the same enum; admin updates
// may move between any two members, membership is the only rule enforced.
type Status string

const (
	Pending        Status = "Pending"
	Paid           Status = "Paid"
	PaymentFailed  Status = "Payment Failed"
	Confirmed      Status = "Confirmed"
	Packed         Status = "Packed"
	Shipped        Status = "Shipped"
	OutForDelivery Status = "Out for Delivery"
	Delivered      Status = "Delivered"
	Cancelled      Status = "Cancelled"
	Returned       Status = "Returned"
	Refunded       Status = "Refunded"
)

var statuses = map[Status]struct{}{
	Pending:        {},
	Paid:           {},
	PaymentFailed:  {},
	Confirmed:      {},
	Packed:         {},
	Shipped:        {},
	OutForDelivery: {},
	Delivered:      {},
	Cancelled:      {},
	Returned:       {},
	Refunded:       {},
}

func (s Status) Valid() bool {
	_, ok := statuses[s]
	return ok
}
