package test

import (
	"net/http"
	"testing"

	"github.com/eleganza/storefront/core/order"
)

type orderTest struct {
	*TestEnv
}

type orderDetail struct {
	order.Order
	Items []order.Item `json:"items"`
}

// createOrderOK places an order for the logged-in user and asserts the
// invariants every fresh order carries.
func (ot *orderTest) createOrderOK(t *testing.T, items []map[string]any, total float64) order.Order {
	body := map[string]any{
		"deliveryAddress": "42 Test Lane, Pune",
		"totalAmount":     total,
		"items":           items,
	}

	var ord order.Order
	w, err := ot.Request(http.MethodPost, "/orders", body, &ord)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusCreated {
		t.Fatalf("can't create order: status code %s", w.Status)
	}

	if ord.Status != order.Pending {
		t.Fatalf("new order status: got %q, want %q", ord.Status, order.Pending)
	}
	if ord.DeliveryLink != order.NoDeliveryLink {
		t.Fatalf("new order delivery link: got %q, want %q", ord.DeliveryLink, order.NoDeliveryLink)
	}
	return ord
}

func (ot *orderTest) fetchHistoryOK(t *testing.T, orderID string) order.Timeline {
	var tl order.Timeline
	w, err := ot.Request(http.MethodGet, "/orders/"+orderID+"/history", nil, &tl)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't fetch order history: status code %s", w.Status)
	}
	return tl
}

func TestOrder(t *testing.T) {
	env, err := NewTestEnv(t, "order_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	pt := &productTest{env}
	rt := &cartTest{env}
	ot := &orderTest{env}

	p1 := pt.createProductOK(t)
	p2 := pt.createProductOK(t)

	if err := Login(ot.Server, ot.UserEmail, ot.UserPass); err != nil {
		t.Fatal(err)
	}

	rt.addItemOK(t, p1.ID)
	rt.addItemOK(t, p2.ID)

	items := []map[string]any{
		{"productId": p1.ID, "quantity": 2},
		{"productId": p2.ID, "quantity": 1},
	}
	total := 2*p1.Price + p2.Price
	ord := ot.createOrderOK(t, items, total)

	// The checkout flushed the cart in the same transaction.
	if crt := rt.fetchOK(t); len(crt.Items) != 0 {
		t.Fatalf("expected cart flushed after checkout, got %d lines", len(crt.Items))
	}

	// The order was born with its opening history entry.
	tl := ot.fetchHistoryOK(t, ord.ID)
	if len(tl.History) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(tl.History))
	}
	first := tl.History[0]
	if first.Status != order.Pending || first.Note != "Order created" {
		t.Fatalf("unexpected opening entry: %+v", first)
	}
	if first.ChangedBy == nil || *first.ChangedBy != ot.UserID {
		t.Fatalf("opening entry should carry the buyer id, got %v", first.ChangedBy)
	}

	var detail orderDetail
	w, err := ot.Request(http.MethodGet, "/orders/"+ord.ID, nil, &detail)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't fetch order: status code %s", w.Status)
	}
	if len(detail.Items) != 2 {
		t.Fatalf("expected 2 order lines, got %d", len(detail.Items))
	}

	var mine []order.Order
	w, err = ot.Request(http.MethodGet, "/orders", nil, &mine)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusOK || len(mine) != 1 || mine[0].ID != ord.ID {
		t.Fatalf("own order listing wrong: status %s, orders %+v", w.Status, mine)
	}

	// Ordering a product that does not exist rolls the whole request back.
	ghost := []map[string]any{{"productId": ot.UserID, "quantity": 1}}
	w, err = ot.Request(http.MethodPost, "/orders", map[string]any{
		"deliveryAddress": "42 Test Lane, Pune",
		"totalAmount":     10.0,
		"items":           ghost,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown product in order: expected %d, got %s", http.StatusNotFound, w.Status)
	}

	// Buyers cannot drive the fulfillment state machine.
	w, err = ot.Request(http.MethodPut, "/orders/"+ord.ID+"/status", map[string]any{"status": "Shipped"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusForbidden {
		t.Fatalf("buyer status update: expected %d, got %s", http.StatusForbidden, w.Status)
	}

	if err := Logout(ot.Server); err != nil {
		t.Fatal(err)
	}

	// A stranger sees someone else's order as missing, not as forbidden.
	if _, err := env.Signup("Eve Smith", "eve@test.com", "evepass12345"); err != nil {
		t.Fatal(err)
	}
	if err := Login(ot.Server, "eve@test.com", "evepass12345"); err != nil {
		t.Fatal(err)
	}
	w, err = ot.Request(http.MethodGet, "/orders/"+ord.ID, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign order fetch: expected %d, got %s", http.StatusNotFound, w.Status)
	}
	if err := Logout(ot.Server); err != nil {
		t.Fatal(err)
	}

	if err := Login(ot.Server, ot.AdminEmail, ot.AdminPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(ot.Server)

	var sums []order.Summary
	w, err = ot.Request(http.MethodGet, "/orders/all", nil, &sums)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusOK || len(sums) != 1 {
		t.Fatalf("admin listing wrong: status %s, rows %d", w.Status, len(sums))
	}
	if sums[0].UserName != "Jane Doe" {
		t.Fatalf("admin listing user name: got %q", sums[0].UserName)
	}

	// A value outside the status vocabulary is rejected with no side effects.
	w, err = ot.Request(http.MethodPut, "/orders/"+ord.ID+"/status", map[string]any{"status": "Teleported"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("invalid status: expected %d, got %s", http.StatusUnprocessableEntity, w.Status)
	}

	tl = ot.fetchHistoryOK(t, ord.ID)
	if tl.CurrentStatus != order.Pending || len(tl.History) != 1 {
		t.Fatalf("rejected status leaked side effects: %+v", tl)
	}

	var updated order.Order
	w, err = ot.Request(http.MethodPut, "/orders/"+ord.ID+"/status", map[string]any{"status": "Shipped", "note": "Left the warehouse"}, &updated)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusOK || updated.Status != order.Shipped {
		t.Fatalf("admin status update failed: status %s, order %+v", w.Status, updated)
	}

	tl = ot.fetchHistoryOK(t, ord.ID)
	if tl.CurrentStatus != order.Shipped || len(tl.History) != 2 {
		t.Fatalf("expected 2 history entries with current Shipped, got %+v", tl)
	}
	last := tl.History[len(tl.History)-1]
	if last.Status != order.Shipped || last.Note != "Left the warehouse" {
		t.Fatalf("unexpected transition entry: %+v", last)
	}
	if last.ChangedBy == nil {
		t.Fatalf("admin transition should carry the actor id")
	}

	var sum order.SalesSummary
	w, err = ot.Request(http.MethodGet, "/admin/sales-summary", nil, &sum)
	if err != nil {
		t.Fatal(err)
	}
	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't fetch sales summary: status code %s", w.Status)
	}
	if sum.TotalRevenue != total {
		t.Errorf("total revenue: got %v, want %v", sum.TotalRevenue, total)
	}
	if len(sum.TopProducts) != 2 {
		t.Fatalf("expected 2 top products, got %+v", sum.TopProducts)
	}
	if sum.TopProducts[0].ProductID != p1.ID || sum.TopProducts[0].QuantitySold != 2 {
		t.Errorf("unexpected top product: %+v", sum.TopProducts[0])
	}
}
