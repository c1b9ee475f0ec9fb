package weberr

import (
	"errors"
	"net/http"
	"testing"
)

func TestResponseDecoration(t *testing.T) {
	base := errors.New("order missing")
	err := NotFound(base)

	body, status, ok := Response(err)
	if !ok {
		t.Fatal("expected a response decoration")
	}
	if status != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", status, http.StatusNotFound)
	}
	if _, ok := body.(*ErrorResponse); !ok {
		t.Fatalf("body: got %T, want *ErrorResponse", body)
	}

	// The original error stays reachable through the chain.
	if !errors.Is(err, base) {
		t.Fatal("decorated error lost the cause")
	}
}

func TestResponseAbsent(t *testing.T) {
	if _, _, ok := Response(errors.New("plain")); ok {
		t.Fatal("plain error should carry no response")
	}
}

func TestUnprocessableMessage(t *testing.T) {
	err := Unprocessable(errors.New("bad status"), "unknown order status")

	body, status, ok := Response(err)
	if !ok || status != http.StatusUnprocessableEntity {
		t.Fatalf("expected %d response, got ok=%v status=%d", http.StatusUnprocessableEntity, ok, status)
	}
	resp, ok := body.(*ErrorResponse)
	if !ok || resp.Error != "unknown order status" {
		t.Fatalf("unexpected body: %#v", body)
	}
}

func TestUnavailableRetryable(t *testing.T) {
	err := Unavailable(errors.New("provider timeout"))

	fields, ok := Fields(err)
	if !ok {
		t.Fatal("expected fields decoration")
	}
	if fields["retryable"] != true {
		t.Fatalf("expected retryable field, got %v", fields)
	}

	_, status, ok := Response(err)
	if !ok || status != http.StatusBadGateway {
		t.Fatalf("expected %d response, got ok=%v status=%d", http.StatusBadGateway, ok, status)
	}
}
