package service

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/storefront-next/internal/constants"
)

func TestOrderTransitionTable(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{constants.OrderStatusPending, constants.OrderStatusProcessing, true},
		{constants.OrderStatusPending, constants.OrderStatusCancelled, true},
		{constants.OrderStatusPending, constants.OrderStatusShipped, false},
		{constants.OrderStatusProcessing, constants.OrderStatusConfirmed, true},
		{constants.OrderStatusConfirmed, constants.OrderStatusCancelled, false},
		{constants.OrderStatusShipped, constants.OrderStatusDelivered, true},
		{constants.OrderStatusDelivered, constants.OrderStatusCancelled, false},
		{constants.OrderStatusCancelled, constants.OrderStatusPending, false},
		{constants.OrderStatusRefunded, constants.OrderStatusRefunded, false},
	}
	for _, tc := range cases {
		if got := CanTransitionOrder(tc.from, tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s want %v got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
	for _, status := range []string{constants.OrderStatusDelivered, constants.OrderStatusCancelled, constants.OrderStatusRefunded, constants.OrderStatusFailed} {
		if !IsTerminalOrderStatus(status) {
			t.Fatalf("%s should be terminal", status)
		}
	}
	if IsTerminalOrderStatus(constants.OrderStatusShipped) {
		t.Fatalf("shipped should not be terminal")
	}
}

func TestPaymentAndDeliveryTransitionTables(t *testing.T) {
	if !CanTransitionPayment(constants.PaymentStatusPending, constants.PaymentStatusCompleted) {
		t.Fatalf("pending payment should complete")
	}
	if CanTransitionPayment(constants.PaymentStatusRefunded, constants.PaymentStatusCompleted) {
		t.Fatalf("refunded payment is terminal")
	}
	if !CanTransitionDelivery(constants.DeliveryStatusInTransit, constants.DeliveryStatusDelivered) {
		t.Fatalf("in transit delivery should deliver")
	}
	if CanTransitionDelivery(constants.DeliveryStatusPending, constants.DeliveryStatusInTransit) {
		t.Fatalf("pending delivery must be assigned first")
	}
}

func TestTransitionErrorUnwraps(t *testing.T) {
	err := &TransitionError{Entity: "order", From: "delivered", To: "cancelled"}
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("transition error should unwrap to sentinel")
	}
	if ErrorKind(err) != "invalid_state_transition" {
		t.Fatalf("unexpected kind: %s", ErrorKind(err))
	}
	if ErrorKind(errors.New("boom")) != "internal_error" {
		t.Fatalf("unknown errors map to internal_error")
	}
	if !errors.Is(wrapCheckoutInternal(errors.New("disk full")), ErrCheckoutInternal) {
		t.Fatalf("unknown checkout errors should be wrapped")
	}
	if wrapped := wrapCheckoutInternal(ErrCartEmpty); wrapped != ErrCartEmpty {
		t.Fatalf("domain errors should pass through, got %v", wrapped)
	}
}

func TestGenerateOrderNo(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^ORD-20260309-100000-\d{6}$`)
	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		orderNo := generateOrderNo(now)
		if !pattern.MatchString(orderNo) {
			t.Fatalf("unexpected order no format: %s", orderNo)
		}
		seen[orderNo] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatalf("order numbers should be random")
	}
}

func TestIsOrderNoConflict(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("constraint failed: UNIQUE constraint failed: orders.order_no (2067)"), true},
		{errors.New(`ERROR: duplicate key value violates unique constraint "idx_orders_order_no" (SQLSTATE 23505)`), true},
		{errors.New("UNIQUE constraint failed: orders.idempotency_key"), false},
		{errors.New("order_no lookup timed out"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := isOrderNoConflict(tc.err); got != tc.want {
			t.Fatalf("isOrderNoConflict(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
