package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/payment"
)

func TestCancelPendingOrderReleasesReservation(t *testing.T) {
	f := setupServiceFixture(t, "lifecycle_cancel", nil)
	owner := CartOwner{UserID: 1}
	widget := f.seedProduct(t, "widget", "10.00", "0", 10)
	order := f.placeOrder(t, owner, widget.ID, 4, constants.PaymentMethodCreditCard)
	if available := f.stock(t, models.ProductStockOwner(widget.ID)).AvailableQuantity(); available != 6 {
		t.Fatalf("available after checkout want 6 got %d", available)
	}

	cancelled, err := f.lifecycle.CancelByCustomer(context.Background(), owner, order.OrderNo)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected cancelled order: %s", cancelled.Status)
	}
	if cancelled.StockState != constants.OrderStockReleased {
		t.Fatalf("stock state want released got %s", cancelled.StockState)
	}
	if cancelled.Payment.Status != constants.PaymentStatusCancelled {
		t.Fatalf("payment should be cancelled, got %s", cancelled.Payment.Status)
	}
	record := f.stock(t, models.ProductStockOwner(widget.ID))
	if record.AvailableQuantity() != 10 || record.ReservedQuantity != 0 {
		t.Fatalf("reservation should be released: %+v", record)
	}

	if _, err := f.lifecycle.CancelByCustomer(context.Background(), owner, order.OrderNo); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("second cancel should be rejected, got %v", err)
	}
	if record := f.stock(t, models.ProductStockOwner(widget.ID)); record.AvailableQuantity() != 10 {
		t.Fatalf("rejected cancel must not touch stock: %+v", record)
	}
}

func TestCancelByCustomerChecksOwnership(t *testing.T) {
	f := setupServiceFixture(t, "lifecycle_owner", nil)
	widget := f.seedProduct(t, "widget", "10.00", "0", 10)
	order := f.placeOrder(t, CartOwner{UserID: 1}, widget.ID, 1, constants.PaymentMethodCreditCard)

	if _, err := f.lifecycle.CancelByCustomer(context.Background(), CartOwner{UserID: 2}, order.OrderNo); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("foreign owner should not find order, got %v", err)
	}
}

func TestCapturedOrderFlowsToDeliveredAndCannotCancel(t *testing.T) {
	f := setupServiceFixture(t, "lifecycle_delivered", payment.NewManualGateway())
	owner := CartOwner{UserID: 1}
	widget := f.seedProduct(t, "widget", "10.00", "0", 10)
	order := f.placeOrder(t, owner, widget.ID, 4, constants.PaymentMethodCreditCard)

	paid, err := f.payments.Process(context.Background(), owner, order.OrderNo)
	if err != nil {
		t.Fatalf("process payment failed: %v", err)
	}
	if paid.Status != constants.OrderStatusProcessing || paid.PaidAt == nil {
		t.Fatalf("captured order should be processing and paid: %s", paid.Status)
	}
	if paid.Payment.Status != constants.PaymentStatusCompleted || paid.Payment.TransactionID == "" {
		t.Fatalf("payment should be completed with transaction id: %+v", paid.Payment)
	}
	record := f.stock(t, models.ProductStockOwner(widget.ID))
	if record.Quantity != 6 || record.ReservedQuantity != 0 {
		t.Fatalf("capture should commit reserved stock: %+v", record)
	}

	ctx := context.Background()
	if _, err := f.lifecycle.Transition(ctx, order.ID, constants.OrderStatusConfirmed, TransitionOptions{}); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	shipped, err := f.lifecycle.Transition(ctx, order.ID, constants.OrderStatusShipped, TransitionOptions{TrackingNumber: "1Z999", Carrier: "UPS"})
	if err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if shipped.TrackingNumber != "1Z999" || shipped.Delivery.Status != constants.DeliveryStatusInTransit {
		t.Fatalf("shipping should update tracking and delivery: %s/%s", shipped.TrackingNumber, shipped.Delivery.Status)
	}
	delivered, err := f.lifecycle.Transition(ctx, order.ID, constants.OrderStatusDelivered, TransitionOptions{})
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if delivered.DeliveredAt == nil || delivered.Delivery.Status != constants.DeliveryStatusDelivered {
		t.Fatalf("delivered order should stamp delivery")
	}

	_, err = f.lifecycle.CancelByCustomer(ctx, owner, order.OrderNo)
	var transitionErr *TransitionError
	if !errors.As(err, &transitionErr) || transitionErr.From != constants.OrderStatusDelivered || transitionErr.To != constants.OrderStatusCancelled {
		t.Fatalf("delivered order cannot be cancelled, got %v", err)
	}
	if after := f.stock(t, models.ProductStockOwner(widget.ID)); after.Quantity != 6 || after.ReservedQuantity != 0 {
		t.Fatalf("rejected cancel must not touch stock: %+v", after)
	}
}

func TestCancelAfterCaptureRestocksAndRefunds(t *testing.T) {
	f := setupServiceFixture(t, "lifecycle_restock", payment.NewManualGateway())
	owner := CartOwner{UserID: 1}
	widget := f.seedProduct(t, "widget", "10.00", "0", 10)
	order := f.placeOrder(t, owner, widget.ID, 3, constants.PaymentMethodPaypal)
	if _, err := f.payments.Process(context.Background(), owner, order.OrderNo); err != nil {
		t.Fatalf("process payment failed: %v", err)
	}

	cancelled, err := f.lifecycle.Transition(context.Background(), order.ID, constants.OrderStatusCancelled, TransitionOptions{})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Payment.Status != constants.PaymentStatusRefunded || cancelled.Payment.RefundedAmount.String() != "30.00" {
		t.Fatalf("completed payment should be refunded: %+v", cancelled.Payment)
	}
	record := f.stock(t, models.ProductStockOwner(widget.ID))
	if record.Quantity != 10 || record.ReservedQuantity != 0 {
		t.Fatalf("committed stock should be restocked: %+v", record)
	}
}

func TestRefundRequiresCompletedPayment(t *testing.T) {
	f := setupServiceFixture(t, "lifecycle_refund", payment.NewManualGateway())
	owner := CartOwner{UserID: 1}
	widget := f.seedProduct(t, "widget", "10.00", "0", 10)
	order := f.placeOrder(t, owner, widget.ID, 2, constants.PaymentMethodCreditCard)

	if _, err := f.payments.Refund(context.Background(), order.ID, "changed mind"); !errors.Is(err, ErrRefundNotAllowed) {
		t.Fatalf("unpaid order cannot be refunded, got %v", err)
	}
	if _, err := f.lifecycle.Transition(context.Background(), order.ID, constants.OrderStatusRefunded, TransitionOptions{}); !errors.Is(err, ErrRefundNotAllowed) {
		t.Fatalf("direct refund transition should also be guarded, got %v", err)
	}

	if _, err := f.payments.Process(context.Background(), owner, order.OrderNo); err != nil {
		t.Fatalf("process payment failed: %v", err)
	}
	refunded, err := f.payments.Refund(context.Background(), order.ID, "changed mind")
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if refunded.Status != constants.OrderStatusRefunded || refunded.RefundedAt == nil {
		t.Fatalf("order should be refunded: %s", refunded.Status)
	}
	if refunded.Payment.Status != constants.PaymentStatusRefunded {
		t.Fatalf("payment should be refunded: %s", refunded.Payment.Status)
	}
	if record := f.stock(t, models.ProductStockOwner(widget.ID)); record.Quantity != 10 {
		t.Fatalf("refund should restock, quantity=%d", record.Quantity)
	}
}

func TestCashOnDeliveryConfirmsAndCommitsOnShipment(t *testing.T) {
	f := setupServiceFixture(t, "lifecycle_cod", payment.NewManualGateway())
	owner := CartOwner{UserID: 1}
	widget := f.seedProduct(t, "widget", "10.00", "0", 10)
	order := f.placeOrder(t, owner, widget.ID, 2, constants.PaymentMethodCashOnDelivery)

	confirmed, err := f.payments.Process(context.Background(), owner, order.OrderNo)
	if err != nil {
		t.Fatalf("process cod failed: %v", err)
	}
	if confirmed.Status != constants.OrderStatusConfirmed || confirmed.ExpiresAt != nil {
		t.Fatalf("cod order should be confirmed without expiry: %s", confirmed.Status)
	}
	if confirmed.Payment.Status != constants.PaymentStatusProcessing {
		t.Fatalf("cod payment should be processing, got %s", confirmed.Payment.Status)
	}
	if record := f.stock(t, models.ProductStockOwner(widget.ID)); record.ReservedQuantity != 2 {
		t.Fatalf("cod order keeps reservation until shipment: %+v", record)
	}

	if _, err := f.lifecycle.Transition(context.Background(), order.ID, constants.OrderStatusShipped, TransitionOptions{}); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	record := f.stock(t, models.ProductStockOwner(widget.ID))
	if record.Quantity != 8 || record.ReservedQuantity != 0 {
		t.Fatalf("shipment should commit stock: %+v", record)
	}

	collected, err := f.payments.Capture(context.Background(), order.ID, "COD-RECEIPT-1")
	if err != nil {
		t.Fatalf("capture cod failed: %v", err)
	}
	if collected.Status != constants.OrderStatusShipped || collected.PaidAt == nil {
		t.Fatalf("cod capture should only record payment: %s", collected.Status)
	}
	if collected.Payment.Status != constants.PaymentStatusCompleted || collected.Payment.TransactionID != "COD-RECEIPT-1" {
		t.Fatalf("unexpected cod payment: %+v", collected.Payment)
	}
	if after := f.stock(t, models.ProductStockOwner(widget.ID)); after.Quantity != 8 {
		t.Fatalf("capture after shipment must not commit twice: %+v", after)
	}
}

func TestDeclinedPaymentFailsOrderAndReleases(t *testing.T) {
	f := setupServiceFixture(t, "lifecycle_declined", stubGateway{status: payment.StatusFailed, reason: "card declined"})
	owner := CartOwner{UserID: 1}
	widget := f.seedProduct(t, "widget", "10.00", "0", 10)
	order := f.placeOrder(t, owner, widget.ID, 5, constants.PaymentMethodCreditCard)

	failed, err := f.payments.Process(context.Background(), owner, order.OrderNo)
	if !errors.Is(err, ErrPaymentDeclined) {
		t.Fatalf("expected declined error, got %v", err)
	}
	if failed == nil || failed.Status != constants.OrderStatusFailed {
		t.Fatalf("order should be failed")
	}
	if failed.Payment.Status != constants.PaymentStatusFailed || failed.Payment.FailureReason != "card declined" {
		t.Fatalf("unexpected payment: %+v", failed.Payment)
	}
	if record := f.stock(t, models.ProductStockOwner(widget.ID)); record.AvailableQuantity() != 10 {
		t.Fatalf("declined payment should release stock: %+v", record)
	}
}

func TestCaptureIsIdempotent(t *testing.T) {
	f := setupServiceFixture(t, "lifecycle_capture_twice", nil)
	owner := CartOwner{UserID: 1}
	widget := f.seedProduct(t, "widget", "10.00", "0", 10)
	order := f.placeOrder(t, owner, widget.ID, 2, constants.PaymentMethodCreditCard)

	if _, err := f.payments.Capture(context.Background(), order.ID, "TXN-ONE"); err != nil {
		t.Fatalf("first capture failed: %v", err)
	}
	again, err := f.payments.Capture(context.Background(), order.ID, "TXN-TWO")
	if err != nil {
		t.Fatalf("second capture failed: %v", err)
	}
	if again.Payment.TransactionID != "TXN-ONE" {
		t.Fatalf("second capture must not overwrite transaction, got %s", again.Payment.TransactionID)
	}
	if record := f.stock(t, models.ProductStockOwner(widget.ID)); record.Quantity != 8 || record.ReservedQuantity != 0 {
		t.Fatalf("stock committed once: %+v", record)
	}
}

func TestCancelExpiredSkipsFreshAndPaidOrders(t *testing.T) {
	f := setupServiceFixture(t, "lifecycle_expire", nil)
	owner := CartOwner{UserID: 1}
	widget := f.seedProduct(t, "widget", "10.00", "0", 20)
	fresh := f.placeOrder(t, owner, widget.ID, 1, constants.PaymentMethodCreditCard)
	stale := f.placeOrder(t, owner, widget.ID, 2, constants.PaymentMethodCreditCard)
	paid := f.placeOrder(t, owner, widget.ID, 3, constants.PaymentMethodCreditCard)

	past := time.Now().Add(-time.Minute)
	for _, id := range []uint{stale.ID, paid.ID} {
		if err := f.db.Model(&models.Order{}).Where("id = ?", id).Update("expires_at", past).Error; err != nil {
			t.Fatalf("backdate expiry failed: %v", err)
		}
	}
	if _, err := f.payments.Capture(context.Background(), paid.ID, "TXN-PAID"); err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	now := time.Now()
	cancelled, err := f.lifecycle.CancelExpired(context.Background(), fresh.ID, now)
	if err != nil || cancelled {
		t.Fatalf("fresh order must not expire: cancelled=%v err=%v", cancelled, err)
	}

	count, err := f.lifecycle.SweepExpired(context.Background(), now, 50)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("sweep should cancel exactly the stale order, got %d", count)
	}
	reloaded, err := f.orders.GetByID(stale.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusCancelled {
		t.Fatalf("stale order should be cancelled, got %s", reloaded.Status)
	}
	paidOrder, _ := f.orders.GetByID(paid.ID)
	if paidOrder.Status != constants.OrderStatusProcessing {
		t.Fatalf("paid order must survive expiry, got %s", paidOrder.Status)
	}
	record := f.stock(t, models.ProductStockOwner(widget.ID))
	if record.ReservedQuantity != 1 || record.Quantity != 17 {
		t.Fatalf("unexpected stock after sweep: %+v", record)
	}

	again, err := f.lifecycle.SweepExpired(context.Background(), now, 50)
	if err != nil || again != 0 {
		t.Fatalf("second sweep should be a no-op: count=%d err=%v", again, err)
	}
}

func TestOrderReadExpiresStalePendingOrder(t *testing.T) {
	f := setupServiceFixture(t, "lifecycle_lazy_expire", nil)
	owner := CartOwner{UserID: 1}
	widget := f.seedProduct(t, "widget", "10.00", "0", 5)
	order := f.placeOrder(t, owner, widget.ID, 2, constants.PaymentMethodCreditCard)
	if err := f.db.Model(&models.Order{}).Where("id = ?", order.ID).Update("expires_at", time.Now().Add(-time.Second)).Error; err != nil {
		t.Fatalf("backdate expiry failed: %v", err)
	}

	got, err := f.orders.GetForOwner(context.Background(), owner, order.OrderNo)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got.Status != constants.OrderStatusCancelled {
		t.Fatalf("stale order should be cancelled on read, got %s", got.Status)
	}
	if record := f.stock(t, models.ProductStockOwner(widget.ID)); record.AvailableQuantity() != 5 {
		t.Fatalf("expired reservation should be released: %+v", record)
	}
}
