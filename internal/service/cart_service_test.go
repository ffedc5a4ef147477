package service

import (
	"errors"
	"testing"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"
)

func TestCartOwnerValid(t *testing.T) {
	cases := []struct {
		owner CartOwner
		valid bool
	}{
		{CartOwner{UserID: 1}, true},
		{CartOwner{SessionKey: "abc"}, true},
		{CartOwner{}, false},
		{CartOwner{SessionKey: "   "}, false},
		{CartOwner{UserID: 1, SessionKey: "abc"}, false},
	}
	for _, tc := range cases {
		if got := tc.owner.Valid(); got != tc.valid {
			t.Fatalf("owner %+v valid want %v got %v", tc.owner, tc.valid, got)
		}
	}
	if (CartOwner{UserID: 42}).Scope() != "user:42" || (CartOwner{SessionKey: "s1"}).Scope() != "guest:s1" {
		t.Fatalf("unexpected scope format")
	}
}

func TestCartAddItemMergesLines(t *testing.T) {
	f := setupServiceFixture(t, "cart_merge", nil)
	owner := CartOwner{UserID: 1}
	widget := f.seedProduct(t, "widget", "10.00", "5", 10)

	f.addToCart(t, owner, widget.ID, 0, 2)
	cart := f.addToCart(t, owner, widget.ID, 0, 3)
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 5 {
		t.Fatalf("same product should merge into one line: %+v", cart.Items)
	}
	if cart.Items[0].UnitPrice.String() != "10.00" {
		t.Fatalf("unexpected unit price snapshot: %s", cart.Items[0].UnitPrice)
	}

	totals, err := f.carts.ComputeTotals(owner)
	if err != nil {
		t.Fatalf("compute totals failed: %v", err)
	}
	if totals.Subtotal.String() != "50.00" || totals.Tax.String() != "2.50" || totals.Total.String() != "52.50" {
		t.Fatalf("unexpected totals: %+v", totals)
	}
	if totals.ItemsCount != 5 || totals.Currency != "USD" {
		t.Fatalf("unexpected items count or currency: %+v", totals)
	}
	if record := f.stock(t, models.ProductStockOwner(widget.ID)); record.ReservedQuantity != 0 {
		t.Fatalf("cart operations must not reserve stock, got %d", record.ReservedQuantity)
	}
}

func TestCartAddItemChecksAvailability(t *testing.T) {
	f := setupServiceFixture(t, "cart_availability", nil)
	owner := CartOwner{SessionKey: "sess-cart"}
	widget := f.seedProduct(t, "widget", "10.00", "0", 4)
	f.addToCart(t, owner, widget.ID, 0, 3)

	_, err := f.carts.AddItem(owner, AddCartItemInput{ProductID: widget.ID, Quantity: 2})
	var stockErr *StockError
	if !errors.As(err, &stockErr) || !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if stockErr.Available != 4 || stockErr.Requested != 5 {
		t.Fatalf("unexpected stock error: %+v", stockErr)
	}
	if _, err := f.carts.AddItem(owner, AddCartItemInput{ProductID: widget.ID, Quantity: 0}); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("zero quantity should be rejected, got %v", err)
	}

	cart, err := f.carts.Get(owner)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if cart.ItemsCount() != 3 {
		t.Fatalf("failed add must not change cart, items=%d", cart.ItemsCount())
	}
	if cart.ExpiresAt == nil {
		t.Fatalf("guest cart should carry an expiry")
	}
}

func TestCartRejectsUnavailableProducts(t *testing.T) {
	f := setupServiceFixture(t, "cart_unavailable", nil)
	owner := CartOwner{UserID: 1}
	widget := f.seedProduct(t, "widget", "10.00", "0", 4)
	if err := f.db.Model(&models.Product{}).Where("id = ?", widget.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	if _, err := f.carts.AddItem(owner, AddCartItemInput{ProductID: widget.ID, Quantity: 1}); !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("inactive product should be unavailable, got %v", err)
	}
	if _, err := f.carts.AddItem(owner, AddCartItemInput{ProductID: 9999, Quantity: 1}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("unknown product should be not found, got %v", err)
	}
	if _, err := f.carts.AddItem(CartOwner{}, AddCartItemInput{ProductID: widget.ID, Quantity: 1}); err == nil {
		t.Fatalf("missing owner should be rejected")
	}
}

func TestCartUpdateAndRemoveItems(t *testing.T) {
	f := setupServiceFixture(t, "cart_update", nil)
	owner := CartOwner{UserID: 1}
	widget := f.seedProduct(t, "widget", "10.00", "0", 10)
	gadget := f.seedProduct(t, "gadget", "5.00", "0", 10)
	f.addToCart(t, owner, widget.ID, 0, 1)
	cart := f.addToCart(t, owner, gadget.ID, 0, 1)

	widgetItem := cart.Items[0]
	updated, err := f.carts.UpdateQuantity(owner, widgetItem.ID, 4)
	if err != nil {
		t.Fatalf("update quantity failed: %v", err)
	}
	if updated.ItemsCount() != 5 {
		t.Fatalf("items count want 5 got %d", updated.ItemsCount())
	}
	if _, err := f.carts.UpdateQuantity(owner, widgetItem.ID, 11); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("update beyond stock should fail, got %v", err)
	}

	removed, err := f.carts.RemoveItem(owner, widgetItem.ID)
	if err != nil {
		t.Fatalf("remove item failed: %v", err)
	}
	if len(removed.Items) != 1 || removed.Items[0].ProductID != gadget.ID {
		t.Fatalf("unexpected items after remove: %+v", removed.Items)
	}
	if _, err := f.carts.RemoveItem(owner, widgetItem.ID); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("removing twice should fail, got %v", err)
	}

	if err := f.carts.Clear(owner); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	view, err := f.carts.View(owner)
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if len(view.Cart.Items) != 0 || !view.Totals.Total.IsZero() {
		t.Fatalf("cleared cart should be empty: %+v", view.Totals)
	}
}

func TestCartCouponMinimumAndStaleCoupon(t *testing.T) {
	f := setupServiceFixture(t, "cart_coupon", nil)
	owner := CartOwner{UserID: 1}
	widget := f.seedProduct(t, "widget", "10.00", "0", 10)
	f.seedCoupon(t, models.Coupon{
		Code:                  "BIG50",
		DiscountType:          constants.CouponTypeFixed,
		DiscountValue:         models.MustMoney("5.00"),
		MinimumPurchaseAmount: models.MustMoney("50.00"),
	})
	f.addToCart(t, owner, widget.ID, 0, 2)

	if _, err := f.carts.ApplyCoupon(owner, "BIG50"); !errors.Is(err, ErrCouponMinAmount) {
		t.Fatalf("minimum not met should be rejected, got %v", err)
	}
	if _, err := f.carts.ApplyCoupon(owner, "NOPE"); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("unknown coupon should be rejected, got %v", err)
	}

	f.addToCart(t, owner, widget.ID, 0, 3)
	view, err := f.carts.ApplyCoupon(owner, "BIG50")
	if err != nil {
		t.Fatalf("apply coupon failed: %v", err)
	}
	if !view.Totals.CouponApplied || view.Totals.Discount.String() != "5.00" || view.Totals.Total.String() != "45.00" {
		t.Fatalf("unexpected totals with coupon: %+v", view.Totals)
	}

	cart, err := f.carts.Get(owner)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if _, err := f.carts.UpdateQuantity(owner, cart.Items[0].ID, 1); err != nil {
		t.Fatalf("update quantity failed: %v", err)
	}
	totals, err := f.carts.ComputeTotals(owner)
	if err != nil {
		t.Fatalf("compute totals failed: %v", err)
	}
	if totals.CouponApplied || !totals.Discount.IsZero() || totals.Total.String() != "10.00" {
		t.Fatalf("coupon below minimum should not apply: %+v", totals)
	}

	removed, err := f.carts.RemoveCoupon(owner)
	if err != nil {
		t.Fatalf("remove coupon failed: %v", err)
	}
	if removed.Cart.CouponCode != "" {
		t.Fatalf("coupon code should be cleared")
	}
}

func TestCartSnapshotPricePolicy(t *testing.T) {
	f := setupServiceFixture(t, "cart_snapshot", nil)
	f.carts.options.PricePolicy = constants.PricePolicySnapshot
	owner := CartOwner{UserID: 1}
	widget := f.seedProduct(t, "widget", "10.00", "0", 10)
	f.addToCart(t, owner, widget.ID, 0, 1)
	if err := f.db.Model(&models.Product{}).Where("id = ?", widget.ID).Update("price_amount", "12.00").Error; err != nil {
		t.Fatalf("update price failed: %v", err)
	}

	totals, err := f.carts.ComputeTotals(owner)
	if err != nil {
		t.Fatalf("compute totals failed: %v", err)
	}
	if totals.Subtotal.String() != "10.00" {
		t.Fatalf("snapshot policy should keep add-time price, got %s", totals.Subtotal)
	}
}
