package service

import (
	"context"
	"errors"
	"testing"

	"github.com/storefront-next/internal/models"

	"github.com/shopspring/decimal"
)

func TestProductCreateWithInitialStock(t *testing.T) {
	f := setupServiceFixture(t, "product_create", nil)
	stock := 12
	threshold := 3
	product, err := f.products.Create(context.Background(), ProductInput{
		Name:              "  Desk Lamp ",
		Slug:              "Desk-Lamp",
		PriceAmount:       models.MustMoney("49.90"),
		TaxRate:           decimal.RequireFromString("8.5"),
		InitialStock:      &stock,
		LowStockThreshold: &threshold,
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if product.Name != "Desk Lamp" || product.Slug != "desk-lamp" || !product.IsActive {
		t.Fatalf("unexpected product: %+v", product)
	}
	record := f.stock(t, models.ProductStockOwner(product.ID))
	if record.Quantity != 12 || record.LowStockThreshold != 3 {
		t.Fatalf("unexpected initial stock: %+v", record)
	}

	if _, err := f.products.Create(context.Background(), ProductInput{Name: "Other", Slug: "desk-lamp", PriceAmount: models.MustMoney("1")}); !errors.Is(err, ErrProductSlugExists) {
		t.Fatalf("duplicate slug should be rejected, got %v", err)
	}

	public, err := f.products.GetPublicBySlug("DESK-LAMP")
	if err != nil || public.ID != product.ID {
		t.Fatalf("public lookup failed: %v", err)
	}
}

func TestProductCreateValidation(t *testing.T) {
	f := setupServiceFixture(t, "product_validation", nil)
	negative := -1
	_, err := f.products.Create(context.Background(), ProductInput{
		TaxRate:      decimal.NewFromInt(120),
		InitialStock: &negative,
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"name", "slug", "price_amount", "tax_rate", "initial_stock"} {
		if _, ok := validationErr.Fields[field]; !ok {
			t.Fatalf("missing field %s in %+v", field, validationErr.Fields)
		}
	}
}

func TestProductVariantAndVisibility(t *testing.T) {
	f := setupServiceFixture(t, "product_variant", nil)
	product := f.seedProduct(t, "hoodie", "30.00", "0", 0)
	stock := 4
	variant, err := f.products.AddVariant(context.Background(), product.ID, VariantInput{
		Name:            "Large",
		PriceAdjustment: models.MustMoney("5.00"),
		InitialStock:    &stock,
	})
	if err != nil {
		t.Fatalf("add variant failed: %v", err)
	}
	if variant.UnitPrice(product.PriceAmount).String() != "35.00" {
		t.Fatalf("unexpected variant price: %s", variant.UnitPrice(product.PriceAmount))
	}
	if record := f.stock(t, models.VariantStockOwner(variant.ID)); record.Quantity != 4 || record.ProductID != product.ID {
		t.Fatalf("unexpected variant stock: %+v", record)
	}
	if _, err := f.products.AddVariant(context.Background(), product.ID, VariantInput{Name: "Free", PriceAdjustment: models.MustMoney("-31.00")}); err == nil {
		t.Fatalf("negative unit price should be rejected")
	}

	inactive := false
	if _, err := f.products.Update(product.ID, ProductInput{Name: product.Name, Slug: product.Slug, PriceAmount: product.PriceAmount, IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if _, err := f.products.GetPublicBySlug("hoodie"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("inactive product should be hidden, got %v", err)
	}
	items, total, err := f.products.ListPublic("", 1, 20)
	if err != nil || total != 0 || len(items) != 0 {
		t.Fatalf("inactive product should not be listed: total=%d err=%v", total, err)
	}
	if _, err := f.products.GetAdminByID(product.ID); err != nil {
		t.Fatalf("admin should still see product: %v", err)
	}
}
