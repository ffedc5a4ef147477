package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/storefront-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupStockRepositoryTest(t *testing.T) (*GormStockRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:stock_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.ProductVariant{}, &models.StockRecord{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewStockRepository(db), db
}

func createStockRecord(t *testing.T, repo *GormStockRepository, owner models.StockOwner, productID uint, quantity, reserved int) *models.StockRecord {
	t.Helper()
	record := &models.StockRecord{
		OwnerType:         owner.Kind,
		OwnerID:           owner.ID,
		ProductID:         productID,
		Quantity:          quantity,
		ReservedQuantity:  reserved,
		LowStockThreshold: 2,
	}
	if err := repo.Create(record); err != nil {
		t.Fatalf("create stock record failed: %v", err)
	}
	return record
}

func mustStock(t *testing.T, repo *GormStockRepository, owner models.StockOwner) *models.StockRecord {
	t.Helper()
	record, err := repo.GetByOwner(owner)
	if err != nil {
		t.Fatalf("get stock failed: %v", err)
	}
	if record == nil {
		t.Fatalf("stock record %s not found", owner)
	}
	return record
}

func TestStockReserveReleaseCommitLifecycle(t *testing.T) {
	repo, _ := setupStockRepositoryTest(t)
	owner := models.ProductStockOwner(1)
	createStockRecord(t, repo, owner, 1, 10, 0)

	affected, err := repo.Reserve(owner, 3)
	if err != nil || affected != 1 {
		t.Fatalf("reserve want affected=1 got %d err=%v", affected, err)
	}
	record := mustStock(t, repo, owner)
	if record.Quantity != 10 || record.ReservedQuantity != 3 || record.AvailableQuantity() != 7 {
		t.Fatalf("unexpected after reserve: %+v", record)
	}

	affected, err = repo.Release(owner, 1)
	if err != nil || affected != 1 {
		t.Fatalf("release want affected=1 got %d err=%v", affected, err)
	}
	affected, err = repo.Commit(owner, 2)
	if err != nil || affected != 1 {
		t.Fatalf("commit want affected=1 got %d err=%v", affected, err)
	}
	record = mustStock(t, repo, owner)
	if record.Quantity != 8 || record.ReservedQuantity != 0 {
		t.Fatalf("unexpected after commit: %+v", record)
	}

	affected, err = repo.Restock(owner, 2)
	if err != nil || affected != 1 {
		t.Fatalf("restock want affected=1 got %d err=%v", affected, err)
	}
	if got := mustStock(t, repo, owner).Quantity; got != 10 {
		t.Fatalf("quantity after restock want 10 got %d", got)
	}
}

func TestStockReserveGuardsAvailableQuantity(t *testing.T) {
	repo, _ := setupStockRepositoryTest(t)
	owner := models.VariantStockOwner(7)
	createStockRecord(t, repo, owner, 3, 5, 3)

	affected, err := repo.Reserve(owner, 3)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("reserve beyond available should not update, affected=%d", affected)
	}
	affected, err = repo.Release(owner, 4)
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("release beyond reserved should not update, affected=%d", affected)
	}
	affected, err = repo.SetQuantity(owner, 2)
	if err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("quantity below reserved should be rejected, affected=%d", affected)
	}
	if _, err := repo.Reserve(models.StockOwner{}, 1); err == nil {
		t.Fatalf("invalid owner should return error")
	}
}

func TestStockLockByOwnersOrdersByProduct(t *testing.T) {
	repo, _ := setupStockRepositoryTest(t)
	createStockRecord(t, repo, models.ProductStockOwner(9), 9, 1, 0)
	createStockRecord(t, repo, models.VariantStockOwner(4), 2, 1, 0)
	createStockRecord(t, repo, models.ProductStockOwner(2), 2, 1, 0)
	createStockRecord(t, repo, models.ProductStockOwner(5), 5, 1, 0)

	records, err := repo.LockByOwners([]models.StockOwner{
		models.ProductStockOwner(9),
		models.VariantStockOwner(4),
		models.ProductStockOwner(2),
	})
	if err != nil {
		t.Fatalf("lock owners failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("want 3 records got %d", len(records))
	}
	want := []string{"product:2", "variant:4", "product:9"}
	for i, record := range records {
		if record.Owner().String() != want[i] {
			t.Fatalf("lock order[%d] want %s got %s", i, want[i], record.Owner())
		}
	}
}

func TestStockListLowOnly(t *testing.T) {
	repo, _ := setupStockRepositoryTest(t)
	createStockRecord(t, repo, models.ProductStockOwner(1), 1, 10, 0)
	createStockRecord(t, repo, models.ProductStockOwner(2), 2, 3, 1)

	records, total, err := repo.List(StockListFilter{LowOnly: true, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("list low stock failed: %v", err)
	}
	if total != 1 || len(records) != 1 || records[0].ProductID != 2 {
		t.Fatalf("unexpected low stock result total=%d records=%+v", total, records)
	}
}
