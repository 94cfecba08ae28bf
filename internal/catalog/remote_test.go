package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/playpalm/playpalm-backend/pkg/enums"
	pkgerrors "github.com/playpalm/playpalm-backend/pkg/errors"
)

const testSchema = `
CREATE TABLE brands (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    created_at DATETIME
);
CREATE UNIQUE INDEX idx_brands_name_ci ON brands (lower(trim(name)));
CREATE TABLE categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    created_at DATETIME
);
CREATE UNIQUE INDEX idx_categories_name_ci ON categories (lower(trim(name)));
CREATE TABLE manufacturers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    created_at DATETIME
);
CREATE UNIQUE INDEX idx_manufacturers_name_ci ON manufacturers (lower(trim(name)));
CREATE TABLE products (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    sku TEXT,
    brand_id INTEGER,
    category_id INTEGER,
    manufacturer_id INTEGER,
    edition TEXT,
    storage TEXT,
    description TEXT,
    price NUMERIC NOT NULL DEFAULT 0,
    stock INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT '{}',
    release_date TEXT,
    image TEXT,
    created_at DATETIME,
    updated_at DATETIME
);
CREATE UNIQUE INDEX idx_products_variant_ci
    ON products (lower(trim(name)), lower(trim(coalesce(edition, ''))));
`

func newRemoteStore(t *testing.T) *RemoteStore {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:catalog_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.Exec(testSchema).Error; err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	store, err := NewRemoteStore(conn, 2*time.Second)
	if err != nil {
		t.Fatalf("new remote store: %v", err)
	}
	return store
}

func strPtr(s string) *string { return &s }

func testDraft(name string) Draft {
	return Draft{
		Name:     name,
		Brand:    "Acme",
		Category: "Console",
		Price:    decimal.NewFromFloat(10),
		Stock:    3,
		Status:   "Low in Stock",
		Tags:     []string{"retro", "bundle"},
	}
}

func TestRemoteCreateResolvesLookups(t *testing.T) {
	store := newRemoteStore(t)
	ctx := context.Background()

	draft := testDraft("Orb")
	draft.Manufacturer = strPtr("Playtronics")

	created, err := store.Create(ctx, draft)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if created.Brand == nil || *created.Brand != "Acme" {
		t.Fatalf("brand = %v, want Acme", created.Brand)
	}
	if created.Category == nil || *created.Category != "Console" {
		t.Fatalf("category = %v, want Console", created.Category)
	}
	if created.Manufacturer == nil || *created.Manufacturer != "Playtronics" {
		t.Fatalf("manufacturer = %v", created.Manufacturer)
	}
	if created.Status != "Low in Stock" {
		t.Fatalf("status = %q", created.Status)
	}
	if len(created.Tags) != 2 {
		t.Fatalf("tags = %v", created.Tags)
	}

	// second product with the same brand reuses the row
	second, err := store.Create(ctx, testDraft("Cube"))
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.Brand == nil || *second.Brand != "Acme" {
		t.Fatalf("expected brand reuse, got %v", second.Brand)
	}

	var count int64
	if err := store.db.Table("brands").Count(&count).Error; err != nil {
		t.Fatalf("count brands: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 brand row, got %d", count)
	}
}

func TestRemoteCreateDuplicateVariantConflicts(t *testing.T) {
	store := newRemoteStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, testDraft("Orb")); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := store.Create(ctx, testDraft("  orb  "))
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// same name with a different edition is a distinct variant
	diff := testDraft("Orb")
	diff.Edition = strPtr("Collector")
	if _, err := store.Create(ctx, diff); err != nil {
		t.Fatalf("different edition should be allowed: %v", err)
	}

	// and the same edition collides case-insensitively
	dup := testDraft("ORB")
	dup.Edition = strPtr("  COLLECTOR ")
	if _, err := store.Create(ctx, dup); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected edition conflict, got %v", err)
	}
}

func TestRemoteFindByIDNotFound(t *testing.T) {
	store := newRemoteStore(t)

	_, err := store.FindByID(context.Background(), 999)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if pkgerrors.Message(err) != "Product not found" {
		t.Fatalf("unexpected message %q", pkgerrors.Message(err))
	}
}

func TestRemoteUpdateAppliesPatch(t *testing.T) {
	store := newRemoteStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, testDraft("Orb"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stock := 0
	status := enums.StockStatusNone
	price := decimal.NewFromFloat(15.5)
	updated, err := store.Update(ctx, created.ID, Patch{
		Stock:  &stock,
		Status: &status,
		Price:  &price,
		Brand:  strPtr("Nintendo"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Stock != 0 || string(updated.Status) != "No Stock" {
		t.Fatalf("stock/status = %d %q", updated.Stock, updated.Status)
	}
	if !updated.Price.Decimal.Equal(price) {
		t.Fatalf("price = %s", updated.Price)
	}
	if updated.Brand == nil || *updated.Brand != "Nintendo" {
		t.Fatalf("brand = %v", updated.Brand)
	}
}

func TestRemoteUpdateRechecksUniqueness(t *testing.T) {
	store := newRemoteStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, testDraft("Orb")); err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := store.Create(ctx, testDraft("Cube"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = store.Update(ctx, second.ID, Patch{Name: strPtr("orb")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict when renaming onto an existing variant, got %v", err)
	}

	// renaming to itself is fine
	if _, err := store.Update(ctx, second.ID, Patch{Name: strPtr("Cube")}); err != nil {
		t.Fatalf("self rename: %v", err)
	}
}

func TestRemoteDeleteReturnsDeletedRow(t *testing.T) {
	store := newRemoteStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, testDraft("Orb"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, err := store.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.Name != "Orb" {
		t.Fatalf("deleted name = %q", deleted.Name)
	}

	if _, err := store.FindByID(ctx, created.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if _, err := store.Delete(ctx, created.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found on double delete, got %v", err)
	}
}

func TestRemoteSearchCaseInsensitiveSubstring(t *testing.T) {
	store := newRemoteStore(t)
	ctx := context.Background()

	for _, name := range []string{"Game Orb", "ORBITER", "Cube"} {
		draft := testDraft(name)
		if _, err := store.Create(ctx, draft); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	results, err := store.Search(ctx, "orb", 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(results))
	}

	capped, err := store.Search(ctx, "orb", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(capped) != 1 {
		t.Fatalf("expected limit to cap results, got %d", len(capped))
	}
}

func TestRemoteListOrdersByID(t *testing.T) {
	store := newRemoteStore(t)
	ctx := context.Background()

	for _, name := range []string{"Zeta", "Alpha"} {
		if _, err := store.Create(ctx, testDraft(name)); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Name != "Zeta" || items[1].Name != "Alpha" {
		t.Fatalf("expected insertion order by id, got %s then %s", items[0].Name, items[1].Name)
	}
}
