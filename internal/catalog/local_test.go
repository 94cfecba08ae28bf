package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/playpalm/playpalm-backend/pkg/errors"
)

func newLocalStore(t *testing.T) (*LocalStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "database", "products.json")
	store, err := NewLocalStore(path, nil)
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	return store, path
}

func TestLocalCreateAssignsMaxPlusOneIDs(t *testing.T) {
	store, _ := newLocalStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, testDraft("Orb"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID != 1 {
		t.Fatalf("first id = %d, want 1", first.ID)
	}

	second, err := store.Create(ctx, testDraft("Cube"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if second.ID != 2 {
		t.Fatalf("second id = %d, want 2", second.ID)
	}

	// deleting the highest id frees it for reuse
	if _, err := store.Delete(ctx, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	third, err := store.Create(ctx, testDraft("Disc"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if third.ID != 2 {
		t.Fatalf("third id = %d, want 2", third.ID)
	}
}

func TestLocalCreatesMissingFileAndDir(t *testing.T) {
	store, path := newLocalStore(t)

	items, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty store, got %d items", len(items))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("backing file should exist: %v", err)
	}
	if string(raw) != "[]" {
		t.Fatalf("fresh file should be an empty array, got %q", raw)
	}
}

func TestLocalResetsCorruptFile(t *testing.T) {
	store, path := newLocalStore(t)
	ctx := context.Background()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list should self-heal: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected reset to empty, got %d", len(items))
	}

	raw, _ := os.ReadFile(path)
	if string(raw) != "[]" {
		t.Fatalf("file should be reset to empty array, got %q", raw)
	}
}

func TestLocalFileIsPrettyPrinted(t *testing.T) {
	store, path := newLocalStore(t)

	if _, err := store.Create(context.Background(), testDraft("Orb")); err != nil {
		t.Fatalf("create: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var parsed []map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("file should hold a JSON array: %v", err)
	}
	if string(raw[0:4]) != "[\n  " {
		t.Fatalf("expected 2-space indented output, got %q", raw[:8])
	}
	if price, ok := parsed[0]["price"].(float64); !ok || price != 10 {
		t.Fatalf("price should serialize as a number, got %v", parsed[0]["price"])
	}
}

func TestLocalDuplicateVariantConflicts(t *testing.T) {
	store, _ := newLocalStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, testDraft("Orb")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create(ctx, testDraft(" ORB ")); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	withEdition := testDraft("Orb")
	withEdition.Edition = strPtr("Collector")
	if _, err := store.Create(ctx, withEdition); err != nil {
		t.Fatalf("distinct edition should pass: %v", err)
	}
}

func TestLocalUpdateAndStatusRecompute(t *testing.T) {
	store, _ := newLocalStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, testDraft("Orb"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stock := 9
	updated, err := store.Update(ctx, created.ID, Patch{Stock: &stock})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Stock != 9 || string(updated.Status) != "Available" {
		t.Fatalf("stock/status = %d %q", updated.Stock, updated.Status)
	}

	price := decimal.NewFromFloat(99.99)
	updated, err = store.Update(ctx, created.ID, Patch{Price: &price})
	if err != nil {
		t.Fatalf("update price: %v", err)
	}
	if !updated.Price.Decimal.Equal(price) {
		t.Fatalf("price = %s", updated.Price)
	}

	if _, err := store.Update(ctx, 404, Patch{Stock: &stock}); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLocalUpdateUniquenessAgainstOthers(t *testing.T) {
	store, _ := newLocalStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, testDraft("Orb")); err != nil {
		t.Fatal(err)
	}
	second, err := store.Create(ctx, testDraft("Cube"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Update(ctx, second.ID, Patch{Name: strPtr("orb")}); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := store.Update(ctx, second.ID, Patch{Name: strPtr("Cube")}); err != nil {
		t.Fatalf("self rename should pass: %v", err)
	}
}

func TestLocalDeleteRemovesRow(t *testing.T) {
	store, _ := newLocalStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, testDraft("Orb"))
	if err != nil {
		t.Fatal(err)
	}

	deleted, err := store.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.Name != "Orb" {
		t.Fatalf("deleted = %+v", deleted)
	}
	if _, err := store.FindByID(ctx, created.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLocalSearch(t *testing.T) {
	store, _ := newLocalStore(t)
	ctx := context.Background()

	for _, name := range []string{"Game Orb", "ORBITER", "Cube"} {
		if _, err := store.Create(ctx, testDraft(name)); err != nil {
			t.Fatal(err)
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
		t.Fatal(err)
	}
	if len(capped) != 1 {
		t.Fatalf("limit should cap, got %d", len(capped))
	}
}
