package catalog

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMoneyAcceptsQuotedAndUnquoted(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`12.50`), &m); err != nil {
		t.Fatalf("number: %v", err)
	}
	if m.String() != "12.5" {
		t.Fatalf("value = %s", m)
	}
	if err := json.Unmarshal([]byte(`"7.25"`), &m); err != nil {
		t.Fatalf("string: %v", err)
	}
	if m.String() != "7.25" {
		t.Fatalf("value = %s", m)
	}
	if err := json.Unmarshal([]byte(`"abc"`), &m); err == nil {
		t.Fatal("expected error for non-numeric price")
	}
}

func TestMoneyMarshalsAsBareNumber(t *testing.T) {
	raw, err := json.Marshal(MoneyFromFloat(19.99))
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "19.99" {
		t.Fatalf("marshal = %s", raw)
	}
}

func TestFlexIntAcceptsNumberAndNumericString(t *testing.T) {
	var f FlexInt
	if err := json.Unmarshal([]byte(`42`), &f); err != nil || f != 42 {
		t.Fatalf("number: %v %d", err, f)
	}
	if err := json.Unmarshal([]byte(`"17"`), &f); err != nil || f != 17 {
		t.Fatalf("string: %v %d", err, f)
	}
	if err := json.Unmarshal([]byte(`"-4"`), &f); err != nil || f != -4 {
		t.Fatalf("negative string: %v %d", err, f)
	}
	if err := json.Unmarshal([]byte(`"lots"`), &f); err == nil {
		t.Fatal("expected error for non-integer")
	}
	if err := json.Unmarshal([]byte(`2.5`), &f); err == nil {
		t.Fatal("expected error for fractional value")
	}
}

func TestTagListNormalization(t *testing.T) {
	var tags TagList
	if err := json.Unmarshal([]byte(`["retro"," bundle ",""]`), &tags); err != nil {
		t.Fatalf("array: %v", err)
	}
	if len(tags) != 2 || tags[0] != "retro" || tags[1] != "bundle" {
		t.Fatalf("tags = %v", tags)
	}

	if err := json.Unmarshal([]byte(`"retro, bundle , ,limited"`), &tags); err != nil {
		t.Fatalf("csv: %v", err)
	}
	if len(tags) != 3 || tags[2] != "limited" {
		t.Fatalf("tags = %v", tags)
	}

	if err := json.Unmarshal([]byte(`12`), &tags); err == nil {
		t.Fatal("expected error for numeric tags")
	}
}

func TestProductDTOWireShape(t *testing.T) {
	brand := "Acme"
	item := ProductDTO{
		ID:     3,
		Name:   "Orb",
		Brand:  &brand,
		Price:  MoneyFromFloat(10),
		Stock:  3,
		Status: "Low in Stock",
		Tags:   []string{"retro"},
	}
	raw, err := json.Marshal(item)
	if err != nil {
		t.Fatal(err)
	}
	body := string(raw)
	for _, want := range []string{`"price":10`, `"status":"Low in Stock"`, `"release_date":null`, `"brand":"Acme"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("wire body missing %s: %s", want, body)
		}
	}
	if strings.Contains(body, `"edition"`) {
		t.Fatalf("empty edition should be omitted: %s", body)
	}
}

func TestVariantKeyNormalization(t *testing.T) {
	if variantKey("  Orb ", nil) != variantKey("orb", nil) {
		t.Fatal("name must be trimmed and lowercased")
	}
	ed1, ed2 := " Collector ", "collector"
	if variantKey("Orb", &ed1) != variantKey("orb", &ed2) {
		t.Fatal("edition must be trimmed and lowercased")
	}
	if variantKey("Orb", nil) == variantKey("Orb", &ed1) {
		t.Fatal("different editions are distinct variants")
	}
}
