package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/playpalm/playpalm-backend/pkg/enums"
)

// ProductDTO is the product payload returned to clients. The same shape is
// persisted verbatim in the local fallback file.
type ProductDTO struct {
	ID           int64             `json:"id"`
	SKU          *string           `json:"sku"`
	Name         string            `json:"name"`
	Brand        *string           `json:"brand"`
	Manufacturer *string           `json:"manufacturer"`
	Category     *string           `json:"category"`
	Edition      *string           `json:"edition,omitempty"`
	Storage      *string           `json:"storage,omitempty"`
	Price        Money             `json:"price"`
	Stock        int               `json:"stock"`
	Status       enums.StockStatus `json:"status"`
	Description  *string           `json:"description"`
	ReleaseDate  *string           `json:"release_date"`
	Tags         []string          `json:"tags"`
	Image        *string           `json:"image"`
}

// Money serializes a decimal amount as a bare JSON number and accepts both
// quoted and unquoted input.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MoneyFromFloat builds a Money from a float literal. Test helper territory.
func MoneyFromFloat(f float64) Money {
	return Money{Decimal: decimal.NewFromFloat(f)}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return fmt.Errorf("price cannot be null")
	}
	raw := strings.Trim(string(data), `"`)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid price %q", raw)
	}
	m.Decimal = d
	return nil
}

// FlexInt accepts either a JSON number or a numeric string. Clients send
// stock and delta values both ways.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		return fmt.Errorf("value must be an integer")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("value %q must be an integer", raw)
	}
	*f = FlexInt(n)
	return nil
}

// TagList accepts either a JSON array of strings or a single comma-separated
// string, normalizing to a trimmed slice with empties dropped.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*t = nil
		return nil
	}
	if data[0] == '[' {
		var arr []string
		if err := json.Unmarshal(data, &arr); err != nil {
			return err
		}
		*t = normalizeTags(arr)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tags must be an array or comma-separated string")
	}
	*t = normalizeTags(strings.Split(s, ","))
	return nil
}

func normalizeTags(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// Draft is a fully validated create payload handed to a store.
type Draft struct {
	Name         string
	SKU          *string
	Brand        string
	Category     string
	Manufacturer *string
	Edition      *string
	Storage      *string
	Price        decimal.Decimal
	Stock        int
	Status       enums.StockStatus
	Description  *string
	ReleaseDate  *string
	Tags         []string
	Image        *string
}

// Patch carries the subset of fields a partial update applies. Nil means
// "leave unchanged"; a pointer to the zero value clears the column.
type Patch struct {
	Name         *string
	SKU          *string
	Brand        *string
	Category     *string
	Manufacturer *string
	Edition      *string
	Storage      *string
	Price        *decimal.Decimal
	Stock        *int
	Status       *enums.StockStatus
	Description  *string
	ReleaseDate  *string
	Tags         *[]string
	Image        *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.SKU == nil && p.Brand == nil && p.Category == nil &&
		p.Manufacturer == nil && p.Edition == nil && p.Storage == nil &&
		p.Price == nil && p.Stock == nil && p.Status == nil &&
		p.Description == nil && p.ReleaseDate == nil && p.Tags == nil && p.Image == nil
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// variantKey is the uniqueness key for a product: case-insensitive trimmed
// name plus the optional edition discriminator.
func variantKey(name string, edition *string) string {
	ed := ""
	if edition != nil {
		ed = *edition
	}
	return normalizeName(name) + "\x00" + normalizeName(ed)
}
