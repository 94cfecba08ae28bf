package enums

// StockStatus is the display status derived from a product's stock count.
type StockStatus string

const (
	StockStatusNone      StockStatus = "No Stock"
	StockStatusLow       StockStatus = "Low in Stock"
	StockStatusAvailable StockStatus = "Available"
)

const lowStockCeiling = 5

// String implements fmt.Stringer.
func (s StockStatus) String() string {
	return string(s)
}

// StatusForStock derives the display status for a stock count. The status is
// never stored independently of stock; every write that touches stock runs
// through this.
func StatusForStock(stock int) StockStatus {
	switch {
	case stock <= 0:
		return StockStatusNone
	case stock <= lowStockCeiling:
		return StockStatusLow
	default:
		return StockStatusAvailable
	}
}
