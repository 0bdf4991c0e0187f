package entity

// Plan is a pricing tier an account can choose. Prices are in the smallest
// currency unit.
type Plan struct {
	ID           int64
	Name         string
	PricePerOTP  int64
	MonthlyLimit int64
	Description  string
}
