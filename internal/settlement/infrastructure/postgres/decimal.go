package postgres

import "github.com/shopspring/decimal"

// decimalOf and floatOf bridge Money's decimal.Decimal amount to the
// float64 columns used for storage; Money itself re-rounds to 2 dp on
// load via primitives.NewMoney, so the float64 round-trip never loses
// the banker's-rounded precision the domain cares about.
func decimalOf(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func floatOf(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
