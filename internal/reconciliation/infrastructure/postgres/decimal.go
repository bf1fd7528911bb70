package postgres

import "github.com/shopspring/decimal"

func decimalOf(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func floatOf(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
