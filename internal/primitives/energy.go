package primitives

import "github.com/shopspring/decimal"

// EnergyQuantity is a decimal kWh quantity, banker's-rounded to 3 decimal
// places at construction (spec.md §3.1).
type EnergyQuantity struct {
	value decimal.Decimal
}

// KWh constructs an EnergyQuantity from a float64 kWh value.
func KWh(value float64) EnergyQuantity {
	return EnergyQuantity{value: decimal.NewFromFloat(value).RoundBank(3)}
}

// NewEnergyQuantity constructs an EnergyQuantity from a decimal value.
func NewEnergyQuantity(value decimal.Decimal) EnergyQuantity {
	return EnergyQuantity{value: value.RoundBank(3)}
}

// ZeroEnergy returns a zero quantity.
func ZeroEnergy() EnergyQuantity {
	return EnergyQuantity{value: decimal.Zero}
}

// Value returns the underlying decimal value.
func (q EnergyQuantity) Value() decimal.Decimal { return q.value }

// Add returns q+other.
func (q EnergyQuantity) Add(other EnergyQuantity) EnergyQuantity {
	return NewEnergyQuantity(q.value.Add(other.value))
}

// Sub returns q-other.
func (q EnergyQuantity) Sub(other EnergyQuantity) EnergyQuantity {
	return NewEnergyQuantity(q.value.Sub(other.value))
}

// Neg returns -q.
func (q EnergyQuantity) Neg() EnergyQuantity {
	return EnergyQuantity{value: q.value.Neg()}
}

// IsZero reports whether the quantity is exactly zero.
func (q EnergyQuantity) IsZero() bool { return q.value.IsZero() }

// Float64 returns the quantity as a float64, for display/export only.
func (q EnergyQuantity) Float64() float64 {
	f, _ := q.value.Float64()
	return f
}

// String renders e.g. "744.000".
func (q EnergyQuantity) String() string {
	return q.value.StringFixed(3)
}
