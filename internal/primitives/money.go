package primitives

import "github.com/shopspring/decimal"

// Money is a decimal amount with an ISO currency code, rounded to 2
// decimal places (ore/cent precision). Never backed by float64 (spec.md
// §9: "never floats").
type Money struct {
	amount   decimal.Decimal
	currency string
}

// DKK constructs a Money value in Danish kroner, rounded to 2 dp using
// banker's rounding (round-half-to-even), matching spec.md §8:
// Money.DKK(100.555) = DKK 100.56.
func DKK(value float64) Money {
	return NewMoney(decimal.NewFromFloat(value), "DKK")
}

// NewMoney constructs a Money value in the given currency, rounded to 2 dp.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{amount: amount.RoundBank(2), currency: currency}
}

// ZeroMoney returns a zero amount in the given currency.
func ZeroMoney(currency string) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the underlying decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the ISO currency code.
func (m Money) Currency() string { return m.currency }

// Add returns m+other. Fails with ErrCurrencyMismatch when currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return NewMoney(m.amount.Add(other.amount), m.currency), nil
}

// Sub returns m-other. Fails with ErrCurrencyMismatch when currencies differ.
func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return NewMoney(m.amount.Sub(other.amount), m.currency), nil
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// String renders "DKK 123.45".
func (m Money) String() string {
	return m.currency + " " + m.amount.StringFixed(2)
}

// MulRate multiplies a quantity of kWh by a DKK/kWh rate, rounding the
// result to 2 dp once at line creation (spec.md §4.3 "Ordering and
// tie-breaks").
func MulRate(qty EnergyQuantity, ratePerKWh decimal.Decimal, currency string) Money {
	return NewMoney(qty.value.Mul(ratePerKWh), currency)
}

// SumMoney adds a list of already-rounded Money values of the same
// currency; the sum is itself rounded (idempotent, since each addend is
// already at 2 dp).
func SumMoney(currency string, parts ...Money) (Money, error) {
	total := ZeroMoney(currency)
	var err error
	for _, p := range parts {
		total, err = total.Add(p)
		if err != nil {
			return Money{}, err
		}
	}
	return total, nil
}
