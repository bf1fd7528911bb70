package primitives

import "testing"

func TestDKK_BankersRounding(t *testing.T) {
	got := DKK(100.555)
	if got.String() != "DKK 100.56" {
		t.Fatalf("expected DKK 100.56, got %s", got.String())
	}
}

func TestMoney_Add_CurrencyMismatch(t *testing.T) {
	dkk := DKK(10)
	eur := NewMoney(dkk.Amount(), "EUR")
	if _, err := dkk.Add(eur); err != ErrCurrencyMismatch {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestMoney_Add_SameCurrency(t *testing.T) {
	a := DKK(10.10)
	b := DKK(5.05)
	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.String() != "DKK 15.15" {
		t.Fatalf("expected DKK 15.15, got %s", sum.String())
	}
}
