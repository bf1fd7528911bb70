package primitives

import "errors"

var (
	// ErrInvalidGsrn is returned when a GSRN is not 18 decimal digits.
	ErrInvalidGsrn = errors.New("primitives: invalid gsrn")
	// ErrInvalidGln is returned when a GLN fails length or checksum validation.
	ErrInvalidGln = errors.New("primitives: invalid gln")
	// ErrInvalidCpr is returned when a CPR is not 10 decimal digits.
	ErrInvalidCpr = errors.New("primitives: invalid cpr")
	// ErrInvalidCvr is returned when a CVR is not 8 decimal digits.
	ErrInvalidCvr = errors.New("primitives: invalid cvr")
	// ErrInvalidPeriod is returned when End is set and not after Start.
	ErrInvalidPeriod = errors.New("primitives: invalid period")
	// ErrCurrencyMismatch is returned when adding/subtracting Money of
	// different currencies.
	ErrCurrencyMismatch = errors.New("primitives: currency mismatch")
)
