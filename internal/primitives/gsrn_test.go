package primitives

import "testing"

func TestNewGsrn(t *testing.T) {
	if _, err := NewGsrn("571313180400013562"); err != nil {
		t.Fatalf("expected valid gsrn, got %v", err)
	}
}

func TestNewGsrn_WrongLength(t *testing.T) {
	if _, err := NewGsrn("12345"); err != ErrInvalidGsrn {
		t.Fatalf("expected ErrInvalidGsrn, got %v", err)
	}
}

func TestNewGsrn_NonDigit(t *testing.T) {
	if _, err := NewGsrn("57131318040001356X"); err != ErrInvalidGsrn {
		t.Fatalf("expected ErrInvalidGsrn, got %v", err)
	}
}

func TestNewGln_Valid(t *testing.T) {
	if _, err := NewGln("5790000432752"); err != nil {
		t.Fatalf("expected valid gln, got %v", err)
	}
}

func TestNewGln_BadCheckDigit(t *testing.T) {
	if _, err := NewGln("5790000432753"); err != ErrInvalidGln {
		t.Fatalf("expected ErrInvalidGln, got %v", err)
	}
}

func TestFromTrusted_SkipsChecksum(t *testing.T) {
	g := FromTrusted("5790000432753")
	if g.String() != "5790000432753" {
		t.Fatalf("expected passthrough, got %s", g.String())
	}
}
