package testfixtures

import "testing"

func TestIDGeneratorSequence(t *testing.T) {
	gen := NewIDGenerator("loan")

	if got := gen.Next(); got != "loan-1" {
		t.Fatalf("expected loan-1, got %q", got)
	}
	if got := gen.Next(); got != "loan-2" {
		t.Fatalf("expected loan-2, got %q", got)
	}

	gen.SetCounter(41)
	if got := gen.Next(); got != "loan-42" {
		t.Fatalf("expected loan-42 after reset, got %q", got)
	}
}

func TestIDGeneratorDefaultPrefix(t *testing.T) {
	gen := NewIDGenerator("")
	if got := gen.Next(); got != "id-1" {
		t.Fatalf("expected id-1, got %q", got)
	}
}
