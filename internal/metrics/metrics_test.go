package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCirculationCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCirculation(reg)

	c.RecordCheckout()
	c.RecordCheckout()
	c.RecordCheckoutDenied("no_copies_available")
	c.RecordReturn()
	c.RecordReturnDenied("invalid_loan")
	c.RecordReservation()
	c.RecordFineAssessed(150)

	if got := testutil.ToFloat64(c.checkouts); got != 2 {
		t.Fatalf("expected 2 checkouts, got %v", got)
	}
	if got := testutil.ToFloat64(c.checkoutDenials.WithLabelValues("no_copies_available")); got != 1 {
		t.Fatalf("expected 1 denial, got %v", got)
	}
	if got := testutil.ToFloat64(c.returnDenials.WithLabelValues("invalid_loan")); got != 1 {
		t.Fatalf("expected 1 return denial, got %v", got)
	}
	if got := testutil.ToFloat64(c.fineAmountCents); got != 150 {
		t.Fatalf("expected 150 fine cents, got %v", got)
	}

	expected := strings.NewReader(`
# HELP bookhive_circulation_returns_total Number of completed returns.
# TYPE bookhive_circulation_returns_total counter
bookhive_circulation_returns_total 1
`)
	if err := testutil.GatherAndCompare(reg, expected, "bookhive_circulation_returns_total"); err != nil {
		t.Fatalf("unexpected returns metric: %v", err)
	}
}

func TestNewCirculationNilRegisterer(t *testing.T) {
	c := NewCirculation(nil)
	c.RecordCheckout()
	if got := testutil.ToFloat64(c.checkouts); got != 1 {
		t.Fatalf("expected 1 checkout, got %v", got)
	}
}
