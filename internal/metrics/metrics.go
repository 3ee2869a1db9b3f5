// Package metrics exposes Prometheus instrumentation for circulation
// activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Circulation counts circulation events. It satisfies the recorder
// interface consumed by the circulation service.
type Circulation struct {
	checkouts       prometheus.Counter
	checkoutDenials *prometheus.CounterVec
	returns         prometheus.Counter
	returnDenials   *prometheus.CounterVec
	reservations    prometheus.Counter
	finesAssessed   prometheus.Counter
	fineAmountCents prometheus.Counter
}

// NewCirculation builds the circulation counters and registers them with
// the given registerer.
func NewCirculation(reg prometheus.Registerer) *Circulation {
	c := &Circulation{
		checkouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookhive",
			Subsystem: "circulation",
			Name:      "checkouts_total",
			Help:      "Number of successful checkouts.",
		}),
		checkoutDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookhive",
			Subsystem: "circulation",
			Name:      "checkout_denials_total",
			Help:      "Number of denied checkouts by reason.",
		}, []string{"reason"}),
		returns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookhive",
			Subsystem: "circulation",
			Name:      "returns_total",
			Help:      "Number of completed returns.",
		}),
		returnDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookhive",
			Subsystem: "circulation",
			Name:      "return_denials_total",
			Help:      "Number of denied returns by reason.",
		}, []string{"reason"}),
		reservations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookhive",
			Subsystem: "circulation",
			Name:      "reservations_total",
			Help:      "Number of reservations placed.",
		}),
		finesAssessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookhive",
			Subsystem: "circulation",
			Name:      "fines_assessed_total",
			Help:      "Number of overdue fines assessed.",
		}),
		fineAmountCents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookhive",
			Subsystem: "circulation",
			Name:      "fine_amount_cents_total",
			Help:      "Total fine amount assessed, in cents.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			c.checkouts, c.checkoutDenials, c.returns, c.returnDenials,
			c.reservations, c.finesAssessed, c.fineAmountCents,
		)
	}
	return c
}

// RecordCheckout increments the successful checkout counter.
func (c *Circulation) RecordCheckout() {
	c.checkouts.Inc()
}

// RecordCheckoutDenied increments the denial counter for the reason.
func (c *Circulation) RecordCheckoutDenied(reason string) {
	c.checkoutDenials.WithLabelValues(reason).Inc()
}

// RecordReturn increments the return counter.
func (c *Circulation) RecordReturn() {
	c.returns.Inc()
}

// RecordReturnDenied increments the return denial counter for the reason.
func (c *Circulation) RecordReturnDenied(reason string) {
	c.returnDenials.WithLabelValues(reason).Inc()
}

// RecordReservation increments the reservation counter.
func (c *Circulation) RecordReservation() {
	c.reservations.Inc()
}

// RecordFineAssessed counts an assessed fine and accumulates its amount.
func (c *Circulation) RecordFineAssessed(amountCents int64) {
	c.finesAssessed.Inc()
	c.fineAmountCents.Add(float64(amountCents))
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
