// Package metrics exposes Prometheus counters for login, routing and the leave workflow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the services and middleware report to.
type Recorder interface {
	RecordLogin(result string)
	RecordGuardDecision(outcome string)
	RecordLeaveDecision(status string)
	RecordPollDiscarded()
	SetPendingForms(n int)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	loginAttempts  *prometheus.CounterVec
	guardDecisions *prometheus.CounterVec
	leaveDecisions *prometheus.CounterVec
	pollDiscarded  prometheus.Counter
	pendingForms   prometheus.Gauge
}

// NewCollector registers the metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leave_login_attempts_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leave_guard_decisions_total",
			Help: "Route guard decisions by outcome",
		}, []string{"outcome"}),
		leaveDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leave_decisions_total",
			Help: "Approved and rejected leave forms",
		}, []string{"status"}),
		pollDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leave_poll_discarded_total",
			Help: "Pending-count polls dropped because a newer poll was issued",
		}),
		pendingForms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "leave_pending_forms",
			Help: "Leave forms awaiting a decision at the last applied poll",
		}),
	}

	reg.MustRegister(
		c.loginAttempts,
		c.guardDecisions,
		c.leaveDecisions,
		c.pollDiscarded,
		c.pendingForms,
	)

	return c
}

func (c *Collector) RecordLogin(result string) {
	c.loginAttempts.WithLabelValues(result).Inc()
}

func (c *Collector) RecordGuardDecision(outcome string) {
	c.guardDecisions.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordLeaveDecision(status string) {
	c.leaveDecisions.WithLabelValues(status).Inc()
}

func (c *Collector) RecordPollDiscarded() {
	c.pollDiscarded.Inc()
}

func (c *Collector) SetPendingForms(n int) {
	c.pendingForms.Set(float64(n))
}

// Handler serves the registry for scraping.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. Used where metrics are not wired, mostly tests.
type Nop struct{}

func (Nop) RecordLogin(string)         {}
func (Nop) RecordGuardDecision(string) {}
func (Nop) RecordLeaveDecision(string) {}
func (Nop) RecordPollDiscarded()       {}
func (Nop) SetPendingForms(int)        {}
