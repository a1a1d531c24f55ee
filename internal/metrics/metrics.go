// Package metrics holds the prometheus collectors of the server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes
const (
	LoginSuccess  = "success"
	LoginFailed   = "invalid_credentials"
	LoginInactive = "inactive_user"
	LoginError    = "error"
)

// Metrics groups the collectors
type Metrics struct {
	LoginAttempts        *prometheus.CounterVec
	AuthorizationDenials *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. If reg is nil the
// default registry is used. Collectors that are already registered are
// reused.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	return &Metrics{
		LoginAttempts: register(
			reg, prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Subsystem: "auth",
					Name:      "login_attempts_total",
					Help:      "Number of login attempts by outcome",
				},
				[]string{"outcome"},
			),
		),
		AuthorizationDenials: register(
			reg, prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespace,
					Subsystem: "auth",
					Name:      "denials_total",
					Help:      "Number of rejected requests by error kind",
				},
				[]string{"kind"},
			),
		),
		RequestDuration: register(
			reg, prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: namespace,
					Subsystem: "http",
					Name:      "request_duration_seconds",
					Help:      "Duration of HTTP requests in seconds",
					Buckets:   prometheus.DefBuckets,
				},
				[]string{"method", "route", "status"},
			),
		),
		gatherer: gatherer,
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			panic(err)
		}
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
		panic(err)
	}
	return c
}

// ObserveLogin counts a login attempt
func (m *Metrics) ObserveLogin(outcome string) {
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// ObserveDenial counts a request rejected with the given error kind
func (m *Metrics) ObserveDenial(kind string) {
	m.AuthorizationDenials.WithLabelValues(kind).Inc()
}

// ObserveRequest records the duration of a handled request
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler returns the http handler exposing the metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
