package apiclient

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "attendance_client"

type metrics struct {
	requests  *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	retries   prometheus.Counter
}

// newMetrics registers the client's collectors on reg. A nil reg keeps the
// collectors unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "API requests by method and response status class.",
		}, []string{"method", "status"}),
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "token_refreshes_total",
			Help:      "Access token refresh attempts by outcome.",
		}, []string{"outcome"}),
		retries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "request_retries_total",
			Help:      "Requests re-issued after a successful token refresh.",
		}),
	}
}

func (m *metrics) observe(method string, status int) {
	m.requests.WithLabelValues(method, statusClass(status)).Inc()
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
