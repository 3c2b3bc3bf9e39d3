package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vibe_domains"

var (
	// ResolutionTotal counts hostname resolutions by the tier that answered
	// (subdomain, custom_domain, mapping, alias) or "miss".
	ResolutionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolutions_total",
		Help:      "Hostname resolutions by answering tier.",
	}, []string{"tier"})

	// ResolutionErrors counts storage failures swallowed on the resolution path
	ResolutionErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolution_errors_total",
		Help:      "Storage failures during hostname resolution by tier.",
	}, []string{"tier"})

	// OperationsTotal counts site and domain operations by outcome
	OperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Site and domain operations by outcome.",
	}, []string{"operation", "outcome"})

	// ViewIncrements counts view counter writes
	ViewIncrements = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "view_increments_total",
		Help:      "View counter increments by result.",
	}, []string{"result"})
)

var initOnce sync.Once

// Init registers collectors; call once from main.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(ResolutionTotal, ResolutionErrors, OperationsTotal, ViewIncrements)
	})
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// Operation records the outcome of a site or domain operation
func Operation(name string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	OperationsTotal.WithLabelValues(name, outcome).Inc()
}
