package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TenantResolutions counts effective-context decisions by outcome.
	TenantResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tenantguard",
		Subsystem: "tenancy",
		Name:      "resolutions_total",
		Help:      "Effective tenant context decisions per request.",
	}, []string{"decision"})

	// TenantRejections counts requests refused by the resolver.
	TenantRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tenantguard",
		Subsystem: "tenancy",
		Name:      "rejections_total",
		Help:      "Requests refused while resolving the tenant context.",
	}, []string{"reason"})

	BootstrapAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tenantguard",
		Subsystem: "bootstrap",
		Name:      "attempts_total",
		Help:      "First-user registration attempts by outcome.",
	}, []string{"outcome"})
)
