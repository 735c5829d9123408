// Package metrics holds the Prometheus collectors for access control.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AccessDecisions counts admin guard outcomes by decision ("allow", "deny").
	AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_access_decisions_total",
		Help: "Admin access checks by decision.",
	}, []string{"decision"})

	// RoleMutations counts role change attempts by result.
	RoleMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_role_mutations_total",
		Help: "Role change attempts by result.",
	}, []string{"result"})

	// ProfileProvisioning counts provisioning attempts by result.
	ProfileProvisioning = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_profile_provisioning_total",
		Help: "Profile provisioning attempts by result.",
	}, []string{"result"})
)
