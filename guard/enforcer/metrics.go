package enforcer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var actionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "guardbot_enforcement_actions",
	Help: "Number of enforcement actions applied",
}, []string{"action"})

var actionFailureCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "guardbot_enforcement_failures",
	Help: "Number of enforcement actions which failed",
}, []string{"action"})
