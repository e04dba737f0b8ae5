package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// scanDecisions counts eligibility decisions by outcome ("accepted" or
// a rejection kind).  Exposed through the server's /metrics endpoint.
var scanDecisions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "asistencia_scan_decisions_total",
		Help: "Attendance scan decisions by outcome",
	},
	[]string{"outcome"},
)
