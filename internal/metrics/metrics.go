package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	GatewayOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botdeck_gateway_operations_total",
			Help: "Total gateway operations against the Discord session and record store",
		},
		[]string{"op", "result"},
	)

	RecordCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "botdeck_message_records",
			Help: "Number of message records currently persisted",
		},
	)
)

// Init registers metrics with Prometheus
func Init() {
	prometheus.MustRegister(GatewayOps)
	prometheus.MustRegister(RecordCount)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
