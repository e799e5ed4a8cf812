package receiver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricDatagramsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "entity_receiver_datagrams_received_total",
		Help: "Total number of UDP datagrams received",
	})

	metricDatagramsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entity_receiver_datagrams_rejected_total",
		Help: "Total number of datagrams discarded before reaching the registry",
	}, []string{"reason"})

	metricReceiveErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "entity_receiver_receive_errors_total",
		Help: "Total number of transient socket receive errors",
	})

	metricEntitiesTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "entity_receiver_entities_tracked",
		Help: "Number of entities currently in the registry",
	})

	metricEntitiesEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "entity_receiver_entities_evicted_total",
		Help: "Total number of entities removed by the staleness sweeper",
	})
)
