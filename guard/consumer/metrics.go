package consumer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var itemsAdded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "guardbot_consumer_items_added",
	Help: "Number of stream frames queued for processing",
})

var itemsProcessed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "guardbot_consumer_items_processed",
	Help: "Number of stream frames processed",
})

var itemsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "guardbot_consumer_items_dropped",
	Help: "Number of stream frames dropped by the flood guard",
})

var workersActive = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "guardbot_consumer_workers_active",
	Help: "Number of scheduler workers",
})
