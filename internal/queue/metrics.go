package queue

import "github.com/prometheus/client_golang/prometheus"

var consumedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "activity_tracker",
	Subsystem: "consumer",
	Name:      "messages_consumed_total",
	Help:      "Number of activity events consumed grouped by result.",
}, []string{"result"})

func init() {
	prometheus.MustRegister(consumedCounter)
}

func recordConsumed(result string) {
	consumedCounter.WithLabelValues(result).Inc()
}
