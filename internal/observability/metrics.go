package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	activityWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_tracker",
		Subsystem: "activities",
		Name:      "writes_total",
		Help:      "Number of committed activity writes grouped by operation.",
	}, []string{"op"})

	loginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_tracker",
		Subsystem: "auth",
		Name:      "login_attempts_total",
		Help:      "Number of login attempts grouped by outcome.",
	}, []string{"outcome"})

	activityPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "activity_tracker",
		Subsystem: "persistence",
		Name:      "last_activity_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity write committed to MySQL.",
	})

	eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_tracker",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Number of activity events handed to the broker grouped by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(activityWrites, loginAttempts, activityPersistGauge, eventsPublished)
}

// RecordActivityWrite counts a committed create, update or delete and moves
// the persistence watermark.
func RecordActivityWrite(op string, ts time.Time) {
	activityWrites.WithLabelValues(op).Inc()
	if ts.IsZero() {
		return
	}
	activityPersistGauge.Set(float64(ts.Unix()))
}

// RecordLogin counts a login attempt.  outcome is "success" or "invalid";
// inactive accounts are refused later, by the bearer middleware.
func RecordLogin(outcome string) {
	loginAttempts.WithLabelValues(outcome).Inc()
}

// RecordEventPublished counts a publish attempt.
func RecordEventPublished(err error) {
	if err != nil {
		eventsPublished.WithLabelValues("error").Inc()
		return
	}
	eventsPublished.WithLabelValues("ok").Inc()
}
