package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	timerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dayplan",
		Subsystem: "timer",
		Name:      "transitions_total",
		Help:      "Timer transitions attempted, by action and result.",
	}, []string{"action", "result"})
	schedulesCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dayplan",
		Subsystem: "scheduler",
		Name:      "schedules_created_total",
		Help:      "Schedules planned, by origin (breakdown, manual, confirm).",
	}, []string{"origin"})
	plannedMinutes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dayplan",
		Subsystem: "scheduler",
		Name:      "planned_minutes",
		Help:      "Total planned minutes per schedule, breaks included.",
		Buckets:   []float64{30, 60, 120, 240, 360, 480, 720},
	})
	goalSourceFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dayplan",
		Subsystem: "goalsource",
		Name:      "failures_total",
		Help:      "Goal source calls that failed.",
	})
	autoCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dayplan",
		Subsystem: "sweeper",
		Name:      "auto_completed_total",
		Help:      "Items completed by the stale-item sweeper.",
	})
)

func init() {
	prometheus.MustRegister(timerTransitions, schedulesCreated, plannedMinutes, goalSourceFailures, autoCompleted)
}

// RecordTransition counts one timer operation; ok reports success.
func RecordTransition(action string, ok bool) {
	result := "ok"
	if !ok {
		result = "rejected"
	}
	timerTransitions.WithLabelValues(action, result).Inc()
}

// RecordSchedulePlanned tracks a freshly laid out schedule.
func RecordSchedulePlanned(origin string, totalMinutes int) {
	schedulesCreated.WithLabelValues(origin).Inc()
	plannedMinutes.Observe(float64(totalMinutes))
}

func RecordGoalSourceFailure() {
	goalSourceFailures.Inc()
}

func RecordAutoCompleted(n int) {
	if n <= 0 {
		return
	}
	autoCompleted.Add(float64(n))
}
