package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ticksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "remindme",
			Name:      "scheduler_ticks_total",
			Help:      "Count of scheduling loop ticks executed.",
		},
	)

	tickErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "remindme",
			Name:      "scheduler_tick_errors_total",
			Help:      "Count of ticks that failed to read the reminder store.",
		},
	)

	consecutiveTickErrors = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "remindme",
			Name:      "scheduler_consecutive_tick_errors",
			Help:      "Consecutive failed ticks; resets to zero on the first healthy tick.",
		},
	)

	tickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "remindme",
			Name:      "scheduler_tick_duration_seconds",
			Help:      "Time spent executing one scheduling loop tick.",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 2, 5},
		},
	)

	remindersFired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "remindme",
			Name:      "reminders_fired_total",
			Help:      "Count of reminders whose alert fired and was acknowledged.",
		},
	)

	remindersDeactivated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "remindme",
			Name:      "reminders_deactivated_total",
			Help:      "Count of reminders deactivated by the engine, by reason.",
		},
		[]string{"reason"},
	)

	notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "remindme",
			Name:      "notifications_sent_total",
			Help:      "Count of per-contact notification attempts, by outcome.",
		},
		[]string{"status"},
	)

	webhookTriggers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "remindme",
			Name:      "webhook_triggers_total",
			Help:      "Count of external alert callbacks, by outcome.",
		},
		[]string{"status"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ticksTotal,
			tickErrors,
			consecutiveTickErrors,
			tickDuration,
			remindersFired,
			remindersDeactivated,
			notificationsSent,
			webhookTriggers,
		)
	})
}

func IncTick() {
	ticksTotal.Inc()
}

func IncTickError() {
	tickErrors.Inc()
}

func SetConsecutiveTickErrors(n int) {
	consecutiveTickErrors.Set(float64(n))
}

func ObserveTickDuration(seconds float64) {
	tickDuration.Observe(seconds)
}

func IncFired() {
	remindersFired.Inc()
}

func IncDeactivated(reason string) {
	remindersDeactivated.WithLabelValues(reason).Inc()
}

func IncNotificationSent(status string) {
	notificationsSent.WithLabelValues(status).Inc()
}

func IncWebhookTrigger(status string) {
	webhookTriggers.WithLabelValues(status).Inc()
}
